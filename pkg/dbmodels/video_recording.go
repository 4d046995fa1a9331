package dbmodels

import (
	"time"

	"github.com/TaskTrial/realtime-server/pkg/config"
)

type RecordingStatus string

const (
	RecordingProcessing RecordingStatus = "PROCESSING"
	RecordingCompleted  RecordingStatus = "COMPLETED"
	RecordingFailed     RecordingStatus = "FAILED"
)

type RecordingVisibility string

const (
	VisibilityPrivate          RecordingVisibility = "PRIVATE"
	VisibilityParticipantsOnly RecordingVisibility = "PARTICIPANTS_ONLY"
	VisibilityOrganization     RecordingVisibility = "ORGANIZATION"
	VisibilityPublic           RecordingVisibility = "PUBLIC"
)

// VideoRecording with EndTime unset is in progress; at most one such
// row may exist per session at a time.
type VideoRecording struct {
	ID               string              `gorm:"column:id;type:char(36);primaryKey"`
	SessionID        string              `gorm:"column:session_id;type:char(36);not null;index:idx_recording_session"`
	RecordedBy       string              `gorm:"column:recorded_by;type:char(36);not null"`
	StartTime        time.Time           `gorm:"column:start_time;type:datetime;not null"`
	EndTime          *time.Time          `gorm:"column:end_time;type:datetime"`
	DurationSeconds  int64               `gorm:"column:duration_seconds;not null;default:0"`
	ProcessingStatus RecordingStatus     `gorm:"column:processing_status;type:varchar(20);not null;default:'PROCESSING'"`
	Visibility       RecordingVisibility `gorm:"column:visibility;type:varchar(30);not null;default:'PARTICIPANTS_ONLY'"`
	Created          time.Time           `gorm:"column:created;type:datetime;not null;autoCreateTime"`
	Modified         time.Time           `gorm:"column:modified;type:datetime;not null;autoUpdateTime"`
}

func (m *VideoRecording) TableName() string {
	return config.FormatDBTable("video_recordings")
}
