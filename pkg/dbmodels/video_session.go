package dbmodels

import (
	"time"

	"github.com/TaskTrial/realtime-server/pkg/config"
)

type SessionStatus string

const (
	SessionScheduled SessionStatus = "SCHEDULED"
	SessionActive    SessionStatus = "ACTIVE"
	SessionEnded     SessionStatus = "ENDED"
	SessionCancelled SessionStatus = "CANCELLED"
)

type VideoRole string

const (
	RoleHost      VideoRole = "HOST"
	RoleCoHost    VideoRole = "COHOST"
	RolePresenter VideoRole = "PRESENTER"
	RoleAttendee  VideoRole = "ATTENDEE"
)

// ValidVideoRole reports whether r is one of the assignable participant roles.
func ValidVideoRole(r VideoRole) bool {
	switch r {
	case RoleHost, RoleCoHost, RolePresenter, RoleAttendee:
		return true
	}
	return false
}

type ParticipantStatus string

const (
	ParticipantWaiting  ParticipantStatus = "WAITING"
	ParticipantAdmitted ParticipantStatus = "ADMITTED"
	ParticipantDenied   ParticipantStatus = "DENIED"
)

type VideoSession struct {
	ID                string        `gorm:"column:id;type:char(36);primaryKey"`
	ChatRoomID        string        `gorm:"column:chat_room_id;type:char(36);not null;index:idx_session_room"`
	HostID            string        `gorm:"column:host_id;type:char(36);not null"`
	MeetingURL        string        `gorm:"column:meeting_url;type:varchar(255);not null;uniqueIndex:idx_meeting_url"`
	Status            SessionStatus `gorm:"column:status;type:varchar(20);not null;default:'SCHEDULED'"`
	EnableWaitingRoom bool          `gorm:"column:enable_waiting_room;not null;default:0"`
	MaxParticipants   int           `gorm:"column:max_participants;not null;default:0"`
	AllowRecording    bool          `gorm:"column:allow_recording;not null;default:1"`
	StartedAt         *time.Time    `gorm:"column:started_at;type:datetime"`
	EndedAt           *time.Time    `gorm:"column:ended_at;type:datetime"`
	Created           time.Time     `gorm:"column:created;type:datetime;not null;autoCreateTime"`
	Modified          time.Time     `gorm:"column:modified;type:datetime;not null;autoUpdateTime"`
}

func (m *VideoSession) TableName() string {
	return config.FormatDBTable("video_sessions")
}

// VideoParticipant keeps one row per (session, user); a user re-joining
// after leaving reuses the row with leftAt cleared.
type VideoParticipant struct {
	ID        string            `gorm:"column:id;type:char(36);primaryKey"`
	SessionID string            `gorm:"column:session_id;type:char(36);not null;uniqueIndex:idx_session_user"`
	UserID    string            `gorm:"column:user_id;type:char(36);not null;uniqueIndex:idx_session_user"`
	Role      VideoRole         `gorm:"column:role;type:varchar(20);not null;default:'ATTENDEE'"`
	Status    ParticipantStatus `gorm:"column:status;type:varchar(20);not null;default:'WAITING'"`
	JoinedAt  *time.Time        `gorm:"column:joined_at;type:datetime"`
	LeftAt    *time.Time        `gorm:"column:left_at;type:datetime"`
	Created   time.Time         `gorm:"column:created;type:datetime;not null;autoCreateTime"`
	Modified  time.Time         `gorm:"column:modified;type:datetime;not null;autoUpdateTime"`
}

func (m *VideoParticipant) TableName() string {
	return config.FormatDBTable("video_participants")
}

// Present reports whether the participant is admitted and currently in the session.
func (m *VideoParticipant) Present() bool {
	return m.Status == ParticipantAdmitted && m.JoinedAt != nil && m.LeftAt == nil
}
