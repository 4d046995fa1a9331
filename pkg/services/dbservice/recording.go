package dbservice

import (
	"errors"
	"time"

	"github.com/TaskTrial/realtime-server/pkg/dbmodels"
	"gorm.io/gorm"
)

// GetActiveRecording returns the in-progress recording of the session,
// identified by end_time being unset.
func (s *DatabaseService) GetActiveRecording(sessionId string) (*dbmodels.VideoRecording, error) {
	info := new(dbmodels.VideoRecording)

	result := s.db.Where("session_id = ? AND end_time IS NULL", sessionId).Take(info)
	switch {
	case errors.Is(result.Error, gorm.ErrRecordNotFound):
		return nil, nil
	case result.Error != nil:
		return nil, result.Error
	}

	return info, nil
}

func (s *DatabaseService) CreateVideoRecording(r *dbmodels.VideoRecording) error {
	return s.db.Create(r).Error
}

func (s *DatabaseService) EndVideoRecording(recordingId string, endTime time.Time, durationSeconds int64, status dbmodels.RecordingStatus) error {
	update := map[string]interface{}{
		"end_time":          endTime,
		"duration_seconds":  durationSeconds,
		"processing_status": status,
	}

	result := s.db.Model(&dbmodels.VideoRecording{}).Where("id = ?", recordingId).Updates(update)
	return result.Error
}

func (s *DatabaseService) GetRecordingsBySessionID(sessionId string) ([]dbmodels.VideoRecording, error) {
	var recordings []dbmodels.VideoRecording
	cond := &dbmodels.VideoRecording{
		SessionID: sessionId,
	}

	result := s.db.Where(cond).Order("start_time asc").Find(&recordings)
	if result.Error != nil {
		return nil, result.Error
	}

	return recordings, nil
}
