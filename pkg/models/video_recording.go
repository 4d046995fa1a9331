package models

import (
	"time"

	"github.com/TaskTrial/realtime-server/pkg/config"
	"github.com/TaskTrial/realtime-server/pkg/dbmodels"
	"github.com/TaskTrial/realtime-server/pkg/services/wsservice"
	"github.com/google/uuid"
)

type StartRecordingReq struct {
	SessionID  string                        `json:"sessionId"`
	Visibility *dbmodels.RecordingVisibility `json:"visibility,omitempty"`
}

type StopRecordingReq struct {
	SessionID       string `json:"sessionId"`
	DurationSeconds *int64 `json:"durationSeconds,omitempty"`
}

type recordingPayload struct {
	SessionID       string     `json:"sessionId"`
	RecordingID     string     `json:"recordingId"`
	RecordedBy      string     `json:"recordedBy"`
	StartTime       time.Time  `json:"startTime"`
	EndTime         *time.Time `json:"endTime,omitempty"`
	DurationSeconds int64      `json:"durationSeconds,omitempty"`
}

// StartRecording opens a recording row with endTime unset. At most one
// in-progress recording may exist per session.
func (m *VideoModel) StartRecording(su *SocketUser, req *StartRecordingReq) (*dbmodels.VideoRecording, error) {
	unlock := m.lockSession(req.SessionID)
	defer unlock()

	session, err := m.ds.GetVideoSessionByID(req.SessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, notFoundError(config.RequestedSessionNotExist)
	}
	if session.Status != dbmodels.SessionActive {
		return nil, conflictError(config.SessionNotJoinable)
	}
	if !session.AllowRecording {
		return nil, conflictError(config.RecordingNotAllowed)
	}

	if _, err = m.requireHostOrCoHost(session.ID, su.UserID); err != nil {
		return nil, err
	}

	active, err := m.ds.GetActiveRecording(session.ID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, conflictError(config.RecordingAlreadyInProgress)
	}

	visibility := dbmodels.VisibilityParticipantsOnly
	if req.Visibility != nil {
		visibility = *req.Visibility
	}

	rec := &dbmodels.VideoRecording{
		ID:               uuid.NewString(),
		SessionID:        session.ID,
		RecordedBy:       su.UserID,
		StartTime:        time.Now().UTC(),
		ProcessingStatus: dbmodels.RecordingProcessing,
		Visibility:       visibility,
	}
	if err = m.ds.CreateVideoRecording(rec); err != nil {
		return nil, err
	}

	err = m.b.EmitToRoom(wsservice.VideoRoom(session.ID), config.EventVideoRecordingStarted, &recordingPayload{
		SessionID:   session.ID,
		RecordingID: rec.ID,
		RecordedBy:  rec.RecordedBy,
		StartTime:   rec.StartTime,
	})
	if err != nil {
		m.logger.WithError(err).Errorln("failed to broadcast recording start")
	}

	return rec, nil
}

// StopRecording closes the in-progress recording. Duration defaults to
// the elapsed wall-clock time when the caller does not supply it.
func (m *VideoModel) StopRecording(su *SocketUser, req *StopRecordingReq) (*dbmodels.VideoRecording, error) {
	unlock := m.lockSession(req.SessionID)
	defer unlock()

	session, err := m.ds.GetVideoSessionByID(req.SessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, notFoundError(config.RequestedSessionNotExist)
	}

	if _, err = m.requireHostOrCoHost(session.ID, su.UserID); err != nil {
		return nil, err
	}

	rec, err := m.ds.GetActiveRecording(session.ID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, notFoundError(config.NoActiveRecordingFound)
	}

	now := time.Now().UTC()
	duration := int64(now.Sub(rec.StartTime).Seconds())
	if req.DurationSeconds != nil {
		duration = *req.DurationSeconds
	}

	if err = m.ds.EndVideoRecording(rec.ID, now, duration, dbmodels.RecordingCompleted); err != nil {
		return nil, err
	}
	rec.EndTime = &now
	rec.DurationSeconds = duration
	rec.ProcessingStatus = dbmodels.RecordingCompleted

	err = m.b.EmitToRoom(wsservice.VideoRoom(session.ID), config.EventVideoRecordingStopped, &recordingPayload{
		SessionID:       session.ID,
		RecordingID:     rec.ID,
		RecordedBy:      rec.RecordedBy,
		StartTime:       rec.StartTime,
		EndTime:         rec.EndTime,
		DurationSeconds: duration,
	})
	if err != nil {
		m.logger.WithError(err).Errorln("failed to broadcast recording stop")
	}

	return rec, nil
}
