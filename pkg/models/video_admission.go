package models

import (
	"time"

	"github.com/TaskTrial/realtime-server/pkg/config"
	"github.com/TaskTrial/realtime-server/pkg/dbmodels"
	"github.com/TaskTrial/realtime-server/pkg/services/wsservice"
)

type AdmissionReq struct {
	SessionID string `json:"sessionId"`
	UserID    string `json:"userId"`
}

type admissionPayload struct {
	SessionID string                     `json:"sessionId"`
	UserID    string                     `json:"userId"`
	Status    dbmodels.ParticipantStatus `json:"status"`
}

// Admit moves a WAITING participant to ADMITTED. Host or co-host only.
func (m *VideoModel) Admit(su *SocketUser, req *AdmissionReq) error {
	return m.resolveAdmission(su, req, true)
}

// Deny moves a WAITING participant to DENIED, which implies an immediate
// leave. A denied user needs a fresh join call to be considered again.
func (m *VideoModel) Deny(su *SocketUser, req *AdmissionReq) error {
	return m.resolveAdmission(su, req, false)
}

func (m *VideoModel) resolveAdmission(su *SocketUser, req *AdmissionReq, admit bool) error {
	unlock := m.lockSession(req.SessionID)
	defer unlock()

	session, err := m.ds.GetVideoSessionByID(req.SessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return notFoundError(config.RequestedSessionNotExist)
	}
	if session.Status == dbmodels.SessionEnded || session.Status == dbmodels.SessionCancelled {
		return conflictError(config.SessionNotJoinable)
	}

	if _, err = m.requireHostOrCoHost(session.ID, su.UserID); err != nil {
		return err
	}

	vp, err := m.ds.GetVideoParticipant(session.ID, req.UserID)
	if err != nil {
		return err
	}
	if vp == nil {
		return notFoundError(config.UserNotSessionParticipant)
	}
	if vp.Status != dbmodels.ParticipantWaiting {
		return conflictError(config.ParticipantNotWaiting)
	}

	now := time.Now().UTC()
	if admit {
		vp.Status = dbmodels.ParticipantAdmitted
		vp.JoinedAt = &now
		vp.LeftAt = nil
	} else {
		vp.Status = dbmodels.ParticipantDenied
		vp.LeftAt = &now
	}
	if err = m.ds.UpdateVideoParticipant(vp); err != nil {
		return err
	}

	// the pending host notification is cleared either way
	if err = m.rs.RemoveWaitingNotice(session.ID, req.UserID); err != nil {
		m.logger.WithError(err).Errorln("failed to clear waiting notice")
	}

	err = m.b.EmitToUser(req.UserID, config.EventVideoAdmissionUpdate, &admissionPayload{
		SessionID: session.ID,
		UserID:    req.UserID,
		Status:    vp.Status,
	})
	if err != nil {
		m.logger.WithError(err).Errorln("failed to notify admission update")
	}

	if admit {
		return m.b.EmitToRoom(wsservice.VideoRoom(session.ID), config.EventParticipantJoined, &participantPayload{
			SessionID: session.ID,
			UserID:    req.UserID,
			Role:      vp.Role,
		})
	}
	return nil
}
