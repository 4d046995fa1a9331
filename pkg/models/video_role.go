package models

import (
	"github.com/TaskTrial/realtime-server/pkg/config"
	"github.com/TaskTrial/realtime-server/pkg/dbmodels"
	"github.com/TaskTrial/realtime-server/pkg/services/wsservice"
)

type ChangeRoleReq struct {
	SessionID string             `json:"sessionId"`
	UserID    string             `json:"userId"`
	Role      dbmodels.VideoRole `json:"role"`
}

// ChangeRole reassigns a participant's role. Promoting to HOST demotes
// the prior host to COHOST and moves session.hostId in the same
// transaction; the current host's role can otherwise only be changed by
// promoting a successor first.
func (m *VideoModel) ChangeRole(su *SocketUser, req *ChangeRoleReq) error {
	if !dbmodels.ValidVideoRole(req.Role) {
		return conflictError(config.InvalidRoleRequested)
	}

	unlock := m.lockSession(req.SessionID)
	defer unlock()

	session, err := m.ds.GetVideoSessionByID(req.SessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return notFoundError(config.RequestedSessionNotExist)
	}

	if _, err = m.requireHostOrCoHost(session.ID, su.UserID); err != nil {
		return err
	}

	target, err := m.ds.GetVideoParticipant(session.ID, req.UserID)
	if err != nil {
		return err
	}
	if target == nil {
		return notFoundError(config.UserNotSessionParticipant)
	}

	hostId := session.HostID
	switch {
	case req.Role == dbmodels.RoleHost:
		if err = m.ds.TransferHost(session.ID, session.HostID, target.UserID, dbmodels.RoleCoHost); err != nil {
			return err
		}
		hostId = target.UserID
	case target.UserID == session.HostID:
		if su.UserID != session.HostID {
			return unauthorizedError(config.OnlyHostCanDemoteSelf)
		}
		return conflictError(config.HostMustPromoteFirst)
	default:
		target.Role = req.Role
		if err = m.ds.UpdateVideoParticipant(target); err != nil {
			return err
		}
	}

	return m.b.EmitToRoom(wsservice.VideoRoom(session.ID), config.EventVideoRoleChanged, &roleChangedPayload{
		SessionID: session.ID,
		UserID:    target.UserID,
		Role:      req.Role,
		HostID:    hostId,
	})
}
