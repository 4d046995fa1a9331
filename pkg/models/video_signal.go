package models

import (
	"time"

	"github.com/TaskTrial/realtime-server/pkg/config"
	"github.com/TaskTrial/realtime-server/pkg/services/wsservice"
	"github.com/goccy/go-json"
)

// SignalReq carries WebRTC negotiation data. The server never inspects
// Data, it is relayed verbatim to the target peer or the whole room.
type SignalReq struct {
	SessionID string          `json:"sessionId"`
	Target    *string         `json:"target,omitempty"`
	Data      json.RawMessage `json:"data"`
}

type MediaStatusReq struct {
	SessionID    string `json:"sessionId"`
	AudioEnabled bool   `json:"audioEnabled"`
	VideoEnabled bool   `json:"videoEnabled"`
}

type ConnectionQualityReq struct {
	SessionID string `json:"sessionId"`
	Quality   string `json:"quality"`
}

type ScreenSharingReq struct {
	SessionID string `json:"sessionId"`
	Sharing   bool   `json:"sharing"`
}

type VideoSessionMessageReq struct {
	SessionID string `json:"sessionId"`
	Content   string `json:"content"`
}

type signalPayload struct {
	SessionID string          `json:"sessionId"`
	From      string          `json:"from"`
	Data      json.RawMessage `json:"data"`
}

type mediaStatusPayload struct {
	SessionID    string `json:"sessionId"`
	UserID       string `json:"userId"`
	AudioEnabled bool   `json:"audioEnabled"`
	VideoEnabled bool   `json:"videoEnabled"`
}

type connectionQualityPayload struct {
	SessionID string `json:"sessionId"`
	UserID    string `json:"userId"`
	Quality   string `json:"quality"`
}

type presenterRequestPayload struct {
	SessionID string `json:"sessionId"`
	UserID    string `json:"userId"`
	Name      string `json:"name"`
}

type screenSharingPayload struct {
	SessionID string `json:"sessionId"`
	UserID    string `json:"userId"`
	Sharing   bool   `json:"sharing"`
}

type videoChatPayload struct {
	SessionID string    `json:"sessionId"`
	From      string    `json:"from"`
	Name      string    `json:"name"`
	Content   string    `json:"content"`
	SentAt    time.Time `json:"sentAt"`
}

// Signal relays negotiation data to a single peer when Target is set,
// otherwise to every other participant in the session room.
func (m *VideoModel) Signal(su *SocketUser, req *SignalReq) error {
	if _, err := m.requireSessionParticipant(req.SessionID, su.UserID); err != nil {
		return err
	}

	payload := &signalPayload{
		SessionID: req.SessionID,
		From:      su.UserID,
		Data:      req.Data,
	}
	if req.Target != nil {
		return m.b.EmitToUser(*req.Target, config.EventSignal, payload)
	}
	return m.b.EmitToRoomExcept(wsservice.VideoRoom(req.SessionID), su.ConnID, config.EventSignal, payload)
}

func (m *VideoModel) UpdateMediaStatus(su *SocketUser, req *MediaStatusReq) error {
	if _, err := m.requireSessionParticipant(req.SessionID, su.UserID); err != nil {
		return err
	}
	return m.b.EmitToRoomExcept(wsservice.VideoRoom(req.SessionID), su.ConnID, config.EventMediaStatusUpdate, &mediaStatusPayload{
		SessionID:    req.SessionID,
		UserID:       su.UserID,
		AudioEnabled: req.AudioEnabled,
		VideoEnabled: req.VideoEnabled,
	})
}

func (m *VideoModel) UpdateConnectionQuality(su *SocketUser, req *ConnectionQualityReq) error {
	if _, err := m.requireSessionParticipant(req.SessionID, su.UserID); err != nil {
		return err
	}
	return m.b.EmitToRoomExcept(wsservice.VideoRoom(req.SessionID), su.ConnID, config.EventConnectionQualityUpdate, &connectionQualityPayload{
		SessionID: req.SessionID,
		UserID:    su.UserID,
		Quality:   req.Quality,
	})
}

// RequestPresenterRole notifies the current host that a participant wants
// to present. Granting the role goes through ChangeRole.
func (m *VideoModel) RequestPresenterRole(su *SocketUser, req *VideoSessionReq) error {
	if _, err := m.requireSessionParticipant(req.SessionID, su.UserID); err != nil {
		return err
	}
	session, err := m.ds.GetVideoSessionByID(req.SessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return notFoundError(config.RequestedSessionNotExist)
	}
	return m.b.EmitToUser(session.HostID, config.EventPresenterRoleRequest, &presenterRequestPayload{
		SessionID: req.SessionID,
		UserID:    su.UserID,
		Name:      su.Name,
	})
}

func (m *VideoModel) UpdateScreenSharing(su *SocketUser, req *ScreenSharingReq) error {
	if _, err := m.requireSessionParticipant(req.SessionID, su.UserID); err != nil {
		return err
	}
	return m.b.EmitToRoomExcept(wsservice.VideoRoom(req.SessionID), su.ConnID, config.EventScreenSharingUpdate, &screenSharingPayload{
		SessionID: req.SessionID,
		UserID:    su.UserID,
		Sharing:   req.Sharing,
	})
}

// SendVideoMessage relays an in-call chat line to the session room.
// These messages are ephemeral and never written to the database.
func (m *VideoModel) SendVideoMessage(su *SocketUser, req *VideoSessionMessageReq) error {
	if _, err := m.requireSessionParticipant(req.SessionID, su.UserID); err != nil {
		return err
	}
	return m.b.EmitToRoom(wsservice.VideoRoom(req.SessionID), config.EventVideoChatMessage, &videoChatPayload{
		SessionID: req.SessionID,
		From:      su.UserID,
		Name:      su.Name,
		Content:   req.Content,
		SentAt:    time.Now().UTC(),
	})
}
