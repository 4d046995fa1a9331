package models

import (
	"time"

	"github.com/TaskTrial/realtime-server/pkg/config"
	"github.com/TaskTrial/realtime-server/pkg/dbmodels"
	"github.com/TaskTrial/realtime-server/pkg/services/wsservice"
	"github.com/sirupsen/logrus"
)

type ChatModel struct {
	app    *config.AppConfig
	ds     Datastore
	b      Broadcaster
	logger *logrus.Entry
}

func NewChatModel(app *config.AppConfig, ds Datastore, b Broadcaster) *ChatModel {
	if app == nil {
		app = config.GetConfig()
	}
	return &ChatModel{
		app:    app,
		ds:     ds,
		b:      b,
		logger: app.Logger.WithField("model", "chat"),
	}
}

type ChatRoomReq struct {
	ChatRoomID string `json:"chatRoomId"`
}

type TypingReq struct {
	ChatRoomID string `json:"chatRoomId"`
	IsTyping   bool   `json:"isTyping"`
}

type ReadReceiptReq struct {
	ChatRoomID string `json:"chatRoomId"`
	MessageID  string `json:"messageId"`
}

type chatPresencePayload struct {
	ChatRoomID string `json:"chatRoomId"`
	UserID     string `json:"userId"`
	Name       string `json:"name"`
}

type typingPayload struct {
	ChatRoomID string `json:"chatRoomId"`
	UserID     string `json:"userId"`
	Name       string `json:"name"`
	IsTyping   bool   `json:"isTyping"`
}

type readReceiptPayload struct {
	ChatRoomID        string    `json:"chatRoomId"`
	UserID            string    `json:"userId"`
	LastReadMessageID string    `json:"lastReadMessageId"`
	LastReadAt        time.Time `json:"lastReadAt"`
}

// requireParticipant is the membership precondition checked before every
// chat or video action for a (room, user) pair.
func (m *ChatModel) requireParticipant(roomId, userId string) (*dbmodels.ChatParticipant, error) {
	participant, err := m.ds.GetChatParticipant(roomId, userId)
	if err != nil {
		return nil, err
	}
	if participant == nil || !participant.IsActive {
		return nil, unauthorizedError(config.UserNotRoomParticipant)
	}
	return participant, nil
}

func (m *ChatModel) Join(su *SocketUser, req *ChatRoomReq) error {
	room, err := m.ds.GetChatRoomByID(req.ChatRoomID)
	if err != nil {
		return err
	}
	if room == nil {
		return notFoundError(config.RequestedRoomNotExist)
	}

	if _, err = m.requireParticipant(room.ID, su.UserID); err != nil {
		return err
	}

	m.b.JoinRoom(su.ConnID, wsservice.ChatRoom(room.ID))

	if err = m.ds.UpdateParticipantLastRead(room.ID, su.UserID, nil, time.Now().UTC()); err != nil {
		m.logger.WithError(err).Errorln("failed to update lastReadAt on join")
	}

	return m.b.EmitToRoom(wsservice.ChatRoom(room.ID), config.EventChatUserJoined, &chatPresencePayload{
		ChatRoomID: room.ID,
		UserID:     su.UserID,
		Name:       su.Name,
	})
}

func (m *ChatModel) Leave(su *SocketUser, req *ChatRoomReq) error {
	key := wsservice.ChatRoom(req.ChatRoomID)
	m.b.LeaveRoom(su.ConnID, key)

	return m.b.EmitToRoom(key, config.EventChatUserLeft, &chatPresencePayload{
		ChatRoomID: req.ChatRoomID,
		UserID:     su.UserID,
		Name:       su.Name,
	})
}

// Typing is ephemeral; nothing is persisted, peers are notified immediately.
func (m *ChatModel) Typing(su *SocketUser, req *TypingReq) error {
	if _, err := m.requireParticipant(req.ChatRoomID, su.UserID); err != nil {
		return err
	}

	return m.b.EmitToRoomExcept(wsservice.ChatRoom(req.ChatRoomID), su.ConnID, config.EventChatTyping, &typingPayload{
		ChatRoomID: req.ChatRoomID,
		UserID:     su.UserID,
		Name:       su.Name,
		IsTyping:   req.IsTyping,
	})
}

// MarkRead updates the participant's read pointer and broadcasts the
// receipt so peers can render read state.
func (m *ChatModel) MarkRead(su *SocketUser, req *ReadReceiptReq) error {
	if _, err := m.requireParticipant(req.ChatRoomID, su.UserID); err != nil {
		return err
	}

	msg, err := m.ds.GetChatMessageByID(req.MessageID)
	if err != nil {
		return err
	}
	if msg == nil || msg.ChatRoomID != req.ChatRoomID {
		return notFoundError(config.RequestedMessageNotExist)
	}

	now := time.Now().UTC()
	if err = m.ds.UpdateParticipantLastRead(req.ChatRoomID, su.UserID, &req.MessageID, now); err != nil {
		return err
	}

	return m.b.EmitToRoom(wsservice.ChatRoom(req.ChatRoomID), config.EventChatRead, &readReceiptPayload{
		ChatRoomID:        req.ChatRoomID,
		UserID:            su.UserID,
		LastReadMessageID: req.MessageID,
		LastReadAt:        now,
	})
}
