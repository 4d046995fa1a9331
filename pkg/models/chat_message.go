package models

import (
	"time"

	"github.com/TaskTrial/realtime-server/pkg/config"
	"github.com/TaskTrial/realtime-server/pkg/dbmodels"
	"github.com/TaskTrial/realtime-server/pkg/services/wsservice"
	"github.com/google/uuid"
)

type SendMessageReq struct {
	ChatRoomID  string                      `json:"chatRoomId"`
	Content     string                      `json:"content"`
	ContentType dbmodels.MessageContentType `json:"contentType,omitempty"`
	ReplyToID   *string                     `json:"replyToId,omitempty"`
}

type EditMessageReq struct {
	MessageID string `json:"messageId"`
	Content   string `json:"content"`
}

type DeleteMessageReq struct {
	MessageID string `json:"messageId"`
}

type ReactionReq struct {
	MessageID string `json:"messageId"`
	Reaction  string `json:"reaction"`
}

type messageSender struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type chatMessagePayload struct {
	ID          string                      `json:"id"`
	ChatRoomID  string                      `json:"chatRoomId"`
	Content     string                      `json:"content"`
	ContentType dbmodels.MessageContentType `json:"contentType"`
	ReplyToID   *string                     `json:"replyToId,omitempty"`
	IsEdited    bool                        `json:"isEdited"`
	Sender      messageSender               `json:"sender"`
	CreatedAt   time.Time                   `json:"createdAt"`
}

type messageDeletedPayload struct {
	ID         string `json:"id"`
	ChatRoomID string `json:"chatRoomId"`
	DeletedBy  string `json:"deletedBy"`
}

type reactionPayload struct {
	MessageID  string `json:"messageId"`
	ChatRoomID string `json:"chatRoomId"`
	UserID     string `json:"userId"`
	Reaction   string `json:"reaction"`
	Removed    bool   `json:"removed"`
}

// SendMessage persists a message and fans it out to the room. The
// sender's own read pointer advances to the new message.
func (m *ChatModel) SendMessage(su *SocketUser, req *SendMessageReq) error {
	room, err := m.ds.GetChatRoomByID(req.ChatRoomID)
	if err != nil {
		return err
	}
	if room == nil {
		return notFoundError(config.RequestedRoomNotExist)
	}
	if !room.IsActive {
		return conflictError(config.ChatRoomNotActive)
	}

	if _, err = m.requireParticipant(room.ID, su.UserID); err != nil {
		return err
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = dbmodels.ContentTypeText
	}

	now := time.Now().UTC()
	msg := &dbmodels.ChatMessage{
		ID:          uuid.NewString(),
		ChatRoomID:  room.ID,
		SenderID:    su.UserID,
		Content:     req.Content,
		ContentType: contentType,
		ReplyToID:   req.ReplyToID,
		Created:     now,
	}
	if err = m.ds.CreateChatMessage(msg); err != nil {
		return err
	}

	if err = m.ds.UpdateChatRoomLastMessageAt(room.ID, now); err != nil {
		m.logger.WithError(err).Errorln("failed to update lastMessageAt")
	}
	if err = m.ds.UpdateParticipantLastRead(room.ID, su.UserID, &msg.ID, now); err != nil {
		m.logger.WithError(err).Errorln("failed to advance sender read pointer")
	}

	return m.b.EmitToRoom(wsservice.ChatRoom(room.ID), config.EventChatMessage, &chatMessagePayload{
		ID:          msg.ID,
		ChatRoomID:  msg.ChatRoomID,
		Content:     msg.Content,
		ContentType: msg.ContentType,
		ReplyToID:   msg.ReplyToID,
		Sender:      messageSender{ID: su.UserID, Name: su.Name},
		CreatedAt:   now,
	})
}

// EditMessage allows only the original sender to edit; deleted messages
// are immutable.
func (m *ChatModel) EditMessage(su *SocketUser, req *EditMessageReq) error {
	msg, err := m.ds.GetChatMessageByID(req.MessageID)
	if err != nil {
		return err
	}
	if msg == nil {
		return notFoundError(config.RequestedMessageNotExist)
	}
	if msg.IsDeleted {
		return conflictError(config.CanNotEditDeletedMessage)
	}
	if msg.SenderID != su.UserID {
		return unauthorizedError(config.OnlySenderCanEdit)
	}

	if err = m.ds.UpdateChatMessageContent(msg.ID, req.Content); err != nil {
		return err
	}

	return m.b.EmitToRoom(wsservice.ChatRoom(msg.ChatRoomID), config.EventChatMessageEdited, &chatMessagePayload{
		ID:          msg.ID,
		ChatRoomID:  msg.ChatRoomID,
		Content:     req.Content,
		ContentType: msg.ContentType,
		ReplyToID:   msg.ReplyToID,
		IsEdited:    true,
		Sender:      messageSender{ID: msg.SenderID, Name: su.Name},
		CreatedAt:   msg.Created,
	})
}

// DeleteMessage is a soft delete available to the sender or a room admin.
func (m *ChatModel) DeleteMessage(su *SocketUser, req *DeleteMessageReq) error {
	msg, err := m.ds.GetChatMessageByID(req.MessageID)
	if err != nil {
		return err
	}
	if msg == nil {
		return notFoundError(config.RequestedMessageNotExist)
	}

	participant, err := m.requireParticipant(msg.ChatRoomID, su.UserID)
	if err != nil {
		return err
	}
	if msg.SenderID != su.UserID && !participant.IsAdmin {
		return unauthorizedError(config.OnlySenderOrAdminCanDelete)
	}

	if err = m.ds.SoftDeleteChatMessage(msg.ID, config.DeletedMessagePlaceholder); err != nil {
		return err
	}

	return m.b.EmitToRoom(wsservice.ChatRoom(msg.ChatRoomID), config.EventChatMessageDeleted, &messageDeletedPayload{
		ID:         msg.ID,
		ChatRoomID: msg.ChatRoomID,
		DeletedBy:  su.UserID,
	})
}

// React toggles a reaction: a second identical (message, user, reaction)
// removes the first.
func (m *ChatModel) React(su *SocketUser, req *ReactionReq) error {
	msg, err := m.ds.GetChatMessageByID(req.MessageID)
	if err != nil {
		return err
	}
	if msg == nil {
		return notFoundError(config.RequestedMessageNotExist)
	}

	if _, err = m.requireParticipant(msg.ChatRoomID, su.UserID); err != nil {
		return err
	}

	existing, err := m.ds.GetMessageReaction(msg.ID, su.UserID, req.Reaction)
	if err != nil {
		return err
	}

	removed := false
	if existing != nil {
		if err = m.ds.DeleteMessageReaction(existing.ID); err != nil {
			return err
		}
		removed = true
	} else {
		err = m.ds.CreateMessageReaction(&dbmodels.MessageReaction{
			ID:        uuid.NewString(),
			MessageID: msg.ID,
			UserID:    su.UserID,
			Reaction:  req.Reaction,
		})
		if err != nil {
			return err
		}
	}

	return m.b.EmitToRoom(wsservice.ChatRoom(msg.ChatRoomID), config.EventChatReaction, &reactionPayload{
		MessageID:  msg.ID,
		ChatRoomID: msg.ChatRoomID,
		UserID:     su.UserID,
		Reaction:   req.Reaction,
		Removed:    removed,
	})
}
