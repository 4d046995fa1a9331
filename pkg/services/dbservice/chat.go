package dbservice

import (
	"errors"
	"time"

	"github.com/TaskTrial/realtime-server/pkg/dbmodels"
	"gorm.io/gorm"
)

func (s *DatabaseService) GetChatRoomByID(roomId string) (*dbmodels.ChatRoom, error) {
	info := new(dbmodels.ChatRoom)
	cond := &dbmodels.ChatRoom{
		ID: roomId,
	}

	result := s.db.Where(cond).Take(info)
	switch {
	case errors.Is(result.Error, gorm.ErrRecordNotFound):
		return nil, nil
	case result.Error != nil:
		return nil, result.Error
	}

	return info, nil
}

func (s *DatabaseService) GetChatParticipant(roomId, userId string) (*dbmodels.ChatParticipant, error) {
	info := new(dbmodels.ChatParticipant)
	cond := &dbmodels.ChatParticipant{
		ChatRoomID: roomId,
		UserID:     userId,
	}

	result := s.db.Where(cond).Take(info)
	switch {
	case errors.Is(result.Error, gorm.ErrRecordNotFound):
		return nil, nil
	case result.Error != nil:
		return nil, result.Error
	}

	return info, nil
}

func (s *DatabaseService) UpdateParticipantLastRead(roomId, userId string, messageId *string, at time.Time) error {
	update := map[string]interface{}{
		"last_read_at": at,
	}
	if messageId != nil {
		update["last_read_message_id"] = *messageId
	}

	cond := &dbmodels.ChatParticipant{
		ChatRoomID: roomId,
		UserID:     userId,
	}
	result := s.db.Model(&dbmodels.ChatParticipant{}).Where(cond).Updates(update)
	return result.Error
}

func (s *DatabaseService) CreateChatMessage(msg *dbmodels.ChatMessage) error {
	return s.db.Create(msg).Error
}

func (s *DatabaseService) GetChatMessageByID(messageId string) (*dbmodels.ChatMessage, error) {
	info := new(dbmodels.ChatMessage)
	cond := &dbmodels.ChatMessage{
		ID: messageId,
	}

	result := s.db.Where(cond).Take(info)
	switch {
	case errors.Is(result.Error, gorm.ErrRecordNotFound):
		return nil, nil
	case result.Error != nil:
		return nil, result.Error
	}

	return info, nil
}

func (s *DatabaseService) UpdateChatMessageContent(messageId, content string) error {
	update := map[string]interface{}{
		"content":   content,
		"is_edited": true,
	}

	result := s.db.Model(&dbmodels.ChatMessage{}).Where("id = ?", messageId).Updates(update)
	return result.Error
}

// SoftDeleteChatMessage replaces the content with the given placeholder
// and flags the row; the row itself is kept for auditability.
func (s *DatabaseService) SoftDeleteChatMessage(messageId, placeholder string) error {
	update := map[string]interface{}{
		"content":    placeholder,
		"is_deleted": true,
	}

	result := s.db.Model(&dbmodels.ChatMessage{}).Where("id = ?", messageId).Updates(update)
	return result.Error
}

func (s *DatabaseService) UpdateChatRoomLastMessageAt(roomId string, at time.Time) error {
	result := s.db.Model(&dbmodels.ChatRoom{}).Where("id = ?", roomId).
		Update("last_message_at", at)
	return result.Error
}

func (s *DatabaseService) GetMessageReaction(messageId, userId, reaction string) (*dbmodels.MessageReaction, error) {
	info := new(dbmodels.MessageReaction)
	cond := &dbmodels.MessageReaction{
		MessageID: messageId,
		UserID:    userId,
		Reaction:  reaction,
	}

	result := s.db.Where(cond).Take(info)
	switch {
	case errors.Is(result.Error, gorm.ErrRecordNotFound):
		return nil, nil
	case result.Error != nil:
		return nil, result.Error
	}

	return info, nil
}

func (s *DatabaseService) CreateMessageReaction(r *dbmodels.MessageReaction) error {
	return s.db.Create(r).Error
}

func (s *DatabaseService) DeleteMessageReaction(reactionId string) error {
	result := s.db.Where("id = ?", reactionId).Delete(&dbmodels.MessageReaction{})
	return result.Error
}
