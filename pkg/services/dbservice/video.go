package dbservice

import (
	"errors"
	"time"

	"github.com/TaskTrial/realtime-server/pkg/dbmodels"
	"gorm.io/gorm"
)

func (s *DatabaseService) GetVideoSessionByID(sessionId string) (*dbmodels.VideoSession, error) {
	info := new(dbmodels.VideoSession)
	cond := &dbmodels.VideoSession{
		ID: sessionId,
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

func (s *DatabaseService) GetActiveSessionByChatRoomID(chatRoomId string) (*dbmodels.VideoSession, error) {
	info := new(dbmodels.VideoSession)
	cond := &dbmodels.VideoSession{
		ChatRoomID: chatRoomId,
		Status:     dbmodels.SessionActive,
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

func (s *DatabaseService) CreateVideoSession(session *dbmodels.VideoSession) error {
	return s.db.Create(session).Error
}

func (s *DatabaseService) UpdateVideoSessionStatus(sessionId string, status dbmodels.SessionStatus, endedAt *time.Time) error {
	update := map[string]interface{}{
		"status": status,
	}
	if status == dbmodels.SessionActive {
		update["started_at"] = time.Now().UTC()
	}
	if endedAt != nil {
		update["ended_at"] = *endedAt
	}

	result := s.db.Model(&dbmodels.VideoSession{}).Where("id = ?", sessionId).Updates(update)
	return result.Error
}

// TransferHost reassigns session.hostId and the HOST participant role in a
// single transaction so the two can never disagree.
func (s *DatabaseService) TransferHost(sessionId, fromUserId, toUserId string, demotedRole dbmodels.VideoRole) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&dbmodels.VideoSession{}).Where("id = ?", sessionId).
			Update("host_id", toUserId)
		if result.Error != nil {
			return result.Error
		}

		if fromUserId != "" && fromUserId != toUserId {
			result = tx.Model(&dbmodels.VideoParticipant{}).
				Where("session_id = ? AND user_id = ?", sessionId, fromUserId).
				Update("role", demotedRole)
			if result.Error != nil {
				return result.Error
			}
		}

		result = tx.Model(&dbmodels.VideoParticipant{}).
			Where("session_id = ? AND user_id = ?", sessionId, toUserId).
			Update("role", dbmodels.RoleHost)
		return result.Error
	})
}

func (s *DatabaseService) GetVideoParticipant(sessionId, userId string) (*dbmodels.VideoParticipant, error) {
	info := new(dbmodels.VideoParticipant)
	cond := &dbmodels.VideoParticipant{
		SessionID: sessionId,
		UserID:    userId,
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

func (s *DatabaseService) CreateVideoParticipant(p *dbmodels.VideoParticipant) error {
	return s.db.Create(p).Error
}

func (s *DatabaseService) UpdateVideoParticipant(p *dbmodels.VideoParticipant) error {
	update := map[string]interface{}{
		"role":      p.Role,
		"status":    p.Status,
		"joined_at": p.JoinedAt,
		"left_at":   p.LeftAt,
	}

	result := s.db.Model(&dbmodels.VideoParticipant{}).Where("id = ?", p.ID).Updates(update)
	return result.Error
}

// GetPresentParticipants returns admitted participants who have joined and
// not yet left, ordered by join time.
func (s *DatabaseService) GetPresentParticipants(sessionId string) ([]dbmodels.VideoParticipant, error) {
	var participants []dbmodels.VideoParticipant
	result := s.db.
		Where("session_id = ? AND status = ? AND joined_at IS NOT NULL AND left_at IS NULL",
			sessionId, dbmodels.ParticipantAdmitted).
		Order("joined_at asc").
		Find(&participants)
	if result.Error != nil {
		return nil, result.Error
	}

	return participants, nil
}

func (s *DatabaseService) GetWaitingParticipants(sessionId string) ([]dbmodels.VideoParticipant, error) {
	var participants []dbmodels.VideoParticipant
	cond := &dbmodels.VideoParticipant{
		SessionID: sessionId,
		Status:    dbmodels.ParticipantWaiting,
	}

	result := s.db.Where(cond).Find(&participants)
	if result.Error != nil {
		return nil, result.Error
	}

	return participants, nil
}
