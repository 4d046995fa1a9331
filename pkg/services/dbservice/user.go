package dbservice

import (
	"errors"

	"github.com/TaskTrial/realtime-server/pkg/dbmodels"
	"gorm.io/gorm"
)

func (s *DatabaseService) GetUserByID(userId string) (*dbmodels.User, error) {
	info := new(dbmodels.User)
	cond := &dbmodels.User{
		ID: userId,
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

func (s *DatabaseService) GetUserTeamIDs(userId string) ([]string, error) {
	var ids []string
	result := s.db.Model(&dbmodels.TeamMember{}).
		Where("user_id = ? AND is_active = ? AND deleted_at IS NULL", userId, true).
		Pluck("team_id", &ids)
	if result.Error != nil {
		return nil, result.Error
	}

	return ids, nil
}

func (s *DatabaseService) GetUserProjectIDs(userId string) ([]string, error) {
	var ids []string
	result := s.db.Model(&dbmodels.ProjectMember{}).
		Where("user_id = ? AND is_active = ? AND deleted_at IS NULL", userId, true).
		Pluck("project_id", &ids)
	if result.Error != nil {
		return nil, result.Error
	}

	return ids, nil
}
