package dbmodels

import (
	"time"

	"github.com/TaskTrial/realtime-server/pkg/config"
)

// User rows are owned by the account CRUD service; this server only reads them.
type User struct {
	ID             string     `gorm:"column:id;type:char(36);primaryKey"`
	FirstName      string     `gorm:"column:first_name;type:varchar(100);not null"`
	LastName       string     `gorm:"column:last_name;type:varchar(100);not null"`
	Email          string     `gorm:"column:email;type:varchar(255);not null;uniqueIndex:idx_email"`
	OrganizationID string     `gorm:"column:organization_id;type:char(36);index:idx_user_org"`
	IsActive       bool       `gorm:"column:is_active;not null;default:1"`
	DeletedAt      *time.Time `gorm:"column:deleted_at;type:datetime"`
	Created        time.Time  `gorm:"column:created;type:datetime;not null;autoCreateTime"`
}

func (m *User) TableName() string {
	return config.FormatDBTable("users")
}

// FullName is used when announcing a user to a room.
func (m *User) FullName() string {
	return m.FirstName + " " + m.LastName
}

type TeamMember struct {
	ID        string     `gorm:"column:id;type:char(36);primaryKey"`
	TeamID    string     `gorm:"column:team_id;type:char(36);not null;uniqueIndex:idx_team_user"`
	UserID    string     `gorm:"column:user_id;type:char(36);not null;uniqueIndex:idx_team_user"`
	IsActive  bool       `gorm:"column:is_active;not null;default:1"`
	DeletedAt *time.Time `gorm:"column:deleted_at;type:datetime"`
}

func (m *TeamMember) TableName() string {
	return config.FormatDBTable("team_members")
}

type ProjectMember struct {
	ID        string     `gorm:"column:id;type:char(36);primaryKey"`
	ProjectID string     `gorm:"column:project_id;type:char(36);not null;uniqueIndex:idx_project_user"`
	UserID    string     `gorm:"column:user_id;type:char(36);not null;uniqueIndex:idx_project_user"`
	IsActive  bool       `gorm:"column:is_active;not null;default:1"`
	DeletedAt *time.Time `gorm:"column:deleted_at;type:datetime"`
}

func (m *ProjectMember) TableName() string {
	return config.FormatDBTable("project_members")
}
