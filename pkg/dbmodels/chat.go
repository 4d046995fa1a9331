package dbmodels

import (
	"time"

	"github.com/TaskTrial/realtime-server/pkg/config"
)

type ChatRoomType string

const (
	ChatRoomTypeDirect  ChatRoomType = "DIRECT"
	ChatRoomTypeGroup   ChatRoomType = "GROUP"
	ChatRoomTypeTeam    ChatRoomType = "TEAM"
	ChatRoomTypeProject ChatRoomType = "PROJECT"
)

type MessageContentType string

const (
	ContentTypeText   MessageContentType = "TEXT"
	ContentTypeSystem MessageContentType = "SYSTEM"
	ContentTypeImage  MessageContentType = "IMAGE"
	ContentTypeFile   MessageContentType = "FILE"
)

type ChatRoom struct {
	ID            string       `gorm:"column:id;type:char(36);primaryKey"`
	Name          string       `gorm:"column:name;type:varchar(255);not null"`
	Type          ChatRoomType `gorm:"column:type;type:varchar(20);not null;default:'GROUP'"`
	IsActive      bool         `gorm:"column:is_active;not null;default:1"`
	LastMessageAt *time.Time   `gorm:"column:last_message_at;type:datetime"`
	Created       time.Time    `gorm:"column:created;type:datetime;not null;autoCreateTime"`
	Modified      time.Time    `gorm:"column:modified;type:datetime;not null;autoUpdateTime"`
}

func (m *ChatRoom) TableName() string {
	return config.FormatDBTable("chat_rooms")
}

// ChatParticipant rows are never physically deleted, only status-flagged.
type ChatParticipant struct {
	ID                string     `gorm:"column:id;type:char(36);primaryKey"`
	ChatRoomID        string     `gorm:"column:chat_room_id;type:char(36);not null;uniqueIndex:idx_room_user"`
	UserID            string     `gorm:"column:user_id;type:char(36);not null;uniqueIndex:idx_room_user"`
	IsAdmin           bool       `gorm:"column:is_admin;not null;default:0"`
	IsActive          bool       `gorm:"column:is_active;not null;default:1"`
	LastReadMessageID *string    `gorm:"column:last_read_message_id;type:char(36)"`
	LastReadAt        *time.Time `gorm:"column:last_read_at;type:datetime"`
	Created           time.Time  `gorm:"column:created;type:datetime;not null;autoCreateTime"`
}

func (m *ChatParticipant) TableName() string {
	return config.FormatDBTable("chat_participants")
}

type ChatMessage struct {
	ID          string             `gorm:"column:id;type:char(36);primaryKey"`
	ChatRoomID  string             `gorm:"column:chat_room_id;type:char(36);not null;index:idx_msg_room"`
	SenderID    string             `gorm:"column:sender_id;type:char(36);not null"`
	Content     string             `gorm:"column:content;type:text;not null"`
	ContentType MessageContentType `gorm:"column:content_type;type:varchar(20);not null;default:'TEXT'"`
	ReplyToID   *string            `gorm:"column:reply_to_id;type:char(36)"`
	IsEdited    bool               `gorm:"column:is_edited;not null;default:0"`
	IsDeleted   bool               `gorm:"column:is_deleted;not null;default:0"`
	Created     time.Time          `gorm:"column:created;type:datetime;not null;autoCreateTime"`
	Modified    time.Time          `gorm:"column:modified;type:datetime;not null;autoUpdateTime"`
}

func (m *ChatMessage) TableName() string {
	return config.FormatDBTable("chat_messages")
}

type MessageReaction struct {
	ID        string    `gorm:"column:id;type:char(36);primaryKey"`
	MessageID string    `gorm:"column:message_id;type:char(36);not null;uniqueIndex:idx_msg_user_reaction"`
	UserID    string    `gorm:"column:user_id;type:char(36);not null;uniqueIndex:idx_msg_user_reaction"`
	Reaction  string    `gorm:"column:reaction;type:varchar(50);not null;uniqueIndex:idx_msg_user_reaction"`
	Created   time.Time `gorm:"column:created;type:datetime;not null;autoCreateTime"`
}

func (m *MessageReaction) TableName() string {
	return config.FormatDBTable("message_reactions")
}
