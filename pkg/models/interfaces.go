package models

import (
	"time"

	"github.com/TaskTrial/realtime-server/pkg/dbmodels"
	"github.com/TaskTrial/realtime-server/pkg/services/dbservice"
	"github.com/TaskTrial/realtime-server/pkg/services/redisservice"
	"github.com/TaskTrial/realtime-server/pkg/services/wsservice"
)

// Datastore is the slice of the persistence layer this package consumes.
// *dbservice.DatabaseService is the production implementation; tests use
// an in-memory fake.
type Datastore interface {
	GetUserByID(userId string) (*dbmodels.User, error)
	GetUserTeamIDs(userId string) ([]string, error)
	GetUserProjectIDs(userId string) ([]string, error)

	GetChatRoomByID(roomId string) (*dbmodels.ChatRoom, error)
	GetChatParticipant(roomId, userId string) (*dbmodels.ChatParticipant, error)
	UpdateParticipantLastRead(roomId, userId string, messageId *string, at time.Time) error
	CreateChatMessage(msg *dbmodels.ChatMessage) error
	GetChatMessageByID(messageId string) (*dbmodels.ChatMessage, error)
	UpdateChatMessageContent(messageId, content string) error
	SoftDeleteChatMessage(messageId, placeholder string) error
	UpdateChatRoomLastMessageAt(roomId string, at time.Time) error
	GetMessageReaction(messageId, userId, reaction string) (*dbmodels.MessageReaction, error)
	CreateMessageReaction(r *dbmodels.MessageReaction) error
	DeleteMessageReaction(reactionId string) error

	GetVideoSessionByID(sessionId string) (*dbmodels.VideoSession, error)
	GetActiveSessionByChatRoomID(chatRoomId string) (*dbmodels.VideoSession, error)
	CreateVideoSession(session *dbmodels.VideoSession) error
	UpdateVideoSessionStatus(sessionId string, status dbmodels.SessionStatus, endedAt *time.Time) error
	TransferHost(sessionId, fromUserId, toUserId string, demotedRole dbmodels.VideoRole) error
	GetVideoParticipant(sessionId, userId string) (*dbmodels.VideoParticipant, error)
	CreateVideoParticipant(p *dbmodels.VideoParticipant) error
	UpdateVideoParticipant(p *dbmodels.VideoParticipant) error
	GetPresentParticipants(sessionId string) ([]dbmodels.VideoParticipant, error)
	GetWaitingParticipants(sessionId string) ([]dbmodels.VideoParticipant, error)

	GetActiveRecording(sessionId string) (*dbmodels.VideoRecording, error)
	CreateVideoRecording(r *dbmodels.VideoRecording) error
	EndVideoRecording(recordingId string, endTime time.Time, durationSeconds int64, status dbmodels.RecordingStatus) error
	GetRecordingsBySessionID(sessionId string) ([]dbmodels.VideoRecording, error)
}

var _ Datastore = (*dbservice.DatabaseService)(nil)

// Broadcaster fans events out to subscribed connections. It is injected
// rather than accessed as a process-wide singleton.
type Broadcaster interface {
	JoinRoom(connId string, key wsservice.RoomKey)
	LeaveRoom(connId string, key wsservice.RoomKey)
	LeaveAllRooms(connId string) []wsservice.RoomKey
	InRoom(connId string, key wsservice.RoomKey) bool
	EmitToRoom(key wsservice.RoomKey, event string, payload interface{}) error
	EmitToRoomExcept(key wsservice.RoomKey, exceptConnId, event string, payload interface{}) error
	EmitToUser(userId string, event string, payload interface{}) error
	EmitToConn(connId string, event string, payload interface{}) error
}

var _ Broadcaster = (*wsservice.WsService)(nil)

// Presence tracks ephemeral per-user and per-session state in Redis.
type Presence interface {
	MarkUserOnline(userId, connId string) (bool, error)
	MarkUserOffline(userId, connId string) (bool, error)
	IsUserOnline(userId string) (bool, error)
	AddWaitingNotice(sessionId, userId string) error
	RemoveWaitingNotice(sessionId, userId string) error
	GetWaitingNotices(sessionId string) ([]string, error)
	ClearWaitingNotices(sessionId string) error
}

var _ Presence = (*redisservice.RedisService)(nil)
