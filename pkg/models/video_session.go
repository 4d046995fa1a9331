package models

import (
	"sync"
	"time"

	"github.com/TaskTrial/realtime-server/pkg/config"
	"github.com/TaskTrial/realtime-server/pkg/dbmodels"
	"github.com/TaskTrial/realtime-server/pkg/services/wsservice"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const meetingURLBase = "https://meet.tasktrial.app/"

type VideoModel struct {
	app    *config.AppConfig
	ds     Datastore
	rs     Presence
	b      Broadcaster
	logger *logrus.Entry

	// per-session mutexes serialize multi-step transitions (join, leave,
	// admission, role transfer, recording) within this process. Races
	// across processes remain possible; state is re-read under the lock
	// before every mutation. Entries live for the process lifetime so a
	// waiter blocked on a session's mutex and a later caller always
	// contend on the same one.
	lmu   sync.Mutex
	locks map[string]*sync.Mutex
}

func NewVideoModel(app *config.AppConfig, ds Datastore, rs Presence, b Broadcaster) *VideoModel {
	if app == nil {
		app = config.GetConfig()
	}
	return &VideoModel{
		app:    app,
		ds:     ds,
		rs:     rs,
		b:      b,
		logger: app.Logger.WithField("model", "video"),
		locks:  make(map[string]*sync.Mutex),
	}
}

func (m *VideoModel) lockSession(sessionId string) func() {
	m.lmu.Lock()
	l, ok := m.locks[sessionId]
	if !ok {
		l = new(sync.Mutex)
		m.locks[sessionId] = l
	}
	m.lmu.Unlock()

	l.Lock()
	return l.Unlock
}

type CreateSessionReq struct {
	ChatRoomID        string `json:"chatRoomId"`
	Name              string `json:"name,omitempty"`
	EnableWaitingRoom bool   `json:"enableWaitingRoom"`
	MaxParticipants   int    `json:"maxParticipants,omitempty"`
	AllowRecording    *bool  `json:"allowRecording,omitempty"`
}

type VideoSessionReq struct {
	SessionID string `json:"sessionId"`
}

type sessionPayload struct {
	SessionID         string                 `json:"sessionId"`
	ChatRoomID        string                 `json:"chatRoomId"`
	HostID            string                 `json:"hostId"`
	MeetingURL        string                 `json:"meetingUrl"`
	Status            dbmodels.SessionStatus `json:"status"`
	EnableWaitingRoom bool                   `json:"enableWaitingRoom"`
}

type participantPayload struct {
	SessionID string             `json:"sessionId"`
	UserID    string             `json:"userId"`
	Name      string             `json:"name,omitempty"`
	Role      dbmodels.VideoRole `json:"role"`
}

type waitingNoticePayload struct {
	SessionID       string `json:"sessionId"`
	ParticipantID   string `json:"participantId"`
	ParticipantName string `json:"participantName"`
}

type roleChangedPayload struct {
	SessionID string             `json:"sessionId"`
	UserID    string             `json:"userId"`
	Role      dbmodels.VideoRole `json:"role"`
	HostID    string             `json:"hostId"`
}

type sessionEndedPayload struct {
	SessionID  string    `json:"sessionId"`
	ChatRoomID string    `json:"chatRoomId"`
	EndedAt    time.Time `json:"endedAt"`
}

// requireSessionParticipant verifies the user belongs to the session and
// is currently admitted and present.
func (m *VideoModel) requireSessionParticipant(sessionId, userId string) (*dbmodels.VideoParticipant, error) {
	vp, err := m.ds.GetVideoParticipant(sessionId, userId)
	if err != nil {
		return nil, err
	}
	if vp == nil || !vp.Present() {
		return nil, unauthorizedError(config.UserNotSessionParticipant)
	}
	return vp, nil
}

// requireHostOrCoHost authorizes session-management actions.
func (m *VideoModel) requireHostOrCoHost(sessionId, userId string) (*dbmodels.VideoParticipant, error) {
	vp, err := m.ds.GetVideoParticipant(sessionId, userId)
	if err != nil {
		return nil, err
	}
	if vp == nil || (vp.Role != dbmodels.RoleHost && vp.Role != dbmodels.RoleCoHost) {
		return nil, unauthorizedError(config.OnlyHostOrCoHostCanRequest)
	}
	return vp, nil
}

// CreateSession starts an ACTIVE session for a chat room with the creator
// as HOST, and announces it with a SYSTEM chat message.
func (m *VideoModel) CreateSession(su *SocketUser, req *CreateSessionReq) (*dbmodels.VideoSession, error) {
	room, err := m.ds.GetChatRoomByID(req.ChatRoomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, notFoundError(config.RequestedRoomNotExist)
	}

	participant, err := m.ds.GetChatParticipant(room.ID, su.UserID)
	if err != nil {
		return nil, err
	}
	if participant == nil || !participant.IsActive {
		return nil, unauthorizedError(config.UserNotRoomParticipant)
	}

	active, err := m.ds.GetActiveSessionByChatRoomID(room.ID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, conflictError(config.ActiveSessionAlreadyExists)
	}

	allowRecording := true
	if req.AllowRecording != nil {
		allowRecording = *req.AllowRecording
	}

	now := time.Now().UTC()
	session := &dbmodels.VideoSession{
		ID:                uuid.NewString(),
		ChatRoomID:        room.ID,
		HostID:            su.UserID,
		MeetingURL:        meetingURLBase + uuid.NewString(),
		Status:            dbmodels.SessionActive,
		EnableWaitingRoom: req.EnableWaitingRoom,
		MaxParticipants:   req.MaxParticipants,
		AllowRecording:    allowRecording,
		StartedAt:         &now,
	}
	if err = m.ds.CreateVideoSession(session); err != nil {
		return nil, err
	}

	host := &dbmodels.VideoParticipant{
		ID:        uuid.NewString(),
		SessionID: session.ID,
		UserID:    su.UserID,
		Role:      dbmodels.RoleHost,
		Status:    dbmodels.ParticipantAdmitted,
		JoinedAt:  &now,
	}
	if err = m.ds.CreateVideoParticipant(host); err != nil {
		return nil, err
	}

	// creation also arrives over REST, where no socket connection exists
	if su.ConnID != "" {
		m.b.JoinRoom(su.ConnID, wsservice.VideoRoom(session.ID))
	}

	m.announceSession(su, room.ID, now)

	err = m.b.EmitToRoom(wsservice.ChatRoom(room.ID), config.EventVideoCreated, &sessionPayload{
		SessionID:         session.ID,
		ChatRoomID:        room.ID,
		HostID:            session.HostID,
		MeetingURL:        session.MeetingURL,
		Status:            session.Status,
		EnableWaitingRoom: session.EnableWaitingRoom,
	})
	if err != nil {
		m.logger.WithError(err).Errorln("failed to broadcast session creation")
	}

	return session, nil
}

// announceSession posts the SYSTEM message into the owning chat room.
func (m *VideoModel) announceSession(su *SocketUser, roomId string, now time.Time) {
	msg := &dbmodels.ChatMessage{
		ID:          uuid.NewString(),
		ChatRoomID:  roomId,
		SenderID:    su.UserID,
		Content:     su.Name + " started a video session",
		ContentType: dbmodels.ContentTypeSystem,
		Created:     now,
	}
	if err := m.ds.CreateChatMessage(msg); err != nil {
		m.logger.WithError(err).Errorln("failed to persist session announcement")
		return
	}
	if err := m.ds.UpdateChatRoomLastMessageAt(roomId, now); err != nil {
		m.logger.WithError(err).Errorln("failed to update lastMessageAt")
	}

	err := m.b.EmitToRoom(wsservice.ChatRoom(roomId), config.EventChatMessage, &chatMessagePayload{
		ID:          msg.ID,
		ChatRoomID:  roomId,
		Content:     msg.Content,
		ContentType: msg.ContentType,
		Sender:      messageSender{ID: su.UserID, Name: su.Name},
		CreatedAt:   now,
	})
	if err != nil {
		m.logger.WithError(err).Errorln("failed to broadcast session announcement")
	}
}

// Join admits the user directly or parks them in the waiting room,
// depending on the session settings. Re-joining reuses the existing row.
func (m *VideoModel) Join(su *SocketUser, req *VideoSessionReq) error {
	unlock := m.lockSession(req.SessionID)
	defer unlock()

	session, err := m.ds.GetVideoSessionByID(req.SessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return notFoundError(config.RequestedSessionNotExist)
	}
	if session.Status == dbmodels.SessionEnded || session.Status == dbmodels.SessionCancelled {
		return conflictError(config.SessionNotJoinable)
	}

	// chat-room membership is the precondition for any video action
	participant, err := m.ds.GetChatParticipant(session.ChatRoomID, su.UserID)
	if err != nil {
		return err
	}
	if participant == nil || !participant.IsActive {
		return unauthorizedError(config.UserNotRoomParticipant)
	}

	isHost := session.HostID == su.UserID
	vp, err := m.ds.GetVideoParticipant(session.ID, su.UserID)
	if err != nil {
		return err
	}

	// once admitted, a returning participant is not re-gated
	gated := session.EnableWaitingRoom && !isHost &&
		(vp == nil || vp.Status != dbmodels.ParticipantAdmitted)

	if !gated {
		present, err := m.ds.GetPresentParticipants(session.ID)
		if err != nil {
			return err
		}
		if session.MaxParticipants > 0 && len(present) >= session.MaxParticipants {
			return conflictError(config.SessionFull)
		}
	}

	now := time.Now().UTC()
	if vp == nil {
		vp = &dbmodels.VideoParticipant{
			ID:        uuid.NewString(),
			SessionID: session.ID,
			UserID:    su.UserID,
			Role:      dbmodels.RoleAttendee,
			Status:    dbmodels.ParticipantAdmitted,
		}
		if isHost {
			vp.Role = dbmodels.RoleHost
		}
		if gated {
			vp.Status = dbmodels.ParticipantWaiting
		} else {
			vp.JoinedAt = &now
		}
		if err = m.ds.CreateVideoParticipant(vp); err != nil {
			return err
		}
	} else {
		vp.LeftAt = nil
		if gated {
			vp.Status = dbmodels.ParticipantWaiting
			vp.JoinedAt = nil
		} else {
			vp.Status = dbmodels.ParticipantAdmitted
			vp.JoinedAt = &now
		}
		if err = m.ds.UpdateVideoParticipant(vp); err != nil {
			return err
		}
	}

	if gated {
		if err = m.rs.AddWaitingNotice(session.ID, su.UserID); err != nil {
			m.logger.WithError(err).Errorln("failed to record waiting notice")
		}
		return m.b.EmitToUser(session.HostID, config.EventVideoWaitingUser, &waitingNoticePayload{
			SessionID:       session.ID,
			ParticipantID:   su.UserID,
			ParticipantName: su.Name,
		})
	}

	if session.Status == dbmodels.SessionScheduled && isHost {
		if err = m.ds.UpdateVideoSessionStatus(session.ID, dbmodels.SessionActive, nil); err != nil {
			return err
		}
	}

	if su.ConnID != "" {
		m.b.JoinRoom(su.ConnID, wsservice.VideoRoom(session.ID))
	}

	return m.b.EmitToRoom(wsservice.VideoRoom(session.ID), config.EventParticipantJoined, &participantPayload{
		SessionID: session.ID,
		UserID:    su.UserID,
		Name:      su.Name,
		Role:      vp.Role,
	})
}

// Leave records the departure and, when the host leaves, either promotes
// a successor or ends the session if nobody admitted remains.
func (m *VideoModel) Leave(su *SocketUser, req *VideoSessionReq) error {
	unlock := m.lockSession(req.SessionID)
	defer unlock()

	session, err := m.ds.GetVideoSessionByID(req.SessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return notFoundError(config.RequestedSessionNotExist)
	}

	vp, err := m.ds.GetVideoParticipant(session.ID, su.UserID)
	if err != nil {
		return err
	}
	if vp == nil {
		return notFoundError(config.UserNotSessionParticipant)
	}

	now := time.Now().UTC()
	vp.LeftAt = &now
	if err = m.ds.UpdateVideoParticipant(vp); err != nil {
		return err
	}

	m.b.LeaveRoom(su.ConnID, wsservice.VideoRoom(session.ID))

	err = m.b.EmitToRoom(wsservice.VideoRoom(session.ID), config.EventParticipantLeft, &participantPayload{
		SessionID: session.ID,
		UserID:    su.UserID,
		Role:      vp.Role,
	})
	if err != nil {
		m.logger.WithError(err).Errorln("failed to broadcast departure")
	}

	if session.HostID != su.UserID || session.Status != dbmodels.SessionActive {
		return nil
	}

	// re-read after our own write so the departed host is excluded
	present, err := m.ds.GetPresentParticipants(session.ID)
	if err != nil {
		return err
	}

	if len(present) == 0 {
		return m.endSession(session, now, true)
	}

	// prefer a co-host, else the earliest joined of those still present
	successor := present[0]
	for _, p := range present {
		if p.Role == dbmodels.RoleCoHost {
			successor = p
			break
		}
	}

	if err = m.ds.TransferHost(session.ID, su.UserID, successor.UserID, dbmodels.RoleAttendee); err != nil {
		return err
	}

	return m.b.EmitToRoom(wsservice.VideoRoom(session.ID), config.EventVideoRoleChanged, &roleChangedPayload{
		SessionID: session.ID,
		UserID:    successor.UserID,
		Role:      dbmodels.RoleHost,
		HostID:    successor.UserID,
	})
}

func (m *VideoModel) endSession(session *dbmodels.VideoSession, now time.Time, byHost bool) error {
	if err := m.ds.UpdateVideoSessionStatus(session.ID, dbmodels.SessionEnded, &now); err != nil {
		return err
	}

	if err := m.rs.ClearWaitingNotices(session.ID); err != nil {
		m.logger.WithError(err).Errorln("failed to clear waiting notices")
	}

	payload := &sessionEndedPayload{
		SessionID:  session.ID,
		ChatRoomID: session.ChatRoomID,
		EndedAt:    now,
	}
	if byHost {
		if err := m.b.EmitToRoom(wsservice.VideoRoom(session.ID), config.EventVideoEndedByHost, payload); err != nil {
			m.logger.WithError(err).Errorln("failed to broadcast session end")
		}
	}
	return m.b.EmitToRoom(wsservice.ChatRoom(session.ChatRoomID), config.EventVideoEnded, payload)
}
