package models

import (
	"sort"
	"sync"
	"time"

	"github.com/TaskTrial/realtime-server/pkg/config"
	"github.com/TaskTrial/realtime-server/pkg/dbmodels"
	"github.com/TaskTrial/realtime-server/pkg/services/wsservice"
	"github.com/sirupsen/logrus"
)

// fakeDatastore keeps everything in maps so model behavior can be
// exercised without a database.
type fakeDatastore struct {
	mu sync.Mutex

	users      map[string]*dbmodels.User
	teamIds    map[string][]string
	projectIds map[string][]string

	chatRooms        map[string]*dbmodels.ChatRoom
	chatParticipants map[string]*dbmodels.ChatParticipant
	chatMessages     map[string]*dbmodels.ChatMessage
	reactions        map[string]*dbmodels.MessageReaction

	sessions          map[string]*dbmodels.VideoSession
	videoParticipants map[string]*dbmodels.VideoParticipant
	recordings        map[string]*dbmodels.VideoRecording

	failCreateMessage error
}

func newFakeDatastore() *fakeDatastore {
	return &fakeDatastore{
		users:             make(map[string]*dbmodels.User),
		teamIds:           make(map[string][]string),
		projectIds:        make(map[string][]string),
		chatRooms:         make(map[string]*dbmodels.ChatRoom),
		chatParticipants:  make(map[string]*dbmodels.ChatParticipant),
		chatMessages:      make(map[string]*dbmodels.ChatMessage),
		reactions:         make(map[string]*dbmodels.MessageReaction),
		sessions:          make(map[string]*dbmodels.VideoSession),
		videoParticipants: make(map[string]*dbmodels.VideoParticipant),
		recordings:        make(map[string]*dbmodels.VideoRecording),
	}
}

func pairKey(a, b string) string { return a + "|" + b }

func (f *fakeDatastore) GetUserByID(userId string) (*dbmodels.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[userId], nil
}

func (f *fakeDatastore) GetUserTeamIDs(userId string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.teamIds[userId], nil
}

func (f *fakeDatastore) GetUserProjectIDs(userId string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.projectIds[userId], nil
}

func (f *fakeDatastore) GetChatRoomByID(roomId string) (*dbmodels.ChatRoom, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.chatRooms[roomId], nil
}

func (f *fakeDatastore) GetChatParticipant(roomId, userId string) (*dbmodels.ChatParticipant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.chatParticipants[pairKey(roomId, userId)], nil
}

func (f *fakeDatastore) UpdateParticipantLastRead(roomId, userId string, messageId *string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.chatParticipants[pairKey(roomId, userId)]; ok {
		if messageId != nil {
			p.LastReadMessageID = messageId
		}
		p.LastReadAt = &at
	}
	return nil
}

func (f *fakeDatastore) CreateChatMessage(msg *dbmodels.ChatMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreateMessage != nil {
		return f.failCreateMessage
	}
	f.chatMessages[msg.ID] = msg
	return nil
}

func (f *fakeDatastore) GetChatMessageByID(messageId string) (*dbmodels.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.chatMessages[messageId], nil
}

func (f *fakeDatastore) UpdateChatMessageContent(messageId, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg, ok := f.chatMessages[messageId]; ok {
		msg.Content = content
		msg.IsEdited = true
	}
	return nil
}

func (f *fakeDatastore) SoftDeleteChatMessage(messageId, placeholder string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg, ok := f.chatMessages[messageId]; ok {
		msg.Content = placeholder
		msg.IsDeleted = true
	}
	return nil
}

func (f *fakeDatastore) UpdateChatRoomLastMessageAt(roomId string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if room, ok := f.chatRooms[roomId]; ok {
		room.LastMessageAt = &at
	}
	return nil
}

func (f *fakeDatastore) GetMessageReaction(messageId, userId, reaction string) (*dbmodels.MessageReaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reactions {
		if r.MessageID == messageId && r.UserID == userId && r.Reaction == reaction {
			return r, nil
		}
	}
	return nil, nil
}

func (f *fakeDatastore) CreateMessageReaction(r *dbmodels.MessageReaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reactions[r.ID] = r
	return nil
}

func (f *fakeDatastore) DeleteMessageReaction(reactionId string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.reactions, reactionId)
	return nil
}

func (f *fakeDatastore) GetVideoSessionByID(sessionId string) (*dbmodels.VideoSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessions[sessionId], nil
}

func (f *fakeDatastore) GetActiveSessionByChatRoomID(chatRoomId string) (*dbmodels.VideoSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if s.ChatRoomID == chatRoomId && s.Status == dbmodels.SessionActive {
			return s, nil
		}
	}
	return nil, nil
}

func (f *fakeDatastore) CreateVideoSession(session *dbmodels.VideoSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[session.ID] = session
	return nil
}

func (f *fakeDatastore) UpdateVideoSessionStatus(sessionId string, status dbmodels.SessionStatus, endedAt *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sessions[sessionId]; ok {
		s.Status = status
		if endedAt != nil {
			s.EndedAt = endedAt
		}
	}
	return nil
}

func (f *fakeDatastore) TransferHost(sessionId, fromUserId, toUserId string, demotedRole dbmodels.VideoRole) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[sessionId]
	if !ok {
		return nil
	}
	if old, ok := f.videoParticipants[pairKey(sessionId, fromUserId)]; ok {
		old.Role = demotedRole
	}
	if next, ok := f.videoParticipants[pairKey(sessionId, toUserId)]; ok {
		next.Role = dbmodels.RoleHost
	}
	s.HostID = toUserId
	return nil
}

func (f *fakeDatastore) GetVideoParticipant(sessionId, userId string) (*dbmodels.VideoParticipant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.videoParticipants[pairKey(sessionId, userId)], nil
}

func (f *fakeDatastore) CreateVideoParticipant(p *dbmodels.VideoParticipant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.videoParticipants[pairKey(p.SessionID, p.UserID)] = p
	return nil
}

func (f *fakeDatastore) UpdateVideoParticipant(p *dbmodels.VideoParticipant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.videoParticipants[pairKey(p.SessionID, p.UserID)] = p
	return nil
}

func (f *fakeDatastore) GetPresentParticipants(sessionId string) ([]dbmodels.VideoParticipant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var present []dbmodels.VideoParticipant
	for _, p := range f.videoParticipants {
		if p.SessionID == sessionId && p.Present() {
			present = append(present, *p)
		}
	}
	sort.Slice(present, func(i, j int) bool {
		return present[i].JoinedAt.Before(*present[j].JoinedAt)
	})
	return present, nil
}

func (f *fakeDatastore) GetWaitingParticipants(sessionId string) ([]dbmodels.VideoParticipant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var waiting []dbmodels.VideoParticipant
	for _, p := range f.videoParticipants {
		if p.SessionID == sessionId && p.Status == dbmodels.ParticipantWaiting {
			waiting = append(waiting, *p)
		}
	}
	return waiting, nil
}

func (f *fakeDatastore) GetActiveRecording(sessionId string) (*dbmodels.VideoRecording, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.recordings {
		if r.SessionID == sessionId && r.EndTime == nil {
			return r, nil
		}
	}
	return nil, nil
}

func (f *fakeDatastore) CreateVideoRecording(r *dbmodels.VideoRecording) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recordings[r.ID] = r
	return nil
}

func (f *fakeDatastore) EndVideoRecording(recordingId string, endTime time.Time, durationSeconds int64, status dbmodels.RecordingStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.recordings[recordingId]; ok {
		r.EndTime = &endTime
		r.DurationSeconds = durationSeconds
		r.ProcessingStatus = status
	}
	return nil
}

func (f *fakeDatastore) GetRecordingsBySessionID(sessionId string) ([]dbmodels.VideoRecording, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []dbmodels.VideoRecording
	for _, r := range f.recordings {
		if r.SessionID == sessionId {
			out = append(out, *r)
		}
	}
	return out, nil
}

var _ Datastore = (*fakeDatastore)(nil)

// emittedEvent captures one broadcast so tests can assert on fan-out.
type emittedEvent struct {
	Room    wsservice.RoomKey
	Conn    string
	Exclude string
	Event   string
	Payload interface{}
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	rooms  map[wsservice.RoomKey]map[string]struct{}
	conns  map[string]map[wsservice.RoomKey]struct{}
	events []emittedEvent
}

func newFakeBroadcaster() *fakeBroadcaster {
	return &fakeBroadcaster{
		rooms: make(map[wsservice.RoomKey]map[string]struct{}),
		conns: make(map[string]map[wsservice.RoomKey]struct{}),
	}
}

func (f *fakeBroadcaster) JoinRoom(connId string, key wsservice.RoomKey) {
	if connId == "" {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rooms[key]; !ok {
		f.rooms[key] = make(map[string]struct{})
	}
	f.rooms[key][connId] = struct{}{}
	if _, ok := f.conns[connId]; !ok {
		f.conns[connId] = make(map[wsservice.RoomKey]struct{})
	}
	f.conns[connId][key] = struct{}{}
}

func (f *fakeBroadcaster) LeaveRoom(connId string, key wsservice.RoomKey) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rooms[key], connId)
	delete(f.conns[connId], key)
}

func (f *fakeBroadcaster) LeaveAllRooms(connId string) []wsservice.RoomKey {
	f.mu.Lock()
	defer f.mu.Unlock()
	var left []wsservice.RoomKey
	for key := range f.conns[connId] {
		left = append(left, key)
		delete(f.rooms[key], connId)
	}
	delete(f.conns, connId)
	return left
}

func (f *fakeBroadcaster) InRoom(connId string, key wsservice.RoomKey) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.rooms[key][connId]
	return ok
}

func (f *fakeBroadcaster) EmitToRoom(key wsservice.RoomKey, event string, payload interface{}) error {
	f.record(emittedEvent{Room: key, Event: event, Payload: payload})
	return nil
}

func (f *fakeBroadcaster) EmitToRoomExcept(key wsservice.RoomKey, exceptConnId, event string, payload interface{}) error {
	f.record(emittedEvent{Room: key, Exclude: exceptConnId, Event: event, Payload: payload})
	return nil
}

func (f *fakeBroadcaster) EmitToUser(userId string, event string, payload interface{}) error {
	f.record(emittedEvent{Room: wsservice.UserRoom(userId), Event: event, Payload: payload})
	return nil
}

func (f *fakeBroadcaster) EmitToConn(connId string, event string, payload interface{}) error {
	f.record(emittedEvent{Conn: connId, Event: event, Payload: payload})
	return nil
}

func (f *fakeBroadcaster) record(e emittedEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
}

// eventsNamed returns the recorded broadcasts with the given event name.
func (f *fakeBroadcaster) eventsNamed(event string) []emittedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []emittedEvent
	for _, e := range f.events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

var _ Broadcaster = (*fakeBroadcaster)(nil)

type fakePresence struct {
	mu      sync.Mutex
	online  map[string]map[string]struct{}
	waiting map[string]map[string]struct{}
}

func newFakePresence() *fakePresence {
	return &fakePresence{
		online:  make(map[string]map[string]struct{}),
		waiting: make(map[string]map[string]struct{}),
	}
}

func (f *fakePresence) MarkUserOnline(userId, connId string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.online[userId]; !ok {
		f.online[userId] = make(map[string]struct{})
	}
	f.online[userId][connId] = struct{}{}
	return len(f.online[userId]) == 1, nil
}

func (f *fakePresence) MarkUserOffline(userId, connId string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.online[userId], connId)
	return len(f.online[userId]) == 0, nil
}

func (f *fakePresence) IsUserOnline(userId string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.online[userId]) > 0, nil
}

func (f *fakePresence) AddWaitingNotice(sessionId, userId string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.waiting[sessionId]; !ok {
		f.waiting[sessionId] = make(map[string]struct{})
	}
	f.waiting[sessionId][userId] = struct{}{}
	return nil
}

func (f *fakePresence) RemoveWaitingNotice(sessionId, userId string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.waiting[sessionId], userId)
	return nil
}

func (f *fakePresence) GetWaitingNotices(sessionId string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for userId := range f.waiting[sessionId] {
		out = append(out, userId)
	}
	return out, nil
}

func (f *fakePresence) ClearWaitingNotices(sessionId string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.waiting, sessionId)
	return nil
}

var _ Presence = (*fakePresence)(nil)

// testEnv bundles the fakes and models most tests need.
type testEnv struct {
	app   *config.AppConfig
	ds    *fakeDatastore
	b     *fakeBroadcaster
	rs    *fakePresence
	chat  *ChatModel
	video *VideoModel
}

func newTestEnv() *testEnv {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	app := &config.AppConfig{Logger: logger}
	ds := newFakeDatastore()
	b := newFakeBroadcaster()
	rs := newFakePresence()

	return &testEnv{
		app:   app,
		ds:    ds,
		b:     b,
		rs:    rs,
		chat:  NewChatModel(app, ds, b),
		video: NewVideoModel(app, ds, rs, b),
	}
}

func (e *testEnv) addUser(id, first, last, orgId string) *dbmodels.User {
	u := &dbmodels.User{
		ID:             id,
		FirstName:      first,
		LastName:       last,
		Email:          id + "@example.com",
		OrganizationID: orgId,
		IsActive:       true,
	}
	e.ds.users[id] = u
	return u
}

func (e *testEnv) addChatRoom(id string, active bool) *dbmodels.ChatRoom {
	room := &dbmodels.ChatRoom{
		ID:       id,
		Name:     "room " + id,
		Type:     dbmodels.ChatRoomTypeGroup,
		IsActive: active,
	}
	e.ds.chatRooms[id] = room
	return room
}

func (e *testEnv) addChatParticipant(roomId, userId string, admin bool) *dbmodels.ChatParticipant {
	p := &dbmodels.ChatParticipant{
		ID:         roomId + "-" + userId,
		ChatRoomID: roomId,
		UserID:     userId,
		IsAdmin:    admin,
		IsActive:   true,
	}
	e.ds.chatParticipants[pairKey(roomId, userId)] = p
	return p
}

func su(connId, userId, name string) *SocketUser {
	return &SocketUser{ConnID: connId, UserID: userId, Name: name}
}
