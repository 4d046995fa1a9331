package models

import (
	"sync"
	"testing"
	"time"

	"github.com/TaskTrial/realtime-server/pkg/config"
	"github.com/TaskTrial/realtime-server/pkg/dbmodels"
	"github.com/TaskTrial/realtime-server/pkg/services/wsservice"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startSession creates an ACTIVE session hosted by hostId in roomId,
// with every listed user registered as a chat participant.
func startSession(t *testing.T, env *testEnv, roomId, hostId string, waitingRoom bool, members ...string) *dbmodels.VideoSession {
	t.Helper()
	env.addChatRoom(roomId, true)
	env.addChatParticipant(roomId, hostId, true)
	for _, m := range members {
		env.addChatParticipant(roomId, m, false)
	}

	session, err := env.video.CreateSession(su("conn-"+hostId, hostId, hostId), &CreateSessionReq{
		ChatRoomID:        roomId,
		EnableWaitingRoom: waitingRoom,
	})
	require.NoError(t, err)
	return session
}

func TestCreateSessionSingleActivePerRoom(t *testing.T) {
	env := newTestEnv()
	session := startSession(t, env, "room-1", "alice", false, "bob")

	assert.Equal(t, dbmodels.SessionActive, session.Status)
	assert.Equal(t, "alice", session.HostID)
	assert.Contains(t, session.MeetingURL, "https://meet.tasktrial.app/")

	// creator is a present HOST participant
	vp, _ := env.ds.GetVideoParticipant(session.ID, "alice")
	require.NotNil(t, vp)
	assert.Equal(t, dbmodels.RoleHost, vp.Role)
	assert.True(t, vp.Present())

	// the room got a SYSTEM announcement and a video:created event
	assert.Len(t, env.b.eventsNamed(config.EventVideoCreated), 1)
	found := false
	for _, msg := range env.ds.chatMessages {
		if msg.ContentType == dbmodels.ContentTypeSystem {
			found = true
		}
	}
	assert.True(t, found)

	// a second active session for the same room is refused
	_, err := env.video.CreateSession(su("conn-bob", "bob", "bob"), &CreateSessionReq{ChatRoomID: "room-1"})
	require.Error(t, err)
	assert.Equal(t, CodeConflict, AsEventError(err).Code)
	assert.Equal(t, config.ActiveSessionAlreadyExists, AsEventError(err).Message)
}

func TestJoinWithoutWaitingRoom(t *testing.T) {
	env := newTestEnv()
	session := startSession(t, env, "room-1", "alice", false, "bob")

	err := env.video.Join(su("conn-bob", "bob", "Bob"), &VideoSessionReq{SessionID: session.ID})
	require.NoError(t, err)

	vp, _ := env.ds.GetVideoParticipant(session.ID, "bob")
	require.NotNil(t, vp)
	assert.Equal(t, dbmodels.ParticipantAdmitted, vp.Status)
	assert.True(t, vp.Present())
	assert.True(t, env.b.InRoom("conn-bob", wsservice.VideoRoom(session.ID)))
	assert.NotEmpty(t, env.b.eventsNamed(config.EventParticipantJoined))

	// a non chat-room member cannot join at all
	err = env.video.Join(su("conn-m", "mallory", "Mallory"), &VideoSessionReq{SessionID: session.ID})
	require.Error(t, err)
	assert.Equal(t, CodeUnauthorized, AsEventError(err).Code)
}

func TestWaitingRoomGateAndAdmission(t *testing.T) {
	env := newTestEnv()
	session := startSession(t, env, "room-1", "alice", true, "bob")

	err := env.video.Join(su("conn-bob", "bob", "Bob"), &VideoSessionReq{SessionID: session.ID})
	require.NoError(t, err)

	// bob is parked, not in the room
	vp, _ := env.ds.GetVideoParticipant(session.ID, "bob")
	assert.Equal(t, dbmodels.ParticipantWaiting, vp.Status)
	assert.False(t, env.b.InRoom("conn-bob", wsservice.VideoRoom(session.ID)))

	// the host got a structured waiting notice
	notices := env.b.eventsNamed(config.EventVideoWaitingUser)
	require.Len(t, notices, 1)
	assert.Equal(t, wsservice.UserRoom("alice"), notices[0].Room)
	payload := notices[0].Payload.(*waitingNoticePayload)
	assert.Equal(t, "bob", payload.ParticipantID)
	assert.Equal(t, "Bob", payload.ParticipantName)

	pending, _ := env.rs.GetWaitingNotices(session.ID)
	assert.Equal(t, []string{"bob"}, pending)

	// only host or co-host may admit
	err = env.video.Admit(su("conn-bob", "bob", "Bob"), &AdmissionReq{SessionID: session.ID, UserID: "bob"})
	require.Error(t, err)
	assert.Equal(t, CodeUnauthorized, AsEventError(err).Code)

	err = env.video.Admit(su("conn-alice", "alice", "Alice"), &AdmissionReq{SessionID: session.ID, UserID: "bob"})
	require.NoError(t, err)

	vp, _ = env.ds.GetVideoParticipant(session.ID, "bob")
	assert.Equal(t, dbmodels.ParticipantAdmitted, vp.Status)
	assert.True(t, vp.Present())

	pending, _ = env.rs.GetWaitingNotices(session.ID)
	assert.Empty(t, pending)

	updates := env.b.eventsNamed(config.EventVideoAdmissionUpdate)
	require.Len(t, updates, 1)
	assert.Equal(t, wsservice.UserRoom("bob"), updates[0].Room)

	// admitting twice is a conflict, the participant is no longer waiting
	err = env.video.Admit(su("conn-alice", "alice", "Alice"), &AdmissionReq{SessionID: session.ID, UserID: "bob"})
	require.Error(t, err)
	assert.Equal(t, CodeConflict, AsEventError(err).Code)
}

func TestAdmittedParticipantRejoinsWithoutGate(t *testing.T) {
	env := newTestEnv()
	session := startSession(t, env, "room-1", "alice", true, "bob")

	require.NoError(t, env.video.Join(su("conn-bob", "bob", "Bob"), &VideoSessionReq{SessionID: session.ID}))
	require.NoError(t, env.video.Admit(su("conn-alice", "alice", "Alice"), &AdmissionReq{SessionID: session.ID, UserID: "bob"}))
	require.NoError(t, env.video.Leave(su("conn-bob", "bob", "Bob"), &VideoSessionReq{SessionID: session.ID}))

	// back in without passing the waiting room again
	require.NoError(t, env.video.Join(su("conn-bob2", "bob", "Bob"), &VideoSessionReq{SessionID: session.ID}))
	vp, _ := env.ds.GetVideoParticipant(session.ID, "bob")
	assert.Equal(t, dbmodels.ParticipantAdmitted, vp.Status)
	assert.True(t, vp.Present())
	assert.Len(t, env.b.eventsNamed(config.EventVideoWaitingUser), 1)
}

func TestDeniedParticipantMustRejoin(t *testing.T) {
	env := newTestEnv()
	session := startSession(t, env, "room-1", "alice", true, "bob")

	require.NoError(t, env.video.Join(su("conn-bob", "bob", "Bob"), &VideoSessionReq{SessionID: session.ID}))
	require.NoError(t, env.video.Deny(su("conn-alice", "alice", "Alice"), &AdmissionReq{SessionID: session.ID, UserID: "bob"}))

	vp, _ := env.ds.GetVideoParticipant(session.ID, "bob")
	assert.Equal(t, dbmodels.ParticipantDenied, vp.Status)
	assert.False(t, vp.Present())

	// denying someone not waiting is a conflict
	err := env.video.Deny(su("conn-alice", "alice", "Alice"), &AdmissionReq{SessionID: session.ID, UserID: "bob"})
	require.Error(t, err)
	assert.Equal(t, CodeConflict, AsEventError(err).Code)

	// a fresh join re-enters the waiting room rather than the session
	require.NoError(t, env.video.Join(su("conn-bob2", "bob", "Bob"), &VideoSessionReq{SessionID: session.ID}))
	vp, _ = env.ds.GetVideoParticipant(session.ID, "bob")
	assert.Equal(t, dbmodels.ParticipantWaiting, vp.Status)
	assert.Len(t, env.b.eventsNamed(config.EventVideoWaitingUser), 2)
}

func TestJoinRespectsParticipantLimit(t *testing.T) {
	env := newTestEnv()
	env.addChatRoom("room-1", true)
	env.addChatParticipant("room-1", "alice", true)
	env.addChatParticipant("room-1", "bob", false)
	env.addChatParticipant("room-1", "carol", false)

	session, err := env.video.CreateSession(su("conn-alice", "alice", "Alice"), &CreateSessionReq{
		ChatRoomID:      "room-1",
		MaxParticipants: 2,
	})
	require.NoError(t, err)

	require.NoError(t, env.video.Join(su("conn-bob", "bob", "Bob"), &VideoSessionReq{SessionID: session.ID}))

	err = env.video.Join(su("conn-carol", "carol", "Carol"), &VideoSessionReq{SessionID: session.ID})
	require.Error(t, err)
	assert.Equal(t, config.SessionFull, AsEventError(err).Message)
}

func TestHostLeavePromotesCoHostFirst(t *testing.T) {
	env := newTestEnv()
	session := startSession(t, env, "room-1", "alice", false, "bob", "carol")

	require.NoError(t, env.video.Join(su("conn-bob", "bob", "Bob"), &VideoSessionReq{SessionID: session.ID}))
	time.Sleep(time.Millisecond)
	require.NoError(t, env.video.Join(su("conn-carol", "carol", "Carol"), &VideoSessionReq{SessionID: session.ID}))

	// carol joined later but is co-host, so she is preferred
	require.NoError(t, env.video.ChangeRole(su("conn-alice", "alice", "Alice"), &ChangeRoleReq{
		SessionID: session.ID, UserID: "carol", Role: dbmodels.RoleCoHost,
	}))

	require.NoError(t, env.video.Leave(su("conn-alice", "alice", "Alice"), &VideoSessionReq{SessionID: session.ID}))

	s, _ := env.ds.GetVideoSessionByID(session.ID)
	assert.Equal(t, dbmodels.SessionActive, s.Status)
	assert.Equal(t, "carol", s.HostID)

	vp, _ := env.ds.GetVideoParticipant(session.ID, "carol")
	assert.Equal(t, dbmodels.RoleHost, vp.Role)

	// the promotion was announced with the new hostId
	changes := env.b.eventsNamed(config.EventVideoRoleChanged)
	require.NotEmpty(t, changes)
	last := changes[len(changes)-1].Payload.(*roleChangedPayload)
	assert.Equal(t, "carol", last.HostID)
	assert.Equal(t, dbmodels.RoleHost, last.Role)
}

func TestHostLeaveFallsBackToEarliestJoined(t *testing.T) {
	env := newTestEnv()
	session := startSession(t, env, "room-1", "alice", false, "bob", "carol")

	require.NoError(t, env.video.Join(su("conn-bob", "bob", "Bob"), &VideoSessionReq{SessionID: session.ID}))
	time.Sleep(time.Millisecond)
	require.NoError(t, env.video.Join(su("conn-carol", "carol", "Carol"), &VideoSessionReq{SessionID: session.ID}))

	require.NoError(t, env.video.Leave(su("conn-alice", "alice", "Alice"), &VideoSessionReq{SessionID: session.ID}))

	s, _ := env.ds.GetVideoSessionByID(session.ID)
	assert.Equal(t, "bob", s.HostID)
}

func TestLastParticipantLeaveEndsSession(t *testing.T) {
	env := newTestEnv()
	session := startSession(t, env, "room-1", "alice", false)

	require.NoError(t, env.video.Leave(su("conn-alice", "alice", "Alice"), &VideoSessionReq{SessionID: session.ID}))

	s, _ := env.ds.GetVideoSessionByID(session.ID)
	assert.Equal(t, dbmodels.SessionEnded, s.Status)
	assert.NotNil(t, s.EndedAt)
	assert.Len(t, env.b.eventsNamed(config.EventVideoEnded), 1)
	assert.Len(t, env.b.eventsNamed(config.EventVideoEndedByHost), 1)

	// the ended session cannot be joined again
	err := env.video.Join(su("conn-alice2", "alice", "Alice"), &VideoSessionReq{SessionID: session.ID})
	require.Error(t, err)
	assert.Equal(t, config.SessionNotJoinable, AsEventError(err).Message)
}

func TestChangeRoleKeepsHostInvariant(t *testing.T) {
	env := newTestEnv()
	session := startSession(t, env, "room-1", "alice", false, "bob")
	require.NoError(t, env.video.Join(su("conn-bob", "bob", "Bob"), &VideoSessionReq{SessionID: session.ID}))

	// invalid role string
	err := env.video.ChangeRole(su("conn-alice", "alice", "Alice"), &ChangeRoleReq{
		SessionID: session.ID, UserID: "bob", Role: "SUPERVISOR",
	})
	require.Error(t, err)
	assert.Equal(t, config.InvalidRoleRequested, AsEventError(err).Message)

	// a co-host cannot demote the host
	require.NoError(t, env.video.ChangeRole(su("conn-alice", "alice", "Alice"), &ChangeRoleReq{
		SessionID: session.ID, UserID: "bob", Role: dbmodels.RoleCoHost,
	}))
	err = env.video.ChangeRole(su("conn-bob", "bob", "Bob"), &ChangeRoleReq{
		SessionID: session.ID, UserID: "alice", Role: dbmodels.RoleAttendee,
	})
	require.Error(t, err)
	assert.Equal(t, config.OnlyHostCanDemoteSelf, AsEventError(err).Message)

	// the host cannot drop their own role without promoting someone
	err = env.video.ChangeRole(su("conn-alice", "alice", "Alice"), &ChangeRoleReq{
		SessionID: session.ID, UserID: "alice", Role: dbmodels.RoleAttendee,
	})
	require.Error(t, err)
	assert.Equal(t, config.HostMustPromoteFirst, AsEventError(err).Message)

	// promoting bob to HOST moves hostId and demotes alice to co-host
	require.NoError(t, env.video.ChangeRole(su("conn-alice", "alice", "Alice"), &ChangeRoleReq{
		SessionID: session.ID, UserID: "bob", Role: dbmodels.RoleHost,
	}))

	s, _ := env.ds.GetVideoSessionByID(session.ID)
	assert.Equal(t, "bob", s.HostID)
	bob, _ := env.ds.GetVideoParticipant(session.ID, "bob")
	assert.Equal(t, dbmodels.RoleHost, bob.Role)
	alice, _ := env.ds.GetVideoParticipant(session.ID, "alice")
	assert.Equal(t, dbmodels.RoleCoHost, alice.Role)
}

func TestRecordingLifecycle(t *testing.T) {
	env := newTestEnv()
	session := startSession(t, env, "room-1", "alice", false, "bob")
	require.NoError(t, env.video.Join(su("conn-bob", "bob", "Bob"), &VideoSessionReq{SessionID: session.ID}))

	// attendees cannot record
	_, err := env.video.StartRecording(su("conn-bob", "bob", "Bob"), &StartRecordingReq{SessionID: session.ID})
	require.Error(t, err)
	assert.Equal(t, CodeUnauthorized, AsEventError(err).Code)

	rec, err := env.video.StartRecording(su("conn-alice", "alice", "Alice"), &StartRecordingReq{SessionID: session.ID})
	require.NoError(t, err)
	assert.Equal(t, dbmodels.RecordingProcessing, rec.ProcessingStatus)
	assert.Equal(t, dbmodels.VisibilityParticipantsOnly, rec.Visibility)
	assert.Len(t, env.b.eventsNamed(config.EventVideoRecordingStarted), 1)

	// at most one in-progress recording per session
	_, err = env.video.StartRecording(su("conn-alice", "alice", "Alice"), &StartRecordingReq{SessionID: session.ID})
	require.Error(t, err)
	assert.Equal(t, config.RecordingAlreadyInProgress, AsEventError(err).Message)

	duration := int64(90)
	stopped, err := env.video.StopRecording(su("conn-alice", "alice", "Alice"), &StopRecordingReq{
		SessionID:       session.ID,
		DurationSeconds: &duration,
	})
	require.NoError(t, err)
	assert.Equal(t, dbmodels.RecordingCompleted, stopped.ProcessingStatus)
	assert.Equal(t, int64(90), stopped.DurationSeconds)
	require.NotNil(t, stopped.EndTime)
	assert.Len(t, env.b.eventsNamed(config.EventVideoRecordingStopped), 1)

	// nothing active anymore
	_, err = env.video.StopRecording(su("conn-alice", "alice", "Alice"), &StopRecordingReq{SessionID: session.ID})
	require.Error(t, err)
	assert.Equal(t, config.NoActiveRecordingFound, AsEventError(err).Message)

	// a fresh recording may start now
	_, err = env.video.StartRecording(su("conn-alice", "alice", "Alice"), &StartRecordingReq{SessionID: session.ID})
	require.NoError(t, err)
}

func TestRecordingRespectsSessionSetting(t *testing.T) {
	env := newTestEnv()
	env.addChatRoom("room-1", true)
	env.addChatParticipant("room-1", "alice", true)

	off := false
	session, err := env.video.CreateSession(su("conn-alice", "alice", "Alice"), &CreateSessionReq{
		ChatRoomID:     "room-1",
		AllowRecording: &off,
	})
	require.NoError(t, err)

	_, err = env.video.StartRecording(su("conn-alice", "alice", "Alice"), &StartRecordingReq{SessionID: session.ID})
	require.Error(t, err)
	assert.Equal(t, config.RecordingNotAllowed, AsEventError(err).Message)
}

func TestSignalRelay(t *testing.T) {
	env := newTestEnv()
	session := startSession(t, env, "room-1", "alice", false, "bob")
	require.NoError(t, env.video.Join(su("conn-bob", "bob", "Bob"), &VideoSessionReq{SessionID: session.ID}))

	data := json.RawMessage(`{"type":"offer","sdp":"v=0"}`)

	// non-participants cannot signal
	err := env.video.Signal(su("conn-m", "mallory", "Mallory"), &SignalReq{SessionID: session.ID, Data: data})
	require.Error(t, err)
	assert.Equal(t, CodeUnauthorized, AsEventError(err).Code)

	// targeted signal goes to the target's personal room only
	target := "alice"
	require.NoError(t, env.video.Signal(su("conn-bob", "bob", "Bob"), &SignalReq{
		SessionID: session.ID, Target: &target, Data: data,
	}))
	events := env.b.eventsNamed(config.EventSignal)
	require.Len(t, events, 1)
	assert.Equal(t, wsservice.UserRoom("alice"), events[0].Room)
	assert.Equal(t, data, events[0].Payload.(*signalPayload).Data)

	// untargeted signal fans out to the session room, excluding the sender
	require.NoError(t, env.video.Signal(su("conn-bob", "bob", "Bob"), &SignalReq{SessionID: session.ID, Data: data}))
	events = env.b.eventsNamed(config.EventSignal)
	require.Len(t, events, 2)
	assert.Equal(t, wsservice.VideoRoom(session.ID), events[1].Room)
	assert.Equal(t, "conn-bob", events[1].Exclude)
}

func TestEphemeralVideoChatNotPersisted(t *testing.T) {
	env := newTestEnv()
	session := startSession(t, env, "room-1", "alice", false)

	persisted := len(env.ds.chatMessages)
	require.NoError(t, env.video.SendVideoMessage(su("conn-alice", "alice", "Alice"), &VideoSessionMessageReq{
		SessionID: session.ID,
		Content:   "can you hear me?",
	}))

	assert.Len(t, env.ds.chatMessages, persisted)
	events := env.b.eventsNamed(config.EventVideoChatMessage)
	require.Len(t, events, 1)
	assert.Equal(t, "can you hear me?", events[0].Payload.(*videoChatPayload).Content)
}

func TestCreateSessionOverRestSkipsRoomRegistration(t *testing.T) {
	env := newTestEnv()
	env.addChatRoom("room-1", true)
	env.addChatParticipant("room-1", "alice", true)

	// REST callers carry no socket connection id
	session, err := env.video.CreateSession(su("", "alice", "Alice"), &CreateSessionReq{ChatRoomID: "room-1"})
	require.NoError(t, err)

	assert.False(t, env.b.InRoom("", wsservice.VideoRoom(session.ID)))
	_, ok := env.b.conns[""]
	assert.False(t, ok)

	// the chat room was still notified
	assert.Len(t, env.b.eventsNamed(config.EventVideoCreated), 1)
}

func TestConcurrentHostAndCoHostLeave(t *testing.T) {
	env := newTestEnv()
	session := startSession(t, env, "room-1", "alice", false, "bob", "carol")

	require.NoError(t, env.video.Join(su("conn-bob", "bob", "Bob"), &VideoSessionReq{SessionID: session.ID}))
	time.Sleep(time.Millisecond)
	require.NoError(t, env.video.Join(su("conn-carol", "carol", "Carol"), &VideoSessionReq{SessionID: session.ID}))
	require.NoError(t, env.video.ChangeRole(su("conn-alice", "alice", "Alice"), &ChangeRoleReq{
		SessionID: session.ID, UserID: "bob", Role: dbmodels.RoleCoHost,
	}))

	// host and co-host depart at the same time; the per-session mutex
	// serializes the two transitions, so whichever order they land in,
	// carol ends up the sole present HOST. The guard is per process
	// only, the same race across instances is not covered here.
	errs := make(chan error, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		errs <- env.video.Leave(su("conn-alice", "alice", "Alice"), &VideoSessionReq{SessionID: session.ID})
	}()
	go func() {
		defer wg.Done()
		errs <- env.video.Leave(su("conn-bob", "bob", "Bob"), &VideoSessionReq{SessionID: session.ID})
	}()
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	s, _ := env.ds.GetVideoSessionByID(session.ID)
	assert.Equal(t, dbmodels.SessionActive, s.Status)
	assert.Equal(t, "carol", s.HostID)

	present, _ := env.ds.GetPresentParticipants(session.ID)
	require.Len(t, present, 1)
	assert.Equal(t, "carol", present[0].UserID)
	assert.Equal(t, dbmodels.RoleHost, present[0].Role)
}

func TestAdmitRejectedAfterSessionEnded(t *testing.T) {
	env := newTestEnv()
	session := startSession(t, env, "room-1", "alice", true, "bob")

	require.NoError(t, env.video.Join(su("conn-bob", "bob", "Bob"), &VideoSessionReq{SessionID: session.ID}))
	require.NoError(t, env.video.Leave(su("conn-alice", "alice", "Alice"), &VideoSessionReq{SessionID: session.ID}))

	s, _ := env.ds.GetVideoSessionByID(session.ID)
	require.Equal(t, dbmodels.SessionEnded, s.Status)

	// bob's waiting row survived the end, but admission into a dead
	// session is refused
	err := env.video.Admit(su("conn-alice", "alice", "Alice"), &AdmissionReq{SessionID: session.ID, UserID: "bob"})
	require.Error(t, err)
	assert.Equal(t, CodeConflict, AsEventError(err).Code)
	assert.Equal(t, config.SessionNotJoinable, AsEventError(err).Message)

	vp, _ := env.ds.GetVideoParticipant(session.ID, "bob")
	require.NotNil(t, vp)
	assert.Equal(t, dbmodels.ParticipantWaiting, vp.Status)
	assert.Nil(t, vp.JoinedAt)
}

func TestSessionLockOutlivesSessionEnd(t *testing.T) {
	env := newTestEnv()
	session := startSession(t, env, "room-1", "alice", false)

	// touch the lock once so the entry exists
	unlock := env.video.lockSession(session.ID)
	unlock()

	env.video.lmu.Lock()
	before := env.video.locks[session.ID]
	env.video.lmu.Unlock()
	require.NotNil(t, before)

	require.NoError(t, env.video.Leave(su("conn-alice", "alice", "Alice"), &VideoSessionReq{SessionID: session.ID}))

	// the entry stays, so a waiter blocked during the end and any later
	// caller still contend on the same mutex
	env.video.lmu.Lock()
	after := env.video.locks[session.ID]
	env.video.lmu.Unlock()
	assert.Same(t, before, after)
}
