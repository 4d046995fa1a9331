package wsservice

import (
	"context"
	"sync"

	"github.com/TaskTrial/realtime-server/pkg/config"
	"github.com/TaskTrial/realtime-server/pkg/services/redisservice"
	"github.com/antoniodipinto/ikisocket"
	"github.com/gammazero/workerpool"
	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
)

// wireMessage travels over the Redis pub/sub channel between server
// instances. Exactly one of Room or Conn is set.
type wireMessage struct {
	Room    string          `json:"room,omitempty"`
	Conn    string          `json:"conn,omitempty"`
	Exclude string          `json:"exclude,omitempty"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// clientEnvelope is what the connected client receives.
type clientEnvelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// WsService tracks which connections are subscribed to which rooms and
// fans events out to them. Delivery is best effort; a disconnected
// recipient simply misses the event.
type WsService struct {
	mu    sync.RWMutex
	rooms map[RoomKey]map[string]struct{}
	conns map[string]map[RoomKey]struct{}

	rs     *redisservice.RedisService
	pool   *workerpool.WorkerPool
	logger *logrus.Entry

	// emitLocal is swappable so the registry can be exercised without
	// live socket connections.
	emitLocal func(to []string, msg []byte)
}

func New(rs *redisservice.RedisService, logger *logrus.Logger) *WsService {
	return &WsService{
		rooms:  make(map[RoomKey]map[string]struct{}),
		conns:  make(map[string]map[RoomKey]struct{}),
		rs:     rs,
		pool:   workerpool.New(config.BroadcastWorkers),
		logger: logger.WithField("service", "websocket"),
		emitLocal: func(to []string, msg []byte) {
			ikisocket.EmitToList(to, msg)
		},
	}
}

func (w *WsService) JoinRoom(connId string, key RoomKey) {
	if connId == "" {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.rooms[key]; !ok {
		w.rooms[key] = make(map[string]struct{})
	}
	w.rooms[key][connId] = struct{}{}

	if _, ok := w.conns[connId]; !ok {
		w.conns[connId] = make(map[RoomKey]struct{})
	}
	w.conns[connId][key] = struct{}{}
}

func (w *WsService) LeaveRoom(connId string, key RoomKey) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.leaveRoomLocked(connId, key)
}

func (w *WsService) leaveRoomLocked(connId string, key RoomKey) {
	if members, ok := w.rooms[key]; ok {
		delete(members, connId)
		if len(members) == 0 {
			delete(w.rooms, key)
		}
	}
	if rooms, ok := w.conns[connId]; ok {
		delete(rooms, key)
	}
}

// LeaveAllRooms drops every subscription of the connection and returns the
// rooms it was in, so disconnect handlers can notify peers.
func (w *WsService) LeaveAllRooms(connId string) []RoomKey {
	w.mu.Lock()
	defer w.mu.Unlock()

	var left []RoomKey
	for key := range w.conns[connId] {
		left = append(left, key)
		w.leaveRoomLocked(connId, key)
	}
	delete(w.conns, connId)

	return left
}

// RoomMembers returns the connection ids subscribed to the room on this node.
func (w *WsService) RoomMembers(key RoomKey) []string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	members := make([]string, 0, len(w.rooms[key]))
	for connId := range w.rooms[key] {
		members = append(members, connId)
	}
	return members
}

func (w *WsService) InRoom(connId string, key RoomKey) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()

	_, ok := w.rooms[key][connId]
	return ok
}

// EmitToRoom publishes the event to the shared channel; every node,
// including this one, delivers it to its local subscribers.
func (w *WsService) EmitToRoom(key RoomKey, event string, payload interface{}) error {
	return w.publish(wireMessage{Room: key.String(), Event: event}, payload)
}

// EmitToRoomExcept behaves like EmitToRoom but skips one connection,
// typically the sender of an ephemeral relay such as a typing indicator.
func (w *WsService) EmitToRoomExcept(key RoomKey, exceptConnId, event string, payload interface{}) error {
	return w.publish(wireMessage{Room: key.String(), Exclude: exceptConnId, Event: event}, payload)
}

// EmitToUser delivers to the user's personal room across all their connections.
func (w *WsService) EmitToUser(userId string, event string, payload interface{}) error {
	return w.EmitToRoom(UserRoom(userId), event, payload)
}

// EmitToConn sends directly to one local connection, bypassing Redis.
// Used for connection-scoped events like errors.
func (w *WsService) EmitToConn(connId string, event string, payload interface{}) error {
	msg, err := marshalEnvelope(event, payload)
	if err != nil {
		return err
	}

	w.emitLocal([]string{connId}, msg)
	return nil
}

func (w *WsService) publish(wire wireMessage, payload interface{}) error {
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		wire.Payload = raw
	}

	msg, err := json.Marshal(wire)
	if err != nil {
		return err
	}

	// fan-out is async and best effort; failures are logged only
	w.pool.Submit(func() {
		if err := w.rs.PublishToWebsocketChannel(config.WebsocketChannel, msg); err != nil {
			w.logger.WithError(err).Errorln("failed to publish websocket event")
		}
	})
	return nil
}

// SubscribeLoop consumes the shared channel and emits to local members.
// It blocks until ctx is cancelled.
func (w *WsService) SubscribeLoop(ctx context.Context) error {
	pubSub, err := w.rs.SubscribeToWebsocketChannel(config.WebsocketChannel)
	if err != nil {
		return err
	}
	defer pubSub.Close()

	ch := pubSub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			w.deliver([]byte(msg.Payload))
		}
	}
}

func (w *WsService) deliver(raw []byte) {
	wire := new(wireMessage)
	if err := json.Unmarshal(raw, wire); err != nil {
		w.logger.WithError(err).Errorln("malformed websocket wire message")
		return
	}

	var to []string
	if wire.Conn != "" {
		to = []string{wire.Conn}
	} else {
		key, err := ParseRoomKey(wire.Room)
		if err != nil {
			w.logger.WithError(err).Errorln("malformed room key in wire message")
			return
		}
		to = w.RoomMembers(key)
	}

	if wire.Exclude != "" {
		filtered := to[:0]
		for _, connId := range to {
			if connId != wire.Exclude {
				filtered = append(filtered, connId)
			}
		}
		to = filtered
	}

	if len(to) == 0 {
		return
	}

	msg, err := json.Marshal(&clientEnvelope{Event: wire.Event, Payload: wire.Payload})
	if err != nil {
		w.logger.WithError(err).Errorln("failed to marshal client envelope")
		return
	}
	w.emitLocal(to, msg)
}

func (w *WsService) Shutdown() {
	w.pool.StopWait()
}

func marshalEnvelope(event string, payload interface{}) ([]byte, error) {
	env := &clientEnvelope{Event: event}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		env.Payload = raw
	}
	return json.Marshal(env)
}
