package controllers

import (
	"github.com/TaskTrial/realtime-server/pkg/config"
	"github.com/TaskTrial/realtime-server/pkg/models"
	"github.com/TaskTrial/realtime-server/pkg/services/wsservice"
	"github.com/antoniodipinto/ikisocket"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// socketEnvelope is the frame clients send: an event name plus an
// event-specific payload left raw until the event is known.
type socketEnvelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

type userStatusPayload struct {
	UserID string `json:"userId"`
	Status string `json:"status"`
}

// WebsocketController owns the socket lifecycle: connection auth, room
// bootstrap, inbound event dispatch and disconnect cleanup.
type WebsocketController struct {
	app             *config.AppConfig
	authTokenModel  *models.AuthTokenModel
	membershipModel *models.MembershipModel
	chatModel       *models.ChatModel
	videoModel      *models.VideoModel
	ds              models.Datastore
	rs              models.Presence
	b               models.Broadcaster
	logger          *logrus.Entry
}

func NewWebsocketController(app *config.AppConfig, ds models.Datastore, rs models.Presence, b models.Broadcaster, authTokenModel *models.AuthTokenModel, membershipModel *models.MembershipModel, chatModel *models.ChatModel, videoModel *models.VideoModel) *WebsocketController {
	return &WebsocketController{
		app:             app,
		authTokenModel:  authTokenModel,
		membershipModel: membershipModel,
		chatModel:       chatModel,
		videoModel:      videoModel,
		ds:              ds,
		rs:              rs,
		b:               b,
		logger:          app.Logger.WithField("controller", "websocket"),
	}
}

// HandleWebSocket authenticates the upgrade request and bootstraps the
// connection into its membership rooms. Invalid connections are closed
// after a single error frame.
func (wc *WebsocketController) HandleWebSocket() func(*fiber.Ctx) error {
	return ikisocket.New(func(kws *ikisocket.Websocket) {
		token := kws.Query("token")

		userId, name, err := wc.authTokenModel.VerifyAccessToken(token)
		if err != nil {
			wc.rejectConn(kws, config.InvalidToken)
			return
		}

		user, err := wc.ds.GetUserByID(userId)
		if err != nil {
			wc.rejectConn(kws, err.Error())
			return
		}
		if user == nil || !user.IsActive || user.DeletedAt != nil {
			wc.rejectConn(kws, config.UserNotActive)
			return
		}
		if name == "" {
			name = user.FullName()
		}

		kws.SetAttribute("userId", user.ID)
		kws.SetAttribute("name", name)
		kws.SetAttribute("organizationId", user.OrganizationID)

		wc.membershipModel.BootstrapRooms(kws.UUID, user)

		first, err := wc.rs.MarkUserOnline(user.ID, kws.UUID)
		if err != nil {
			wc.logger.WithError(err).Errorln("failed to mark user online")
		}
		if first && user.OrganizationID != "" {
			err = wc.b.EmitToRoom(wsservice.OrgRoom(user.OrganizationID), config.EventUserStatus, &userStatusPayload{
				UserID: user.ID,
				Status: "online",
			})
			if err != nil {
				wc.logger.WithError(err).Errorln("failed to broadcast online status")
			}
		}
	})
}

func (wc *WebsocketController) rejectConn(kws *ikisocket.Websocket, msg string) {
	ev := &models.EventError{Code: models.CodeUnauthorized, Message: msg}
	frame, err := json.Marshal(&socketEnvelope{
		Event:   config.EventError,
		Payload: mustMarshal(ev),
	})
	if err == nil {
		_ = kws.EmitTo(kws.UUID, frame)
	}
	kws.Close()
}

func mustMarshal(v interface{}) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return b
}

// SetupSocketListeners registers the process-wide ikisocket event hooks.
func (wc *WebsocketController) SetupSocketListeners() {
	ikisocket.On(ikisocket.EventMessage, wc.onMessage)
	ikisocket.On(ikisocket.EventDisconnect, wc.onDisconnect)
	ikisocket.On(ikisocket.EventClose, wc.onDisconnect)
	ikisocket.On(ikisocket.EventError, func(ep *ikisocket.EventPayload) {
		wc.logger.WithError(ep.Error).Errorf("socket error, user: %s", ep.Kws.GetStringAttribute("userId"))
	})
}

func (wc *WebsocketController) socketUser(ep *ikisocket.EventPayload) *models.SocketUser {
	return &models.SocketUser{
		ConnID: ep.Kws.UUID,
		UserID: ep.Kws.GetStringAttribute("userId"),
		Name:   ep.Kws.GetStringAttribute("name"),
	}
}

func (wc *WebsocketController) onMessage(ep *ikisocket.EventPayload) {
	envelope := new(socketEnvelope)
	if err := json.Unmarshal(ep.Data, envelope); err != nil {
		wc.logger.WithError(err).Errorln("malformed socket frame")
		return
	}

	su := wc.socketUser(ep)
	if su.UserID == "" {
		return
	}

	if err := wc.dispatch(su, envelope); err != nil {
		wc.emitError(su.ConnID, err)
	}
}

// dispatch decodes the payload for the given event and invokes the
// matching model operation. Any returned error becomes a single error
// frame on the sender's connection.
func (wc *WebsocketController) dispatch(su *models.SocketUser, envelope *socketEnvelope) error {
	switch envelope.Event {
	case config.EventChatJoin:
		req := new(models.ChatRoomReq)
		if err := json.Unmarshal(envelope.Payload, req); err != nil {
			return err
		}
		return wc.chatModel.Join(su, req)
	case config.EventChatLeave:
		req := new(models.ChatRoomReq)
		if err := json.Unmarshal(envelope.Payload, req); err != nil {
			return err
		}
		return wc.chatModel.Leave(su, req)
	case config.EventChatMessage:
		req := new(models.SendMessageReq)
		if err := json.Unmarshal(envelope.Payload, req); err != nil {
			return err
		}
		return wc.chatModel.SendMessage(su, req)
	case config.EventChatEdit:
		req := new(models.EditMessageReq)
		if err := json.Unmarshal(envelope.Payload, req); err != nil {
			return err
		}
		return wc.chatModel.EditMessage(su, req)
	case config.EventChatDelete:
		req := new(models.DeleteMessageReq)
		if err := json.Unmarshal(envelope.Payload, req); err != nil {
			return err
		}
		return wc.chatModel.DeleteMessage(su, req)
	case config.EventChatReaction:
		req := new(models.ReactionReq)
		if err := json.Unmarshal(envelope.Payload, req); err != nil {
			return err
		}
		return wc.chatModel.React(su, req)
	case config.EventChatTyping:
		req := new(models.TypingReq)
		if err := json.Unmarshal(envelope.Payload, req); err != nil {
			return err
		}
		return wc.chatModel.Typing(su, req)
	case config.EventChatRead:
		req := new(models.ReadReceiptReq)
		if err := json.Unmarshal(envelope.Payload, req); err != nil {
			return err
		}
		return wc.chatModel.MarkRead(su, req)
	case config.EventJoinVideoRoom:
		req := new(models.VideoSessionReq)
		if err := json.Unmarshal(envelope.Payload, req); err != nil {
			return err
		}
		return wc.videoModel.Join(su, req)
	case config.EventLeaveVideoRoom:
		req := new(models.VideoSessionReq)
		if err := json.Unmarshal(envelope.Payload, req); err != nil {
			return err
		}
		return wc.videoModel.Leave(su, req)
	case config.EventSignal:
		req := new(models.SignalReq)
		if err := json.Unmarshal(envelope.Payload, req); err != nil {
			return err
		}
		return wc.videoModel.Signal(su, req)
	case config.EventUpdateMediaStatus:
		req := new(models.MediaStatusReq)
		if err := json.Unmarshal(envelope.Payload, req); err != nil {
			return err
		}
		return wc.videoModel.UpdateMediaStatus(su, req)
	case config.EventUpdateConnectionQuality:
		req := new(models.ConnectionQualityReq)
		if err := json.Unmarshal(envelope.Payload, req); err != nil {
			return err
		}
		return wc.videoModel.UpdateConnectionQuality(su, req)
	case config.EventRequestPresenterRole:
		req := new(models.VideoSessionReq)
		if err := json.Unmarshal(envelope.Payload, req); err != nil {
			return err
		}
		return wc.videoModel.RequestPresenterRole(su, req)
	case config.EventUpdateScreenSharing:
		req := new(models.ScreenSharingReq)
		if err := json.Unmarshal(envelope.Payload, req); err != nil {
			return err
		}
		return wc.videoModel.UpdateScreenSharing(su, req)
	case config.EventSendVideoMessage:
		req := new(models.VideoSessionMessageReq)
		if err := json.Unmarshal(envelope.Payload, req); err != nil {
			return err
		}
		return wc.videoModel.SendVideoMessage(su, req)
	default:
		wc.logger.Warnf("unknown socket event: %s", envelope.Event)
		return nil
	}
}

func (wc *WebsocketController) emitError(connId string, err error) {
	ev := models.AsEventError(err)
	if ev.Code == models.CodeInternal {
		wc.logger.WithError(err).Errorln("internal error during socket dispatch")
	}
	if err = wc.b.EmitToConn(connId, config.EventError, ev); err != nil {
		wc.logger.WithError(err).Errorln("failed to emit error frame")
	}
}

// onDisconnect tears down everything the connection joined: video
// sessions get a proper leave (with host promotion if needed), chat
// rooms get a presence notice, and the org room learns when the user's
// last connection is gone.
func (wc *WebsocketController) onDisconnect(ep *ikisocket.EventPayload) {
	su := wc.socketUser(ep)
	if su.UserID == "" {
		return
	}
	orgId := ep.Kws.GetStringAttribute("organizationId")

	left := wc.b.LeaveAllRooms(su.ConnID)
	for _, key := range left {
		switch key.Domain {
		case wsservice.DomainVideo:
			if err := wc.videoModel.Leave(su, &models.VideoSessionReq{SessionID: key.ID}); err != nil {
				wc.logger.WithError(err).Errorf("video leave on disconnect, session: %s", key.ID)
			}
		case wsservice.DomainChat:
			err := wc.b.EmitToRoom(key, config.EventChatUserLeft, &chatPresenceNotice{
				ChatRoomID: key.ID,
				UserID:     su.UserID,
				Name:       su.Name,
			})
			if err != nil {
				wc.logger.WithError(err).Errorf("chat leave notice on disconnect, room: %s", key.ID)
			}
		}
	}

	last, err := wc.rs.MarkUserOffline(su.UserID, su.ConnID)
	if err != nil {
		wc.logger.WithError(err).Errorln("failed to mark user offline")
	}
	if last && orgId != "" {
		err = wc.b.EmitToRoom(wsservice.OrgRoom(orgId), config.EventUserStatus, &userStatusPayload{
			UserID: su.UserID,
			Status: "offline",
		})
		if err != nil {
			wc.logger.WithError(err).Errorln("failed to broadcast offline status")
		}
	}
}

type chatPresenceNotice struct {
	ChatRoomID string `json:"chatRoomId"`
	UserID     string `json:"userId"`
	Name       string `json:"name"`
}
