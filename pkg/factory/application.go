package factory

import (
	"context"

	"github.com/TaskTrial/realtime-server/pkg/config"
	"github.com/TaskTrial/realtime-server/pkg/controllers"
	"github.com/TaskTrial/realtime-server/pkg/models"
	"github.com/TaskTrial/realtime-server/pkg/services/dbservice"
	"github.com/TaskTrial/realtime-server/pkg/services/redisservice"
	"github.com/TaskTrial/realtime-server/pkg/services/wsservice"
)

// ApplicationControllers holds all the controllers.
type ApplicationControllers struct {
	AuthController        *controllers.AuthController
	VideoController       *controllers.VideoController
	PresenceController    *controllers.PresenceController
	WebsocketController   *controllers.WebsocketController
	HealthCheckController *controllers.HealthCheckController
}

// Application is the root struct holding all dependencies.
type Application struct {
	Controllers *ApplicationControllers
	AppConfig   *config.AppConfig
	Ctx         context.Context

	wsService *wsservice.WsService
	cancel    context.CancelFunc
}

// NewApplication wires services, models and controllers together. The
// database and Redis connections must already be established on the
// config.
func NewApplication(ctx context.Context, appCnf *config.AppConfig) *Application {
	ds := dbservice.New(appCnf.DB)
	rs := redisservice.New(appCnf.RDS)
	ws := wsservice.New(rs, appCnf.Logger)

	authTokenModel := models.NewAuthTokenModel(appCnf)
	membershipModel := models.NewMembershipModel(appCnf, ds, ws)
	chatModel := models.NewChatModel(appCnf, ds, ws)
	videoModel := models.NewVideoModel(appCnf, ds, rs, ws)

	ctrls := &ApplicationControllers{
		AuthController:        controllers.NewAuthController(appCnf, authTokenModel, ds),
		VideoController:       controllers.NewVideoController(videoModel, ds, rs),
		PresenceController:    controllers.NewPresenceController(rs),
		WebsocketController:   controllers.NewWebsocketController(appCnf, ds, rs, ws, authTokenModel, membershipModel, chatModel, videoModel),
		HealthCheckController: controllers.NewHealthCheckController(appCnf),
	}

	return &Application{
		Controllers: ctrls,
		AppConfig:   appCnf,
		Ctx:         ctx,
		wsService:   ws,
	}
}

// WsService exposes the broadcast gateway, mainly for the router.
func (a *Application) WsService() *wsservice.WsService {
	return a.wsService
}

// Boot starts the background consumers: the Redis subscription that
// feeds cross-node events into local socket connections.
func (a *Application) Boot() {
	ctx, cancel := context.WithCancel(a.Ctx)
	a.cancel = cancel

	go func() {
		if err := a.wsService.SubscribeLoop(ctx); err != nil {
			a.AppConfig.Logger.WithError(err).Fatalln("websocket subscribe loop failed")
		}
	}()
}

func (a *Application) Shutdown() {
	if a.cancel != nil {
		a.cancel()
	}
	a.wsService.Shutdown()
}
