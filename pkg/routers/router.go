package routers

import (
	"github.com/TaskTrial/realtime-server/pkg/factory"
	"github.com/TaskTrial/realtime-server/version"
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	rr "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
)

// New builds the fiber app with every route wired to the application's
// controllers.
func New(app *factory.Application) *fiber.App {
	appCnf := app.AppConfig
	ctrls := app.Controllers

	cnf := fiber.Config{
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,
		AppName:     "TaskTrial realtime server version: " + version.Version,
	}
	if appCnf.Client.ProxyHeader != "" {
		cnf.ProxyHeader = appCnf.Client.ProxyHeader
	}

	rt := fiber.New(cnf)

	if appCnf.Client.Debug {
		rt.Use(logger.New())
	}
	if appCnf.Client.PrometheusConf.Enable {
		prometheus := fiberprometheus.New("tasktrial-realtime")
		prometheus.RegisterAt(rt, appCnf.Client.PrometheusConf.MetricsPath)
		rt.Use(prometheus.Middleware)
	}
	rt.Use(rr.New())
	rt.Use(cors.New(cors.Config{
		AllowMethods: "POST,GET,OPTIONS",
	}))

	rt.Get("/healthCheck", ctrls.HealthCheckController.HandleHealthCheck)

	// server-to-server endpoints, guarded by API-KEY + HASH-SIGNATURE
	auth := rt.Group("/auth", ctrls.AuthController.HandleAuthHeaderCheck)
	auth.Post("/getAccessToken", ctrls.AuthController.HandleGenerateToken)

	// api group requires sending token as Authorization header value
	api := rt.Group("/api", ctrls.AuthController.HandleVerifyHeaderToken)
	api.Get("/presence", ctrls.PresenceController.HandleUserOnlineStatus)

	// for video sessions
	video := api.Group("/video")
	video.Post("/create", ctrls.VideoController.HandleCreateSession)
	video.Post("/changeRole", ctrls.VideoController.HandleChangeRole)

	// waiting room group
	waitingRoom := api.Group("/waitingRoom")
	waitingRoom.Get("/list", ctrls.VideoController.HandleWaitingParticipants)
	waitingRoom.Post("/admit", ctrls.VideoController.HandleAdmitParticipant)
	waitingRoom.Post("/deny", ctrls.VideoController.HandleDenyParticipant)

	// for recording
	recording := api.Group("/recording")
	recording.Post("/start", ctrls.VideoController.HandleStartRecording)
	recording.Post("/stop", ctrls.VideoController.HandleStopRecording)
	recording.Get("/fetch", ctrls.VideoController.HandleFetchRecordings)

	// websocket endpoint; the token rides in the query string
	rt.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	ctrls.WebsocketController.SetupSocketListeners()
	rt.Get("/ws", ctrls.WebsocketController.HandleWebSocket())

	// last method
	rt.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).SendString("not found")
	})

	return rt
}
