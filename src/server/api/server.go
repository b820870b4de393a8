package api

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/emilsandberg/sl-board/src/common/cache"
	"github.com/emilsandberg/sl-board/src/common/config"
	"github.com/emilsandberg/sl-board/src/server/hub"
	"github.com/emilsandberg/sl-board/src/server/refresh"
)

type APIServer struct {
	Config    *config.Config
	Logger    *zap.SugaredLogger
	Store     *cache.Store
	Hub       *hub.Hub
	Refresher *refresh.Refresher
}

func NewServer(cfg *config.Config, logger *zap.SugaredLogger, store *cache.Store, h *hub.Hub, r *refresh.Refresher) *APIServer {
	return &APIServer{
		Config:    cfg,
		Logger:    logger,
		Store:     store,
		Hub:       h,
		Refresher: r,
	}
}

func RegisterHandlers(app *fiber.App, server *APIServer) {
	app.Get("/", server.GetRoot)
	app.Get("/health", server.GetHealth)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Get("/api/departures", server.GetDepartures)
	app.Post("/api/refresh", server.PostRefresh)

	app.Use("/ws", server.UpgradeWebsocket)
	app.Get("/ws", websocket.New(server.HandleWebsocket))
}
