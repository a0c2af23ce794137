package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirecanvas-server/internal/config"
	"github.com/vovakirdan/wirecanvas-server/internal/core"
	"github.com/vovakirdan/wirecanvas-server/internal/metrics"
)

// NewServer builds the HTTP server: websocket endpoint, health, metrics,
// room inspection and, when configured, the static browser client.
func NewServer(hub *core.Hub, m *metrics.Metrics, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           NewHandler(hub, m, cfg, logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// NewHandler mounts the websocket endpoint on a plain mux and hands every
// other path to the gin router. The upgrade must not pass through gin's
// response writer.
func NewHandler(hub *core.Hub, m *metrics.Metrics, cfg *config.Config, logger *zerolog.Logger) stdhttp.Handler {
	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", NewWSHandler(hub, cfg, m, logger))
	mux.Handle("/", NewRouter(hub, m, cfg, logger))
	return mux
}

// NewRouter builds the gin engine for everything except /ws.
func NewRouter(hub *core.Hub, m *metrics.Metrics, cfg *config.Config, logger *zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(RecoveryMiddleware(logger), LoggerMiddleware(logger))

	router.GET("/health", healthHandler)
	if m != nil {
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}

	rooms := NewRoomHandlers(hub.Registry(), logger)
	api := router.Group("/api")
	api.GET("/rooms", rooms.ListRooms)
	api.GET("/rooms/:id", rooms.GetRoom)

	if cfg.StaticDir != "" {
		router.NoRoute(gin.WrapH(stdhttp.FileServer(stdhttp.Dir(cfg.StaticDir))))
	}

	return router
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
