package http

import (
	"context"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/daktari-health/telecall/internal/adapters/rtc"
	"github.com/daktari-health/telecall/internal/adapters/signal"
	"github.com/daktari-health/telecall/internal/call"
	"github.com/daktari-health/telecall/internal/config"
)

func SetupRouter(ctx context.Context, cfg *config.Config, coord *call.Coordinator, reg *call.Registry) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("TelecallSession", store))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.Use(IdentityMiddleware(cfg))

	// GET /api/rooms lists live rooms with membership and call activity.
	api.GET("/rooms", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"rooms": reg.RoomInfos()})
	})

	// GET /api/webrtc/config returns the ICE servers for the peer-to-peer leg.
	api.GET("/webrtc/config", func(c *gin.Context) {
		c.JSON(http.StatusOK, rtc.Configuration(cfg))
	})

	ctrl := signal.NewController(coord, cfg)
	ws := r.Group("/ws")
	ws.Use(IdentityMiddleware(cfg))
	ws.GET("/signal", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Msg("ws signal endpoint hit")
		ctrl.HandleSignal(ctx, c, IdentityFromContext(c))
	})

	return r
}
