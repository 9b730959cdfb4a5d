package http

import (
	"context"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/avezina/liveshop/internal/adapters/ws"
	"github.com/avezina/liveshop/internal/app"
	"github.com/avezina/liveshop/internal/config"
)

func genClientToken() string {
	return uuid.NewString()
}

// ClientTokenMiddleware assigns each browser a stable connection
// identity via cookie.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = genClientToken()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

// HealthChecker is what /healthz needs from the store.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

func SetupRouter(ctx context.Context, cfg *config.Config, orch *app.Orchestrator, health HealthChecker) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("LiveshopSessions", store))
	r.Use(ClientTokenMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		if health != nil {
			if err := health.HealthCheck(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	log.Info().Str("module", "adapters.http").Msg("router setup")

	api := r.Group("/api")

	api.GET("/streams", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"streams": orch.ListActive()})
	})

	api.GET("/rtc-config", func(c *gin.Context) {
		servers := make([]webrtc.ICEServer, 0, len(cfg.ICEServers))
		for _, s := range cfg.ICEServers {
			ice := webrtc.ICEServer{URLs: s.URLs, Username: s.Username}
			if s.Credential != "" {
				ice.Credential = s.Credential
			}
			servers = append(servers, ice)
		}
		c.JSON(http.StatusOK, gin.H{"iceServers": servers})
	})

	ctrl := ws.NewStreamWSController(cfg, orch)
	api.GET("/ws/stream", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("conn", c.GetString("client_token")).Msg("ws stream endpoint hit")
		ctrl.HandleStream(ctx, c)
	})

	return r
}
