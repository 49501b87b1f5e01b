package http

import (
	"context"
	"net/http"

	"github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/adapters/ws"
	"github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/app/orch"
	"github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/config"
	"github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/domain"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const clientTokenKey = "client_token"

// ClientTokenMiddleware gives every browser a stable token kept in the
// session cookie.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		s := sessions.Default(c)
		token, _ := s.Get(clientTokenKey).(string)
		if token == "" {
			token = uuid.NewString()
			s.Set(clientTokenKey, token)
			if err := s.Save(); err != nil {
				log.Warn().Str("module", "adapters.http").Err(err).Msg("save session")
			}
		}
		c.Set(clientTokenKey, token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, o *orch.Orchestrator, gw *ws.Gateway) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("LanMeetSessions", store))
	r.Use(ClientTokenMiddleware())

	if cfg.StaticPath != "" {
		r.Static("/static", cfg.StaticPath)
		r.GET("/", func(c *gin.Context) {
			c.File(cfg.StaticPath + "/index.html")
		})
	}

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	api := r.Group("/api")

	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "ok",
			"server_id":   o.ServerID,
			"connections": o.Conns.Count(),
		})
	})

	api.GET("/sessions", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"sessions": o.Registry.List()})
	})

	api.GET("/sessions/:id", func(c *gin.Context) {
		snap, ok := o.Registry.Snapshot(domain.SessionID(c.Param("id")))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		c.JSON(http.StatusOK, snap)
	})

	api.GET("/stats", func(c *gin.Context) {
		resp := gin.H{
			"connections": o.Conns.Count(),
			"sessions":    len(o.Registry.List()),
		}
		if o.Relays != nil {
			resp["relay"] = o.Relays.Stats()
		}
		c.JSON(http.StatusOK, resp)
	})

	api.GET("/ws", func(c *gin.Context) {
		token := c.GetString(clientTokenKey)
		log.Info().Str("module", "adapters.http").Str("token", token).Msg("ws endpoint hit")
		gw.Serve(ctx, c.Writer, c.Request, token)
	})

	return r
}
