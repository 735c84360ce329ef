package http

import (
	"context"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Parley/internal/adapters/ws"
	"github.com/dkeye/Parley/internal/app"
	"github.com/dkeye/Parley/internal/config"
	"github.com/dkeye/Parley/internal/core"
	"github.com/dkeye/Parley/internal/domain"
)

func genClientToken() string {
	idStr := uuid.NewString()
	return idStr
}

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

// NoCacheMiddleware keeps chat pages and history out of caches.
func NoCacheMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
		c.Header("Pragma", "no-cache")
		c.Header("Expires", "-1")
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, router *app.Router, msgLog core.MessageLog) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("ParleySessions", store))
	r.Use(ClientTokenMiddleware())
	r.Use(NoCacheMiddleware())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	api := r.Group("/api")

	ctrl := ws.NewChatWSController(router, cfg)
	api.GET("/ws/chat", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("sid", c.GetString("client_token")).Msg("ws chat endpoint hit")
		ctrl.HandleChat(ctx, c)
	})

	api.GET("/rooms/:room/messages", historyHandler(msgLog, cfg.HistoryLimit))

	return r
}

// historyHandler answers history requests straight from the message
// log, ascending by message id.
func historyHandler(msgLog core.MessageLog, limit int) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID := domain.RoomID(c.Param("room"))
		msgs, err := msgLog.History(c.Request.Context(), roomID, limit)
		if err != nil {
			log.Error().Err(err).Str("module", "adapters.http").Str("room", string(roomID)).Msg("history query failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history unavailable"})
			return
		}

		out := make([]gin.H, 0, len(msgs))
		for _, m := range msgs {
			out = append(out, gin.H{
				"user":      m.Author.DisplayName,
				"message":   m.Body,
				"timestamp": m.CreatedAt.Format(core.TimeLayout),
			})
		}
		c.JSON(http.StatusOK, out)
	}
}
