package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Parley/internal/app"
	"github.com/dkeye/Parley/internal/config"
	"github.com/dkeye/Parley/internal/core"
	"github.com/dkeye/Parley/internal/domain"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type ChatWSController struct {
	Router  *app.Router
	cfg     *config.Config
	limiter *PostRateLimiter
}

func NewChatWSController(router *app.Router, cfg *config.Config) *ChatWSController {
	return &ChatWSController{
		Router:  router,
		cfg:     cfg,
		limiter: NewPostRateLimiter(cfg.PostLimit, cfg.PostWindow),
	}
}

// HandleChat upgrades the connection, builds a session around it and
// starts the pumps. Identity comes from the auth collaborator's session
// cookie; without it the session stays unattached and may not join or
// post.
func (ctl *ChatWSController) HandleChat(ctx context.Context, c *gin.Context) {
	sid := core.SessionID(c.GetString("client_token"))
	log.Info().Str("module", "ws").Str("sid", string(sid)).Msg("new WS connection")

	wsc, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("ws upgrade")
		return
	}
	wsc.SetReadLimit(ctl.cfg.ReadLimit)
	readWait := ctl.cfg.PingPeriod + 10*time.Second
	_ = wsc.SetReadDeadline(time.Now().Add(readWait))
	wsc.SetPongHandler(func(string) error {
		return wsc.SetReadDeadline(time.Now().Add(readWait))
	})

	conn := newConn(wsc, ctl.cfg.SendBuffer)
	sess := core.NewSession(sid, conn)
	if user, ok := identityFrom(c); ok {
		if err := sess.Attach(user); err != nil {
			log.Error().Err(err).Str("module", "ws").Str("sid", string(sid)).Msg("attach identity")
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, sess, conn)
}

// identityFrom reads the identity the auth collaborator stored in the
// session cookie. The user id falls back to the client token so a guest
// keeps a stable id across rooms.
func identityFrom(c *gin.Context) (*domain.User, bool) {
	s := sessions.Default(c)
	name, _ := s.Get("display_name").(string)
	if name == "" {
		return nil, false
	}
	name = truncateName(name)
	uid, _ := s.Get("user_id").(string)
	if uid == "" {
		uid = c.GetString("client_token")
	}
	return &domain.User{ID: domain.UserID(uid), DisplayName: name}, true
}

// truncateName clips a display name to MaxDisplayNameLen bytes without
// splitting a rune.
func truncateName(name string) string {
	if len(name) <= domain.MaxDisplayNameLen {
		return name
	}
	cut := domain.MaxDisplayNameLen
	for cut > 0 && !utf8.RuneStart(name[cut]) {
		cut--
	}
	return name[:cut]
}

func (ctl *ChatWSController) sendJSON(c *Conn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("sendJSON marshal")
		return
	}
	_ = c.trySendRaw(b)
}
