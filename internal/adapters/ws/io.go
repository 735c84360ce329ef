package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Parley/internal/core"
)

func (ctl *ChatWSController) writePump(ctx context.Context, c *Conn) {
	period := ctl.cfg.PingPeriod
	if period <= 0 {
		period = 54 * time.Second
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "ws").Msg("writePump ctx done")
			return
		case <-ticker.C:
			// Keeps half-open connections from lingering until the
			// next broadcast happens to hit them.
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump ping error")
				return
			}
		case data, ok := <-c.send:
			if !ok {
				log.Warn().Str("module", "ws").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *ChatWSController) readPump(ctx context.Context, cancel context.CancelFunc, sess *core.Session, c *Conn) {
	defer func() {
		log.Info().Str("module", "ws").Str("sid", string(sess.ID())).Msg("readPump closing")
		cancel()
		ctl.Router.HandleClose(sess)
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "ws").Str("sid", string(sess.ID())).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Error().Err(err).Str("module", "ws").Str("sid", string(sess.ID())).Msg("readPump read error")
				return
			}
			ctl.handleInbound(ctx, sess, c, data)
		}
	}
}

func (ctl *ChatWSController) handleInbound(ctx context.Context, sess *core.Session, c *Conn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("bad json")
		return
	}

	switch env.Type {
	case "join":
		ctl.handleJoin(sess, c, data)
	case "leave":
		ctl.handleLeave(sess, c, data)
	case "message":
		ctl.handleMessage(ctx, sess, c, data)
	case "ping":
		ctl.handlePing(c)
	default:
		log.Warn().Str("module", "ws").Str("type", env.Type).Msg("unknown event")
	}
}

func (ctl *ChatWSController) handlePing(c *Conn) {
	ctl.sendJSON(c, struct {
		Type string `json:"type"`
	}{Type: "pong"})
}
