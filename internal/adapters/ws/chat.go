package ws

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Parley/internal/app"
	"github.com/dkeye/Parley/internal/core"
	"github.com/dkeye/Parley/internal/domain"
)

func (ctl *ChatWSController) handleJoin(sess *core.Session, conn *Conn, data []byte) {
	type joinPayload struct {
		Type string `json:"type"`
		Room string `json:"room"`
	}
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil || p.Room == "" {
		log.Error().Err(err).Str("module", "ws").Msg("bad join payload")
		ctl.sendJSON(conn, map[string]any{
			"type":  "error",
			"error": "bad_payload",
		})
		return
	}

	log.Info().Str("module", "ws").Str("sid", string(sess.ID())).Str("room", p.Room).Msg("join")
	if err := ctl.Router.HandleJoin(domain.RoomID(p.Room), sess); err != nil {
		// Unattached sessions are dropped silently; the connection stays up.
		log.Warn().Err(err).Str("module", "ws").Str("sid", string(sess.ID())).Msg("join rejected")
	}
}

func (ctl *ChatWSController) handleLeave(sess *core.Session, conn *Conn, data []byte) {
	type leavePayload struct {
		Type string `json:"type"`
		Room string `json:"room"`
	}
	var p leavePayload
	if err := json.Unmarshal(data, &p); err != nil || p.Room == "" {
		log.Error().Err(err).Str("module", "ws").Msg("bad leave payload")
		ctl.sendJSON(conn, map[string]any{
			"type":  "error",
			"error": "bad_payload",
		})
		return
	}

	log.Info().Str("module", "ws").Str("sid", string(sess.ID())).Str("room", p.Room).Msg("leave")
	_ = ctl.Router.HandleLeave(domain.RoomID(p.Room), sess)
}

func (ctl *ChatWSController) handleMessage(ctx context.Context, sess *core.Session, conn *Conn, data []byte) {
	type messagePayload struct {
		Type    string `json:"type"`
		Room    string `json:"room"`
		Message string `json:"message"`
	}
	var p messagePayload
	if err := json.Unmarshal(data, &p); err != nil || p.Room == "" {
		log.Error().Err(err).Str("module", "ws").Msg("bad message payload")
		ctl.sendJSON(conn, map[string]any{
			"type":  "error",
			"error": "bad_payload",
		})
		return
	}

	if ident, ok := sess.Identity(); ok && !ctl.limiter.Allow(ident.ID) {
		ctl.sendJSON(conn, map[string]any{
			"type":  "error",
			"error": "rate_limited",
		})
		return
	}

	_, err := ctl.Router.HandlePost(ctx, domain.RoomID(p.Room), sess, p.Message)
	switch {
	case err == nil:
	case errors.Is(err, app.ErrUnauthenticated):
		// Mirrors the posts-require-identity guard: dropped, no reply.
	case errors.Is(err, domain.ErrBodyEmpty), errors.Is(err, domain.ErrBodyTooLong):
		ctl.sendJSON(conn, map[string]any{
			"type":  "error",
			"error": "invalid_message",
		})
	case errors.Is(err, app.ErrLogUnavailable):
		ctl.sendJSON(conn, map[string]any{
			"type":  "error",
			"error": "post_failed",
		})
	default:
		log.Error().Err(err).Str("module", "ws").Str("sid", string(sess.ID())).Msg("post error")
	}
}
