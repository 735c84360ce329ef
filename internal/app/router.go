package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Parley/internal/core"
	"github.com/dkeye/Parley/internal/domain"
)

var (
	ErrUnauthenticated = errors.New("session has no identity")
	ErrSessionClosed   = errors.New("session closed")
	ErrLogUnavailable  = errors.New("message log unavailable")
)

// Router serializes membership changes and message posts per room and
// drives persistence plus fan-out. Two events on the same room never
// interleave their mutate-snapshot-deliver sequence; events on different
// rooms proceed fully independently.
type Router struct {
	registry *core.Registry
	logStore core.MessageLog
	policy   Policy

	mu    sync.Mutex
	locks map[domain.RoomID]*sync.Mutex
}

func NewRouter(registry *core.Registry, logStore core.MessageLog, policy Policy) *Router {
	if policy == nil {
		policy = DropPolicy{}
	}
	return &Router{
		registry: registry,
		logStore: logStore,
		policy:   policy,
		locks:    make(map[domain.RoomID]*sync.Mutex),
	}
}

// Registry exposes the membership index for read-only collaborators.
func (rt *Router) Registry() *core.Registry { return rt.registry }

// roomLock returns the serialization point for one room.
func (rt *Router) roomLock(id domain.RoomID) *sync.Mutex {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	mu, ok := rt.locks[id]
	if !ok {
		mu = &sync.Mutex{}
		rt.locks[id] = mu
	}
	return mu
}

// HandleJoin adds the session to the room and broadcasts an entered
// notice to the room's membership, the joiner included. Unattached
// sessions are dropped without touching the room.
func (rt *Router) HandleJoin(roomID domain.RoomID, sess *core.Session) error {
	ident, ok := sess.Identity()
	if !ok {
		log.Warn().Str("module", "app.router").Str("sid", string(sess.ID())).Str("room", string(roomID)).Msg("join without identity dropped")
		return ErrUnauthenticated
	}
	if sess.Closed() {
		log.Warn().Str("module", "app.router").Str("sid", string(sess.ID())).Str("room", string(roomID)).Msg("join after close dropped")
		return ErrSessionClosed
	}

	mu := rt.roomLock(roomID)
	mu.Lock()
	defer mu.Unlock()

	if !rt.registry.Join(roomID, sess) && sess.Closed() {
		// Teardown won the race after the check above.
		return ErrSessionClosed
	}
	rt.fanOut(roomID, core.PresenceEvent(EnteredNotice(ident.DisplayName)))
	log.Info().Str("module", "app.router").Str("sid", string(sess.ID())).Str("room", string(roomID)).Msg("join")
	return nil
}

// HandleLeave removes the session from the room and broadcasts a left
// notice to the remaining membership. Leaving a room not joined is a
// no-op and emits nothing.
func (rt *Router) HandleLeave(roomID domain.RoomID, sess *core.Session) error {
	ident, ok := sess.Identity()
	if !ok {
		return ErrUnauthenticated
	}

	mu := rt.roomLock(roomID)
	mu.Lock()
	defer mu.Unlock()

	if !rt.registry.Leave(roomID, sess) {
		return nil
	}
	rt.fanOut(roomID, core.PresenceEvent(LeftNotice(ident.DisplayName)))
	log.Info().Str("module", "app.router").Str("sid", string(sess.ID())).Str("room", string(roomID)).Msg("leave")
	return nil
}

// HandlePost validates the body, appends the message to the log, then
// delivers it to every session in the membership snapshot, the sender
// included. The append always completes before any delivery: replaying
// the log reconstructs a superset of what was ever broadcast. A failed
// append aborts the post entirely and the caller may retry.
func (rt *Router) HandlePost(ctx context.Context, roomID domain.RoomID, sess *core.Session, body string) (domain.MessageID, error) {
	ident, ok := sess.Identity()
	if !ok {
		log.Warn().Str("module", "app.router").Str("sid", string(sess.ID())).Str("room", string(roomID)).Msg("post without identity dropped")
		return 0, ErrUnauthenticated
	}
	if err := domain.ValidateBody(body); err != nil {
		return 0, err
	}

	mu := rt.roomLock(roomID)
	mu.Lock()
	defer mu.Unlock()

	msg, err := rt.logStore.Append(ctx, roomID, *ident, body)
	if err != nil {
		log.Error().Err(err).Str("module", "app.router").Str("room", string(roomID)).Msg("message append failed")
		return 0, fmt.Errorf("%w: %v", ErrLogUnavailable, err)
	}

	rt.fanOut(roomID, core.MessageEvent(msg))
	return msg.ID, nil
}

// HandleClose tears the session down: exactly once it closes the
// delivery sink, removes the session from every joined room and emits a
// left notice per room. Safe to call from any disconnect path, any
// number of times, concurrently with in-flight broadcasts.
func (rt *Router) HandleClose(sess *core.Session) {
	first := sess.Close()
	// Drained on every call, not just the first: leaves are idempotent
	// and this keeps any lingering membership from surviving teardown.
	for _, roomID := range sess.Rooms() {
		_ = rt.HandleLeave(roomID, sess)
	}
	if first {
		log.Info().Str("module", "app.router").Str("sid", string(sess.ID())).Msg("session closed")
	}
}

// fanOut delivers one event to every session in the room's current
// snapshot. Callers hold the room lock. A sink that rejects the event
// loses that delivery only; the policy decides whether the slow session
// is also torn down.
func (rt *Router) fanOut(roomID domain.RoomID, ev core.Event) {
	sent, dropped := 0, 0
	for _, target := range rt.registry.Snapshot(roomID) {
		if err := target.Deliver(ev); err != nil {
			dropped++
			if rt.policy.OnDroppedDelivery(roomID, target) == CloseSession {
				// Teardown takes room locks; never from under this one.
				go rt.HandleClose(target)
			}
			continue
		}
		sent++
	}
	log.Debug().Str("module", "app.router").Str("room", string(roomID)).Int("sent", sent).Int("dropped", dropped).Msg("fan-out")
}
