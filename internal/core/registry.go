package core

import (
	"sync"

	"github.com/dkeye/Parley/internal/domain"
	"github.com/rs/zerolog/log"
)

// Registry is the authoritative live-membership index: room id to the
// set of sessions currently joined. Each room carries its own lock so
// unrelated rooms proceed in parallel. The registry never validates room
// existence; an unknown room behaves as one with an empty membership
// set.
type Registry struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*roomState
}

type roomState struct {
	mu      sync.RWMutex
	members map[SessionID]*Session
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[domain.RoomID]*roomState)}
}

func (r *Registry) room(id domain.RoomID) *roomState {
	r.mu.RLock()
	st, ok := r.rooms[id]
	r.mu.RUnlock()
	if ok {
		return st
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok = r.rooms[id]; ok {
		return st
	}
	st = &roomState{members: make(map[SessionID]*Session)}
	r.rooms[id] = st
	return st
}

// Join adds the membership edge on both sides: the room's member set and
// the session's own room list. Joining a room already joined is a no-op,
// and a closed session is refused so teardown can never be outlived by a
// membership edge.
func (r *Registry) Join(id domain.RoomID, s *Session) bool {
	st := r.room(id)
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.members[s.ID()]; ok {
		return false
	}
	if !s.trackJoin(id) {
		return false
	}
	st.members[s.ID()] = s
	log.Debug().Str("module", "core.registry").Str("sid", string(s.ID())).Str("room", string(id)).Msg("member joined")
	return true
}

// Leave removes both sides of the membership edge. Leaving a room not
// joined is a no-op; reports whether the edge existed.
func (r *Registry) Leave(id domain.RoomID, s *Session) bool {
	st := r.room(id)
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.members[s.ID()]; !ok {
		return false
	}
	delete(st.members, s.ID())
	s.trackLeave(id)
	log.Debug().Str("module", "core.registry").Str("sid", string(s.ID())).Str("room", string(id)).Msg("member left")
	return true
}

// LeaveAll removes the session from every room it belongs to and
// returns the affected rooms in the session's join order, so left
// notices can be emitted deterministically on teardown.
func (r *Registry) LeaveAll(s *Session) []domain.RoomID {
	rooms := s.Rooms()
	left := make([]domain.RoomID, 0, len(rooms))
	for _, id := range rooms {
		if r.Leave(id, s) {
			left = append(left, id)
		}
	}
	return left
}

// Snapshot returns the sessions currently joined, consistent as of the
// call: it never observes half of a concurrent Join or Leave.
func (r *Registry) Snapshot(id domain.RoomID) []*Session {
	st := r.room(id)
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]*Session, 0, len(st.members))
	for _, s := range st.members {
		out = append(out, s)
	}
	return out
}

// MemberCount reports how many sessions are joined to the room.
func (r *Registry) MemberCount(id domain.RoomID) int {
	st := r.room(id)
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.members)
}
