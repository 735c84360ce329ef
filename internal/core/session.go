package core

import (
	"errors"
	"sync"

	"github.com/dkeye/Parley/internal/domain"
)

type SessionID string

var (
	ErrNoIdentity      = errors.New("no identity attached")
	ErrAlreadyAttached = errors.New("identity already attached")
)

// DeliverySink abstracts the outbound side of one connection.
// Owned by the adapter; the adapter must Close() it.
type DeliverySink interface {
	TrySend(Event) error
	Close()
}

// Session binds one live connection to its identity and its private
// outbound delivery path. The transport that created it owns it; the
// registry holds only a non-owning reference keyed by id.
type Session struct {
	id   SessionID
	sink DeliverySink

	mu       sync.RWMutex
	identity *domain.User
	rooms    []domain.RoomID // join order
	closed   bool

	closeOnce sync.Once
}

func NewSession(id SessionID, sink DeliverySink) *Session {
	return &Session{id: id, sink: sink}
}

func (s *Session) ID() SessionID { return s.id }

// Attach binds an identity to the session. A session without an identity
// may not join or post. The identity is immutable once attached.
func (s *Session) Attach(u *domain.User) error {
	if u == nil {
		return ErrNoIdentity
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity != nil {
		return ErrAlreadyAttached
	}
	s.identity = u
	return nil
}

// Identity returns the attached identity, if any.
func (s *Session) Identity() (*domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return nil, false
	}
	return s.identity, true
}

// Deliver enqueues an outbound event. It never blocks: a full or closed
// sink drops the event for this session only and reports the failure.
func (s *Session) Deliver(ev Event) error {
	return s.sink.TrySend(ev)
}

// Rooms returns the rooms the session has joined, in join order.
func (s *Session) Rooms() []domain.RoomID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.RoomID, len(s.rooms))
	copy(out, s.rooms)
	return out
}

// trackJoin records room membership on the session's side of the edge.
// Called by the registry; reports whether the room was newly added. A
// closed session refuses new rooms, so a join racing teardown can never
// leave a membership edge behind.
func (s *Session) trackJoin(id domain.RoomID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	for _, r := range s.rooms {
		if r == id {
			return false
		}
	}
	s.rooms = append(s.rooms, id)
	return true
}

// trackLeave is the inverse of trackJoin.
func (s *Session) trackLeave(id domain.RoomID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.rooms {
		if r == id {
			s.rooms = append(s.rooms[:i], s.rooms[i+1:]...)
			return true
		}
	}
	return false
}

// Close tears the session down exactly once, whichever disconnect path
// detects the closure first. Reports whether this call was the first.
func (s *Session) Close() bool {
	first := false
	s.closeOnce.Do(func() {
		first = true
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		s.sink.Close()
	})
	return first
}

// Closed reports whether teardown has begun.
func (s *Session) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}
