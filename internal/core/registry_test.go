package core

import (
	"fmt"
	"sync"
	"testing"

	"github.com/dkeye/Parley/internal/domain"
)

func newTestSession(id string) *Session {
	return NewSession(SessionID(id), &stubSink{})
}

// Membership must agree from both sides after every operation: the
// registry's room index and the session's own room list.
func checkAgreement(t *testing.T, r *Registry, s *Session, rooms ...domain.RoomID) {
	t.Helper()

	got := s.Rooms()
	if len(got) != len(rooms) {
		t.Fatalf("session rooms = %v, want %v", got, rooms)
	}
	for i, id := range rooms {
		if got[i] != id {
			t.Fatalf("session rooms = %v, want %v", got, rooms)
		}
	}
	for _, id := range rooms {
		found := false
		for _, member := range r.Snapshot(id) {
			if member.ID() == s.ID() {
				found = true
			}
		}
		if !found {
			t.Fatalf("session %s missing from snapshot of %s", s.ID(), id)
		}
	}
}

func TestRegistry_JoinIdempotent(t *testing.T) {
	r := NewRegistry()
	s := newTestSession("s1")

	if !r.Join("lobby", s) {
		t.Error("first Join() = false, want true")
	}
	if r.Join("lobby", s) {
		t.Error("second Join() = true, want false")
	}
	if got := r.MemberCount("lobby"); got != 1 {
		t.Errorf("MemberCount = %d, want 1", got)
	}
	checkAgreement(t, r, s, "lobby")
}

func TestRegistry_LeaveNotJoinedNoop(t *testing.T) {
	r := NewRegistry()
	s := newTestSession("s1")

	if r.Leave("lobby", s) {
		t.Error("Leave() of unjoined room = true, want false")
	}
	checkAgreement(t, r, s)
}

func TestRegistry_JoinLeaveBothSides(t *testing.T) {
	r := NewRegistry()
	s := newTestSession("s1")

	r.Join("a", s)
	r.Join("b", s)
	checkAgreement(t, r, s, "a", "b")

	if !r.Leave("a", s) {
		t.Error("Leave(a) = false, want true")
	}
	checkAgreement(t, r, s, "b")
	if got := r.MemberCount("a"); got != 0 {
		t.Errorf("MemberCount(a) = %d, want 0", got)
	}
}

func TestRegistry_SnapshotUnknownRoomEmpty(t *testing.T) {
	r := NewRegistry()
	if got := len(r.Snapshot("ghost")); got != 0 {
		t.Errorf("Snapshot(ghost) has %d members, want 0", got)
	}
}

func TestRegistry_LeaveAllJoinOrder(t *testing.T) {
	r := NewRegistry()
	s := newTestSession("s1")

	rooms := []domain.RoomID{"c", "a", "b"}
	for _, id := range rooms {
		r.Join(id, s)
	}

	left := r.LeaveAll(s)
	if len(left) != len(rooms) {
		t.Fatalf("LeaveAll returned %v, want %v", left, rooms)
	}
	for i, id := range rooms {
		if left[i] != id {
			t.Errorf("LeaveAll[%d] = %s, want %s", i, left[i], id)
		}
	}
	if got := len(s.Rooms()); got != 0 {
		t.Errorf("session still tracks %d rooms, want 0", got)
	}
	for _, id := range rooms {
		if got := r.MemberCount(id); got != 0 {
			t.Errorf("MemberCount(%s) = %d, want 0", id, got)
		}
	}

	if got := r.LeaveAll(s); len(got) != 0 {
		t.Errorf("second LeaveAll returned %v, want empty", got)
	}
}

func TestRegistry_JoinClosedSessionRefused(t *testing.T) {
	r := NewRegistry()
	s := newTestSession("s1")
	s.Close()

	if r.Join("lobby", s) {
		t.Error("Join() of closed session = true, want false")
	}
	if got := r.MemberCount("lobby"); got != 0 {
		t.Errorf("MemberCount = %d, want 0", got)
	}
	if got := len(s.Rooms()); got != 0 {
		t.Errorf("closed session tracks %d rooms, want 0", got)
	}
}

func TestRegistry_ConcurrentJoinLeave(t *testing.T) {
	r := NewRegistry()

	const sessions = 16
	const rounds = 50

	var wg sync.WaitGroup
	for i := 0; i < sessions; i++ {
		s := newTestSession(fmt.Sprintf("s%d", i))
		wg.Add(1)
		go func(s *Session) {
			defer wg.Done()
			for j := 0; j < rounds; j++ {
				r.Join("lobby", s)
				r.Join("side", s)
				r.Leave("side", s)
			}
		}(s)
	}
	wg.Wait()

	if got := r.MemberCount("lobby"); got != sessions {
		t.Errorf("MemberCount(lobby) = %d, want %d", got, sessions)
	}
	if got := r.MemberCount("side"); got != 0 {
		t.Errorf("MemberCount(side) = %d, want 0", got)
	}
	for _, s := range r.Snapshot("lobby") {
		rooms := s.Rooms()
		if len(rooms) != 1 || rooms[0] != "lobby" {
			t.Errorf("session %s rooms = %v, want [lobby]", s.ID(), rooms)
		}
	}
}
