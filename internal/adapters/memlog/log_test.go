package memlog

import (
	"context"
	"testing"

	"github.com/dkeye/Parley/internal/domain"
)

var author = domain.User{ID: "u1", DisplayName: "alice"}

func TestLog_AppendAssignsMonotonicIDs(t *testing.T) {
	l := New()
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		msg, err := l.Append(ctx, "lobby", author, "hi")
		if err != nil {
			t.Fatalf("Append() error = %v", err)
		}
		if msg.ID != domain.MessageID(i) {
			t.Errorf("message id = %d, want %d", msg.ID, i)
		}
	}

	// Rooms count independently.
	msg, err := l.Append(ctx, "other", author, "hi")
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if msg.ID != 1 {
		t.Errorf("other room first id = %d, want 1", msg.ID)
	}
}

func TestLog_ReadYourWrites(t *testing.T) {
	l := New()
	ctx := context.Background()

	if _, err := l.Append(ctx, "lobby", author, "first"); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	history, err := l.History(ctx, "lobby", 0)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 1 || history[0].Body != "first" {
		t.Errorf("History() = %v, want the appended message", history)
	}
}

func TestLog_HistoryPrefixStable(t *testing.T) {
	l := New()
	ctx := context.Background()

	l.Append(ctx, "lobby", author, "one")
	l.Append(ctx, "lobby", author, "two")
	before, _ := l.History(ctx, "lobby", 0)

	l.Append(ctx, "lobby", author, "three")
	after, _ := l.History(ctx, "lobby", 0)

	if len(after) != 3 {
		t.Fatalf("history has %d messages, want 3", len(after))
	}
	for i, m := range before {
		if after[i] != m {
			t.Errorf("history[%d] changed after append: %v != %v", i, after[i], m)
		}
	}
	for i, m := range after {
		if m.ID != domain.MessageID(i+1) {
			t.Errorf("history[%d].ID = %d, want %d", i, m.ID, i+1)
		}
	}
}

func TestLog_HistoryLimitKeepsRecent(t *testing.T) {
	l := New()
	ctx := context.Background()

	for _, body := range []string{"one", "two", "three"} {
		l.Append(ctx, "lobby", author, body)
	}

	history, err := l.History(ctx, "lobby", 2)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history has %d messages, want 2", len(history))
	}
	if history[0].Body != "two" || history[1].Body != "three" {
		t.Errorf("limited history = [%s %s], want [two three]", history[0].Body, history[1].Body)
	}
}

func TestLog_HistoryUnknownRoomEmpty(t *testing.T) {
	l := New()
	history, err := l.History(context.Background(), "ghost", 0)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 0 {
		t.Errorf("history has %d messages, want 0", len(history))
	}
}
