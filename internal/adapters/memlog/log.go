// Package memlog keeps the message log in process memory. It backs dev
// mode and tests; durability comes from the pglog adapter.
package memlog

import (
	"context"
	"sync"
	"time"

	"github.com/dkeye/Parley/internal/domain"
)

type Log struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID][]domain.Message
}

func New() *Log {
	return &Log{rooms: make(map[domain.RoomID][]domain.Message)}
}

// Append assigns the next message id within the room and stores the
// message. Ids start at 1 and are gap-free.
func (l *Log) Append(_ context.Context, roomID domain.RoomID, author domain.User, body string) (domain.Message, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	msgs := l.rooms[roomID]
	msg := domain.Message{
		ID:        domain.MessageID(len(msgs) + 1),
		RoomID:    roomID,
		Author:    author,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	l.rooms[roomID] = append(msgs, msg)
	return msg, nil
}

// History returns the room's messages ascending by id. A positive limit
// caps the result to the most recent entries, still ascending.
func (l *Log) History(_ context.Context, roomID domain.RoomID, limit int) ([]domain.Message, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	msgs := l.rooms[roomID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]domain.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}
