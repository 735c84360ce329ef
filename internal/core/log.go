package core

import (
	"context"

	"github.com/dkeye/Parley/internal/domain"
)

// MessageLog is the durable, append-only, per-room ordered message store
// and the sole source of truth for history. Append assigns the next
// monotonic message id within the room; the broadcast router serializes
// appends per room, so implementations never see concurrent appends for
// one room id. An append that returned successfully is visible to
// subsequent History calls for the same room.
type MessageLog interface {
	Append(ctx context.Context, roomID domain.RoomID, author domain.User, body string) (domain.Message, error)
	History(ctx context.Context, roomID domain.RoomID, limit int) ([]domain.Message, error)
}
