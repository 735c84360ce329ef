package app

import (
	"github.com/dkeye/Parley/internal/core"
	"github.com/dkeye/Parley/internal/domain"
)

type DropAction int

const (
	DropEvent DropAction = iota
	CloseSession
)

// Policy decides what happens to a session whose delivery sink rejected
// an event during fan-out.
type Policy interface {
	OnDroppedDelivery(roomID domain.RoomID, sess *core.Session) DropAction
}

// DropPolicy loses the single delivery and leaves the session alone.
type DropPolicy struct{}

func (DropPolicy) OnDroppedDelivery(domain.RoomID, *core.Session) DropAction {
	return DropEvent
}

// KickPolicy tears down any session that cannot keep up.
type KickPolicy struct{}

func (KickPolicy) OnDroppedDelivery(domain.RoomID, *core.Session) DropAction {
	return CloseSession
}
