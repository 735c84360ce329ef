package core

import (
	"time"

	"github.com/dkeye/Parley/internal/domain"
)

// TimeLayout is the wire format for message timestamps.
const TimeLayout = "2006-01-02 15:04:05"

type EventKind string

const (
	// EventMessage carries a persisted chat message.
	EventMessage EventKind = "message"
	// EventPresence carries a join/leave status notice. Presence notices
	// are never persisted to the message log.
	EventPresence EventKind = "status"
)

// Event is the one shape a session's delivery sink receives.
type Event struct {
	Kind EventKind

	// Message fields.
	Author    domain.User
	Body      string
	CreatedAt time.Time

	// Presence fields.
	Text string
}

// MessageEvent wraps a persisted message for delivery.
func MessageEvent(msg domain.Message) Event {
	return Event{
		Kind:      EventMessage,
		Author:    msg.Author,
		Body:      msg.Body,
		CreatedAt: msg.CreatedAt,
	}
}

// PresenceEvent wraps a status notice for delivery.
func PresenceEvent(text string) Event {
	return Event{Kind: EventPresence, Text: text}
}
