package domain

import (
	"errors"
	"time"
	"unicode/utf8"
)

const MaxBodyLen = 500

var (
	ErrBodyEmpty   = errors.New("message body empty")
	ErrBodyTooLong = errors.New("message body too long")
)

// MessageID is monotonically increasing within a room.
type MessageID int64

// Message is immutable once persisted. Author is a snapshot of the
// poster's identity at post time.
type Message struct {
	ID        MessageID
	RoomID    RoomID
	Author    User
	Body      string
	CreatedAt time.Time
}

// ValidateBody enforces the bounded-body rule before a post is accepted.
func ValidateBody(body string) error {
	if body == "" {
		return ErrBodyEmpty
	}
	if utf8.RuneCountInString(body) > MaxBodyLen {
		return ErrBodyTooLong
	}
	return nil
}
