// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"

	"github.com/google/uuid"
)

const MaxDisplayNameLen = 80

var (
	ErrDisplayNameTooLong = errors.New("display name too long")
	ErrDisplayNameEmpty   = errors.New("display name empty")
)

type UserID string

// User is the identity attached to a connection. The auth layer supplies
// it and it never changes for the life of a session.
type User struct {
	ID          UserID `json:"id"`
	DisplayName string `json:"display_name"`
}

// NewUser is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewUser(displayName string) (*User, error) {
	if len(displayName) == 0 {
		return nil, ErrDisplayNameEmpty
	}
	if len(displayName) > MaxDisplayNameLen {
		return nil, ErrDisplayNameTooLong
	}
	id := UserID(uuid.NewString())
	return &User{ID: id, DisplayName: displayName}, nil
}
