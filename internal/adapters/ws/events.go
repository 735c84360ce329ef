package ws

import (
	"encoding/json"
	"fmt"

	"github.com/dkeye/Parley/internal/core"
)

// Wire shapes. Message events carry {user, message, timestamp}; status
// events carry {msg}; both are wrapped in an envelope with a type field.
type messageFrame struct {
	Type      string `json:"type"`
	User      string `json:"user"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type statusFrame struct {
	Type string `json:"type"`
	Msg  string `json:"msg"`
}

func encodeEvent(ev core.Event) ([]byte, error) {
	switch ev.Kind {
	case core.EventMessage:
		return json.Marshal(messageFrame{
			Type:      "message",
			User:      ev.Author.DisplayName,
			Message:   ev.Body,
			Timestamp: ev.CreatedAt.Format(core.TimeLayout),
		})
	case core.EventPresence:
		return json.Marshal(statusFrame{
			Type: "status",
			Msg:  ev.Text,
		})
	default:
		return nil, fmt.Errorf("unknown event kind %q", ev.Kind)
	}
}
