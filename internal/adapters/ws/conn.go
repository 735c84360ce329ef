package ws

import (
	"errors"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/dkeye/Parley/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

// Conn wraps one websocket with a buffered outbound queue. It implements
// core.DeliverySink; the controller owns it and must Close() it.
type Conn struct {
	conn *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

func newConn(wsc *websocket.Conn, buf int) *Conn {
	return &Conn{
		conn: wsc,
		send: make(chan []byte, buf),
	}
}

// TrySend encodes the event and enqueues it without blocking. A full
// queue or a closed connection loses the event for this peer only.
func (c *Conn) TrySend(ev core.Event) error {
	b, err := encodeEvent(ev)
	if err != nil {
		return err
	}
	return c.trySendRaw(b)
}

func (c *Conn) trySendRaw(b []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- b:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *Conn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}
