package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dkeye/Parley/internal/config"
)

func TestWritePump_SendsPings(t *testing.T) {
	upgraded := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		upgraded <- c
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	serverSide := <-upgraded
	defer serverSide.Close()

	cfg := &config.Config{PingPeriod: 20 * time.Millisecond, SendBuffer: 4}
	ctl := NewChatWSController(nil, cfg)
	conn := newConn(serverSide, cfg.SendBuffer)
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ctl.writePump(ctx, conn)

	pings := make(chan struct{}, 4)
	client.SetPingHandler(func(string) error {
		select {
		case pings <- struct{}{}:
		default:
		}
		return nil
	})
	// Control frames are only processed while reading.
	go func() {
		for {
			if _, _, err := client.ReadMessage(); err != nil {
				return
			}
		}
	}()

	select {
	case <-pings:
	case <-time.After(2 * time.Second):
		t.Fatal("no ping received from writePump")
	}
}
