package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// A close with undrained frames still in flight must let the read loop exit
// rather than leaving it parked on the receive channel.
func TestGorillaCloseUnblocksReadLoop(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		// Push well past the client's receive buffer.
		for i := 0; i < 40; i++ {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"tick"}`)); err != nil {
				return
			}
		}
		// Hold the connection open; the client closes first.
		time.Sleep(2 * time.Second)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sock, err := dialGorilla(ctx, Config{URL: "ws" + strings.TrimPrefix(srv.URL, "http")})
	if err != nil {
		t.Fatal(err)
	}

	// Nobody drains Receive here, so the read loop fills the buffer and
	// parks on the next send.
	time.Sleep(100 * time.Millisecond)

	if err := sock.Close(); err != nil {
		t.Logf("close: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-sock.Receive():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("receive channel never closed after Close")
		}
	}
}
