package gateway

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

type gorillaSocket struct {
	conn *websocket.Conn

	writeMu sync.Mutex
	recv    chan []byte

	done      chan struct{}
	closeOnce sync.Once

	mu  sync.Mutex
	err error
}

func dialGorilla(ctx context.Context, cfg Config) (Socket, error) {
	dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}

	header := http.Header{}
	if cfg.Origin != "" {
		header.Set("Origin", cfg.Origin)
	}

	conn, _, err := dialer.DialContext(ctx, cfg.URL, header)
	if err != nil {
		return nil, err
	}

	s := &gorillaSocket{
		conn: conn,
		recv: make(chan []byte, 16),
		done: make(chan struct{}),
	}
	go s.readLoop()
	return s, nil
}

func (s *gorillaSocket) readLoop() {
	defer close(s.recv)
	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.mu.Lock()
				s.err = err
				s.mu.Unlock()
			}
			return
		}
		// done unblocks a pending send once nobody is draining recv;
		// conn.Close alone only interrupts ReadMessage.
		select {
		case s.recv <- msg:
		case <-s.done:
			return
		}
	}
}

func (s *gorillaSocket) Send(ctx context.Context, data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if deadline, ok := ctx.Deadline(); ok {
		s.conn.SetWriteDeadline(deadline)
	}
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *gorillaSocket) Receive() <-chan []byte {
	return s.recv
}

func (s *gorillaSocket) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *gorillaSocket) Close() error {
	s.closeOnce.Do(func() { close(s.done) })

	s.writeMu.Lock()
	_ = s.conn.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
	)
	s.writeMu.Unlock()
	return s.conn.Close()
}
