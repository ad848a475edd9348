package gateway

import (
	"context"
	"net/http"
	"sync"

	"github.com/coder/websocket"
)

type coderSocket struct {
	conn   *websocket.Conn
	cancel context.CancelFunc
	recv   chan []byte

	mu  sync.Mutex
	err error
}

func dialCoder(ctx context.Context, cfg Config) (Socket, error) {
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	header := http.Header{}
	if cfg.Origin != "" {
		header.Set("Origin", cfg.Origin)
	}

	conn, _, err := websocket.Dial(dialCtx, cfg.URL, &websocket.DialOptions{HTTPHeader: header})
	if err != nil {
		return nil, err
	}
	conn.SetReadLimit(8 << 20)

	readCtx, readCancel := context.WithCancel(context.Background())
	s := &coderSocket{
		conn:   conn,
		cancel: readCancel,
		recv:   make(chan []byte, 16),
	}
	go s.readLoop(readCtx)
	return s, nil
}

func (s *coderSocket) readLoop(ctx context.Context) {
	defer close(s.recv)
	for {
		_, msg, err := s.conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && ctx.Err() == nil {
				s.mu.Lock()
				s.err = err
				s.mu.Unlock()
			}
			return
		}
		select {
		case s.recv <- msg:
		case <-ctx.Done():
			return
		}
	}
}

func (s *coderSocket) Send(ctx context.Context, data []byte) error {
	return s.conn.Write(ctx, websocket.MessageText, data)
}

func (s *coderSocket) Receive() <-chan []byte {
	return s.recv
}

func (s *coderSocket) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *coderSocket) Close() error {
	s.cancel()
	return s.conn.Close(websocket.StatusNormalClosure, "")
}
