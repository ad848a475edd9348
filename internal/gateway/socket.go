package gateway

import (
	"context"
	"fmt"
	"time"
)

const dialTimeout = 10 * time.Second

// Socket is a minimal duplex text-message connection to the gateway. The
// receive channel closes when the connection drops; Err distinguishes a
// transport failure from a clean close.
type Socket interface {
	Send(ctx context.Context, data []byte) error
	Receive() <-chan []byte
	Err() error
	Close() error
}

// Config selects and parameterizes the socket implementation.
type Config struct {
	URL    string
	Origin string
	Impl   string // "gorilla" (default) or "coder"
}

// Dial opens a socket with the configured implementation.
func Dial(ctx context.Context, cfg Config) (Socket, error) {
	switch cfg.Impl {
	case "", "gorilla":
		return dialGorilla(ctx, cfg)
	case "coder":
		return dialCoder(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown socket implementation %q", cfg.Impl)
	}
}
