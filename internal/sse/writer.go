package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
)

// Writer streams server-sent events. After End (or Fail) fires, every
// further Send and End is a no-op, so a slow producer cannot emit past the
// terminal event.
type Writer struct {
	w http.ResponseWriter
	f http.Flusher

	mu       sync.Mutex
	finished bool
}

// NewWriter takes over the response as an SSE stream.
func NewWriter(w http.ResponseWriter) (*Writer, error) {
	f, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support streaming")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	f.Flush()

	return &Writer{w: w, f: f}, nil
}

// Send writes one event. Data is JSON-encoded.
func (s *Writer) Send(event string, data any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return
	}
	s.write(event, data)
}

// End writes the terminal event and seals the stream.
func (s *Writer) End(event string, data any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return
	}
	s.finished = true
	s.write(event, data)
}

// Finished reports whether a terminal event has been sent.
func (s *Writer) Finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finished
}

func (s *Writer) write(event string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, payload)
	s.f.Flush()
}
