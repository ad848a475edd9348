package sse

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewWriterHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	w, err := NewWriter(rec)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}
	if w == nil {
		t.Fatal("nil writer")
	}

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("Cache-Control = %q", cc)
	}
	if rec.Code != 200 {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestSendFormat(t *testing.T) {
	rec := httptest.NewRecorder()
	w, _ := NewWriter(rec)

	w.Send("delta", map[string]string{"text": "Hi"})

	body := rec.Body.String()
	if !strings.Contains(body, "event: delta\ndata: {\"text\":\"Hi\"}\n\n") {
		t.Errorf("Unexpected frame: %q", body)
	}
}

func TestEndSealsStream(t *testing.T) {
	rec := httptest.NewRecorder()
	w, _ := NewWriter(rec)

	w.Send("delta", map[string]string{"text": "Hi"})
	w.End("done", map[string]string{"reply": "Hi"})

	before := rec.Body.String()

	// Nothing may land after the terminal event.
	w.Send("delta", map[string]string{"text": " there"})
	w.End("error", map[string]string{"message": "late"})

	if rec.Body.String() != before {
		t.Errorf("Events written after End:\n%s", rec.Body.String())
	}
	if !w.Finished() {
		t.Error("Finished() = false after End")
	}
	if strings.Count(rec.Body.String(), "event: done") != 1 {
		t.Error("Expected exactly one done event")
	}
}

func TestUnmarshalableDataDropped(t *testing.T) {
	rec := httptest.NewRecorder()
	w, _ := NewWriter(rec)

	w.Send("delta", func() {}) // not JSON-encodable
	if strings.Contains(rec.Body.String(), "delta") {
		t.Error("Unencodable event was written")
	}
}
