package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"vital-backend/internal/bridge"
)

func newChatHandler() *ChatHandler {
	b := bridge.New(bridge.Config{URL: "ws://127.0.0.1:1"}, zerolog.Nop())
	return NewChatHandler(b, nil, nil, zerolog.Nop())
}

func TestChatRejectsEmptyRequest(t *testing.T) {
	// An empty turn must fail as a plain 400, with no SSE stream opened and
	// no gateway dial attempted.
	tests := []struct {
		name string
		body string
	}{
		{"empty object", `{}`},
		{"blank message", `{"message":"   "}`},
		{"empty strings", `{"message":"","image":""}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newChatHandler()
			req := httptest.NewRequest("POST", "/api/chat", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()

			h.Chat(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q, want JSON error, not a stream", ct)
			}
			if !strings.Contains(rec.Body.String(), "Message or image is required") {
				t.Errorf("body = %s", rec.Body.String())
			}
		})
	}
}

func TestChatRejectsMalformedBody(t *testing.T) {
	h := newChatHandler()
	req := httptest.NewRequest("POST", "/api/chat", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	h.Chat(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
