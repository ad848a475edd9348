package handlers

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func TestTipsServesFileContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tips.json")
	body := `{"tips":[{"title":"Hydrate","text":"Drink water before coffee."}]}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	h := NewTipsHandler(path, zerolog.Nop())
	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest("GET", "/api/tips", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if rec.Body.String() != body {
		t.Errorf("body = %q, want file content verbatim", rec.Body.String())
	}
}

func TestTipsMissingFileFallsBack(t *testing.T) {
	h := NewTipsHandler(filepath.Join(t.TempDir(), "absent.json"), zerolog.Nop())
	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest("GET", "/api/tips", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != "{\"tips\":[]}\n" {
		t.Errorf("body = %q, want empty tips list", got)
	}
}

func TestTipsInvalidJSONFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tips.json")
	if err := os.WriteFile(path, []byte("not json {"), 0o644); err != nil {
		t.Fatal(err)
	}

	h := NewTipsHandler(path, zerolog.Nop())
	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest("GET", "/api/tips", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != "{\"tips\":[]}\n" {
		t.Errorf("body = %q, want empty tips list", got)
	}
}
