package handlers

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/rs/zerolog"
)

// TipsHandler serves the curated health-tips file. A feed scraper refreshes
// the file on its own schedule; the app only reads it.
type TipsHandler struct {
	path string
	log  zerolog.Logger
}

func NewTipsHandler(path string, log zerolog.Logger) *TipsHandler {
	return &TipsHandler{path: path, log: log}
}

// List returns the tips file as-is, or an empty list when the file is
// missing or unreadable.
func (h *TipsHandler) List(w http.ResponseWriter, r *http.Request) {
	content, err := os.ReadFile(h.path)
	if err == nil && json.Valid(content) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(content)
		return
	}
	if err == nil {
		h.log.Warn().Str("path", h.path).Msg("tips file is not valid JSON")
	}
	writeJSON(w, http.StatusOK, map[string][]string{"tips": {}})
}
