package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"vital-backend/internal/bridge"
	"vital-backend/internal/middleware"
	"vital-backend/internal/models"
	"vital-backend/internal/notify"
	"vital-backend/internal/repository"
	"vital-backend/internal/sse"
)

const chatHistoryLimit = 200

type ChatHandler struct {
	bridge   *bridge.Bridge
	chatRepo *repository.ChatRepo
	hub      *notify.Hub
	log      zerolog.Logger
}

func NewChatHandler(b *bridge.Bridge, chatRepo *repository.ChatRepo, hub *notify.Hub, log zerolog.Logger) *ChatHandler {
	return &ChatHandler{bridge: b, chatRepo: chatRepo, hub: hub, log: log}
}

// Chat proxies one turn to the agent gateway and streams the reply as
// server-sent events. The 400 for an empty request fires before the stream
// opens; every later failure arrives as an SSE error event.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	message := bridge.ChatMessage(req.Message, req.Image)
	if message == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Message or image is required", r))
		return
	}

	userID := middleware.GetUserID(r.Context())
	username := middleware.GetUsername(r.Context())
	sessionKey := h.bridge.ResolveSessionKey(username, req.SessionKey)

	if err := h.chatRepo.SaveMessage(r.Context(), userID, "user", message, &sessionKey); err != nil {
		h.log.Error().Err(err).Msg("failed to save user chat message")
	}

	attachment := bridge.ParseImage(req.Image)

	stream, err := sse.NewWriter(w)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Streaming unsupported", r))
		return
	}

	h.bridge.Run(r.Context(), stream, sessionKey, message, attachment, func(reply string) {
		saved := bridge.TruncateReply(reply)
		if err := h.chatRepo.SaveMessage(r.Context(), userID, "assistant", saved, &sessionKey); err != nil {
			h.log.Error().Err(err).Msg("failed to save assistant chat message")
		}
		h.hub.Publish(r.Context(), username, "data-updated", map[string]string{"source": "chat"})
	})
}

// History returns recent transcript entries in chronological order.
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	limit := chatHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	if limit < 1 {
		limit = 1
	}
	if limit > chatHistoryLimit {
		limit = chatHistoryLimit
	}

	entries, err := h.chatRepo.History(r.Context(), middleware.GetUserID(r.Context()), limit)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *ChatHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := h.chatRepo.Clear(r.Context(), middleware.GetUserID(r.Context())); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
