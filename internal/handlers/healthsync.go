package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"vital-backend/internal/middleware"
	"vital-backend/internal/models"
	"vital-backend/internal/notify"
	"vital-backend/internal/services"
	"vital-backend/internal/worker"
)

// HealthSyncHandler receives Health Auto Export pushes, usually authenticated
// with an API key rather than a browser session.
type HealthSyncHandler struct {
	syncService *services.HealthSyncService
	hub         *notify.Hub
	jobs        *worker.Pool
	log         zerolog.Logger
}

func NewHealthSyncHandler(syncService *services.HealthSyncService, hub *notify.Hub, jobs *worker.Pool, log zerolog.Logger) *HealthSyncHandler {
	return &HealthSyncHandler{syncService: syncService, hub: hub, jobs: jobs, log: log}
}

func (h *HealthSyncHandler) Sync(w http.ResponseWriter, r *http.Request) {
	// Export payloads can run large on the first full-history push.
	r.Body = http.MaxBytesReader(w, r.Body, 32<<20)

	var req models.HealthSyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	userID := middleware.GetUserID(r.Context())
	username := middleware.GetUsername(r.Context())

	result, err := h.syncService.Sync(r.Context(), userID, username, &req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	h.log.Info().Str("user", username).Int("days", result.Count).Msg("health sync complete")
	h.hub.Publish(r.Context(), username, "data-updated", map[string]string{"source": "health-sync"})

	if h.jobs != nil {
		job := worker.Job{Type: "streaks.recalc", UserID: userID, Username: username}
		if err := h.jobs.Enqueue(r.Context(), job); err != nil {
			h.log.Warn().Err(err).Str("user", username).Msg("streak job enqueue failed")
		}
	}
	writeJSON(w, http.StatusOK, result)
}
