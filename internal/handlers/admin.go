package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"vital-backend/internal/middleware"
	"vital-backend/internal/models"
	"vital-backend/internal/repository"
	"vital-backend/internal/services"
)

const (
	feedbackPerUserLimit = 100
	feedbackTotalLimit   = 200
)

// AdminHandler covers user administration and the cross-user feedback feed.
type AdminHandler struct {
	authService  *services.AuthService
	userRepo     *repository.UserRepo
	feedbackRepo *repository.FeedbackRepo
}

func NewAdminHandler(authService *services.AuthService, userRepo *repository.UserRepo, feedbackRepo *repository.FeedbackRepo) *AdminHandler {
	return &AdminHandler{
		authService:  authService,
		userRepo:     userRepo,
		feedbackRepo: feedbackRepo,
	}
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userRepo.List(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"users": users})
}

func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	user, err := h.authService.CreateUser(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	// The API key is only surfaced once, at creation.
	resp := map[string]interface{}{"user": user}
	if user.APIKey != nil {
		resp["api_key"] = *user.APIKey
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUserID(w, r)
	if !ok {
		return
	}

	var req models.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	user, err := h.authService.UpdateUser(r.Context(), userID, req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUserID(w, r)
	if !ok {
		return
	}

	if err := h.authService.DeleteUser(r.Context(), middleware.GetUserID(r.Context()), userID); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *AdminHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUserID(w, r)
	if !ok {
		return
	}

	var req models.ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if err := h.authService.ResetPassword(r.Context(), userID, req.NewPassword); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ListFeedback is the admin feed across all users, capped per user and in
// total.
func (h *AdminHandler) ListFeedback(w http.ResponseWriter, r *http.Request) {
	items, err := h.feedbackRepo.ListAll(r.Context(), feedbackTotalLimit)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	perUser := make(map[uuid.UUID]int)
	filtered := make([]models.Feedback, 0, len(items))
	for _, f := range items {
		if perUser[f.UserID] >= feedbackPerUserLimit {
			continue
		}
		perUser[f.UserID]++
		filtered = append(filtered, f)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"feedback": filtered})
}

func pathUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid user ID", r))
		return uuid.Nil, false
	}
	return userID, true
}
