package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"vital-backend/internal/middleware"
	"vital-backend/internal/models"
	"vital-backend/internal/repository"
	"vital-backend/internal/services"
)

type AuthHandler struct {
	authService *services.AuthService
	userRepo    *repository.UserRepo
	loginLimit  *middleware.RateLimiter
	log         zerolog.Logger
}

func NewAuthHandler(authService *services.AuthService, userRepo *repository.UserRepo, loginLimit *middleware.RateLimiter, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userRepo:    userRepo,
		loginLimit:  loginLimit,
		log:         log,
	}
}

// Login authenticates with username/password. Failed attempts count toward
// a per-IP lockout; a success clears it.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ip := middleware.ClientIP(r)
	if !h.loginLimit.Allowed(ip) {
		writeJSON(w, http.StatusTooManyRequests, errorResp("RATE_LIMITED", "Too many failed login attempts. Try again later.", r))
		return
	}

	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	user, tokens, err := h.authService.Login(r.Context(), req)
	if err != nil {
		if _, ok := err.(*services.UnauthorizedError); ok {
			h.loginLimit.RecordFailure(ip)
			h.log.Warn().Str("username", req.Username).Str("ip", ip).Msg("failed login attempt")
		}
		handleServiceError(w, r, err)
		return
	}

	h.loginLimit.Reset(ip)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tokens": tokens,
		"user": map[string]interface{}{
			"username":     user.Username,
			"display_name": user.DisplayName,
			"role":         user.Role,
			"is_onboarded": user.IsOnboarded,
		},
	})
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req models.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	tokens, err := h.authService.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tokens)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req models.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	h.authService.Logout(r.Context(), req.RefreshToken)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// Me returns the calling user's profile.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.userRepo.GetByID(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "User not found", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"username":     user.Username,
		"display_name": user.DisplayName,
		"role":         user.Role,
		"is_onboarded": user.IsOnboarded,
	})
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req models.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if err := h.authService.ChangePassword(r.Context(), middleware.GetUserID(r.Context()), req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Password changed"})
}

// RotateAPIKey issues a new key for headless sync clients. The key is only
// shown once.
func (h *AuthHandler) RotateAPIKey(w http.ResponseWriter, r *http.Request) {
	key, err := h.authService.RotateAPIKey(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"api_key": key})
}

// CompleteOnboarding marks the user as onboarded.
func (h *AuthHandler) CompleteOnboarding(w http.ResponseWriter, r *http.Request) {
	if err := h.userRepo.SetOnboarded(r.Context(), middleware.GetUserID(r.Context()), true); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
