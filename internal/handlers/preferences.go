package handlers

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"vital-backend/internal/middleware"
	"vital-backend/internal/models"
	"vital-backend/internal/repository"
)

const (
	prefKeyMaxLen       = 128
	prefValueMaxLen     = 1024
	templatesMaxLen     = 8192
	maxMealTemplates    = 20
	feedbackMessageMax  = 2000
	feedbackPageMax     = 100
	ownFeedbackLimit    = 100
	templatesPrefKey    = "meal_templates"
)

var (
	prefKeyRegex    = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
	templateIDRegex = regexp.MustCompile(`^t_\d+$`)
)

var feedbackCategories = map[string]struct{}{
	"bug": {}, "feature": {}, "question": {}, "other": {},
}

// PreferencesHandler stores per-user settings, goals, meal templates and
// feedback.
type PreferencesHandler struct {
	prefRepo     *repository.PreferenceRepo
	feedbackRepo *repository.FeedbackRepo
	userRepo     *repository.UserRepo
}

func NewPreferencesHandler(prefRepo *repository.PreferenceRepo, feedbackRepo *repository.FeedbackRepo, userRepo *repository.UserRepo) *PreferencesHandler {
	return &PreferencesHandler{prefRepo: prefRepo, feedbackRepo: feedbackRepo, userRepo: userRepo}
}

// Get returns all preferences as a flat key/value map.
func (h *PreferencesHandler) Get(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.prefRepo.GetAll(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	out := make(map[string]string, len(prefs))
	for _, p := range prefs {
		out[p.Key] = p.Value
	}
	writeJSON(w, http.StatusOK, out)
}

// Set validates and stores a batch of preference keys.
func (h *PreferencesHandler) Set(w http.ResponseWriter, r *http.Request) {
	var body map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	fields := map[string]string{}
	values := make(map[string]string, len(body))
	for key, raw := range body {
		if !prefKeyRegex.MatchString(key) || len(key) > prefKeyMaxLen {
			fields[key] = "Invalid preference key"
			continue
		}
		value, msg := validatePrefValue(key, raw)
		if msg != "" {
			fields[key] = msg
			continue
		}
		values[key] = value
	}
	if len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
		return
	}

	userID := middleware.GetUserID(r.Context())
	for key, value := range values {
		if err := h.prefRepo.Set(r.Context(), userID, key, value); err != nil {
			handleServiceError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// validatePrefValue applies per-key rules and returns the normalized string
// to store.
func validatePrefValue(key string, raw json.RawMessage) (string, string) {
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		// Numbers arrive unquoted from some clients.
		var num float64
		if err := json.Unmarshal(raw, &num); err != nil {
			return "", "Value must be a string or number"
		}
		value = strconv.FormatFloat(num, 'f', -1, 64)
	}

	switch key {
	case "checkin_hour":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 || n > 23 {
			return "", "Check-in hour must be 0-23"
		}
	case "daily_calorie_goal":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 || n > 10000 {
			return "", "Calorie goal must be 1-10000"
		}
	case "daily_protein_goal":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 || n > 1000 {
			return "", "Protein goal must be 1-1000"
		}
	case templatesPrefKey:
		if len(value) > templatesMaxLen {
			return "", "Templates payload too large"
		}
	default:
		if len(value) > prefValueMaxLen {
			return "", fmt.Sprintf("Value must be at most %d characters", prefValueMaxLen)
		}
	}
	return value, ""
}

// Goals returns the goal-shaped subset of preferences.
func (h *PreferencesHandler) Goals(w http.ResponseWriter, r *http.Request) {
	goals, err := h.prefRepo.GetGoals(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"goals": goals})
}

// GetTemplates returns the saved meal templates.
func (h *PreferencesHandler) GetTemplates(w http.ResponseWriter, r *http.Request) {
	value, found, err := h.prefRepo.Get(r.Context(), middleware.GetUserID(r.Context()), templatesPrefKey)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	templates := make([]models.MealTemplate, 0)
	if found {
		if err := json.Unmarshal([]byte(value), &templates); err != nil {
			templates = templates[:0]
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"templates": templates})
}

// SetTemplates validates and replaces the full template list.
func (h *PreferencesHandler) SetTemplates(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Templates []models.MealTemplate `json:"templates"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if len(body.Templates) > maxMealTemplates {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR",
			fmt.Sprintf("At most %d templates allowed", maxMealTemplates), r))
		return
	}
	for i, t := range body.Templates {
		field := fmt.Sprintf("templates[%d]", i)
		if !templateIDRegex.MatchString(t.ID) {
			writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
				map[string]string{field: "Invalid template ID"}, r))
			return
		}
		if t.Name == "" || len(t.Name) > 200 {
			writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
				map[string]string{field: "Name must be 1-200 characters"}, r))
			return
		}
		for _, v := range []float64{t.Calories, t.Protein, t.Carbs, t.Fat} {
			if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
				writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
					map[string]string{field: "Macros must be non-negative numbers"}, r))
				return
			}
		}
	}

	// Re-serialize so only known fields are stored.
	serialized, err := json.Marshal(body.Templates)
	if err != nil || len(serialized) > templatesMaxLen {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Templates payload too large", r))
		return
	}

	if err := h.prefRepo.Set(r.Context(), middleware.GetUserID(r.Context()), templatesPrefKey, string(serialized)); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"templates": body.Templates})
}

// SubmitFeedback stores a feedback note from the dashboard.
func (h *PreferencesHandler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var in models.FeedbackInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	in.Message = strings.TrimSpace(in.Message)
	if in.Message == "" || len(in.Message) > feedbackMessageMax {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"message": fmt.Sprintf("Message must be 1-%d characters", feedbackMessageMax)}, r))
		return
	}
	if _, ok := feedbackCategories[in.Category]; !ok {
		in.Category = "other"
	}
	if len(in.Page) > feedbackPageMax {
		in.Page = in.Page[:feedbackPageMax]
	}

	feedback, err := h.feedbackRepo.Create(r.Context(), middleware.GetUserID(r.Context()), &in)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, feedback)
}

// ListFeedback returns the caller's own submissions.
func (h *PreferencesHandler) ListFeedback(w http.ResponseWriter, r *http.Request) {
	items, err := h.feedbackRepo.ListByUser(r.Context(), middleware.GetUserID(r.Context()), ownFeedbackLimit)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"feedback": items})
}

// OnboardingStatus reports whether the user has finished first-run setup.
func (h *PreferencesHandler) OnboardingStatus(w http.ResponseWriter, r *http.Request) {
	user, err := h.userRepo.GetByID(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "User not found", r))
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"is_onboarded": user.IsOnboarded})
}
