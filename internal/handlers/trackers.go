package handlers

import (
	"encoding/json"
	"net/http"
	"regexp"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"vital-backend/internal/memory"
	"vital-backend/internal/middleware"
	"vital-backend/internal/models"
	"vital-backend/internal/notify"
	"vital-backend/internal/repository"
	"vital-backend/internal/services"
	"vital-backend/internal/worker"
)

var dateParamRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// TrackerHandler covers manual logging of meals, hydration, exercise, weight
// and sleep, plus the combined daily log views.
type TrackerHandler struct {
	mealRepo      *repository.MealRepo
	hydrationRepo *repository.HydrationRepo
	exerciseRepo  *repository.ExerciseRepo
	weightRepo    *repository.WeightRepo
	sleepRepo     *repository.SleepRepo
	healthRepo    *repository.HealthRepo
	streakRepo    *repository.StreakRepo
	store         *memory.Store
	hub           *notify.Hub
	jobs          *worker.Pool
	log           zerolog.Logger
}

func NewTrackerHandler(
	mealRepo *repository.MealRepo,
	hydrationRepo *repository.HydrationRepo,
	exerciseRepo *repository.ExerciseRepo,
	weightRepo *repository.WeightRepo,
	sleepRepo *repository.SleepRepo,
	healthRepo *repository.HealthRepo,
	streakRepo *repository.StreakRepo,
	store *memory.Store,
	hub *notify.Hub,
	jobs *worker.Pool,
	log zerolog.Logger,
) *TrackerHandler {
	return &TrackerHandler{
		mealRepo:      mealRepo,
		hydrationRepo: hydrationRepo,
		exerciseRepo:  exerciseRepo,
		weightRepo:    weightRepo,
		sleepRepo:     sleepRepo,
		healthRepo:    healthRepo,
		streakRepo:    streakRepo,
		store:         store,
		hub:           hub,
		jobs:          jobs,
		log:           log,
	}
}

// broadcast tells the user's open dashboards which table changed and queues a
// streak recalculation so the counters catch up.
func (h *TrackerHandler) broadcast(r *http.Request, table string) {
	ctx := r.Context()
	username := middleware.GetUsername(ctx)
	h.hub.Publish(ctx, username, "refresh", map[string]string{"table": table})

	if h.jobs != nil {
		job := worker.Job{Type: "streaks.recalc", UserID: middleware.GetUserID(ctx), Username: username}
		if err := h.jobs.Enqueue(ctx, job); err != nil {
			h.log.Warn().Err(err).Str("user", username).Msg("streak job enqueue failed")
		}
	}
}

func (h *TrackerHandler) CreateMeal(w http.ResponseWriter, r *http.Request) {
	var in models.MealInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	fields := map[string]string{}
	if !dateParamRegex.MatchString(in.Date) {
		fields["date"] = "Date must be YYYY-MM-DD"
	}
	if in.Meal == "" {
		fields["meal"] = "Meal description is required"
	}
	if len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
		return
	}

	meal, err := h.mealRepo.Create(r.Context(), middleware.GetUserID(r.Context()), &in)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	h.broadcast(r, "meals")
	writeJSON(w, http.StatusCreated, meal)
}

func (h *TrackerHandler) CreateHydration(w http.ResponseWriter, r *http.Request) {
	var in models.HydrationInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if !dateParamRegex.MatchString(in.Date) {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"date": "Date must be YYYY-MM-DD"}, r))
		return
	}

	entry, err := h.hydrationRepo.Create(r.Context(), middleware.GetUserID(r.Context()), &in)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	h.broadcast(r, "hydration")
	writeJSON(w, http.StatusCreated, entry)
}

// UndoHydration removes the most recent glass for the given date.
func (h *TrackerHandler) UndoHydration(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = today()
	}
	if !dateParamRegex.MatchString(date) {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Date must be YYYY-MM-DD", r))
		return
	}

	removed, err := h.hydrationRepo.DeleteLatest(r.Context(), middleware.GetUserID(r.Context()), date)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if !removed {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "No hydration entries for that date", r))
		return
	}
	h.broadcast(r, "hydration")
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *TrackerHandler) CreateExercise(w http.ResponseWriter, r *http.Request) {
	var in models.ExerciseInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	fields := map[string]string{}
	if !dateParamRegex.MatchString(in.Date) {
		fields["date"] = "Date must be YYYY-MM-DD"
	}
	if in.Activity == "" {
		fields["activity"] = "Activity is required"
	}
	if len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
		return
	}

	entry, err := h.exerciseRepo.Create(r.Context(), middleware.GetUserID(r.Context()), &in, "manual")
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	h.broadcast(r, "exercise")
	writeJSON(w, http.StatusCreated, entry)
}

func (h *TrackerHandler) CreateWeight(w http.ResponseWriter, r *http.Request) {
	var in models.WeightInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	fields := map[string]string{}
	if !dateParamRegex.MatchString(in.Date) {
		fields["date"] = "Date must be YYYY-MM-DD"
	}
	if in.WeightLbs <= 0 || in.WeightLbs > 2000 {
		fields["weight_lbs"] = "Weight must be a positive number"
	}
	if len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
		return
	}

	entry, err := h.weightRepo.Upsert(r.Context(), middleware.GetUserID(r.Context()), &in)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	h.broadcast(r, "weight")
	writeJSON(w, http.StatusCreated, entry)
}

func (h *TrackerHandler) CreateSleep(w http.ResponseWriter, r *http.Request) {
	var in models.SleepInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	fields := map[string]string{}
	if !dateParamRegex.MatchString(in.Date) {
		fields["date"] = "Date must be YYYY-MM-DD"
	}
	if in.DurationMinutes <= 0 || in.DurationMinutes > 24*60 {
		fields["duration_minutes"] = "Duration must be between 1 and 1440 minutes"
	}
	if len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
		return
	}

	entry, err := h.sleepRepo.Upsert(r.Context(), middleware.GetUserID(r.Context()), &in, "manual")
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	h.broadcast(r, "sleep")
	writeJSON(w, http.StatusCreated, entry)
}

// DeleteEntry removes a single row from one of the tracker tables.
func (h *TrackerHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid entry ID", r))
		return
	}

	userID := middleware.GetUserID(r.Context())
	var deleted bool
	switch table {
	case "meals":
		deleted, err = h.mealRepo.Delete(r.Context(), userID, id)
	case "hydration":
		deleted, err = h.hydrationRepo.Delete(r.Context(), userID, id)
	case "exercise":
		deleted, err = h.exerciseRepo.Delete(r.Context(), userID, id)
	case "weight":
		deleted, err = h.weightRepo.DeleteByID(r.Context(), userID, id)
	case "sleep":
		deleted, err = h.sleepRepo.DeleteByID(r.Context(), userID, id)
	default:
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid table", r))
		return
	}
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if !deleted {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Entry not found", r))
		return
	}

	h.broadcast(r, table)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ListLogDates merges dates that have tracker rows with dates that have a
// daily memory file, newest first.
func (h *TrackerHandler) ListLogDates(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	username := middleware.GetUsername(r.Context())

	seen := make(map[string]struct{})
	for _, metric := range []string{"meals", "hydration", "exercise", "weight"} {
		dates, err := h.streakRepo.ActiveDates(r.Context(), userID, metric)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		for _, d := range dates {
			seen[d] = struct{}{}
		}
	}

	fileDates, err := h.store.ListDailyDates(username)
	if err != nil {
		h.log.Warn().Err(err).Str("user", username).Msg("listing daily memory files failed")
	}
	for _, d := range fileDates {
		seen[d] = struct{}{}
	}

	dates := make([]string, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))

	writeJSON(w, http.StatusOK, map[string]interface{}{"dates": dates})
}

// LogForDate returns everything recorded for one day.
func (h *TrackerHandler) LogForDate(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if !dateParamRegex.MatchString(date) {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Date must be YYYY-MM-DD", r))
		return
	}

	userID := middleware.GetUserID(r.Context())
	username := middleware.GetUsername(r.Context())

	meals, err := h.mealRepo.ListByDate(r.Context(), userID, date)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	hydration, err := h.hydrationRepo.ListByDate(r.Context(), userID, date)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	exercise, err := h.exerciseRepo.ListByDate(r.Context(), userID, date)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	sleep, err := h.sleepRepo.GetByDate(r.Context(), userID, date)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	// Structured rows win; fall back to the markdown table for days synced
	// before the table existed.
	var health map[string]string
	day, err := h.healthRepo.GetByDate(r.Context(), userID, date)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if day != nil {
		health = services.FormatHealthDay(day)
	}
	if health == nil {
		if parsed, err := h.store.ParseHealthForDate(username, date); err == nil && len(parsed) > 0 {
			health = parsed
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"date":      date,
		"meals":     meals,
		"hydration": hydration,
		"exercise":  exercise,
		"sleep":     sleep,
		"health":    health,
	})
}
