package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"vital-backend/internal/middleware"
	"vital-backend/internal/repository"
)

// ExportHandler produces full-history downloads of the tracker tables.
type ExportHandler struct {
	mealRepo      *repository.MealRepo
	hydrationRepo *repository.HydrationRepo
	exerciseRepo  *repository.ExerciseRepo
	weightRepo    *repository.WeightRepo
	sleepRepo     *repository.SleepRepo
}

func NewExportHandler(
	mealRepo *repository.MealRepo,
	hydrationRepo *repository.HydrationRepo,
	exerciseRepo *repository.ExerciseRepo,
	weightRepo *repository.WeightRepo,
	sleepRepo *repository.SleepRepo,
) *ExportHandler {
	return &ExportHandler{
		mealRepo:      mealRepo,
		hydrationRepo: hydrationRepo,
		exerciseRepo:  exerciseRepo,
		weightRepo:    weightRepo,
		sleepRepo:     sleepRepo,
	}
}

const exportEpoch = "1970-01-01"

// JSON bundles every table into one document.
func (h *ExportHandler) JSON(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	end := today()

	meals, err := h.mealRepo.ListRange(ctx, userID, exportEpoch, end)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	hydration, err := h.hydrationRepo.ListRange(ctx, userID, exportEpoch, end)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	exercise, err := h.exerciseRepo.ListRange(ctx, userID, exportEpoch, end)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	weight, err := h.weightRepo.ListRange(ctx, userID, exportEpoch, end)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	sleep, err := h.sleepRepo.ListRange(ctx, userID, exportEpoch, end)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="vital-export-%s.json"`, end))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"exported_at": time.Now().Format(time.RFC3339),
		"meals":       meals,
		"hydration":   hydration,
		"exercise":    exercise,
		"weight":      weight,
		"sleep":       sleep,
	})
}

// CSV streams one table as a spreadsheet.
func (h *ExportHandler) CSV(w http.ResponseWriter, r *http.Request) {
	table := r.URL.Query().Get("table")
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	end := today()

	var header []string
	var records [][]string
	switch table {
	case "meals":
		meals, err := h.mealRepo.ListRange(ctx, userID, exportEpoch, end)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		header = []string{"date", "time", "meal", "calories", "protein", "carbs", "fat", "notes"}
		for _, m := range meals {
			records = append(records, []string{
				m.Date, m.Time, m.Meal, strconv.Itoa(m.Calories), m.Protein, m.Carbs, m.Fat, m.Notes,
			})
		}
	case "hydration":
		entries, err := h.hydrationRepo.ListRange(ctx, userID, exportEpoch, end)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		header = []string{"date", "time", "glass_num"}
		for _, e := range entries {
			records = append(records, []string{e.Date, e.Time, strconv.Itoa(e.GlassNum)})
		}
	case "exercise":
		entries, err := h.exerciseRepo.ListRange(ctx, userID, exportEpoch, end)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		header = []string{"date", "time", "activity", "duration", "calories_burned", "distance", "avg_heart_rate", "source", "notes"}
		for _, e := range entries {
			hr := ""
			if e.AvgHeartRate != nil {
				hr = strconv.Itoa(*e.AvgHeartRate)
			}
			records = append(records, []string{
				e.Date, e.Time, e.Activity, e.Duration, strconv.Itoa(e.CaloriesBurned),
				e.Distance, hr, e.Source, e.Notes,
			})
		}
	case "weight":
		entries, err := h.weightRepo.ListRange(ctx, userID, exportEpoch, end)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		header = []string{"date", "weight_lbs", "notes"}
		for _, e := range entries {
			records = append(records, []string{
				e.Date, strconv.FormatFloat(e.WeightLbs, 'f', -1, 64), e.Notes,
			})
		}
	case "sleep":
		entries, err := h.sleepRepo.ListRange(ctx, userID, exportEpoch, end)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		header = []string{"date", "duration_minutes", "source", "notes"}
		for _, e := range entries {
			records = append(records, []string{
				e.Date, strconv.Itoa(e.DurationMinutes), e.Source, e.Notes,
			})
		}
	default:
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid table", r))
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="vital-%s-%s.csv"`, table, end))

	cw := csv.NewWriter(w)
	cw.Write(header)
	cw.WriteAll(records)
}
