package handlers

import (
	"math"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"vital-backend/internal/memory"
	"vital-backend/internal/middleware"
	"vital-backend/internal/models"
	"vital-backend/internal/repository"
	"vital-backend/internal/services"
)

// numRegex pulls the leading number out of free-text quantities such as
// "30g" or "45 min".
var numRegex = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// StatsHandler serves the aggregated dashboard views.
type StatsHandler struct {
	mealRepo      *repository.MealRepo
	hydrationRepo *repository.HydrationRepo
	exerciseRepo  *repository.ExerciseRepo
	weightRepo    *repository.WeightRepo
	sleepRepo     *repository.SleepRepo
	healthRepo    *repository.HealthRepo
	prefRepo      *repository.PreferenceRepo
	streakService *services.StreakService
	store         *memory.Store
	log           zerolog.Logger
}

func NewStatsHandler(
	mealRepo *repository.MealRepo,
	hydrationRepo *repository.HydrationRepo,
	exerciseRepo *repository.ExerciseRepo,
	weightRepo *repository.WeightRepo,
	sleepRepo *repository.SleepRepo,
	healthRepo *repository.HealthRepo,
	prefRepo *repository.PreferenceRepo,
	streakService *services.StreakService,
	store *memory.Store,
	log zerolog.Logger,
) *StatsHandler {
	return &StatsHandler{
		mealRepo:      mealRepo,
		hydrationRepo: hydrationRepo,
		exerciseRepo:  exerciseRepo,
		weightRepo:    weightRepo,
		sleepRepo:     sleepRepo,
		healthRepo:    healthRepo,
		prefRepo:      prefRepo,
		streakService: streakService,
		store:         store,
		log:           log,
	}
}

func parseNum(s string) float64 {
	m := numRegex.FindString(s)
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return v
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

type dayNutrition struct {
	Date     string  `json:"date"`
	Calories int     `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Meals    int     `json:"meals"`
}

// NutritionSummary returns per-day calorie and macro totals for the range.
// Averages exclude today since it is usually incomplete.
func (h *StatsHandler) NutritionSummary(w http.ResponseWriter, r *http.Request) {
	rng, start := rangeStart(r, "1w")
	userID := middleware.GetUserID(r.Context())

	meals, err := h.mealRepo.ListRange(r.Context(), userID, start, today())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	byDate := make(map[string]*dayNutrition)
	for _, m := range meals {
		d := byDate[m.Date]
		if d == nil {
			d = &dayNutrition{Date: m.Date}
			byDate[m.Date] = d
		}
		d.Calories += m.Calories
		d.Protein += parseNum(m.Protein)
		d.Carbs += parseNum(m.Carbs)
		d.Fat += parseNum(m.Fat)
		d.Meals++
	}

	days := make([]dayNutrition, 0, len(byDate))
	for _, d := range byDate {
		d.Protein = round1(d.Protein)
		d.Carbs = round1(d.Carbs)
		d.Fat = round1(d.Fat)
		days = append(days, *d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })

	var sumCal, sumProtein float64
	var counted int
	for _, d := range days {
		if d.Date == today() {
			continue
		}
		sumCal += float64(d.Calories)
		sumProtein += d.Protein
		counted++
	}
	var avgCal, avgProtein float64
	if counted > 0 {
		avgCal = math.Round(sumCal / float64(counted))
		avgProtein = round1(sumProtein / float64(counted))
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"range":       rng,
		"days":        days,
		"avg_cal":     avgCal,
		"avg_protein": avgProtein,
	})
}

// WeightStats returns the latest reading plus ascending history. When the
// table is empty it falls back to parsing the markdown weight log.
func (h *StatsHandler) WeightStats(w http.ResponseWriter, r *http.Request) {
	rng, start := rangeStart(r, "3m")
	userID := middleware.GetUserID(r.Context())
	username := middleware.GetUsername(r.Context())

	entries, err := h.weightRepo.ListRange(r.Context(), userID, start, today())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	history := make([]map[string]interface{}, 0, len(entries))
	// ListRange is newest first; the chart wants ascending.
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		history = append(history, map[string]interface{}{
			"date":       e.Date,
			"weight_lbs": e.WeightLbs,
			"notes":      e.Notes,
		})
	}

	if len(history) == 0 {
		history = h.weightLogFallback(username, start)
	}

	var current interface{}
	var change float64
	if len(history) > 0 {
		last := history[len(history)-1]
		current = last["weight_lbs"]
		first := history[0]["weight_lbs"].(float64)
		change = round1(last["weight_lbs"].(float64) - first)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"range":   rng,
		"current": current,
		"change":  change,
		"history": history,
	})
}

var weightRowRegex = regexp.MustCompile(`^\|\s*(\d{4}-\d{2}-\d{2})\s*\|\s*([\d.]+)`)

// weightLogFallback reads WEIGHT.md for accounts that predate the weight
// table.
func (h *StatsHandler) weightLogFallback(username, start string) []map[string]interface{} {
	content, err := h.store.ReadWeightLog(username)
	if err != nil || content == "" {
		return []map[string]interface{}{}
	}

	history := make([]map[string]interface{}, 0)
	for _, line := range strings.Split(content, "\n") {
		m := weightRowRegex.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil || m[1] < start {
			continue
		}
		lbs, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		history = append(history, map[string]interface{}{
			"date":       m[1],
			"weight_lbs": lbs,
			"notes":      "",
		})
	}
	sort.Slice(history, func(i, j int) bool {
		return history[i]["date"].(string) < history[j]["date"].(string)
	})
	return history
}

// ExerciseStats covers the recent session list, the current week's totals,
// an activity breakdown and an eight week trend.
func (h *StatsHandler) ExerciseStats(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	eightWeeksAgo := time.Now().AddDate(0, 0, -56).Format("2006-01-02")

	entries, err := h.exerciseRepo.ListRange(r.Context(), userID, eightWeeksAgo, today())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	recent := make([]models.Exercise, 0, 30)
	for i := len(entries) - 1; i >= 0 && len(recent) < 30; i-- {
		recent = append(recent, entries[i])
	}

	weekAgo := time.Now().AddDate(0, 0, -7).Format("2006-01-02")
	var sessions, totalMinutes, totalCalories int
	activities := make(map[string]int)
	for _, e := range entries {
		activities[e.Activity]++
		if e.Date >= weekAgo {
			sessions++
			totalMinutes += int(parseNum(e.Duration))
			totalCalories += e.CaloriesBurned
		}
	}

	weeks := make([]map[string]interface{}, 0, 8)
	now := time.Now()
	for i := 7; i >= 0; i-- {
		weekStart := now.AddDate(0, 0, -7*(i+1)+1).Format("2006-01-02")
		weekEnd := now.AddDate(0, 0, -7*i).Format("2006-01-02")
		var count, minutes int
		for _, e := range entries {
			if e.Date >= weekStart && e.Date <= weekEnd {
				count++
				minutes += int(parseNum(e.Duration))
			}
		}
		weeks = append(weeks, map[string]interface{}{
			"week_start": weekStart,
			"sessions":   count,
			"minutes":    minutes,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"recent": recent,
		"weekly_stats": map[string]interface{}{
			"sessions":       sessions,
			"total_minutes":  totalMinutes,
			"total_calories": totalCalories,
		},
		"activities":     activities,
		"weekly_history": weeks,
	})
}

// SleepStats merges manual entries with synced sleep, manual winning on
// date conflicts.
func (h *StatsHandler) SleepStats(w http.ResponseWriter, r *http.Request) {
	rng, start := rangeStart(r, "1m")
	userID := middleware.GetUserID(r.Context())

	manual, err := h.sleepRepo.ListRange(r.Context(), userID, start, today())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	synced, err := h.healthRepo.SleepSince(r.Context(), userID, start)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	type sleepDay struct {
		Date    string `json:"date"`
		Minutes int    `json:"minutes"`
		Source  string `json:"source"`
		Notes   string `json:"notes"`
	}

	byDate := make(map[string]sleepDay)
	for _, s := range synced {
		byDate[s.Date] = sleepDay{Date: s.Date, Minutes: int(s.Value), Source: "apple_health"}
	}
	for _, s := range manual {
		byDate[s.Date] = sleepDay{Date: s.Date, Minutes: s.DurationMinutes, Source: s.Source, Notes: s.Notes}
	}

	days := make([]sleepDay, 0, len(byDate))
	for _, d := range byDate {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })

	var sum, minSleep, maxSleep int
	for _, d := range days {
		sum += d.Minutes
		if minSleep == 0 || d.Minutes < minSleep {
			minSleep = d.Minutes
		}
		if d.Minutes > maxSleep {
			maxSleep = d.Minutes
		}
	}
	var avg int
	if len(days) > 0 {
		avg = sum / len(days)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"range": rng,
		"days":  days,
		"stats": map[string]interface{}{
			"avg_minutes":  avg,
			"min_sleep":    minSleep,
			"max_sleep":    maxSleep,
			"days_tracked": len(days),
		},
	})
}

// VO2MaxStats charts the synced VO2 max trend.
func (h *StatsHandler) VO2MaxStats(w http.ResponseWriter, r *http.Request) {
	rng, start := rangeStart(r, "3m")
	userID := middleware.GetUserID(r.Context())

	values, err := h.healthRepo.VO2MaxSince(r.Context(), userID, start)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	// Newest first from the query; chart wants ascending.
	history := make([]repository.DatedValue, len(values))
	for i, v := range values {
		history[len(values)-1-i] = v
	}

	stats := map[string]interface{}{"days_tracked": len(history)}
	if len(history) > 0 {
		var sum, min, max float64
		min = history[0].Value
		for _, v := range history {
			sum += v.Value
			if v.Value < min {
				min = v.Value
			}
			if v.Value > max {
				max = v.Value
			}
		}
		current := history[len(history)-1].Value
		stats["current"] = current
		stats["avg"] = round1(sum / float64(len(history)))
		stats["min"] = min
		stats["max"] = max

		weekAgo := time.Now().AddDate(0, 0, -7).Format("2006-01-02")
		for _, v := range history {
			if v.Date <= weekAgo {
				stats["change_7d"] = round1(current - v.Value)
			}
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"range":   rng,
		"history": history,
		"stats":   stats,
	})
}

// Summary is the dashboard landing view, covering the last seven days.
func (h *StatsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	start := time.Now().AddDate(0, 0, -6).Format("2006-01-02")

	meals, err := h.mealRepo.ListRange(r.Context(), userID, start, today())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	hydration, err := h.hydrationRepo.ListRange(r.Context(), userID, start, today())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	exercise, err := h.exerciseRepo.ListRange(r.Context(), userID, start, today())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	type daySummary struct {
		Date      string  `json:"date"`
		Calories  int     `json:"calories"`
		Protein   float64 `json:"protein"`
		Glasses   int     `json:"glasses"`
		Exercises int     `json:"exercises"`
	}

	byDate := make(map[string]*daySummary)
	day := func(date string) *daySummary {
		d := byDate[date]
		if d == nil {
			d = &daySummary{Date: date}
			byDate[date] = d
		}
		return d
	}
	for _, m := range meals {
		d := day(m.Date)
		d.Calories += m.Calories
		d.Protein += parseNum(m.Protein)
	}
	for _, g := range hydration {
		day(g.Date).Glasses++
	}
	for _, e := range exercise {
		day(e.Date).Exercises++
	}

	days := make([]daySummary, 0, 7)
	for i := 6; i >= 0; i-- {
		date := time.Now().AddDate(0, 0, -i).Format("2006-01-02")
		if d := byDate[date]; d != nil {
			d.Protein = round1(d.Protein)
			days = append(days, *d)
		} else {
			days = append(days, daySummary{Date: date})
		}
	}

	var sumCal, sumProtein float64
	var exerciseDays, daysLogged, counted int
	for _, d := range days {
		if d.Calories > 0 || d.Glasses > 0 || d.Exercises > 0 {
			daysLogged++
		}
		if d.Exercises > 0 {
			exerciseDays++
		}
		if d.Date == today() {
			continue
		}
		if d.Calories > 0 {
			sumCal += float64(d.Calories)
			sumProtein += d.Protein
			counted++
		}
	}
	var avgCal, avgProtein float64
	if counted > 0 {
		avgCal = math.Round(sumCal / float64(counted))
		avgProtein = round1(sumProtein / float64(counted))
	}

	goals, err := h.prefRepo.GetGoals(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"days":          days,
		"today":         days[len(days)-1],
		"avg_cal":       avgCal,
		"avg_protein":   avgProtein,
		"exercise_days": exerciseDays,
		"days_logged":   daysLogged,
		"goals":         goals,
	})
}

// Streaks recomputes consecutive-day runs from the raw tables and persists
// them.
func (h *StatsHandler) Streaks(w http.ResponseWriter, r *http.Request) {
	streaks, err := h.streakService.Recalc(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"streaks": streaks})
}
