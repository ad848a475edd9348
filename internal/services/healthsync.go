package services

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"vital-backend/internal/memory"
	"vital-backend/internal/models"
	"vital-backend/internal/repository"
)

// kJ per kcal; Health Auto Export sends energy in kJ.
const kjPerKcal = 4.184

const kgToLbs = 2.20462

var workoutTypes = map[string]string{
	"HKWorkoutActivityTypeRunning":                     "Running",
	"HKWorkoutActivityTypeCycling":                     "Cycling",
	"HKWorkoutActivityTypeSwimming":                    "Swimming",
	"HKWorkoutActivityTypeWalking":                     "Walking",
	"HKWorkoutActivityTypeHiking":                      "Hiking",
	"HKWorkoutActivityTypeTraditionalStrengthTraining": "Weight Training",
	"HKWorkoutActivityTypeYoga":                        "Yoga",
	"HKWorkoutActivityTypeHighIntensityIntervalTraining": "HIIT",
	"HKWorkoutActivityTypePilates":                       "Pilates",
	"HKWorkoutActivityTypeDance":                         "Dance",
	"HKWorkoutActivityTypeRowing":                        "Rowing",
	"HKWorkoutActivityTypeElliptical":                    "Elliptical",
	"HKWorkoutActivityTypeStairClimbing":                 "Stair Climbing",
	"HKWorkoutActivityTypeCoreTraining":                  "Core Training",
	"HKWorkoutActivityTypeFunctionalStrengthTraining":    "Functional Training",
	"HKWorkoutActivityTypeCooldown":                      "Cooldown",
	"Running":             "Running",
	"Cycling":             "Cycling",
	"Swimming":            "Swimming",
	"Walking":             "Walking",
	"Hiking":              "Hiking",
	"Yoga":                "Yoga",
	"HIIT":                "HIIT",
	"Weight Training":     "Weight Training",
	"Pilates":             "Pilates",
	"Dance":               "Dance",
	"Rowing":              "Rowing",
	"Elliptical":          "Elliptical",
	"Stair Climbing":      "Stair Climbing",
	"Core Training":       "Core Training",
	"Functional Training": "Functional Training",
	"Cooldown":            "Cooldown",
}

var dateRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

type HealthSyncService struct {
	healthRepo   *repository.HealthRepo
	exerciseRepo *repository.ExerciseRepo
	weightRepo   *repository.WeightRepo
	store        *memory.Store
	log          zerolog.Logger
}

func NewHealthSyncService(
	healthRepo *repository.HealthRepo,
	exerciseRepo *repository.ExerciseRepo,
	weightRepo *repository.WeightRepo,
	store *memory.Store,
	log zerolog.Logger,
) *HealthSyncService {
	return &HealthSyncService{
		healthRepo:   healthRepo,
		exerciseRepo: exerciseRepo,
		weightRepo:   weightRepo,
		store:        store,
		log:          log,
	}
}

// Sync ingests a Health Auto Export payload: per-date metric aggregates go
// to the apple_health table and the day's markdown note, workouts become
// exercise rows, and body mass lands in the weight log.
func (s *HealthSyncService) Sync(ctx context.Context, userID uuid.UUID, username string, req *models.HealthSyncRequest) (*models.HealthSyncResult, error) {
	metrics := req.Data.Metrics
	workouts := req.Data.Workouts
	if len(metrics) == 0 && len(workouts) == 0 {
		return nil, &ValidationError{Fields: map[string]string{"data": "No metrics or workouts found"}}
	}

	byDate := make(map[string]map[string][]float64)
	for _, metric := range metrics {
		for _, sample := range metric.Data {
			date := sampleDate(sample.Date)
			if date == "" {
				continue
			}
			val := sample.Value()
			if val == nil || math.IsNaN(*val) {
				continue
			}
			if byDate[date] == nil {
				byDate[date] = make(map[string][]float64)
			}
			byDate[date][metric.Name] = append(byDate[date][metric.Name], *val)
		}
	}

	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	synced := make([]string, 0, len(dates))
	for _, date := range dates {
		day := aggregateDay(date, byDate[date])

		section := renderHealthSection(day, workoutsForDate(workouts, date))
		if err := s.store.UpsertHealthSection(username, date, section); err != nil {
			s.log.Warn().Err(err).Str("user", username).Str("date", date).Msg("health sync markdown write failed")
		}

		if !day.Empty() {
			if err := s.healthRepo.UpsertDay(ctx, userID, day); err != nil {
				s.log.Warn().Err(err).Str("date", date).Msg("health sync upsert failed")
			}
		}

		synced = append(synced, date)
	}

	s.syncWorkouts(ctx, userID, username, workouts)
	s.syncWeight(ctx, userID, username, metrics)

	s.log.Info().Str("user", username).Int("days", len(synced)).Strs("dates", synced).Msg("health sync complete")
	return &models.HealthSyncResult{OK: true, Synced: synced, Count: len(synced)}, nil
}

func sampleDate(raw string) string {
	if len(raw) < 10 {
		return ""
	}
	date := raw[:10]
	if !dateRegex.MatchString(date) {
		return ""
	}
	return date
}

func aggregateDay(date string, data map[string][]float64) *models.AppleHealthDay {
	vals := func(name string) []float64 { return data[name] }
	sum := func(name string) *int {
		v := vals(name)
		if len(v) == 0 {
			return nil
		}
		total := 0.0
		for _, x := range v {
			total += x
		}
		n := int(math.Round(total))
		return &n
	}
	avg := func(name string) *int {
		v := vals(name)
		if len(v) == 0 {
			return nil
		}
		total := 0.0
		for _, x := range v {
			total += x
		}
		n := int(math.Round(total / float64(len(v))))
		return &n
	}
	last := func(name string) *float64 {
		v := vals(name)
		if len(v) == 0 {
			return nil
		}
		x := v[len(v)-1]
		return &x
	}
	kjToCal := func(name string) *int {
		v := vals(name)
		if len(v) == 0 {
			return nil
		}
		total := 0.0
		for _, x := range v {
			total += x
		}
		n := int(math.Round(total / kjPerKcal))
		return &n
	}
	avg1 := func(name string) *float64 {
		v := vals(name)
		if len(v) == 0 {
			return nil
		}
		total := 0.0
		for _, x := range v {
			total += x
		}
		x := math.Round(total/float64(len(v))*10) / 10
		return &x
	}
	sum1 := func(name string) *float64 {
		v := vals(name)
		if len(v) == 0 {
			return nil
		}
		total := 0.0
		for _, x := range v {
			total += x
		}
		x := math.Round(total*10) / 10
		return &x
	}

	return &models.AppleHealthDay{
		Date:            date,
		Steps:           sum("step_count"),
		ActiveCal:       kjToCal("active_energy"),
		BasalEnergy:     kjToCal("basal_energy_burned"),
		FlightsClimbed:  sum("flights_climbed"),
		HeartRate:       avg("heart_rate"),
		HRV:             avg("heart_rate_variability"),
		BloodOxygen:     last("blood_oxygen_saturation"),
		WalkingHR:       avg("walking_heart_rate_average"),
		RestingHR:       avg("resting_heart_rate"),
		VO2Max:          last("vo2_max"),
		RespiratoryRate: avg1("respiratory_rate"),
		DistanceWalking: sum1("distance_walking_running"),
		ExerciseTime:    sum("apple_exercise_time"),
		SleepMinutes:    sum("sleep_analysis"),
	}
}

func workoutsForDate(workouts []models.HealthWorkout, date string) []models.HealthWorkout {
	out := make([]models.HealthWorkout, 0)
	for _, w := range workouts {
		if sampleDate(w.Start) == date {
			out = append(out, w)
		}
	}
	return out
}

func renderHealthSection(day *models.AppleHealthDay, workouts []models.HealthWorkout) string {
	var b strings.Builder
	b.WriteString("\n## Apple Health\n\n| Metric | Value |\n|--------|-------|\n")

	if day.Steps != nil {
		fmt.Fprintf(&b, "| Steps | %s |\n", commaInt(*day.Steps))
	}
	if day.ActiveCal != nil {
		fmt.Fprintf(&b, "| Active Calories | %d cal |\n", *day.ActiveCal)
	}
	if day.BasalEnergy != nil {
		fmt.Fprintf(&b, "| Basal Energy | %d cal |\n", *day.BasalEnergy)
	}
	if day.FlightsClimbed != nil {
		fmt.Fprintf(&b, "| Flights Climbed | %d |\n", *day.FlightsClimbed)
	}
	if day.HeartRate != nil {
		fmt.Fprintf(&b, "| Avg Heart Rate | %d bpm |\n", *day.HeartRate)
	}
	if day.WalkingHR != nil {
		fmt.Fprintf(&b, "| Walking HR Avg | %d bpm |\n", *day.WalkingHR)
	}
	if day.RestingHR != nil {
		fmt.Fprintf(&b, "| Resting HR | %d bpm |\n", *day.RestingHR)
	}
	if day.HRV != nil {
		fmt.Fprintf(&b, "| HRV | %d ms |\n", *day.HRV)
	}
	if day.BloodOxygen != nil {
		fmt.Fprintf(&b, "| Blood Oxygen | %s%% |\n", floatStr(*day.BloodOxygen))
	}
	if day.VO2Max != nil {
		fmt.Fprintf(&b, "| VO2 Max | %s mL/kg/min |\n", floatStr(*day.VO2Max))
	}
	if day.RespiratoryRate != nil {
		fmt.Fprintf(&b, "| Resp Rate | %s br/min |\n", floatStr(*day.RespiratoryRate))
	}
	if day.DistanceWalking != nil {
		fmt.Fprintf(&b, "| Distance | %s mi |\n", floatStr(*day.DistanceWalking))
	}
	if day.ExerciseTime != nil {
		fmt.Fprintf(&b, "| Exercise | %d min |\n", *day.ExerciseTime)
	}
	if day.SleepMinutes != nil {
		fmt.Fprintf(&b, "| Sleep | %dh %dm |\n", *day.SleepMinutes/60, *day.SleepMinutes%60)
	}

	if len(workouts) > 0 {
		b.WriteString("\n### Workouts\n| Time | Activity | Duration | Calories | Distance | HR |\n|------|----------|----------|----------|----------|----|\n")
		for _, w := range workouts {
			start, err := parseWorkoutStart(w.Start)
			if err != nil {
				continue
			}
			activity := mdSafe(truncate(workoutActivity(w.Type), 100))
			dur := "--"
			if w.Duration > 0 {
				dur = fmt.Sprintf("%d min", int(math.Round(w.Duration)))
			}
			cal := "--"
			if w.Calories.Qty > 0 {
				cal = fmt.Sprintf("%d cal", int(math.Round(w.Calories.Qty)))
			}
			dist := "--"
			if w.Distance.Qty > 0 {
				dist = fmt.Sprintf("%s %s", floatStr(math.Round(w.Distance.Qty*10)/10), distanceUnit(w.DistanceUnit, "mi", "km"))
			}
			hr := "--"
			if w.HeartRateAverage.Qty > 0 {
				hr = fmt.Sprintf("%d bpm", int(math.Round(w.HeartRateAverage.Qty)))
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n", clockTime(start), activity, dur, cal, dist, hr)
		}
	}

	return b.String()
}

func (s *HealthSyncService) syncWorkouts(ctx context.Context, userID uuid.UUID, username string, workouts []models.HealthWorkout) {
	if len(workouts) == 0 {
		return
	}

	count := 0
	syncedDates := make(map[string]bool)
	existingByDate := make(map[string][]models.Exercise)

	for _, w := range workouts {
		date := sampleDate(w.Start)
		if date == "" {
			continue
		}

		rawType := w.Name
		if rawType == "" {
			rawType = w.Type
		}
		activity := truncate(workoutActivity(rawType), 100)
		if activity == "" {
			continue
		}

		dur := w.Duration
		if !isFinite(dur) || dur <= 0 {
			continue
		}
		// Exported durations over 200 are seconds, not minutes
		if dur > 200 {
			dur = dur / 60
		}

		start, err := parseWorkoutStart(w.Start)
		if err != nil {
			continue
		}
		startMinutes := start.Hour()*60 + start.Minute()

		// Calories arrive in kJ under several keys
		rawCal := w.Calories.Qty
		calUnits := ""
		for _, c := range []models.QtyValue{w.ActiveEnergyBurned, w.ActiveEnergy, w.TotalEnergyBurned, w.TotalEnergy} {
			if c.Qty > 0 {
				rawCal = c.Qty
				calUnits = c.Units
				break
			}
		}
		if strings.EqualFold(calUnits, "kj") {
			rawCal = rawCal / kjPerKcal
		}
		calories := 0
		if isFinite(rawCal) && rawCal > 0 {
			calories = int(math.Round(rawCal))
		}

		distance := ""
		if isFinite(w.Distance.Qty) && w.Distance.Qty > 0 {
			unit := w.Distance.Units
			if unit == "" {
				unit = w.DistanceUnit
			}
			distance = fmt.Sprintf("%s %s", floatStr(math.Round(w.Distance.Qty*10)/10), distanceUnit(unit, "mi", "km", "yd", "m"))
		}

		rawHr := w.HeartRateAvg.Qty
		if rawHr == 0 {
			rawHr = w.AvgHeartRate.Qty
		}
		if rawHr == 0 {
			rawHr = w.HeartRateAverage.Qty
		}
		var avgHr *int
		if isFinite(rawHr) && rawHr > 0 {
			n := int(math.Round(rawHr))
			avgHr = &n
		}

		// Dedup against same-day rows: same activity within 30 minutes
		existing, ok := existingByDate[date]
		if !ok {
			existing, err = s.exerciseRepo.ListByDate(ctx, userID, date)
			if err != nil {
				existing = nil
			}
			existingByDate[date] = existing
		}
		dup := false
		for _, row := range existing {
			if strings.EqualFold(row.Activity, activity) {
				if m := timeToMinutes(row.Time); m >= 0 && abs(m-startMinutes) <= 30 {
					dup = true
					break
				}
			}
		}
		if dup {
			continue
		}

		in := &models.ExerciseInput{
			Date:           date,
			Time:           clockTime(start),
			Activity:       activity,
			Duration:       fmt.Sprintf("%d min", int(math.Round(dur))),
			CaloriesBurned: calories,
			Notes:          truncate(w.Name, 200),
			Distance:       distance,
			AvgHeartRate:   avgHr,
		}
		created, err := s.exerciseRepo.Create(ctx, userID, in, "apple_health")
		if err != nil {
			s.log.Warn().Err(err).Str("date", date).Str("activity", activity).Msg("health sync workout insert failed")
			continue
		}
		existingByDate[date] = append(existingByDate[date], *created)
		count++
		syncedDates[date] = true
	}

	if count > 0 {
		dates := make([]string, 0, len(syncedDates))
		for d := range syncedDates {
			dates = append(dates, d)
		}
		sort.Strings(dates)
		s.log.Info().Str("user", username).Int("count", count).Strs("dates", dates).Msg("health sync workouts")
	}
}

func (s *HealthSyncService) syncWeight(ctx context.Context, userID uuid.UUID, username string, metrics []models.HealthMetric) {
	var weightMetric *models.HealthMetric
	for i := range metrics {
		if metrics[i].Name == "body_mass" || metrics[i].Name == "weight" {
			weightMetric = &metrics[i]
			break
		}
	}
	if weightMetric == nil {
		return
	}

	rows := make(map[string]float64)
	for _, sample := range weightMetric.Data {
		date := sampleDate(sample.Date)
		if date == "" || sample.Qty == nil {
			continue
		}
		lbs := *sample.Qty
		if weightMetric.Units == "kg" {
			lbs = lbs * kgToLbs
		}
		lbs = math.Round(lbs*10) / 10
		if !isFinite(lbs) || lbs <= 0 {
			continue
		}

		if _, err := s.weightRepo.Upsert(ctx, userID, &models.WeightInput{
			Date: date, WeightLbs: lbs, Notes: "From Apple Health",
		}); err != nil {
			s.log.Warn().Err(err).Str("date", date).Float64("lbs", lbs).Msg("health sync weight insert failed")
			continue
		}
		rows[date] = lbs
	}

	if err := s.store.AppendWeightRows(username, rows); err != nil {
		s.log.Warn().Err(err).Str("user", username).Msg("weight log write failed")
	}
}

// FormatHealthDay renders stored aggregates with display units.
func FormatHealthDay(day *models.AppleHealthDay) map[string]string {
	if day == nil {
		return nil
	}
	health := make(map[string]string)
	if day.Steps != nil {
		health["Steps"] = commaInt(*day.Steps)
	}
	if day.ActiveCal != nil {
		health["Active Calories"] = fmt.Sprintf("%d cal", *day.ActiveCal)
	}
	if day.BasalEnergy != nil {
		health["Basal Energy"] = fmt.Sprintf("%d cal", *day.BasalEnergy)
	}
	if day.FlightsClimbed != nil {
		health["Flights Climbed"] = strconv.Itoa(*day.FlightsClimbed)
	}
	if day.HeartRate != nil {
		health["Avg Heart Rate"] = fmt.Sprintf("%d bpm", *day.HeartRate)
	}
	if day.HRV != nil {
		health["HRV"] = fmt.Sprintf("%d ms", *day.HRV)
	}
	if day.BloodOxygen != nil {
		health["Blood Oxygen"] = floatStr(*day.BloodOxygen) + "%"
	}
	if day.WalkingHR != nil {
		health["Walking HR Avg"] = fmt.Sprintf("%d bpm", *day.WalkingHR)
	}
	if day.RestingHR != nil {
		health["Resting HR"] = fmt.Sprintf("%d bpm", *day.RestingHR)
	}
	if day.VO2Max != nil {
		health["VO2 Max"] = floatStr(*day.VO2Max) + " mL/kg/min"
	}
	if day.RespiratoryRate != nil {
		health["Resp Rate"] = floatStr(*day.RespiratoryRate) + " br/min"
	}
	if day.DistanceWalking != nil {
		health["Distance"] = floatStr(*day.DistanceWalking) + " mi"
	}
	if day.ExerciseTime != nil {
		health["Exercise"] = fmt.Sprintf("%d min", *day.ExerciseTime)
	}
	if day.SleepMinutes != nil {
		health["Sleep"] = fmt.Sprintf("%dh %dm", *day.SleepMinutes/60, *day.SleepMinutes%60)
	}
	if len(health) == 0 {
		return nil
	}
	return health
}

func workoutActivity(rawType string) string {
	if mapped, ok := workoutTypes[rawType]; ok {
		return mapped
	}
	if rawType == "" {
		return "Other"
	}
	return rawType
}

// parseWorkoutStart accepts ISO 8601 and "YYYY-MM-DD HH:MM:SS +0000".
func parseWorkoutStart(raw string) (time.Time, error) {
	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02 15:04:05 -0700",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
	} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable workout start %q", raw)
}

// clockTime formats like "7:30 AM".
func clockTime(t time.Time) string {
	hour := t.Hour()
	ampm := "AM"
	if hour >= 12 {
		ampm = "PM"
	}
	h12 := hour % 12
	if h12 == 0 {
		h12 = 12
	}
	return fmt.Sprintf("%d:%02d %s", h12, t.Minute(), ampm)
}

var clockRegex = regexp.MustCompile(`^(\d{1,2}):(\d{2})\s*(AM|PM)$`)

// timeToMinutes parses "7:30 AM" to minutes since midnight, -1 on failure.
func timeToMinutes(raw string) int {
	m := clockRegex.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(raw)))
	if m == nil {
		return -1
	}
	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	if m[3] == "PM" && h != 12 {
		h += 12
	}
	if m[3] == "AM" && h == 12 {
		h = 0
	}
	return h*60 + min
}

func distanceUnit(unit string, allowed ...string) string {
	for _, a := range allowed {
		if unit == a {
			return unit
		}
	}
	return "mi"
}

func commaInt(n int) string {
	s := strconv.Itoa(n)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	var b strings.Builder
	for i, ch := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(ch)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

func floatStr(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func mdSafe(s string) string {
	return strings.NewReplacer("|", " ", "\n", " ", "\r", " ").Replace(s)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
