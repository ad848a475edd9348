package services

import (
	"strings"
	"testing"

	"vital-backend/internal/models"
)

func TestSampleDate(t *testing.T) {
	tests := []struct {
		raw      string
		expected string
	}{
		{"2026-08-30 07:15:00 -0700", "2026-08-30"},
		{"2026-08-30T07:15:00Z", "2026-08-30"},
		{"2026-08-30", "2026-08-30"},
		{"not a date", ""},
		{"short", ""},
		{"", ""},
	}
	for _, tc := range tests {
		if got := sampleDate(tc.raw); got != tc.expected {
			t.Errorf("sampleDate(%q) = %q, want %q", tc.raw, got, tc.expected)
		}
	}
}

func TestAggregateDaySums(t *testing.T) {
	day := aggregateDay("2026-08-30", map[string][]float64{
		"step_count":      {4000, 3500.4},
		"flights_climbed": {3, 2},
	})

	if day.Steps == nil || *day.Steps != 7500 {
		t.Errorf("Steps = %v, want 7500", day.Steps)
	}
	if day.FlightsClimbed == nil || *day.FlightsClimbed != 5 {
		t.Errorf("FlightsClimbed = %v, want 5", day.FlightsClimbed)
	}
	if day.HeartRate != nil {
		t.Errorf("HeartRate should be nil when no samples exist")
	}
}

func TestAggregateDayEnergyConversion(t *testing.T) {
	// Health Auto Export reports energy in kJ.
	day := aggregateDay("2026-08-30", map[string][]float64{
		"active_energy": {2092, 2092}, // 4184 kJ = 1000 kcal
	})
	if day.ActiveCal == nil || *day.ActiveCal != 1000 {
		t.Errorf("ActiveCal = %v, want 1000", day.ActiveCal)
	}
}

func TestAggregateDayAvgAndLast(t *testing.T) {
	day := aggregateDay("2026-08-30", map[string][]float64{
		"heart_rate":              {60, 70, 83},
		"blood_oxygen_saturation": {97.1, 98.5},
		"vo2_max":                 {41.2, 42.0},
		"respiratory_rate":        {15.25, 16.75},
	})

	if day.HeartRate == nil || *day.HeartRate != 71 {
		t.Errorf("HeartRate = %v, want 71", day.HeartRate)
	}
	if day.BloodOxygen == nil || *day.BloodOxygen != 98.5 {
		t.Errorf("BloodOxygen = %v, want 98.5 (last sample)", day.BloodOxygen)
	}
	if day.VO2Max == nil || *day.VO2Max != 42.0 {
		t.Errorf("VO2Max = %v, want 42.0", day.VO2Max)
	}
	if day.RespiratoryRate == nil || *day.RespiratoryRate != 16.0 {
		t.Errorf("RespiratoryRate = %v, want 16.0", day.RespiratoryRate)
	}
}

func TestWorkoutActivity(t *testing.T) {
	tests := []struct {
		raw      string
		expected string
	}{
		{"HKWorkoutActivityTypeRunning", "Running"},
		{"HKWorkoutActivityTypeTraditionalStrengthTraining", "Weight Training"},
		{"Morning Jog", "Morning Jog"},
		{"", "Other"},
	}
	for _, tc := range tests {
		if got := workoutActivity(tc.raw); got != tc.expected {
			t.Errorf("workoutActivity(%q) = %q, want %q", tc.raw, got, tc.expected)
		}
	}
}

func TestParseWorkoutStart(t *testing.T) {
	valid := []string{
		"2026-08-30T07:15:00Z",
		"2026-08-30 07:15:00 -0700",
		"2026-08-30T07:15:00",
		"2026-08-30 07:15:00",
	}
	for _, raw := range valid {
		if _, err := parseWorkoutStart(raw); err != nil {
			t.Errorf("parseWorkoutStart(%q) failed: %v", raw, err)
		}
	}
	if _, err := parseWorkoutStart("yesterday morning"); err == nil {
		t.Error("Expected error for unparseable start time")
	}
}

func TestClockTimeRoundTrip(t *testing.T) {
	tests := []struct {
		raw     string
		minutes int
	}{
		{"7:30 AM", 450},
		{"12:00 AM", 0},
		{"12:00 PM", 720},
		{"11:59 PM", 1439},
		{"bogus", -1},
	}
	for _, tc := range tests {
		if got := timeToMinutes(tc.raw); got != tc.minutes {
			t.Errorf("timeToMinutes(%q) = %d, want %d", tc.raw, got, tc.minutes)
		}
	}
}

func TestCommaInt(t *testing.T) {
	tests := []struct {
		n        int
		expected string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-12345, "-12,345"},
	}
	for _, tc := range tests {
		if got := commaInt(tc.n); got != tc.expected {
			t.Errorf("commaInt(%d) = %q, want %q", tc.n, got, tc.expected)
		}
	}
}

func TestFormatHealthDay(t *testing.T) {
	if FormatHealthDay(nil) != nil {
		t.Error("nil day should format to nil")
	}
	if FormatHealthDay(&models.AppleHealthDay{Date: "2026-08-30"}) != nil {
		t.Error("empty day should format to nil")
	}

	steps := 12345
	sleep := 452
	got := FormatHealthDay(&models.AppleHealthDay{Date: "2026-08-30", Steps: &steps, SleepMinutes: &sleep})
	if got["Steps"] != "12,345" {
		t.Errorf("Steps = %q, want %q", got["Steps"], "12,345")
	}
	if got["Sleep"] != "7h 32m" {
		t.Errorf("Sleep = %q, want %q", got["Sleep"], "7h 32m")
	}
}

func TestRenderHealthSection(t *testing.T) {
	steps := 8200
	cal := 540
	day := &models.AppleHealthDay{Date: "2026-08-30", Steps: &steps, ActiveCal: &cal}
	workouts := []models.HealthWorkout{
		{Start: "2026-08-30 07:15:00 -0700", Type: "HKWorkoutActivityTypeRunning", Duration: 32.4},
	}

	section := renderHealthSection(day, workouts)
	if !strings.HasPrefix(section, "\n## Apple Health\n") {
		t.Errorf("Section missing heading: %q", section[:40])
	}
	if !strings.Contains(section, "| Steps | 8,200 |") {
		t.Error("Section missing steps row")
	}
	if !strings.Contains(section, "### Workouts") {
		t.Error("Section missing workouts table")
	}
	if !strings.Contains(section, "Running") {
		t.Error("Section missing workout name")
	}
}

func TestWorkoutsForDate(t *testing.T) {
	workouts := []models.HealthWorkout{
		{Start: "2026-08-30 07:15:00 -0700", Name: "Running"},
		{Start: "2026-08-29 18:00:00 -0700", Name: "Cycling"},
		{Start: "garbage", Name: "Mystery"},
	}
	got := workoutsForDate(workouts, "2026-08-30")
	if len(got) != 1 || got[0].Name != "Running" {
		t.Errorf("workoutsForDate returned %v, want just Running", got)
	}
}
