package models

import "encoding/json"

// HealthSyncRequest is the export payload posted by the Health Auto Export app.
type HealthSyncRequest struct {
	Data HealthSyncData `json:"data"`
}

type HealthSyncData struct {
	Metrics  []HealthMetric  `json:"metrics"`
	Workouts []HealthWorkout `json:"workouts"`
}

type HealthMetric struct {
	Name  string         `json:"name"`
	Units string         `json:"units"`
	Data  []HealthSample `json:"data"`
}

// HealthSample carries either a quantity or an average depending on the
// metric. The exporter is inconsistent about the avg key's casing; stdlib
// JSON matching is case-insensitive so one field covers both.
type HealthSample struct {
	Date string   `json:"date"`
	Qty  *float64 `json:"qty"`
	Avg  *float64 `json:"avg"`
}

// Value prefers qty over avg, mirroring the exporter's precedence.
func (s HealthSample) Value() *float64 {
	if s.Qty != nil {
		return s.Qty
	}
	return s.Avg
}

// QtyValue decodes fields the exporter sends either as a flat number or as
// a nested {"qty": n, "units": "..."} object.
type QtyValue struct {
	Qty   float64
	Units string
	Set   bool
}

func (q *QtyValue) UnmarshalJSON(b []byte) error {
	var n float64
	if err := json.Unmarshal(b, &n); err == nil {
		q.Qty = n
		q.Set = true
		return nil
	}
	var obj struct {
		Qty   *float64 `json:"qty"`
		Units string   `json:"units"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	if obj.Qty != nil {
		q.Qty = *obj.Qty
		q.Set = true
	}
	q.Units = obj.Units
	return nil
}

type HealthWorkout struct {
	Start              string   `json:"start"`
	Name               string   `json:"name"`
	Type               string   `json:"type"`
	Duration           float64  `json:"duration"`
	Calories           QtyValue `json:"calories"`
	Distance           QtyValue `json:"distance"`
	DistanceUnit       string   `json:"distance_unit"`
	ActiveEnergyBurned QtyValue `json:"activeEnergyBurned"`
	ActiveEnergy       QtyValue `json:"activeEnergy"`
	TotalEnergyBurned  QtyValue `json:"totalEnergyBurned"`
	TotalEnergy        QtyValue `json:"totalEnergy"`
	HeartRateAvg       QtyValue `json:"heartRateAvg"`
	AvgHeartRate       QtyValue `json:"avgHeartRate"`
	HeartRateAverage   QtyValue `json:"heart_rate_avg"`
}

// AppleHealthDay is one row of the per-date aggregate table.
type AppleHealthDay struct {
	Date            string   `json:"date"`
	Steps           *int     `json:"steps"`
	ActiveCal       *int     `json:"active_cal"`
	BasalEnergy     *int     `json:"basal_energy"`
	FlightsClimbed  *int     `json:"flights_climbed"`
	HeartRate       *int     `json:"heart_rate"`
	HRV             *int     `json:"hrv"`
	BloodOxygen     *float64 `json:"blood_oxygen"`
	WalkingHR       *int     `json:"walking_hr"`
	RestingHR       *int     `json:"resting_hr"`
	VO2Max          *float64 `json:"vo2_max"`
	RespiratoryRate *float64 `json:"respiratory_rate"`
	DistanceWalking *float64 `json:"distance_walking"`
	ExerciseTime    *int     `json:"exercise_time"`
	SleepMinutes    *int     `json:"sleep_minutes"`
}

// Empty reports whether no metric on the day is set.
func (d *AppleHealthDay) Empty() bool {
	return d.Steps == nil && d.ActiveCal == nil && d.BasalEnergy == nil &&
		d.FlightsClimbed == nil && d.HeartRate == nil && d.HRV == nil &&
		d.BloodOxygen == nil && d.WalkingHR == nil && d.RestingHR == nil &&
		d.VO2Max == nil && d.RespiratoryRate == nil && d.DistanceWalking == nil &&
		d.ExerciseTime == nil && d.SleepMinutes == nil
}

type HealthSyncResult struct {
	OK     bool     `json:"ok"`
	Synced []string `json:"synced"`
	Count  int      `json:"count"`
}
