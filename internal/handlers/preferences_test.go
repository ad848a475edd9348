package handlers

import (
	"encoding/json"
	"testing"
)

func TestValidatePrefValue(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		raw     string
		want    string
		wantErr bool
	}{
		{"plain string", "theme", `"dark"`, "dark", false},
		{"number normalized", "checkin_hour", `9`, "9", false},
		{"checkin hour string", "checkin_hour", `"21"`, "21", false},
		{"checkin hour too big", "checkin_hour", `"24"`, "", true},
		{"checkin hour negative", "checkin_hour", `"-1"`, "", true},
		{"calorie goal valid", "daily_calorie_goal", `"2200"`, "2200", false},
		{"calorie goal zero", "daily_calorie_goal", `"0"`, "", true},
		{"calorie goal huge", "daily_calorie_goal", `"20000"`, "", true},
		{"protein goal valid", "daily_protein_goal", `"150"`, "150", false},
		{"protein goal invalid", "daily_protein_goal", `"abc"`, "", true},
		{"array rejected", "theme", `["a"]`, "", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, msg := validatePrefValue(tc.key, json.RawMessage(tc.raw))
			if tc.wantErr && msg == "" {
				t.Errorf("expected validation error, got value %q", got)
			}
			if !tc.wantErr {
				if msg != "" {
					t.Errorf("unexpected error: %s", msg)
				}
				if got != tc.want {
					t.Errorf("value = %q, want %q", got, tc.want)
				}
			}
		})
	}
}

func TestValidatePrefValueLengthLimits(t *testing.T) {
	long := make([]byte, prefValueMaxLen+1)
	for i := range long {
		long[i] = 'x'
	}
	raw, _ := json.Marshal(string(long))

	if _, msg := validatePrefValue("bio", raw); msg == "" {
		t.Error("overlong value accepted")
	}

	// meal_templates gets the larger budget.
	if _, msg := validatePrefValue("meal_templates", raw); msg != "" {
		t.Errorf("templates value under its limit rejected: %s", msg)
	}
}
