package handlers

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestRangeStart(t *testing.T) {
	tests := []struct {
		query    string
		def      string
		wantRng  string
		wantDays int
	}{
		{"range=1w", "1m", "1w", 7},
		{"range=1m", "1w", "1m", 30},
		{"range=3m", "1w", "3m", 90},
		{"range=1y", "1w", "1y", 365},
		{"range=bogus", "3m", "3m", 90},
		{"", "1w", "1w", 7},
	}

	for _, tc := range tests {
		req := httptest.NewRequest("GET", "/api/stats/weight?"+tc.query, nil)
		rng, start := rangeStart(req, tc.def)
		if rng != tc.wantRng {
			t.Errorf("query %q: range = %q, want %q", tc.query, rng, tc.wantRng)
		}
		want := time.Now().AddDate(0, 0, -tc.wantDays).Format("2006-01-02")
		if start != want {
			t.Errorf("query %q: start = %q, want %q", tc.query, start, want)
		}
	}
}

func TestParseNum(t *testing.T) {
	tests := []struct {
		in       string
		expected float64
	}{
		{"30g", 30},
		{"30.5 g", 30.5},
		{"45 min", 45},
		{"protein: 22", 22},
		{"", 0},
		{"none", 0},
	}
	for _, tc := range tests {
		if got := parseNum(tc.in); got != tc.expected {
			t.Errorf("parseNum(%q) = %v, want %v", tc.in, got, tc.expected)
		}
	}
}
