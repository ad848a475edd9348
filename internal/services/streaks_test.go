package services

import (
	"testing"
	"time"
)

func day(offset int) string {
	return time.Now().AddDate(0, 0, offset).Format("2006-01-02")
}

func TestComputeStreakEmpty(t *testing.T) {
	current, best, lastActive := computeStreak(nil)
	if current != 0 || best != 0 {
		t.Errorf("Empty dates: current=%d best=%d, want 0/0", current, best)
	}
	if lastActive != "—" {
		t.Errorf("lastActive = %q, want placeholder", lastActive)
	}
}

func TestComputeStreakActiveRun(t *testing.T) {
	dates := []string{day(0), day(-1), day(-2), day(-5), day(-6)}
	current, best, lastActive := computeStreak(dates)
	if current != 3 {
		t.Errorf("current = %d, want 3", current)
	}
	if best != 3 {
		t.Errorf("best = %d, want 3", best)
	}
	if lastActive != day(0) {
		t.Errorf("lastActive = %q, want today", lastActive)
	}
}

func TestComputeStreakBrokenRun(t *testing.T) {
	// Last activity three days ago: streak is over but best survives.
	dates := []string{day(-3), day(-4), day(-5), day(-6)}
	current, best, _ := computeStreak(dates)
	if current != 0 {
		t.Errorf("current = %d, want 0 for stale run", current)
	}
	if best != 4 {
		t.Errorf("best = %d, want 4", best)
	}
}

func TestComputeStreakYesterdayCounts(t *testing.T) {
	// A run ending yesterday is still alive; the user has today left to log.
	dates := []string{day(-1), day(-2)}
	current, _, _ := computeStreak(dates)
	if current != 2 {
		t.Errorf("current = %d, want 2", current)
	}
}

func TestComputeStreakBestExceedsCurrent(t *testing.T) {
	dates := []string{day(0), day(-4), day(-5), day(-6), day(-7)}
	current, best, _ := computeStreak(dates)
	if current != 1 {
		t.Errorf("current = %d, want 1", current)
	}
	if best != 4 {
		t.Errorf("best = %d, want 4", best)
	}
}
