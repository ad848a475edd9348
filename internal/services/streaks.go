package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"vital-backend/internal/models"
	"vital-backend/internal/repository"
)

var streakMetrics = []string{"meals", "hydration", "exercise", "weight"}

type StreakService struct {
	streakRepo *repository.StreakRepo
}

func NewStreakService(streakRepo *repository.StreakRepo) *StreakService {
	return &StreakService{streakRepo: streakRepo}
}

// Recalc recomputes every metric's streak from the raw tables and persists
// the result.
func (s *StreakService) Recalc(ctx context.Context, userID uuid.UUID) ([]models.Streak, error) {
	streaks := make([]models.Streak, 0, len(streakMetrics))
	for _, metric := range streakMetrics {
		dates, err := s.streakRepo.ActiveDates(ctx, userID, metric)
		if err != nil {
			return nil, err
		}

		current, best, lastActive := computeStreak(dates)
		streak := models.Streak{Metric: metric, Current: current, Best: best, LastActive: lastActive}
		if err := s.streakRepo.Upsert(ctx, userID, &streak); err != nil {
			return nil, err
		}
		streaks = append(streaks, streak)
	}
	return streaks, nil
}

// computeStreak takes active dates newest first. The current streak only
// counts while the run reaches today or yesterday.
func computeStreak(dates []string) (current, best int, lastActive string) {
	if len(dates) == 0 {
		return 0, 0, "—"
	}
	lastActive = dates[0]

	run := 1
	best = 1
	for i := 1; i < len(dates); i++ {
		if consecutive(dates[i-1], dates[i]) {
			run++
		} else {
			run = 1
		}
		if run > best {
			best = run
		}
	}

	yesterday := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	if dates[0] >= yesterday {
		current = 1
		for i := 1; i < len(dates); i++ {
			if !consecutive(dates[i-1], dates[i]) {
				break
			}
			current++
		}
	}
	return current, best, lastActive
}

// consecutive reports whether earlier is exactly one day before later.
func consecutive(later, earlier string) bool {
	l, err1 := time.Parse("2006-01-02", later)
	e, err2 := time.Parse("2006-01-02", earlier)
	if err1 != nil || err2 != nil {
		return false
	}
	return l.Sub(e) == 24*time.Hour
}
