package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"vital-backend/internal/repository"
)

// Scheduler periodically enqueues maintenance jobs for every user.
type Scheduler struct {
	pool     *Pool
	userRepo *repository.UserRepo
	interval time.Duration
	log      zerolog.Logger
	stopChan chan struct{}
}

func NewScheduler(pool *Pool, userRepo *repository.UserRepo, interval time.Duration, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		pool:     pool,
		userRepo: userRepo,
		interval: interval,
		log:      log.With().Str("component", "scheduler").Logger(),
		stopChan: make(chan struct{}),
	}
}

func (s *Scheduler) Start() {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.tick()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	close(s.stopChan)
}

func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	users, err := s.userRepo.List(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("user list failed")
		return
	}

	for _, u := range users {
		for _, jobType := range []string{"memory.backup", "streaks.recalc"} {
			job := Job{Type: jobType, UserID: u.ID, Username: u.Username}
			if err := s.pool.Enqueue(ctx, job); err != nil {
				s.log.Warn().Err(err).Str("type", jobType).Str("user", u.Username).Msg("enqueue failed")
			}
		}
	}
}
