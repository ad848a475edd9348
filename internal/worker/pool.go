package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"vital-backend/internal/memory"
	"vital-backend/internal/repository"
	"vital-backend/internal/services"
)

const jobQueue = "queue:jobs"

// Job is one unit of background work pulled off the Redis queue.
type Job struct {
	Type     string    `json:"type"` // "memory.backup" | "streaks.recalc"
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
}

// Pool runs background jobs: memory file backups and streak recalculation.
type Pool struct {
	redis         *redis.Client
	store         *memory.Store
	streakService *services.StreakService
	userRepo      *repository.UserRepo
	workerCount   int
	log           zerolog.Logger
	stopChan      chan struct{}
}

func NewPool(
	redisClient *redis.Client,
	store *memory.Store,
	streakService *services.StreakService,
	userRepo *repository.UserRepo,
	workerCount int,
	log zerolog.Logger,
) *Pool {
	return &Pool{
		redis:         redisClient,
		store:         store,
		streakService: streakService,
		userRepo:      userRepo,
		workerCount:   workerCount,
		log:           log.With().Str("component", "worker").Logger(),
		stopChan:      make(chan struct{}),
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		go p.worker(i)
	}
	p.log.Info().Int("workers", p.workerCount).Msg("worker pool started")
}

func (p *Pool) Stop() {
	close(p.stopChan)
}

// Enqueue pushes a job for the pool to pick up.
func (p *Pool) Enqueue(ctx context.Context, job Job) error {
	body, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return p.redis.RPush(ctx, jobQueue, body).Err()
}

func (p *Pool) worker(id int) {
	for {
		select {
		case <-p.stopChan:
			p.log.Debug().Int("worker", id).Msg("worker shutting down")
			return
		default:
		}

		ctx := context.Background()

		result, err := p.redis.BLPop(ctx, 30*time.Second, jobQueue).Result()
		if err != nil {
			// Timeout or transient Redis error; poll again.
			continue
		}
		if len(result) < 2 {
			continue
		}

		var job Job
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			p.log.Warn().Int("worker", id).Err(err).Msg("bad job payload")
			continue
		}

		p.run(ctx, id, job)
	}
}

func (p *Pool) run(ctx context.Context, id int, job Job) {
	start := time.Now()
	var err error

	switch job.Type {
	case "memory.backup":
		err = p.store.BackupAll(job.Username)
	case "streaks.recalc":
		_, err = p.streakService.Recalc(ctx, job.UserID)
	default:
		p.log.Warn().Str("type", job.Type).Msg("unknown job type")
		return
	}

	evt := p.log.Info()
	if err != nil {
		evt = p.log.Error().Err(err)
	}
	evt.Int("worker", id).
		Str("type", job.Type).
		Str("user", job.Username).
		Dur("took", time.Since(start)).
		Msg("job finished")
}
