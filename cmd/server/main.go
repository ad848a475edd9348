package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vital-backend/internal/bridge"
	"vital-backend/internal/config"
	"vital-backend/internal/database"
	"vital-backend/internal/handlers"
	"vital-backend/internal/logging"
	"vital-backend/internal/memory"
	"vital-backend/internal/middleware"
	"vital-backend/internal/notify"
	"vital-backend/internal/repository"
	"vital-backend/internal/router"
	"vital-backend/internal/services"
	"vital-backend/internal/worker"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.Env)
	log.Info().Msg("starting vital backend")

	// ──── PostgreSQL ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection failed")
	}
	defer pool.Close()
	log.Info().Msg("postgres connected")

	if err := database.RunMigrations(pool, "migrations", log); err != nil {
		log.Fatal().Err(err).Msg("database migration failed")
	}

	// ──── Redis ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer redisClients.Close()
	log.Info().Msg("redis connected")

	// ──── Repositories ────
	userRepo := repository.NewUserRepo(pool)
	chatRepo := repository.NewChatRepo(pool)
	mealRepo := repository.NewMealRepo(pool)
	hydrationRepo := repository.NewHydrationRepo(pool)
	exerciseRepo := repository.NewExerciseRepo(pool)
	weightRepo := repository.NewWeightRepo(pool)
	sleepRepo := repository.NewSleepRepo(pool)
	healthRepo := repository.NewHealthRepo(pool)
	prefRepo := repository.NewPreferenceRepo(pool)
	feedbackRepo := repository.NewFeedbackRepo(pool)
	streakRepo := repository.NewStreakRepo(pool)

	// ──── Memory files ────
	store := memory.NewStore(cfg.MemoryBase, log)
	watcher := memory.NewWatcher(store, 5*time.Minute)
	if users, err := userRepo.List(context.Background()); err == nil {
		usernames := make([]string, 0, len(users))
		for _, u := range users {
			usernames = append(usernames, u.Username)
		}
		watcher.Start(usernames)
		log.Info().Int("users", len(usernames)).Msg("memory backup watcher started")
	} else {
		log.Warn().Err(err).Msg("memory watcher not started")
	}

	// ──── Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret, userRepo)
	authService := services.NewAuthService(userRepo, redisClients.Queue, jwtAuth, store)
	streakService := services.NewStreakService(streakRepo)
	healthSyncService := services.NewHealthSyncService(healthRepo, exerciseRepo, weightRepo, store, log)

	// ──── Event hub ────
	hub := notify.NewHub(redisClients.PubSub, log)
	go hub.Run(context.Background())
	log.Info().Msg("event hub started")

	// ──── Chat bridge ────
	chatBridge := bridge.New(bridge.Config{
		URL:        cfg.GatewayURL(),
		Origin:     cfg.GatewayOrigin(),
		Token:      cfg.GatewayToken,
		SocketImpl: cfg.GatewaySocket,
		Timeout:    time.Duration(cfg.ChatTimeoutSeconds) * time.Second,
	}, log)

	// ──── Background jobs ────
	workerPool := worker.NewPool(redisClients.Queue, store, streakService, userRepo, 3, log)
	workerPool.Start()

	scheduler := worker.NewScheduler(workerPool, userRepo, 5*time.Minute, log)
	scheduler.Start()
	log.Info().Msg("job scheduler started")

	// ──── Handlers ────
	loginLimiter := middleware.NewRateLimiter(5, 15*time.Minute)
	authHandler := handlers.NewAuthHandler(authService, userRepo, loginLimiter, log)
	chatHandler := handlers.NewChatHandler(chatBridge, chatRepo, hub, log)
	trackerHandler := handlers.NewTrackerHandler(mealRepo, hydrationRepo, exerciseRepo,
		weightRepo, sleepRepo, healthRepo, streakRepo, store, hub, workerPool, log)
	statsHandler := handlers.NewStatsHandler(mealRepo, hydrationRepo, exerciseRepo,
		weightRepo, sleepRepo, healthRepo, prefRepo, streakService, store, log)
	prefsHandler := handlers.NewPreferencesHandler(prefRepo, feedbackRepo, userRepo)
	healthSyncHandler := handlers.NewHealthSyncHandler(healthSyncService, hub, workerPool, log)
	exportHandler := handlers.NewExportHandler(mealRepo, hydrationRepo, exerciseRepo, weightRepo, sleepRepo)
	eventsHandler := handlers.NewEventsHandler(hub, log)
	tipsHandler := handlers.NewTipsHandler(cfg.TipsFile, log)
	adminHandler := handlers.NewAdminHandler(authService, userRepo, feedbackRepo)

	// ──── HTTP server ────
	r := router.New(
		jwtAuth,
		authHandler,
		chatHandler,
		trackerHandler,
		statsHandler,
		prefsHandler,
		healthSyncHandler,
		exportHandler,
		eventsHandler,
		tipsHandler,
		adminHandler,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		// No write timeout: the chat and event endpoints hold SSE streams
		// open for minutes.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info().Msg("shutting down")
		scheduler.Stop()
		workerPool.Stop()
		watcher.Stop()
		hub.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Info().Str("port", cfg.Port).Msg("vital backend ready")
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server error")
	}
}
