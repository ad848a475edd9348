package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"vital-backend/internal/handlers"
	"vital-backend/internal/middleware"
)

func New(
	jwtAuth *middleware.JWTAuth,
	authHandler *handlers.AuthHandler,
	chatHandler *handlers.ChatHandler,
	trackerHandler *handlers.TrackerHandler,
	statsHandler *handlers.StatsHandler,
	prefsHandler *handlers.PreferencesHandler,
	healthSyncHandler *handlers.HealthSyncHandler,
	exportHandler *handlers.ExportHandler,
	eventsHandler *handlers.EventsHandler,
	tipsHandler *handlers.TipsHandler,
	adminHandler *handlers.AdminHandler,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// General per-IP limiter for the public auth surface
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {

		// ──── Auth Routes (public) ────
		r.Route("/auth", func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
			r.Post("/logout", authHandler.Logout)
		})

		// ──── Authenticated Routes ────
		r.Group(func(r chi.Router) {
			r.Use(jwtAuth.Middleware)

			r.Get("/me", authHandler.Me)
			r.Post("/me/password", authHandler.ChangePassword)
			r.Post("/me/api-key", authHandler.RotateAPIKey)
			r.Post("/me/onboarding", authHandler.CompleteOnboarding)
			r.Get("/onboarding-status", prefsHandler.OnboardingStatus)

			// Chat bridge
			r.Post("/chat", chatHandler.Chat)
			r.Get("/chat/history", chatHandler.History)
			r.Delete("/chat/history", chatHandler.ClearHistory)

			// Live updates
			r.Get("/events", eventsHandler.Stream)

			// Curated tips feed
			r.Get("/tips", tipsHandler.List)

			// Trackers
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole("user"))
				r.Post("/meals", trackerHandler.CreateMeal)
				r.Post("/hydration", trackerHandler.CreateHydration)
				r.Delete("/hydration/latest", trackerHandler.UndoHydration)
				r.Post("/exercise", trackerHandler.CreateExercise)
				r.Post("/weight", trackerHandler.CreateWeight)
				r.Post("/sleep", trackerHandler.CreateSleep)
				r.Delete("/entry/{table}/{id}", trackerHandler.DeleteEntry)
				r.Post("/health-sync", healthSyncHandler.Sync)
			})

			// Daily logs
			r.Get("/logs", trackerHandler.ListLogDates)
			r.Get("/logs/{date}", trackerHandler.LogForDate)

			// Stats
			r.Route("/stats", func(r chi.Router) {
				r.Get("/summary", statsHandler.Summary)
				r.Get("/nutrition/summary", statsHandler.NutritionSummary)
				r.Get("/weight", statsHandler.WeightStats)
				r.Get("/exercise", statsHandler.ExerciseStats)
				r.Get("/sleep", statsHandler.SleepStats)
				r.Get("/health/vo2-max", statsHandler.VO2MaxStats)
			})
			r.Get("/streaks", statsHandler.Streaks)

			// Preferences & feedback
			r.Route("/preferences", func(r chi.Router) {
				r.Get("/", prefsHandler.Get)
				r.Post("/", prefsHandler.Set)
				r.Get("/goals", prefsHandler.Goals)
			})
			r.Get("/templates", prefsHandler.GetTemplates)
			r.Post("/templates", prefsHandler.SetTemplates)
			r.Post("/feedback", prefsHandler.SubmitFeedback)
			r.Get("/feedback", prefsHandler.ListFeedback)

			// Export
			r.Get("/export/json", exportHandler.JSON)
			r.Get("/export/csv", exportHandler.CSV)

			// ──── Admin Routes ────
			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireRole("admin"))
				r.Get("/users", adminHandler.ListUsers)
				r.Post("/users", adminHandler.CreateUser)
				r.Put("/users/{id}", adminHandler.UpdateUser)
				r.Delete("/users/{id}", adminHandler.DeleteUser)
				r.Post("/users/{id}/reset-password", adminHandler.ResetPassword)
				r.Get("/feedback", adminHandler.ListFeedback)
			})
		})
	})

	return r
}
