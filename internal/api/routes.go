package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/zapponejosh/gatherings-api/internal/config"
)

// SetupRoutes configures all HTTP routes and returns the router.
//
// Route structure:
//
//	GET    /health
//	POST   /api/v1/rules/{validate,expression,sentence,occurrences}
//	GET    /api/v1/rules/infer?date=&weekday=&last=
//	GET    /api/v1/special-days
//	GET    /api/v1/holidays/{year}?region=
//	GET    /api/v1/schedule?year=
//	GET    /api/v1/schedule.ics?year=
//	GET    /api/v1/gatherings
//	POST   /api/v1/gatherings                      (API key)
//	GET    /api/v1/gatherings/{id}
//	PUT    /api/v1/gatherings/{id}                 (API key)
//	DELETE /api/v1/gatherings/{id}                 (API key)
//	GET    /api/v1/gatherings/{id}/occurrences?count=|until=&start=
//	GET    /api/v1/gatherings/{id}/calendar.ics
//	GET    /api/v1/gatherings/{id}/calendar.xml
func SetupRoutes(handlers *Handlers, cfg *config.Config, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(
		RecoveryMiddleware(logger),
		chimw.RealIP,
		RequestIDMiddleware(),
		LoggingMiddleware(logger),
		CORSMiddleware(),
	)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteNotFound(w, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed", "METHOD_NOT_ALLOWED")
	})

	auth := AuthMiddleware(cfg, logger)

	r.Get("/health", handlers.HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/rules", func(r chi.Router) {
			r.Post("/validate", handlers.ValidateRule)
			r.Post("/expression", handlers.RuleExpression)
			r.Post("/sentence", handlers.RuleSentence)
			r.Post("/occurrences", handlers.RuleOccurrences)
			r.Get("/infer", handlers.InferRule)
		})

		r.Get("/special-days", handlers.ListSpecialDays)
		r.Get("/holidays/{year}", handlers.ListHolidays)
		r.Get("/schedule", handlers.GetSchedule)
		r.Get("/schedule.ics", handlers.GetScheduleICS)

		r.Route("/gatherings", func(r chi.Router) {
			r.Get("/", handlers.ListGatherings)
			r.With(auth).Post("/", handlers.CreateGathering)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", handlers.GetGathering)
				r.With(auth).Put("/", handlers.UpdateGathering)
				r.With(auth).Delete("/", handlers.DeleteGathering)
				r.Get("/occurrences", handlers.GatheringOccurrences)
				r.Get("/calendar.ics", handlers.GatheringICS)
				r.Get("/calendar.xml", handlers.GatheringXCal)
			})
		})
	})

	return r
}
