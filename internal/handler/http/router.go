package http

import (
	"log/slog"

	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/middleware"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type Handlers struct {
	Attendance AttendanceHandler
	Issue      IssueHandler
	Snapshot   SnapshotHandler
	WorkTime   WorkTimeHandler
}

// NewRouter builds the API. logger should use httplog.SchemaECS attributes
// so request logs line up with the rest of the service.
func NewRouter(logger *slog.Logger, JWTService jwt.Service, allowedOrigins []string, h Handlers) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {
		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))

			r.Route("/attendance", func(r chi.Router) {
				r.Route("/daily-summaries", func(r chi.Router) {
					r.Get("/", h.Attendance.ListDaily)
					r.Get("/{id}", h.Attendance.GetDaily)

					// Admin only
					r.Group(func(r chi.Router) {
						r.Use(middleware.RequireAdmin)
						r.Post("/generate", h.Attendance.GenerateDaily)
						r.Patch("/{id}", h.Attendance.UpdateDaily)
					})
				})

				r.Route("/monthly-summaries", func(r chi.Router) {
					r.Get("/", h.Attendance.ListMonthly)
					r.With(middleware.RequireAdmin).Post("/generate", h.Attendance.GenerateMonthly)
				})
			})

			r.Route("/work-time-overrides", func(r chi.Router) {
				r.Get("/", h.WorkTime.ListOverrides)
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireAdmin)
					r.Put("/", h.WorkTime.SetOverride)
					r.Delete("/", h.WorkTime.DeleteOverride)
				})
			})

			r.Route("/holidays", func(r chi.Router) {
				r.Get("/", h.WorkTime.ListHolidays)
				r.With(middleware.RequireAdmin).Post("/", h.WorkTime.AddHoliday)
			})

			r.Route("/issues", func(r chi.Router) {
				r.Get("/", h.Issue.List)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.Issue.Get)
					r.Put("/description", h.Issue.SetDescription)
					r.Put("/correction", h.Issue.SetCorrection)
					r.Post("/re-request", h.Issue.ReRequest)

					// Admin only
					r.Group(func(r chi.Router) {
						r.Use(middleware.RequireAdmin)
						r.Post("/apply", h.Issue.Apply)
						r.Post("/reject", h.Issue.Reject)
					})
				})
			})

			r.Route("/snapshots", func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Get("/", h.Snapshot.List)
				r.Post("/", h.Snapshot.Create)
				r.Get("/{id}", h.Snapshot.Get)
				r.Post("/{id}/restore", h.Snapshot.Restore)
			})
		})
	})
	return r
}
