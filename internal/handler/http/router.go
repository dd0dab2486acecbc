package http

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
	"github.com/shramsathi/shramsathi-backend-go/internal/handler/http/middleware"
	"github.com/shramsathi/shramsathi-backend-go/internal/pkg/jwt"
)

type Handlers struct {
	Auth       AuthHandler
	Attendance AttendanceHandler
	Contractor ContractorHandler
	System     SystemHandler
}

func NewRouter(JWTService jwt.Service, logger *slog.Logger, allowedOrigins []string, h Handlers) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	authenticated := func(r chi.Router) {
		r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
		r.Use(middleware.AuthRequired(JWTService))
	}

	r.Route("/api/v1", func(r chi.Router) {

		r.Route("/auth", func(r chi.Router) {
			r.Post("/check-mobile", h.Auth.CheckMobile)
			r.Post("/register", h.Auth.Register)
			r.Post("/login", h.Auth.Login)

			r.Group(func(r chi.Router) {
				authenticated(r)
				r.Post("/logout", h.Auth.Logout)
			})
		})

		// Requires authentication
		r.Group(func(r chi.Router) {
			authenticated(r)

			r.Get("/me", h.Auth.Me)
			r.Put("/me/password", h.Auth.SetPassword)

			// Worker only
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireWorker)
				r.Get("/attendance", h.Attendance.List)
				r.Get("/attendance/stats", h.Attendance.MonthlyStats)
				r.Put("/attendance/{date}", h.Attendance.Save)
				r.Post("/contractor/link", h.Contractor.Link)
			})

			// Contractor only
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireContractor)
				r.Get("/contractor/code", h.Contractor.Code)
				r.Get("/contractor/workers", h.Contractor.Workers)
				r.Get("/contractor/workers/{workerID}/attendance", h.Contractor.WorkerAttendance)
			})

			r.Get("/system/storage", h.System.StorageStatus)
			r.Post("/system/sync", h.System.Sync)
		})
	})
	return r
}
