package handlers

import (
	"net/http"

	"timecard/config"
	"timecard/middleware"
	"timecard/models"
	"timecard/timecard"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(cfg *config.Config, svc *timecard.Service) http.Handler {
	authHandler := NewAuthHandler(cfg)
	timecardHandler := NewTimecardHandler(svc)
	managerHandler := NewManagerHandler(svc)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(chimiddleware.Logger)
	router.Use(chimiddleware.Recoverer)

	// Public routes
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	router.Post("/login", authHandler.Login)

	// Protected routes
	router.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware)

		r.Post("/logout", authHandler.Logout)

		r.Post("/stamps/{kind}", timecardHandler.Stamp)

		r.Get("/timecard", timecardHandler.Report)
		r.Post("/timecard/promote", timecardHandler.Promote)
		r.Put("/timecard/days/{date}", timecardHandler.EditDay)
		r.Get("/timecard/export", timecardHandler.Export)
		r.Post("/timecard/import", timecardHandler.Import)
		r.Get("/timecard/totals", timecardHandler.Totals)
		r.Get("/timecard/week", timecardHandler.Week)

		// Manager and admin routes
		r.Route("/manager", func(r chi.Router) {
			r.Use(middleware.RequireManager)
			r.Get("/processing", managerHandler.Processing)
			r.Get("/users/{userID}/timecard", managerHandler.UserReport)
			r.Post("/users/{userID}/approve", managerHandler.Approve)
			r.Post("/users/{userID}/demote", managerHandler.Demote)
			r.Get("/summaries", managerHandler.Summaries)
			r.Get("/summaries/export", managerHandler.ExportSummaries)
		})

		// Admin only routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(models.RoleAdmin))
			r.Post("/users", authHandler.CreateUser)
		})
	})

	return router
}
