// Package router sets up all HTTP routes and middleware chains for the
// AstroDesk API. Routes are grouped by auth requirements, with admission
// control applied to mutation endpoints.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"astrodesk/internal/handlers"
	"astrodesk/internal/interpret"
	"astrodesk/internal/middleware"
	"astrodesk/internal/session"
)

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(
	sessionStore *session.Store,
	limiter *interpret.Limiter,
	auth *handlers.Auth,
	subjects *handlers.Subjects,
	charts *handlers.Charts,
	interps *handlers.Interpretations,
) chi.Router {
	r := chi.NewRouter()

	// Global middleware — applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.LoadSession(sessionStore))

	// Health check — no auth, no rate limit.
	r.Get("/health", healthHandler)

	r.Route("/api", func(r chi.Router) {
		// Auth endpoints — accessible without a session. Login attempts
		// count against the standard tier to slow brute force.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Admit(limiter, interpret.TierStandard))
			r.Post("/login", auth.Login)
		})
		r.Post("/logout", auth.Logout)

		// Authenticated API.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)

			r.Get("/me", auth.Me)

			// Subjects (birth data).
			r.Route("/subjects", func(r chi.Router) {
				r.Get("/", subjects.List)
				r.Group(func(r chi.Router) {
					r.Use(middleware.Admit(limiter, interpret.TierStandard))
					r.Post("/", subjects.Create)
				})
				r.Route("/{subjectID}", func(r chi.Router) {
					r.Get("/", subjects.Get)
					r.Group(func(r chi.Router) {
						r.Use(middleware.Admit(limiter, interpret.TierStandard))
						r.Put("/", subjects.Update)
						r.Delete("/", subjects.Delete)
					})
				})
			})

			// Charts and their interpretations.
			r.Route("/charts", func(r chi.Router) {
				r.Get("/", charts.List)
				r.Group(func(r chi.Router) {
					r.Use(middleware.Admit(limiter, interpret.TierStandard))
					r.Post("/", charts.Create)
				})
				r.Route("/{chartID}", func(r chi.Router) {
					r.Get("/", charts.Get)
					r.Group(func(r chi.Router) {
						r.Use(middleware.Admit(limiter, interpret.TierStandard))
						r.Put("/", charts.Update)
						r.Delete("/", charts.Delete)
					})

					// Interpretation read path never consumes quota; the
					// generate path does its own strict-tier admission so a
					// cache hit can bypass it.
					r.Get("/interpretation", interps.Get)
					r.Post("/interpret", interps.Generate)
					r.Group(func(r chi.Router) {
						r.Use(middleware.Admit(limiter, interpret.TierStandard))
						r.Post("/interpretation", interps.Persist)
						r.Delete("/interpretation", interps.Remove)
					})
				})
			})
		})
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
