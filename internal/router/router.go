// Package router sets up the HTTP routes and middleware chains of the
// category tree API.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"categorytree/internal/handlers"
	"categorytree/internal/middleware"
)

// Options carries the pieces the router wires together.
type Options struct {
	Sessions     middleware.SessionStore
	Categories   *handlers.Categories
	RateLimiter  *middleware.RateLimiter // optional
	SecureCookie bool
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(opts Options) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)

	// Health check and metrics: no session, no CSRF.
	r.Get("/health", healthHandler)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		var admit middleware.Admission
		if opts.RateLimiter != nil {
			admit = opts.RateLimiter.AdmitSession
		}
		r.Use(middleware.EditorSession(opts.Sessions, admit))
		if opts.RateLimiter != nil {
			r.Use(opts.RateLimiter.Middleware)
		}
		r.Use(middleware.NewCSRF(opts.SecureCookie))

		c := opts.Categories

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", c.List)
			r.Post("/", c.Create)

			// Staged structural edits.
			r.Post("/moves", c.Move)
			r.Get("/pending", c.Pending)
			r.Delete("/pending", c.Discard)
			r.Post("/commit", c.Commit)

			r.Get("/{id}", c.Get)
			r.Put("/{id}", c.Update)
			r.Delete("/{id}", c.Delete)
			r.Get("/{id}/descendants", c.Descendants)
		})

		// Editor view state.
		r.Route("/view", func(r chi.Router) {
			r.Get("/", c.View)
			r.Put("/", c.SetView)
			r.Post("/toggle/{id}", c.Toggle)
			r.Post("/expand-all", c.ExpandAll)
			r.Post("/collapse-all", c.CollapseAll)
		})

		r.Get("/slug", c.Slug)
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
