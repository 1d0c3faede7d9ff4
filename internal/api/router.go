package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
	}
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeNotFound(w, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllow, "method not allowed")
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Health, monitoring and status (no session required)
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)
		r.Get("/metrics/prometheus", s.handlePrometheus)
		r.Get("/system/status", s.handleSystemStatus)

		// Auth endpoints
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", s.handleRegister)
			r.Post("/login", s.handleLogin)
			r.Post("/logout", s.handleLogout)
			r.Get("/me", s.handleMe)
		})

		// Dashboard routes
		r.Group(func(r chi.Router) {
			r.Use(s.sessionMiddleware)

			r.Get("/dashboard", s.handleDashboard)
			r.Get("/stats", s.handleStats)
			r.Put("/filter", s.handleSetFilter)

			r.Route("/devices", func(r chi.Router) {
				r.Get("/", s.handleListDevices)
				r.Get("/counts", s.handleDeviceCounts)
				r.Post("/all", s.handleSetAll)
				r.Post("/auto", s.handleAutoMode)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetDevice)
					r.Post("/toggle", s.handleToggleDevice)
					r.Put("/value", s.handleSetDeviceValue)
				})
			})

			r.Route("/snapshot", func(r chi.Router) {
				r.Post("/save", s.handleSaveSnapshot)
				r.Post("/load", s.handleLoadSnapshot)
			})

			r.Get("/ws", s.handleWebSocket)
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}

// handlePrometheus serves the Prometheus registry, or 404 when metrics are
// disabled.
func (s *Server) handlePrometheus(w http.ResponseWriter, r *http.Request) {
	if s.metrics == nil {
		writeNotFound(w, "prometheus metrics disabled")
		return
	}
	s.metrics.Handler().ServeHTTP(w, r)
}
