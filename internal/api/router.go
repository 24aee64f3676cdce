package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/doorsense/internal/infrastructure/metrics"
)

// livenessText is the body of GET /.
const livenessText = "Doorsense is running"

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Get("/", s.handleRoot)

	// Procedure endpoint. Every method reaches the handler so that a wrong
	// method is reported in the tRPC error envelope.
	r.HandleFunc("/trpc/*", s.handleTRPC)

	r.Post("/sensor", s.handleSensor)

	r.Handle("/metrics", metrics.Handler())
	r.Get("/ws", s.handleWebSocket)

	return r
}

// handleRoot answers liveness checks.
func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // Best-effort write to response
	w.Write([]byte(livenessText))
}
