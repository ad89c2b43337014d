// Package api exposes the proctoring pipeline over HTTP: a small REST
// surface for session lifecycle and summaries, and a WebSocket endpoint
// streaming per-frame analysis results back to the capture client.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/vigil-data/proctor/internal/pipeline"
)

// Server wires the orchestrator to the HTTP surface.
type Server struct {
	pipe     *pipeline.Orchestrator
	upgrader websocket.Upgrader
}

// NewServer builds the HTTP server around an orchestrator.
func NewServer(pipe *pipeline.Orchestrator) *Server {
	return &Server{
		pipe: pipe,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1 << 20,
			WriteBufferSize: 1 << 16,
		},
	}
}

// Router assembles the route table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)

	r.Get("/health", s.HealthHandler)

	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", s.StartSessionHandler)
		r.Get("/", s.ListSessionsHandler)
		r.Get("/{sessionID}", s.SessionSummaryHandler)
		r.Delete("/{sessionID}", s.EndSessionHandler)
	})

	r.Get("/ws/{sessionID}", s.FrameStreamHandler)

	return r
}
