package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vigil-data/proctor/internal/httputil"
	"github.com/vigil-data/proctor/internal/pipeline"
	"github.com/vigil-data/proctor/internal/version"
)

// HealthHandler reports liveness and build information.
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]interface{}{
		"status":          "ok",
		"version":         version.Version,
		"git_sha":         version.GitSHA,
		"active_sessions": len(s.pipe.ActiveSessions()),
	})
}

type startSessionRequest struct {
	SessionID string `json:"session_id"`
}

// StartSessionHandler registers a session. The body may carry a session
// id; an empty or absent id gets a generated one.
func (s *Server) StartSessionHandler(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.BadRequest(w, "invalid request body")
			return
		}
	}

	id, err := s.pipe.StartSession(req.SessionID)
	if err != nil {
		if errors.Is(err, pipeline.ErrSessionExists) {
			httputil.WriteJSONError(w, http.StatusConflict, err.Error())
			return
		}
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]string{"session_id": id})
}

// ListSessionsHandler returns the active session ids.
func (s *Server) ListSessionsHandler(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]interface{}{
		"sessions": s.pipe.ActiveSessions(),
	})
}

// SessionSummaryHandler returns the aggregate view of a live session.
func (s *Server) SessionSummaryHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	summary, err := s.pipe.Summary(id)
	if err != nil {
		httputil.NotFound(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, summary)
}

// EndSessionHandler tears a session down and returns its final summary.
func (s *Server) EndSessionHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	summary, err := s.pipe.EndSession(id)
	if err != nil {
		httputil.NotFound(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, summary)
}
