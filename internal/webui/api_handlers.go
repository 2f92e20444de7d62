package webui

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ca-srg/footprint/internal/console"
	"github.com/ca-srg/footprint/internal/types"
)

// handleAPIState returns the current console state.
func (s *Server) handleAPIState(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.stateResponse())
}

// handleAPISearch starts a search from a JSON query. It answers 202 with the
// loading state; callers poll /api/state or listen on SSE for the result.
func (s *Server) handleAPISearch(w http.ResponseWriter, r *http.Request) {
	var q types.Query
	body := http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := json.NewDecoder(body).Decode(&q); err != nil {
		s.writeAPIError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.dispatcher.Begin(q); err != nil {
		status := http.StatusConflict
		if errors.Is(err, console.ErrBlankQuery) {
			status = http.StatusUnprocessableEntity
		}
		s.writeAPIError(w, status, err.Error())
		return
	}
	s.startSearch(q)

	s.writeJSON(w, http.StatusAccepted, s.stateResponse())
}

// handleAPIReset returns a resolved console to query entry.
func (s *Server) handleAPIReset(w http.ResponseWriter, r *http.Request) {
	if !s.dispatcher.Reset() {
		s.writeAPIError(w, http.StatusConflict, "no resolved search to reset")
		return
	}
	s.writeJSON(w, http.StatusOK, s.stateResponse())
}

func (s *Server) stateResponse() *APIStateResponse {
	snap := s.dispatcher.Snapshot()
	response := &APIStateResponse{
		Snapshot: snap,
		View:     console.Project(snap),
		Endpoint: s.dispatcher.Endpoint(),
	}
	if snap.Notification != nil {
		response.NotificationText = snap.Notification.Text()
	}
	return response
}

func (s *Server) writeAPIError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, &APIErrorResponse{
		Error: message,
		Phase: s.dispatcher.Snapshot().Phase,
	})
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Failed to encode JSON response", zap.Error(err))
	}
}
