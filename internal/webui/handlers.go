package webui

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ca-srg/footprint/internal/console"
	"github.com/ca-srg/footprint/internal/types"
)

const maxFormBytes = 64 << 10

// handleIndex renders the full page for the current state.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := buildPageData(s.dispatcher.Snapshot(), s.dispatcher.Endpoint())
	if err := s.templates.Render(w, "index.html", data); err != nil {
		s.logger.Error("Failed to render index", zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// handlePartialView renders only the view fragment; the page script swaps it
// in after each view_changed event.
func (s *Server) handlePartialView(w http.ResponseWriter, r *http.Request) {
	s.renderView(w)
}

// handleSearch accepts the query form. The fetch runs in the background and
// the browser follows it through SSE.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	q := types.Query{
		Name:      r.PostFormValue("name"),
		ExtraInfo: r.PostFormValue("extra_info"),
	}

	err := s.dispatcher.Begin(q)
	switch {
	case errors.Is(err, console.ErrBlankQuery):
		// Blank names are ignored; the form stays as it was.
	case errors.Is(err, console.ErrSearchInFlight), errors.Is(err, console.ErrNotEnteringQuery):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	default:
		s.startSearch(q)
	}

	s.respond(w, r)
}

// handleReset starts a new search from a resolved view.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if !s.dispatcher.Reset() {
		http.Error(w, "No resolved search to reset", http.StatusConflict)
		return
	}
	s.respond(w, r)
}

// handleDismiss clears the failure notification.
func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	s.dispatcher.Dismiss()
	s.respond(w, r)
}

// handleHealthz reports that the server is up.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"clients": s.sseManager.GetClientCount(),
	})
}

// respond answers a form post: script-driven requests get the fragment,
// plain form posts are redirected back to the page.
func (s *Server) respond(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("X-Requested-With") == "fetch" {
		s.renderView(w)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) renderView(w http.ResponseWriter) {
	data := buildPageData(s.dispatcher.Snapshot(), s.dispatcher.Endpoint())
	if err := s.templates.Render(w, "view", data); err != nil {
		s.logger.Error("Failed to render view", zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
