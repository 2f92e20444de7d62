package stub

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ca-srg/footprint/internal/logging"
	"github.com/ca-srg/footprint/internal/types"
)

// Server answers the search contract from a Fixture.
type Server struct {
	fixture *Fixture
	logger  *zap.Logger
	mux     *http.ServeMux
}

// NewServer creates a stub server for fixture.
func NewServer(fixture *Fixture, logger *zap.Logger) *Server {
	s := &Server{
		fixture: fixture,
		logger:  logging.OrNop(logger),
		mux:     http.NewServeMux(),
	}
	s.mux.HandleFunc("POST /api/search", s.handleSearch)
	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, listener)
}

// Serve serves on listener until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Stub search service listening", zap.String("addr", listener.Addr().String()))
		errCh <- httpServer.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("stub shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req types.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "invalid request body"})
		return
	}

	c, ok := s.fixture.Lookup(req.Name)
	if !ok {
		s.logger.Debug("No fixture case matched", zap.String("request_id", r.Header.Get("X-Request-ID")))
		writeJSON(w, http.StatusOK, map[string]any{"results": map[string]any{}})
		return
	}

	s.logger.Info("Serving fixture case",
		zap.String("case", c.Match),
		zap.Int("status", c.Status),
		zap.String("request_id", r.Header.Get("X-Request-ID")))

	if c.Delay > 0 {
		select {
		case <-time.After(c.Delay):
		case <-r.Context().Done():
			return
		}
	}

	body, contentType, err := encodeCase(c, newExpander(req.Name))
	if err != nil {
		s.logger.Error("Failed to encode fixture case", zap.String("case", c.Match), zap.Error(err))
		http.Error(w, "fixture encoding failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(c.Status)
	_, _ = w.Write(body)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// encodeCase renders the payload of c. Categories are written in fixture order.
func encodeCase(c Case, e expander) ([]byte, string, error) {
	switch {
	case c.Body != "":
		return []byte(e.text(c.Body)), "text/plain; charset=utf-8", nil
	case c.Error != "":
		body, err := json.Marshal(map[string]string{"error": c.Error, "details": e.text(c.Details)})
		return body, "application/json", err
	case c.Results != nil:
		body, err := json.Marshal(map[string]any{"results": e.items(c.Results)})
		return body, "application/json", err
	case c.Categories != nil:
		body, err := encodeCategories(c.Categories, e)
		return body, "application/json", err
	default:
		return []byte(`{"results":null}`), "application/json", nil
	}
}

func encodeCategories(categories []CategoryFixture, e expander) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"results":{`)
	for i, category := range categories {
		if i > 0 {
			buf.WriteByte(',')
		}
		label, err := json.Marshal(e.text(category.Label))
		if err != nil {
			return nil, err
		}
		items, err := json.Marshal(e.items(category.Items))
		if err != nil {
			return nil, err
		}
		buf.Write(label)
		buf.WriteByte(':')
		buf.Write(items)
	}
	buf.WriteString(`}}`)
	return buf.Bytes(), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
