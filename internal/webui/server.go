// Package webui serves the search console in a browser.
package webui

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ca-srg/footprint/internal/console"
	"github.com/ca-srg/footprint/internal/logging"
	"github.com/ca-srg/footprint/internal/types"
)

// ServerConfig holds the web UI server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	SSE             *SSEConfig
}

// DefaultServerConfig returns the default server configuration
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Host:            "localhost",
		Port:            8081,
		ReadTimeout:     30 * time.Second,
		IdleTimeout:     120 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		SSE:             DefaultSSEConfig(),
	}
}

// ServerConfigFromConfig applies the WEBUI_* settings to the defaults.
func ServerConfigFromConfig(cfg *types.Config) *ServerConfig {
	sc := DefaultServerConfig()
	if cfg != nil {
		if cfg.WebUIHost != "" {
			sc.Host = cfg.WebUIHost
		}
		if cfg.WebUIPort != 0 {
			sc.Port = cfg.WebUIPort
		}
	}
	return sc
}

// Addr returns host:port.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, fmt.Sprint(c.Port))
}

// Server is the web console. It owns one Dispatcher shared by every browser tab.
type Server struct {
	config     *ServerConfig
	dispatcher *console.Dispatcher
	templates  *TemplateManager
	sseManager *SSEManager
	logger     *zap.Logger

	// searchCtx bounds background fetches; it is cancelled on shutdown.
	searchCtx    context.Context
	cancelSearch context.CancelFunc
	searches     sync.WaitGroup
}

// NewServer creates a web console sending searches through searcher.
// Dispatcher options (notifier, recorder, ...) are passed through.
func NewServer(config *ServerConfig, searcher console.Searcher, logger *zap.Logger, opts ...console.Option) (*Server, error) {
	if config == nil {
		config = DefaultServerConfig()
	}
	if searcher == nil {
		return nil, fmt.Errorf("webui: searcher is required")
	}
	logger = logging.OrNop(logger)

	templates, err := NewTemplateManager()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize templates: %w", err)
	}

	searchCtx, cancel := context.WithCancel(context.Background())
	s := &Server{
		config:       config,
		templates:    templates,
		sseManager:   NewSSEManager(config.SSE, logger),
		logger:       logger,
		searchCtx:    searchCtx,
		cancelSearch: cancel,
	}

	dispatcherOpts := append([]console.Option{console.WithLogger(logger)}, opts...)
	dispatcherOpts = append(dispatcherOpts, console.WithListener(s))
	s.dispatcher = console.NewDispatcher(searcher, dispatcherOpts...)

	return s, nil
}

// Dispatcher returns the console state machine.
func (s *Server) Dispatcher() *console.Dispatcher {
	return s.dispatcher
}

// StateChanged implements console.Listener by broadcasting the new view.
func (s *Server) StateChanged(snap console.Snapshot) {
	s.sseManager.SendEvent(&SSEEvent{
		Event: EventTypeViewChanged,
		Data: &ViewChangedEvent{
			Version: snap.Version,
			Phase:   snap.Phase,
			View:    console.Project(snap),
			Alert:   snap.Notification != nil,
		},
	})
}

// Run serves until ctx is cancelled or the listener fails.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.config.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr(), err)
	}
	return s.Serve(ctx, listener)
}

// Serve serves on listener. errgroup supervises the HTTP server and the SSE
// manager; either failing stops both.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	httpServer := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.sseManager.Run(gctx)
	})

	g.Go(func() error {
		s.logger.Info("Starting Web UI server", zap.String("url", "http://"+listener.Addr().String()))
		if err := httpServer.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("web UI server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("Shutting down Web UI server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		err := httpServer.Shutdown(shutdownCtx)
		s.Close()
		if err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// Close cancels in-flight searches and waits for them to resolve.
func (s *Server) Close() {
	s.cancelSearch()
	s.searches.Wait()
}

// startSearch runs the fetch for an accepted query in the background.
func (s *Server) startSearch(q types.Query) {
	s.searches.Add(1)
	go func() {
		defer s.searches.Done()
		s.dispatcher.Resolve(s.dispatcher.Fetch(s.searchCtx, q))
	}()
}

// Handler returns the routed handler with request logging.
func (s *Server) Handler() http.Handler {
	return s.loggingMiddleware(s.setupRoutes())
}

func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		s.logger.Warn("Failed to setup static files", zap.Error(err))
	} else {
		mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /search", s.handleSearch)
	mux.HandleFunc("POST /reset", s.handleReset)
	mux.HandleFunc("POST /notification/dismiss", s.handleDismiss)
	mux.HandleFunc("GET /partials/view", s.handlePartialView)

	mux.HandleFunc("GET /api/state", s.handleAPIState)
	mux.HandleFunc("POST /api/search", s.handleAPISearch)
	mux.HandleFunc("POST /api/reset", s.handleAPIReset)
	mux.HandleFunc("GET /healthz", s.handleHealthz)

	mux.HandleFunc("GET /sse/events", s.handleSSEEvents)

	return mux
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Static files and SSE are too noisy
		if strings.HasPrefix(r.URL.Path, "/static/") || strings.HasPrefix(r.URL.Path, "/sse/") {
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r)
		s.logger.Debug("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("elapsed", time.Since(start)))
	})
}
