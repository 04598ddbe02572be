// Package server provides the HTTP UI bridge: state and debug controls,
// pushed session events and the camera preview.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ayusman/whirling/internal/capture"
	"github.com/ayusman/whirling/internal/feed"
	"github.com/ayusman/whirling/internal/server/api"
	"github.com/ayusman/whirling/internal/session"
	"github.com/ayusman/whirling/internal/trace"
)

// Config holds the server configuration. Only Session is required.
type Config struct {
	StaticDir string
	Session   *session.Session
	Feed      *feed.Adapter
	Detection api.Switch
	Frames    *capture.FrameBuffer
	Trace     *trace.Store
}

// Server represents the HTTP server for the whirling application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
	events *EventsHandler
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Session != nil {
		sessionHandler := api.NewSessionHandler(s.config.Session, s.config.Feed, s.config.Detection)
		for _, route := range []string{"/api/state", "/api/reset", "/api/active", "/api/policy", "/api/detection", "/api/targets/"} {
			s.mux.Handle(route, sessionHandler)
		}

		s.events = NewEventsHandler(s.config.Session, sessionHandler.State)
		s.mux.Handle("/api/events", s.events)
	}

	if s.config.Trace != nil {
		cfg := session.DefaultConfig().Gesture
		if s.config.Session != nil {
			cfg = s.config.Session.Config().Gesture
		}
		traceHandler := api.NewTraceHandler(s.config.Trace, cfg)
		s.mux.Handle("/api/traces", traceHandler)
		s.mux.Handle("/api/traces/", traceHandler)
	}

	if s.config.Frames != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Frames))
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.config.Session != nil {
		response["session"] = s.config.Session.ID()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// Close disconnects event clients and stops following the session.
func (s *Server) Close() {
	if s.events != nil {
		s.events.Close()
	}
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
