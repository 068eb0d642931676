// Package server provides the HTTP server for the air guitar.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ayusman/airguitar/internal/app"
	"github.com/ayusman/airguitar/internal/capture"
	"github.com/ayusman/airguitar/internal/gesture"
	"github.com/ayusman/airguitar/internal/metrics"
	"github.com/ayusman/airguitar/internal/server/api"
	"github.com/ayusman/airguitar/internal/store"
)

// Pipeline is the part of the running app the HTTP API reads and tunes.
type Pipeline interface {
	api.ThresholdsTarget
	History() []app.ChordChange
	OnFrame(app.FrameListener)
	IsEnabled() bool
	FPS() float64
}

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	Camera    capture.Camera
	Pipeline  Pipeline
	Plugins   api.PluginLookup
	Metrics   *metrics.Metrics
	Logger    *zap.Logger

	// Thresholds seeds the classifier settings when no Pipeline is attached.
	Thresholds gesture.Thresholds
}

// Server represents the HTTP server for the air guitar.
type Server struct {
	config     Config
	logger     *zap.Logger
	mux        *http.ServeMux
	handler    http.Handler
	hub        *AnalysisHub
	thresholds api.ThresholdsTarget
	start      time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Thresholds == (gesture.Thresholds{}) {
		config.Thresholds = gesture.DefaultThresholds()
	}

	s := &Server{
		config: config,
		logger: logger,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}

	if config.Pipeline != nil {
		s.thresholds = config.Pipeline
	} else {
		s.thresholds = api.NewStaticThresholds(config.Thresholds)
	}

	s.setupRoutes()
	s.handler = requestLogger(logger, s.mux)
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.HandleFunc("/api/chords", api.ChordsHandler)
	s.mux.Handle("/api/classify", api.NewClassifyHandler(s.thresholds.Thresholds))
	s.mux.Handle("/api/settings/thresholds", api.NewThresholdsHandler(s.config.Store, s.thresholds))
	s.mux.Handle("/metrics", s.config.Metrics.Handler())

	if s.config.Store != nil {
		bindings := api.NewBindingHandler(s.config.Store, s.config.Plugins)
		s.mux.Handle("/api/bindings", bindings)
		s.mux.Handle("/api/bindings/", bindings)
	}

	if s.config.Pipeline != nil {
		s.hub = NewAnalysisHub(s.logger.Named("ws"))
		s.config.Pipeline.OnFrame(s.hub.Publish)
		s.mux.Handle("/api/analysis", s.hub)
		s.mux.HandleFunc("/api/history", s.handleHistory)
	}

	if s.config.Camera != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Camera))
	}

	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Hub returns the analysis broadcaster, or nil without a pipeline.
func (s *Server) Hub() *AnalysisHub {
	return s.hub
}

// Close disconnects websocket clients.
func (s *Server) Close() {
	if s.hub != nil {
		s.hub.Close()
	}
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if p := s.config.Pipeline; p != nil {
		response["enabled"] = p.IsEnabled()
		response["fps"] = p.FPS()
	}

	writeJSON(w, http.StatusOK, response)
}

// handleHistory handles GET requests to /api/history.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"history": s.config.Pipeline.History()})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
