package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/notecloak/notecloak/internal/cache"
	"github.com/notecloak/notecloak/internal/config"
	"github.com/notecloak/notecloak/internal/events"
	"github.com/notecloak/notecloak/internal/logger"
	"github.com/notecloak/notecloak/internal/pipeline"
	"github.com/notecloak/notecloak/internal/store"
	"go.uber.org/zap"
)

// Server represents the note-processing HTTP server
type Server struct {
	config   *config.Config
	logger   *logger.Logger
	pipeline *pipeline.Pipeline
	cache    *cache.ResultCache
	store    *store.Store
	router   *mux.Router
	server   *http.Server
	hub      *events.Hub
	limits   *clientLimiters
	started  time.Time
}

// New creates a new server instance. cache and store may be nil when
// the corresponding subsystems are disabled.
func New(cfg *config.Config, log *logger.Logger, pipe *pipeline.Pipeline, resultCache *cache.ResultCache, reportStore *store.Store) (*Server, error) {
	if pipe == nil {
		return nil, fmt.Errorf("pipeline is required")
	}

	// Create WebSocket hub
	hub := events.NewHub(cfg.Events, log.WithComponent("events"))

	// Create router
	router := mux.NewRouter()

	server := &Server{
		config:   cfg,
		logger:   log.WithComponent("server"),
		pipeline: pipe,
		cache:    resultCache,
		store:    reportStore,
		router:   router,
		hub:      hub,
		limits:   newClientLimiters(cfg.Server.RateLimit.RequestsPerSec, cfg.Server.RateLimit.Burst),
		started:  time.Now(),
	}

	// Setup routes
	server.setupRoutes()

	// Create HTTP server
	server.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return server, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	// Info endpoint
	s.router.HandleFunc("/info", s.handleInfo).Methods("GET")

	// WebSocket event feed
	if s.config.Events.Enabled {
		s.router.HandleFunc(s.config.Events.Path, s.handleWebSocket).Methods("GET")
	}

	// Note processing endpoints
	notesRouter := s.router.PathPrefix("/v1/notes").Subrouter()
	notesRouter.Use(s.loggingMiddleware)
	notesRouter.Use(s.rateLimitMiddleware)
	notesRouter.HandleFunc("/process", s.handleProcess).Methods("POST")
	notesRouter.HandleFunc("/render", s.handleRender).Methods("POST")

	// Stored coverage reports
	if s.store != nil {
		reportsRouter := s.router.PathPrefix("/v1/reports").Subrouter()
		reportsRouter.Use(s.loggingMiddleware)
		reportsRouter.HandleFunc("/recent", s.handleRecentReports).Methods("GET")
	}

	// Result cache administration
	if s.cache != nil {
		cacheRouter := s.router.PathPrefix("/v1/cache").Subrouter()
		cacheRouter.Use(s.loggingMiddleware)
		cacheRouter.HandleFunc("/stats", s.handleCacheStats).Methods("GET")
		cacheRouter.HandleFunc("", s.handleCacheClear).Methods("DELETE")
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("Starting notecloak server",
		zap.Int("port", s.config.Server.Port),
		zap.String("default_style", s.config.Pipeline.DefaultStyle),
		zap.Bool("cache_enabled", s.cache != nil),
		zap.Bool("storage_enabled", s.store != nil),
	)

	// Start WebSocket hub in a separate goroutine
	go s.hub.Run()

	return s.server.ListenAndServe()
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping notecloak server")
	return s.server.Shutdown(ctx)
}

// handleWebSocket hands the connection to the event hub
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.hub.HandleWebSocket(w, r)
}

// GetEventHub returns the hub for broadcasting events
func (s *Server) GetEventHub() *events.Hub {
	return s.hub
}
