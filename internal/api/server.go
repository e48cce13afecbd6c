// Package api provides the operator HTTP API: queue inspection,
// dead-letter management and sync run reporting.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cashback-engine/internal/logging"
	"github.com/cashback-engine/internal/models"
	"github.com/cashback-engine/internal/queue"
	"github.com/cashback-engine/internal/types"
)

// QueueAdmin defines the queue operations exposed to operators
type QueueAdmin interface {
	Stats(ctx context.Context, name types.QueueName) (*queue.Stats, error)
	DeadLetterJobs(ctx context.Context, name types.QueueName) ([]*models.Job, error)
	RetryDeadLetter(ctx context.Context, name types.QueueName, index int) (bool, error)
	ClearDeadLetter(ctx context.Context, name types.QueueName) (int64, error)
}

// RunLister lists recent sync audit records
type RunLister interface {
	ListRecent(ctx context.Context, limit int) ([]*models.SyncRun, error)
}

// Server represents the operator HTTP API server
type Server struct {
	router     *mux.Router
	httpServer *http.Server
	queues     QueueAdmin
	queueNames []types.QueueName
	runs       RunLister
	config     *ServerConfig
	logger     *logging.Logger
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// NewServer creates a new operator API server. runs may be nil when
// ClickHouse reporting is disabled.
func NewServer(config *ServerConfig, queues QueueAdmin, queueNames []types.QueueName, runs RunLister, logger *logging.Logger) *Server {
	s := &Server{
		router:     mux.NewRouter(),
		queues:     queues,
		queueNames: queueNames,
		runs:       runs,
		config:     config,
		logger:     logger,
	}

	s.setupRouter()

	return s
}

// setupRouter configures the router with middleware and routes
func (s *Server) setupRouter() {
	s.router.Use(LoggingMiddleware(s.logger))
	s.router.Use(RecoveryMiddleware(s.logger))
	s.router.Use(CORSMiddleware)

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.config.Host, s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	api := s.router.PathPrefix("/api/v1").Subrouter()

	// Queue endpoints
	api.HandleFunc("/queues", s.handleListQueues).Methods("GET")
	api.HandleFunc("/queues/{name}/dead-letter", s.handleListDeadLetter).Methods("GET")
	api.HandleFunc("/queues/{name}/dead-letter/{index}/retry", s.handleRetryDeadLetter).Methods("POST")
	api.HandleFunc("/queues/{name}/dead-letter", s.handleClearDeadLetter).Methods("DELETE")

	// Sync reporting endpoints
	api.HandleFunc("/sync/runs", s.handleListSyncRuns).Methods("GET")
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "cashback-engine",
	})
}

// Handler returns the configured router, primarily for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.WithField("addr", s.httpServer.Addr).Info("starting operator API server")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down operator API server")
	return s.httpServer.Shutdown(ctx)
}
