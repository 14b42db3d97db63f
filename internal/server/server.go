// Package server provides the HTTP API for Lookout.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hyperjump/lookout/internal/config"
	"github.com/hyperjump/lookout/internal/engine"
	"github.com/hyperjump/lookout/internal/index"
	"github.com/hyperjump/lookout/internal/indexer"
	"github.com/hyperjump/lookout/internal/storage"
)

// Server is the HTTP server for the Lookout API.
type Server struct {
	engine  *engine.Engine
	indexer *indexer.Indexer
	storage storage.Storage
	indexes *index.Registry
	config  *config.ServerConfig
	logger  *zap.Logger
	server  *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	eng *engine.Engine,
	idx *indexer.Indexer,
	store storage.Storage,
	indexes *index.Registry,
	cfg *config.ServerConfig,
	logger *zap.Logger,
) *Server {
	return &Server{
		engine:  eng,
		indexer: idx,
		storage: store,
		indexes: indexes,
		config:  cfg,
		logger:  logger,
	}
}

// Router builds the chi router with all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/search", s.handleSearch)
	r.Get("/api/v1/indexes", s.handleListIndexes)
	r.Get("/api/v1/indexes/{index}/matches", s.handleMatches)
	r.Post("/api/v1/nodes", s.handleIndexNode)
	r.Get("/api/v1/nodes/{id}", s.handleGetNode)
	r.Delete("/api/v1/nodes/{id}", s.handleDeleteNode)
	r.Post("/api/v1/rebuild", s.handleRebuild)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
