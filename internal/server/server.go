// Package server exposes the HTTP surface: the scheduler trigger endpoints
// and receipt ingestion. Triggers take no parameters and return no payload;
// completion is observable only via persisted state and logs.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/alexmmd/pricewatch/internal/types"
)

// Triggers is the cadence driver surface invoked by the trigger endpoints.
type Triggers interface {
	RunBuild()
	RunScrape()
}

// CatalogStore is the persistence receipt ingestion needs.
type CatalogStore interface {
	HasItem(ctx context.Context, itemID string) (bool, error)
	GetProfile(ctx context.Context, itemID string) (*types.CatalogItem, error)
	CreateItem(ctx context.Context, item types.CatalogItem) error
	SetLatestPrice(ctx context.Context, itemID, name string, price *float64, tradeDatetime string) error
	AddSubscription(ctx context.Context, sub types.Subscription) error
}

// Config holds server configuration.
type Config struct {
	Port int
}

// Server is the HTTP server.
type Server struct {
	httpServer *http.Server
	store      CatalogStore
	triggers   Triggers
	validate   *validator.Validate
	logger     *zap.Logger
}

// New creates a server instance.
func New(cfg Config, store CatalogStore, triggers Triggers, logger *zap.Logger) *Server {
	s := &Server{
		store:    store,
		triggers: triggers,
		validate: validator.New(),
		logger:   logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /receipts", s.handleCreateReceipt)
	mux.HandleFunc("POST /triggers/build-plan", s.handleTriggerBuild)
	mux.HandleFunc("POST /triggers/scrape", s.handleTriggerScrape)
	mux.HandleFunc("GET /health", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // triggers run synchronously within the invocation budget
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start begins listening and blocks until an interrupt, then shuts down
// gracefully.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-stop:
	}

	s.logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}
