package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/alexmmd/pricewatch/internal/config"
	"github.com/alexmmd/pricewatch/internal/db"
	"github.com/alexmmd/pricewatch/internal/executor"
	"github.com/alexmmd/pricewatch/internal/logging"
	"github.com/alexmmd/pricewatch/internal/notify"
	"github.com/alexmmd/pricewatch/internal/planner"
	"github.com/alexmmd/pricewatch/internal/resolver"
	"github.com/alexmmd/pricewatch/internal/scheduler"
)

// app wires the configured components for one command invocation.
type app struct {
	cfg      config.Config
	logger   *zap.Logger
	store    *db.Store
	notifier *notify.Notifier
	planner  *planner.Planner
	driver   *scheduler.Driver
}

// newApp loads configuration and connects every component.
func newApp(ctx context.Context) (*app, error) {
	cfg := config.DefaultConfig()
	if flagConfig != "" {
		loaded, err := config.LoadConfig(flagConfig)
		if err != nil {
			return nil, err
		}
		cfg = loaded.MergeWithDefaults(config.DefaultConfig())
	}
	cfg.FromEnv()
	if flagVerbose {
		cfg.Verbose = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	logger, err := logging.New(cfg.Verbose)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	store, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	notifier := notify.New(store, cfg.AlertWebhookURL, cfg.AlertNonce, logger)
	plnr := planner.New(store, notifier, logger)

	res := resolver.New(cfg.SiteURL, time.Duration(cfg.ResolveTimeoutSec)*time.Second, logger)
	exec := executor.New(res, logger,
		time.Duration(cfg.JitterMinMs)*time.Millisecond,
		time.Duration(cfg.JitterMaxMs)*time.Millisecond)

	driver := scheduler.New(plnr, exec, scheduler.Config{
		BuildSchedule:     cfg.BuildSchedule,
		ScrapeSchedule:    cfg.ScrapeSchedule,
		MaxBatchItems:     cfg.MaxBatchItems,
		InvocationTimeout: time.Duration(cfg.InvocationSec) * time.Second,
	}, logger)

	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		notifier: notifier,
		planner:  plnr,
		driver:   driver,
	}, nil
}

// Close releases the app's resources.
func (a *app) Close() {
	a.store.Close()
	_ = a.logger.Sync()
}
