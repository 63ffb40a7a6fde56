// Package scheduler is the cadence driver: it fires the daily plan build and
// the frequent batch runs, wiring plan store output into the batch executor
// and results back into the plan store. Each invocation is an isolated unit of
// work bounded by a hard timeout; cross-invocation state lives entirely in the
// store, so a crashed invocation loses only its in-flight batch.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/alexmmd/pricewatch/internal/types"
)

// PlanStore is the planner surface the driver invokes.
type PlanStore interface {
	Build(ctx context.Context, date time.Time) error
	Pending(ctx context.Context, date time.Time, limit int) ([]string, error)
	RecordResults(ctx context.Context, date time.Time, results []types.ScrapeResult) error
}

// BatchRunner executes one bounded batch of items.
type BatchRunner interface {
	Run(ctx context.Context, items []string) ([]types.ScrapeResult, error)
}

// Config holds the cadence contract: cron expressions in local time. The
// scrape schedule bounds the daily window itself (e.g. "*/8 0-11 * * *").
type Config struct {
	BuildSchedule     string
	ScrapeSchedule    string
	MaxBatchItems     int
	InvocationTimeout time.Duration
}

// Driver wires the scheduler triggers to the planner and executor.
type Driver struct {
	planner  PlanStore
	executor BatchRunner
	cfg      Config
	cron     *cron.Cron
	logger   *zap.Logger
}

// New creates a Driver.
func New(planner PlanStore, executor BatchRunner, cfg Config, logger *zap.Logger) *Driver {
	return &Driver{planner: planner, executor: executor, cfg: cfg, logger: logger}
}

// Start registers both cadences and starts the cron scheduler.
func (d *Driver) Start() error {
	c := cron.New()
	if _, err := c.AddFunc(d.cfg.BuildSchedule, d.RunBuild); err != nil {
		return err
	}
	if _, err := c.AddFunc(d.cfg.ScrapeSchedule, d.RunScrape); err != nil {
		return err
	}
	c.Start()
	d.cron = c

	d.logger.Info("cadence driver started",
		zap.String("build_schedule", d.cfg.BuildSchedule),
		zap.String("scrape_schedule", d.cfg.ScrapeSchedule))
	return nil
}

// Stop stops the scheduler and waits for a running invocation to finish.
func (d *Driver) Stop() {
	if d.cron != nil {
		<-d.cron.Stop().Done()
	}
}

// RunBuild is the daily trigger: build today's plan. Also invoked manually via
// the HTTP trigger endpoint.
func (d *Driver) RunBuild() {
	ctx, cancel := d.invocationContext()
	defer cancel()

	if err := d.planner.Build(ctx, time.Now()); err != nil {
		d.logger.Error("plan build failed", zap.Error(err))
	}
}

// RunScrape is the frequent trigger: pop a bounded batch of pending items, run
// it, record the results. A persistence error aborts the remainder of the
// invocation; the next one recomputes pending and resumes.
func (d *Driver) RunScrape() {
	ctx, cancel := d.invocationContext()
	defer cancel()

	now := time.Now()
	items, err := d.planner.Pending(ctx, now, d.cfg.MaxBatchItems)
	if err != nil {
		d.logger.Error("failed to compute pending items", zap.Error(err))
		return
	}
	if len(items) == 0 {
		d.logger.Info("daily plan already complete")
		return
	}

	d.logger.Info("starting batch", zap.Strings("items", items))
	results, err := d.executor.Run(ctx, items)
	if err != nil {
		d.logger.Error("batch run failed", zap.Error(err))
		return
	}

	if err := d.planner.RecordResults(ctx, now, results); err != nil {
		d.logger.Error("failed to record results", zap.Error(err))
		return
	}
	d.logger.Info("batch complete", zap.Int("results", len(results)))
}

func (d *Driver) invocationContext() (context.Context, context.CancelFunc) {
	if d.cfg.InvocationTimeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), d.cfg.InvocationTimeout)
}
