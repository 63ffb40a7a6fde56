// Package executor runs one bounded batch of price checks against a single
// browser session, isolating per-item failures so the batch always returns
// whatever it managed to collect.
package executor

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/alexmmd/pricewatch/internal/types"
)

// PageResolver resolves one item query against a live browser session.
type PageResolver interface {
	Resolve(browserCtx context.Context, query string) (types.PriceInfo, error)
}

// Executor processes items strictly sequentially with a jittered inter-item
// delay to bound the request rate.
type Executor struct {
	resolver   PageResolver
	logger     *zap.Logger
	jitterMin  time.Duration
	jitterMax  time.Duration
	newSession func(ctx context.Context) (*session, error)
}

// New creates an Executor. The jitter window is half-open: delays are uniform
// in [jitterMin, jitterMax).
func New(resolver PageResolver, logger *zap.Logger, jitterMin, jitterMax time.Duration) *Executor {
	return &Executor{
		resolver:   resolver,
		logger:     logger,
		jitterMin:  jitterMin,
		jitterMax:  jitterMax,
		newSession: newBrowserSession,
	}
}

// Run opens one browser session, processes items from the tail of the list
// (most recently added first) and returns the collected results. A failed item
// is logged and skipped; it stays pending for the next invocation. The session
// is released on every exit path.
func (e *Executor) Run(ctx context.Context, items []string) ([]types.ScrapeResult, error) {
	start := time.Now()

	sess, err := e.newSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open browser session: %w", err)
	}
	defer sess.Close()

	queue := append([]string(nil), items...)
	results := make([]types.ScrapeResult, 0, len(queue))
	for len(queue) > 0 {
		if ctx.Err() != nil {
			e.logger.Warn("invocation budget exhausted mid-batch",
				zap.Int("remaining", len(queue)), zap.Error(ctx.Err()))
			break
		}

		itemID := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		info, err := e.resolver.Resolve(sess.browserCtx, itemID)
		if err != nil {
			e.logger.Warn("scrape failed, item stays pending",
				zap.String("item_id", itemID), zap.Error(err))
			continue
		}

		e.logger.Info("item scraped",
			zap.String("item_id", itemID),
			zap.String("searchable", string(info.Searchable)),
			zap.Float64p("price", info.Price))
		results = append(results, types.ScrapeResult{
			ItemID:          itemID,
			NewPrice:        info.Price,
			Searchable:      info.Searchable,
			ScrapedDatetime: time.Now(),
			ExecutionTime:   time.Since(start),
		})

		e.sleepJitter(ctx)
	}

	return results, nil
}

// jitter draws a uniform random interval from [jitterMin, jitterMax).
func (e *Executor) jitter() time.Duration {
	d := e.jitterMin
	if e.jitterMax > e.jitterMin {
		d += time.Duration(rand.Int63n(int64(e.jitterMax - e.jitterMin)))
	}
	return d
}

// sleepJitter pauses for a jittered interval, returning early if the
// invocation is cancelled.
func (e *Executor) sleepJitter(ctx context.Context) {
	timer := time.NewTimer(e.jitter())
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
