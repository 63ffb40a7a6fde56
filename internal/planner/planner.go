// Package planner owns the daily work plan: building it from a catalog
// snapshot, computing what is still pending, and reconciling batch results
// back into both the plan and the catalog. All cross-invocation state lives in
// the store; every operation re-reads it at the start.
package planner

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/alexmmd/pricewatch/internal/types"
)

// snapshotConcurrency bounds the parallel profile reads during Build.
const snapshotConcurrency = 8

// Store is the persistence the planner needs from the document store.
type Store interface {
	ListItemIDs(ctx context.Context) ([]string, error)
	GetProfile(ctx context.Context, itemID string) (*types.CatalogItem, error)
	SavePlan(ctx context.Context, planID, list string, todos []types.WorkItem) error
	GetPlan(ctx context.Context, planID, list string) (*types.DailyPlan, error)
	AppendDone(ctx context.Context, planID, list string, results []types.ScrapeResult) error
	BatchSetLatestPrice(ctx context.Context, prices map[string]float64) error
	BatchSetSearchable(ctx context.Context, searchables map[string]types.Searchability) error
	BatchSetScrapedDatetime(ctx context.Context, scraped map[string]time.Time) error
}

// DropNotifier is told about each price drop after reconciliation persists it.
type DropNotifier interface {
	PriceDropped(ctx context.Context, itemID string, newPrice float64) error
}

// Planner builds and reconciles daily plans.
type Planner struct {
	store    Store
	notifier DropNotifier
	logger   *zap.Logger
}

// New creates a Planner. notifier may be nil when alerting is not configured.
func New(store Store, notifier DropNotifier, logger *zap.Logger) *Planner {
	return &Planner{store: store, notifier: notifier, logger: logger}
}

// Build snapshots the whole catalog and persists the date's work lists,
// replacing any pre-existing plan for that date. Items currently classified
// NotFound or WarehouseOnly are not worth re-querying and are excluded from
// both lists.
func (p *Planner) Build(ctx context.Context, date time.Time) error {
	planID := types.DayID(date)

	ids, err := p.store.ListItemIDs(ctx)
	if err != nil {
		return fmt.Errorf("build %s: %w", planID, err)
	}

	items := make([]*types.CatalogItem, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(snapshotConcurrency)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			item, err := p.store.GetProfile(gctx, id)
			if err != nil {
				return err
			}
			if item == nil {
				item = &types.CatalogItem{ItemID: id, Searchable: types.SearchabilityUnknown}
			}
			items[i] = item
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("build %s: %w", planID, err)
	}

	general, members := bucketItems(items)

	if err := p.store.SavePlan(ctx, planID, types.ListGeneral, general); err != nil {
		return fmt.Errorf("build %s: %w", planID, err)
	}
	if err := p.store.SavePlan(ctx, planID, types.ListMembers, members); err != nil {
		return fmt.Errorf("build %s: %w", planID, err)
	}

	p.logger.Info("daily plan built",
		zap.String("plan_id", planID),
		zap.Int("general_items", len(general)),
		zap.Int("members_items", len(members)))
	return nil
}

// Pending computes the identifiers still to do for a date: the plan's todos
// minus its done entries, planning order preserved, truncated to the last
// limit entries. A missing plan is "nothing to do yet", not a fault.
func (p *Planner) Pending(ctx context.Context, date time.Time, limit int) ([]string, error) {
	planID := types.DayID(date)

	plan, err := p.store.GetPlan(ctx, planID, types.ListGeneral)
	if err != nil {
		return nil, fmt.Errorf("pending %s: %w", planID, err)
	}
	if plan == nil {
		p.logger.Info("no plan exists for date", zap.String("plan_id", planID))
		return nil, nil
	}

	return pendingItems(plan.Todos, plan.Done, limit), nil
}

// RecordResults appends results to the date's done list and projects them onto
// the catalog: price only when it differs from the WorkItem's snapshot,
// searchability and scrape timestamp unconditionally. Each field category goes
// out as one batched write. Price drops are handed to the notifier after the
// price write lands; notifier failures never fail reconciliation.
func (p *Planner) RecordResults(ctx context.Context, date time.Time, results []types.ScrapeResult) error {
	if len(results) == 0 {
		return nil
	}
	planID := types.DayID(date)

	plan, err := p.store.GetPlan(ctx, planID, types.ListGeneral)
	if err != nil {
		return fmt.Errorf("record results %s: %w", planID, err)
	}
	if plan == nil {
		return fmt.Errorf("record results %s: no plan exists", planID)
	}

	snapshots := make(map[string]*float64, len(plan.Todos))
	for _, todo := range plan.Todos {
		snapshots[todo.ItemID] = todo.Price
	}

	prices := make(map[string]float64)
	searchables := make(map[string]types.Searchability, len(results))
	scraped := make(map[string]time.Time, len(results))
	var drops []types.ScrapeResult
	for _, res := range results {
		searchables[res.ItemID] = res.Searchable
		scraped[res.ItemID] = res.ScrapedDatetime

		snap := snapshots[res.ItemID]
		if priceChanged(res.NewPrice, snap) {
			prices[res.ItemID] = *res.NewPrice
			if snap != nil && *res.NewPrice < *snap {
				drops = append(drops, res)
			}
		}
	}

	if err := p.store.BatchSetLatestPrice(ctx, prices); err != nil {
		return fmt.Errorf("record results %s: %w", planID, err)
	}
	if err := p.store.BatchSetSearchable(ctx, searchables); err != nil {
		return fmt.Errorf("record results %s: %w", planID, err)
	}
	if err := p.store.BatchSetScrapedDatetime(ctx, scraped); err != nil {
		return fmt.Errorf("record results %s: %w", planID, err)
	}

	if err := p.store.AppendDone(ctx, planID, types.ListGeneral, results); err != nil {
		return fmt.Errorf("record results %s: %w", planID, err)
	}

	p.logger.Info("results recorded",
		zap.String("plan_id", planID),
		zap.Int("results", len(results)),
		zap.Int("price_updates", len(prices)))

	if p.notifier != nil {
		for _, res := range drops {
			if err := p.notifier.PriceDropped(ctx, res.ItemID, *res.NewPrice); err != nil {
				p.logger.Warn("price drop notification failed",
					zap.String("item_id", res.ItemID), zap.Error(err))
			}
		}
	}
	return nil
}

// bucketItems assigns catalog items to the general or members-only work list
// by their current searchability. Unknown goes to the general list so new
// items get classified on their first scrape.
func bucketItems(items []*types.CatalogItem) (general, members []types.WorkItem) {
	general = make([]types.WorkItem, 0, len(items))
	members = make([]types.WorkItem, 0)
	for _, item := range items {
		todo := types.WorkItem{
			ItemID:        item.ItemID,
			Price:         item.LatestPrice,
			TradeDatetime: item.TradeDatetime,
		}
		switch {
		case item.Searchable.InGeneralList():
			general = append(general, todo)
		case item.Searchable.InMembersList():
			members = append(members, todo)
		}
	}
	return general, members
}

// pendingItems returns the ids of todos with no done entry, planning order
// preserved, truncated to the last limit entries.
func pendingItems(todos []types.WorkItem, done []types.ScrapeResult, limit int) []string {
	completed := make(map[string]bool, len(done))
	for _, res := range done {
		completed[res.ItemID] = true
	}

	pending := make([]string, 0, len(todos))
	for _, todo := range todos {
		if !completed[todo.ItemID] {
			pending = append(pending, todo.ItemID)
		}
	}

	if limit > 0 && len(pending) > limit {
		pending = pending[len(pending)-limit:]
	}
	if len(pending) == 0 {
		return nil
	}
	return pending
}

// priceChanged reports whether a scraped price should overwrite the snapshot:
// it must exist and differ from what planning saw.
func priceChanged(newPrice, snapshot *float64) bool {
	if newPrice == nil {
		return false
	}
	return snapshot == nil || *newPrice != *snapshot
}
