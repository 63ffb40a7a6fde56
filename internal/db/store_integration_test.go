//go:build integration

package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/alexmmd/pricewatch/internal/types"
)

// Integration tests run against a real PostgreSQL instance with schema.sql
// applied. Point TEST_DATABASE_URL at a throwaway database:
//
//	TEST_DATABASE_URL=postgres://localhost/pricewatch_test go test -tags integration ./internal/db/
func newTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	store, err := Connect(ctx, url)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(store.Close)

	for _, table := range []string{"daily_notifications", "subscriptions", "plans", "item_profiles", "catalog_items"} {
		if _, err := store.pool.Exec(ctx, "DELETE FROM "+table); err != nil {
			t.Fatalf("Failed to clear %s: %v", table, err)
		}
	}
	return store
}

func floatPtr(v float64) *float64 { return &v }

func TestCatalogLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	exists, err := store.HasItem(ctx, "100123")
	if err != nil {
		t.Fatalf("HasItem() error = %v", err)
	}
	if exists {
		t.Fatal("HasItem() = true before creation")
	}

	item, err := store.GetProfile(ctx, "100123")
	if err != nil {
		t.Fatalf("GetProfile() error = %v", err)
	}
	if item != nil {
		t.Fatalf("GetProfile() = %+v, want nil for unknown item", item)
	}

	err = store.CreateItem(ctx, types.CatalogItem{
		ItemID:        "100123",
		Name:          "Olive Oil",
		LatestPrice:   floatPtr(15.99),
		TradeDatetime: "2026-03-01T10:00:00Z",
	})
	if err != nil {
		t.Fatalf("CreateItem() error = %v", err)
	}

	item, err = store.GetProfile(ctx, "100123")
	if err != nil {
		t.Fatalf("GetProfile() error = %v", err)
	}
	if item == nil {
		t.Fatal("GetProfile() = nil after creation")
	}
	if item.Name != "Olive Oil" || item.LatestPrice == nil || *item.LatestPrice != 15.99 {
		t.Errorf("profile = %+v, want name and price from creation", item)
	}
	if item.Searchable != types.SearchabilityUnknown {
		t.Errorf("Searchable = %q, want Unknown for never-scraped item", item.Searchable)
	}
	if item.ScrapedDatetime != nil {
		t.Errorf("ScrapedDatetime = %v, want nil for never-scraped item", item.ScrapedDatetime)
	}

	ids, err := store.ListItemIDs(ctx)
	if err != nil {
		t.Fatalf("ListItemIDs() error = %v", err)
	}
	if len(ids) != 1 || ids[0] != "100123" {
		t.Errorf("ListItemIDs() = %v, want [100123]", ids)
	}
}

func TestSetLatestPriceReplacesTrade(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.CreateItem(ctx, types.CatalogItem{
		ItemID:        "200456",
		Name:          "Paper Towels",
		LatestPrice:   floatPtr(24.99),
		TradeDatetime: "2026-03-01T10:00:00Z",
	}); err != nil {
		t.Fatalf("CreateItem() error = %v", err)
	}

	if err := store.SetLatestPrice(ctx, "200456", "Paper Towels", floatPtr(22.49), "2026-03-10T10:00:00Z"); err != nil {
		t.Fatalf("SetLatestPrice() error = %v", err)
	}

	item, err := store.GetProfile(ctx, "200456")
	if err != nil {
		t.Fatalf("GetProfile() error = %v", err)
	}
	if item.LatestPrice == nil || *item.LatestPrice != 22.49 {
		t.Errorf("LatestPrice = %v, want 22.49", item.LatestPrice)
	}
	if item.TradeDatetime != "2026-03-10T10:00:00Z" {
		t.Errorf("TradeDatetime = %q, want the newer trade", item.TradeDatetime)
	}
}

func TestBatchWritesProjectOntoProfile(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.CreateItem(ctx, types.CatalogItem{
		ItemID:        "300789",
		Name:          "Detergent",
		LatestPrice:   floatPtr(19.99),
		TradeDatetime: "2026-03-01T10:00:00Z",
	}); err != nil {
		t.Fatalf("CreateItem() error = %v", err)
	}

	at := time.Date(2026, 3, 5, 0, 16, 0, 0, time.UTC)
	if err := store.BatchSetLatestPrice(ctx, map[string]float64{"300789": 17.49}); err != nil {
		t.Fatalf("BatchSetLatestPrice() error = %v", err)
	}
	if err := store.BatchSetSearchable(ctx, map[string]types.Searchability{"300789": types.SearchabilityFindable}); err != nil {
		t.Fatalf("BatchSetSearchable() error = %v", err)
	}
	if err := store.BatchSetScrapedDatetime(ctx, map[string]time.Time{"300789": at}); err != nil {
		t.Fatalf("BatchSetScrapedDatetime() error = %v", err)
	}

	item, err := store.GetProfile(ctx, "300789")
	if err != nil {
		t.Fatalf("GetProfile() error = %v", err)
	}
	if item.LatestPrice == nil || *item.LatestPrice != 17.49 {
		t.Errorf("LatestPrice = %v, want 17.49", item.LatestPrice)
	}
	// jsonb_set patches only the price; the trade datetime must survive.
	if item.TradeDatetime != "2026-03-01T10:00:00Z" {
		t.Errorf("TradeDatetime = %q, batch price write must not touch it", item.TradeDatetime)
	}
	if item.Searchable != types.SearchabilityFindable {
		t.Errorf("Searchable = %q, want Yes", item.Searchable)
	}
	if item.ScrapedDatetime == nil || !item.ScrapedDatetime.Equal(at) {
		t.Errorf("ScrapedDatetime = %v, want %v", item.ScrapedDatetime, at)
	}
}

func TestPlanLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	plan, err := store.GetPlan(ctx, "2026-3-5", types.ListGeneral)
	if err != nil {
		t.Fatalf("GetPlan() error = %v", err)
	}
	if plan != nil {
		t.Fatalf("GetPlan() = %+v, want nil for missing plan", plan)
	}

	todos := []types.WorkItem{
		{ItemID: "a", Price: floatPtr(10), TradeDatetime: "2026-03-01T10:00:00Z"},
		{ItemID: "b", Price: floatPtr(20), TradeDatetime: "2026-03-02T10:00:00Z"},
	}
	if err := store.SavePlan(ctx, "2026-3-5", types.ListGeneral, todos); err != nil {
		t.Fatalf("SavePlan() error = %v", err)
	}

	results := []types.ScrapeResult{
		{ItemID: "b", NewPrice: floatPtr(18), Searchable: types.SearchabilityFindable, ScrapedDatetime: time.Now().UTC()},
	}
	if err := store.AppendDone(ctx, "2026-3-5", types.ListGeneral, results); err != nil {
		t.Fatalf("AppendDone() error = %v", err)
	}
	// Same results again: entries are appended, not deduplicated.
	if err := store.AppendDone(ctx, "2026-3-5", types.ListGeneral, results); err != nil {
		t.Fatalf("AppendDone() error = %v", err)
	}

	plan, err = store.GetPlan(ctx, "2026-3-5", types.ListGeneral)
	if err != nil {
		t.Fatalf("GetPlan() error = %v", err)
	}
	if len(plan.Todos) != 2 {
		t.Errorf("len(Todos) = %d, want 2", len(plan.Todos))
	}
	if len(plan.Done) != 2 || plan.Done[0].ItemID != "b" || plan.Done[1].ItemID != "b" {
		t.Errorf("Done = %+v, want two entries for item b", plan.Done)
	}

	// Rebuilding the plan resets the done list.
	if err := store.SavePlan(ctx, "2026-3-5", types.ListGeneral, todos[:1]); err != nil {
		t.Fatalf("SavePlan() error = %v", err)
	}
	plan, err = store.GetPlan(ctx, "2026-3-5", types.ListGeneral)
	if err != nil {
		t.Fatalf("GetPlan() error = %v", err)
	}
	if len(plan.Todos) != 1 || len(plan.Done) != 0 {
		t.Errorf("after rebuild: todos=%d done=%d, want 1 and 0", len(plan.Todos), len(plan.Done))
	}
}

func TestAppendDoneMissingPlan(t *testing.T) {
	store := newTestStore(t)

	err := store.AppendDone(context.Background(), "2026-3-5", types.ListMembers, []types.ScrapeResult{{ItemID: "a"}})
	if err == nil {
		t.Error("AppendDone() expected error for missing plan")
	}
}

func TestSubscriptionsAndNotifications(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	sub := types.Subscription{
		MemberID:      "m-1",
		ReceiptID:     "r-1",
		ItemID:        "100123",
		Name:          "Olive Oil",
		Price:         "15.99",
		TradeDatetime: "2026-03-01T10:00:00Z",
	}
	if err := store.AddSubscription(ctx, sub); err != nil {
		t.Fatalf("AddSubscription() error = %v", err)
	}

	subs, err := store.Subscriptions(ctx, "100123")
	if err != nil {
		t.Fatalf("Subscriptions() error = %v", err)
	}
	if len(subs) != 1 || subs[0].MemberID != "m-1" {
		t.Errorf("Subscriptions() = %+v, want the recorded subscription", subs)
	}

	notes, err := store.Notifications(ctx, "2026-3-5")
	if err != nil {
		t.Fatalf("Notifications() error = %v", err)
	}
	if notes != nil {
		t.Errorf("Notifications() = %+v, want nil before any were recorded", notes)
	}

	note := types.Notification{Subscription: sub, NewPrice: 13.99}
	if err := store.AppendNotifications(ctx, "2026-3-5", []types.Notification{note}); err != nil {
		t.Fatalf("AppendNotifications() error = %v", err)
	}
	if err := store.AppendNotifications(ctx, "2026-3-5", []types.Notification{note}); err != nil {
		t.Fatalf("AppendNotifications() error = %v", err)
	}

	notes, err = store.Notifications(ctx, "2026-3-5")
	if err != nil {
		t.Fatalf("Notifications() error = %v", err)
	}
	if len(notes) != 2 {
		t.Fatalf("len(notes) = %d, want 2 (appends accumulate)", len(notes))
	}
	if notes[0].NewPrice != 13.99 || notes[0].MemberID != "m-1" {
		t.Errorf("notes[0] = %+v", notes[0])
	}
}
