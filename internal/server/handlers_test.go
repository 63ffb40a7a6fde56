package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/alexmmd/pricewatch/internal/types"
)

// fakeCatalog is an in-memory CatalogStore.
type fakeCatalog struct {
	items         map[string]*types.CatalogItem
	subscriptions []types.Subscription
	priceUpdates  []string
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{items: make(map[string]*types.CatalogItem)}
}

func (f *fakeCatalog) HasItem(_ context.Context, itemID string) (bool, error) {
	_, ok := f.items[itemID]
	return ok, nil
}

func (f *fakeCatalog) GetProfile(_ context.Context, itemID string) (*types.CatalogItem, error) {
	return f.items[itemID], nil
}

func (f *fakeCatalog) CreateItem(_ context.Context, item types.CatalogItem) error {
	f.items[item.ItemID] = &item
	return nil
}

func (f *fakeCatalog) SetLatestPrice(_ context.Context, itemID, name string, price *float64, tradeDatetime string) error {
	f.priceUpdates = append(f.priceUpdates, itemID)
	f.items[itemID] = &types.CatalogItem{ItemID: itemID, Name: name, LatestPrice: price, TradeDatetime: tradeDatetime}
	return nil
}

func (f *fakeCatalog) AddSubscription(_ context.Context, sub types.Subscription) error {
	f.subscriptions = append(f.subscriptions, sub)
	return nil
}

// fakeTriggers counts trigger invocations.
type fakeTriggers struct {
	builds, scrapes int
}

func (f *fakeTriggers) RunBuild()  { f.builds++ }
func (f *fakeTriggers) RunScrape() { f.scrapes++ }

func newTestServer(catalog CatalogStore, triggers Triggers) *Server {
	return New(Config{Port: 0}, catalog, triggers, zap.NewNop())
}

func doRequest(s *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)
	return rec
}

const validReceipt = `{
	"memberId": "12345",
	"receiptId": "r7890",
	"tradeDatetime": "2026-08-24T12:34:56Z",
	"items": [
		{"itemId": "i001", "name": "Olive Oil", "price": "10.50"},
		{"itemId": "i002", "name": "Paper Towels", "price": "15.75"}
	]
}`

func TestCreateReceiptNewItems(t *testing.T) {
	catalog := newFakeCatalog()
	s := newTestServer(catalog, &fakeTriggers{})

	rec := doRequest(s, http.MethodPost, "/receipts", validReceipt)
	assert.Equal(t, http.StatusOK, rec.Code)

	require.Contains(t, catalog.items, "i001")
	item := catalog.items["i001"]
	assert.Equal(t, "Olive Oil", item.Name)
	require.NotNil(t, item.LatestPrice)
	assert.Equal(t, 10.50, *item.LatestPrice)
	assert.Equal(t, types.SearchabilityUnknown, item.Searchable)

	assert.Len(t, catalog.subscriptions, 2)
	assert.Equal(t, "12345", catalog.subscriptions[0].MemberID)
}

func TestCreateReceiptNewerTradeWins(t *testing.T) {
	catalog := newFakeCatalog()
	old := 12.00
	catalog.items["i001"] = &types.CatalogItem{
		ItemID: "i001", Name: "Olive Oil", LatestPrice: &old,
		TradeDatetime: "2026-01-01T00:00:00Z",
	}
	s := newTestServer(catalog, &fakeTriggers{})

	rec := doRequest(s, http.MethodPost, "/receipts", validReceipt)
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Contains(t, catalog.priceUpdates, "i001")
	assert.Equal(t, 10.50, *catalog.items["i001"].LatestPrice)
}

func TestCreateReceiptOlderTradeIgnored(t *testing.T) {
	catalog := newFakeCatalog()
	tracked := 9.00
	catalog.items["i001"] = &types.CatalogItem{
		ItemID: "i001", Name: "Olive Oil", LatestPrice: &tracked,
		TradeDatetime: "2026-12-01T00:00:00Z",
	}
	s := newTestServer(catalog, &fakeTriggers{})

	rec := doRequest(s, http.MethodPost, "/receipts", validReceipt)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Stored price untouched, but the subscription is still recorded.
	assert.NotContains(t, catalog.priceUpdates, "i001")
	assert.Equal(t, 9.00, *catalog.items["i001"].LatestPrice)
	assert.Len(t, catalog.subscriptions, 2)
}

func TestCreateReceiptInvalidPayload(t *testing.T) {
	s := newTestServer(newFakeCatalog(), &fakeTriggers{})

	tests := []struct {
		name string
		body string
	}{
		{"not json", "not json"},
		{"missing member", `{"receiptId":"r1","tradeDatetime":"2026-08-24T12:34:56Z","items":[{"itemId":"1","name":"a","price":"1"}]}`},
		{"empty items", `{"memberId":"m","receiptId":"r1","tradeDatetime":"2026-08-24T12:34:56Z","items":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(s, http.MethodPost, "/receipts", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestCreateReceiptMethodNotAllowed(t *testing.T) {
	s := newTestServer(newFakeCatalog(), &fakeTriggers{})

	rec := doRequest(s, http.MethodGet, "/receipts", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestTriggerEndpoints(t *testing.T) {
	triggers := &fakeTriggers{}
	s := newTestServer(newFakeCatalog(), triggers)

	rec := doRequest(s, http.MethodPost, "/triggers/build-plan", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 1, triggers.builds)

	rec = doRequest(s, http.MethodPost, "/triggers/scrape", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 1, triggers.scrapes)
}

func TestHealth(t *testing.T) {
	s := newTestServer(newFakeCatalog(), &fakeTriggers{})

	rec := doRequest(s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}
