package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alexmmd/pricewatch/internal/types"
)

// latestPriceDoc is the stored shape of the "latestPrice" profile key.
type latestPriceDoc struct {
	ItemID        string   `json:"itemId"`
	Name          string   `json:"name"`
	Price         *float64 `json:"price"`
	TradeDatetime string   `json:"tradeDatetime"`
}

// searchableDoc is the stored shape of the "searchable" profile key. A nil
// Searchable round-trips as JSON null, meaning the item was never resolved.
type searchableDoc struct {
	Searchable *types.Searchability `json:"searchable"`
}

// scrapedDatetimeDoc is the stored shape of the "scrapedDatetime" profile key.
type scrapedDatetimeDoc struct {
	ScrapedDatetime *time.Time `json:"scrapedDatetime"`
}

// ListItemIDs returns every catalog item id in insertion order.
func (s *Store) ListItemIDs(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT item_id FROM catalog_items ORDER BY created_at, item_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog items: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan item id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// HasItem reports whether an item exists in the catalog.
func (s *Store) HasItem(ctx context.Context, itemID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM catalog_items WHERE item_id = $1)`, itemID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check item %s: %w", itemID, err)
	}
	return exists, nil
}

// GetProfile reads an item's profile sub-keys and assembles the catalog view.
// Missing keys leave zero values: a never-scraped item has Unknown
// searchability and a nil scrape timestamp.
func (s *Store) GetProfile(ctx context.Context, itemID string) (*types.CatalogItem, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT key, value FROM item_profiles WHERE item_id = $1`, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile for %s: %w", itemID, err)
	}
	defer rows.Close()

	item := &types.CatalogItem{ItemID: itemID, Searchable: types.SearchabilityUnknown}
	found := false
	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan profile row: %w", err)
		}
		found = true
		switch key {
		case KeyLatestPrice:
			var doc latestPriceDoc
			if err := json.Unmarshal(value, &doc); err != nil {
				return nil, fmt.Errorf("failed to parse latestPrice for %s: %w", itemID, err)
			}
			item.Name = doc.Name
			item.LatestPrice = doc.Price
			item.TradeDatetime = doc.TradeDatetime
		case KeySearchable:
			var doc searchableDoc
			if err := json.Unmarshal(value, &doc); err != nil {
				return nil, fmt.Errorf("failed to parse searchable for %s: %w", itemID, err)
			}
			if doc.Searchable != nil {
				item.Searchable = *doc.Searchable
			}
		case KeyScrapedDatetime:
			var doc scrapedDatetimeDoc
			if err := json.Unmarshal(value, &doc); err != nil {
				return nil, fmt.Errorf("failed to parse scrapedDatetime for %s: %w", itemID, err)
			}
			item.ScrapedDatetime = doc.ScrapedDatetime
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read profile for %s: %w", itemID, err)
	}
	if !found {
		return nil, nil
	}
	return item, nil
}

// CreateItem registers a new catalog item with its initial profile: the
// receipt-derived latest price plus null searchable and scrapedDatetime keys.
func (s *Store) CreateItem(ctx context.Context, item types.CatalogItem) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.Exec(ctx,
		`INSERT INTO catalog_items (item_id, name) VALUES ($1, $2)
		 ON CONFLICT (item_id) DO NOTHING`,
		item.ItemID, item.Name,
	); err != nil {
		return fmt.Errorf("failed to insert item %s: %w", item.ItemID, err)
	}

	docs := map[string]any{
		KeyLatestPrice: latestPriceDoc{
			ItemID:        item.ItemID,
			Name:          item.Name,
			Price:         item.LatestPrice,
			TradeDatetime: item.TradeDatetime,
		},
		KeySearchable:      searchableDoc{},
		KeyScrapedDatetime: scrapedDatetimeDoc{},
	}
	for key, doc := range docs {
		value, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("failed to marshal %s doc: %w", key, err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO item_profiles (item_id, key, value) VALUES ($1, $2, $3)
			 ON CONFLICT (item_id, key) DO NOTHING`,
			item.ItemID, key, value,
		); err != nil {
			return fmt.Errorf("failed to insert %s for %s: %w", key, item.ItemID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit item %s: %w", item.ItemID, err)
	}
	return nil
}

// SetLatestPrice replaces an item's latestPrice document. Used by receipt
// ingestion when a newer trade supersedes the stored one.
func (s *Store) SetLatestPrice(ctx context.Context, itemID, name string, price *float64, tradeDatetime string) error {
	value, err := json.Marshal(latestPriceDoc{
		ItemID:        itemID,
		Name:          name,
		Price:         price,
		TradeDatetime: tradeDatetime,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal latestPrice doc: %w", err)
	}
	if _, err := s.pool.Exec(ctx,
		`INSERT INTO item_profiles (item_id, key, value) VALUES ($1, $2, $3)
		 ON CONFLICT (item_id, key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		itemID, KeyLatestPrice, value,
	); err != nil {
		return fmt.Errorf("failed to set latestPrice for %s: %w", itemID, err)
	}
	return nil
}
