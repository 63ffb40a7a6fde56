package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/alexmmd/pricewatch/internal/types"
)

// The Batch* methods each issue one batched write round-trip per result-field
// category, bounding write amplification when a batch of results lands.

// BatchSetLatestPrice patches the price field of each item's latestPrice
// document in a single batch, leaving name and tradeDatetime untouched.
func (s *Store) BatchSetLatestPrice(ctx context.Context, prices map[string]float64) error {
	if len(prices) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for itemID, price := range prices {
		batch.Queue(
			`UPDATE item_profiles
			 SET value = jsonb_set(value, '{price}', to_jsonb($3::numeric)), updated_at = NOW()
			 WHERE item_id = $1 AND key = $2`,
			itemID, KeyLatestPrice, price,
		)
	}
	return s.sendBatch(ctx, batch, KeyLatestPrice)
}

// BatchSetSearchable replaces each item's searchable document in a single
// batch. Unknown searchability is written as JSON null.
func (s *Store) BatchSetSearchable(ctx context.Context, searchables map[string]types.Searchability) error {
	if len(searchables) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for itemID, searchable := range searchables {
		doc := searchableDoc{}
		if searchable != types.SearchabilityUnknown {
			doc.Searchable = &searchable
		}
		value, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("failed to marshal searchable doc: %w", err)
		}
		batch.Queue(
			`INSERT INTO item_profiles (item_id, key, value) VALUES ($1, $2, $3)
			 ON CONFLICT (item_id, key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
			itemID, KeySearchable, value,
		)
	}
	return s.sendBatch(ctx, batch, KeySearchable)
}

// BatchSetScrapedDatetime replaces each item's scrapedDatetime document in a
// single batch.
func (s *Store) BatchSetScrapedDatetime(ctx context.Context, scraped map[string]time.Time) error {
	if len(scraped) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for itemID, at := range scraped {
		at := at
		value, err := json.Marshal(scrapedDatetimeDoc{ScrapedDatetime: &at})
		if err != nil {
			return fmt.Errorf("failed to marshal scrapedDatetime doc: %w", err)
		}
		batch.Queue(
			`INSERT INTO item_profiles (item_id, key, value) VALUES ($1, $2, $3)
			 ON CONFLICT (item_id, key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
			itemID, KeyScrapedDatetime, value,
		)
	}
	return s.sendBatch(ctx, batch, KeyScrapedDatetime)
}

func (s *Store) sendBatch(ctx context.Context, batch *pgx.Batch, category string) error {
	results := s.pool.SendBatch(ctx, batch)
	defer results.Close() //nolint:errcheck // close error surfaces via Exec below

	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to write %s batch: %w", category, err)
		}
	}
	return nil
}
