// Package types defines the domain model shared across the price watcher.
package types

import "time"

// CatalogItem is one tracked product and its authoritative profile state.
// The catalog is populated by receipt ingestion; the scraper only ever updates
// latest price, searchability and scrape timestamp, and never deletes items.
type CatalogItem struct {
	ItemID          string        `json:"itemId"`
	Name            string        `json:"name"`
	LatestPrice     *float64      `json:"latestPrice"`
	TradeDatetime   string        `json:"tradeDatetime"`
	Searchable      Searchability `json:"searchable"`
	ScrapedDatetime *time.Time    `json:"scrapedDatetime"`
}

// PriceInfo is the classified outcome of resolving one item's page state.
// Price is nil for every classification except Findable, SingleResult and
// BundlePrice.
type PriceInfo struct {
	Price      *float64      `json:"price"`
	Searchable Searchability `json:"searchable"`
}
