package db

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/alexmmd/pricewatch/internal/types"
)

func TestLatestPriceDocNullPrice(t *testing.T) {
	doc := latestPriceDoc{ItemID: "100123", Name: "Olive Oil", TradeDatetime: "2026-03-05T10:00:00Z"}

	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if string(raw["price"]) != "null" {
		t.Errorf("price = %s, want null for an unknown price", raw["price"])
	}

	var back latestPriceDoc
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if back.Price != nil {
		t.Errorf("Price = %v, want nil", *back.Price)
	}
}

func TestSearchableDocNullMeansUnresolved(t *testing.T) {
	// A freshly created item carries {"searchable": null}.
	data, err := json.Marshal(searchableDoc{})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `{"searchable":null}` {
		t.Errorf("marshaled doc = %s", data)
	}

	var doc searchableDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if doc.Searchable != nil {
		t.Errorf("Searchable = %v, want nil", *doc.Searchable)
	}
}

func TestSearchableDocWireValue(t *testing.T) {
	var doc searchableDoc
	if err := json.Unmarshal([]byte(`{"searchable":"MemberOnly"}`), &doc); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if doc.Searchable == nil || *doc.Searchable != types.SearchabilityMembersOnly {
		t.Errorf("Searchable = %v, want MemberOnly", doc.Searchable)
	}
}

func TestScrapedDatetimeDocRoundTrip(t *testing.T) {
	ts := time.Date(2026, 3, 5, 0, 16, 0, 0, time.UTC)

	data, err := json.Marshal(scrapedDatetimeDoc{ScrapedDatetime: &ts})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var doc scrapedDatetimeDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if doc.ScrapedDatetime == nil || !doc.ScrapedDatetime.Equal(ts) {
		t.Errorf("ScrapedDatetime = %v, want %v", doc.ScrapedDatetime, ts)
	}
}
