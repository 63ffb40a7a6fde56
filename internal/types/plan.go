package types

import (
	"fmt"
	"time"
)

// Plan lists. General items and members-only items are planned separately.
const (
	ListGeneral = "general"
	ListMembers = "members"
)

// WorkItem is one planned, not-yet-executed price check. It snapshots the
// item's catalog price at planning time and is never mutated afterwards; a new
// day's Build supersedes it. Completed is persisted for compatibility with the
// stored plan shape but actual completion tracking lives in the plan's done
// list.
type WorkItem struct {
	ItemID        string   `json:"itemId"`
	Price         *float64 `json:"price"`
	TradeDatetime string   `json:"tradeDatetime"`
	Completed     bool     `json:"completed"`
}

// ScrapeResult is the outcome of one executed price check. Immutable once
// produced; appended to the plan's done list and projected onto the catalog.
type ScrapeResult struct {
	ItemID          string        `json:"itemId"`
	NewPrice        *float64      `json:"newPrice"`
	Searchable      Searchability `json:"searchable"`
	ScrapedDatetime time.Time     `json:"scrapedDatetime"`
	ExecutionTime   time.Duration `json:"executionTime"`
}

// DailyPlan is the unit-of-work document for one calendar date. Todos is the
// ordered work list written once by Build; Done grows monotonically as batches
// record results and is never truncated within the day.
type DailyPlan struct {
	PlanID string         `json:"planId"`
	Todos  []WorkItem     `json:"todos"`
	Done   []ScrapeResult `json:"done"`
}

// DayID derives the plan identifier for a date: local calendar date, no zero
// padding, no timezone normalization ("2026-3-5").
func DayID(t time.Time) string {
	return fmt.Sprintf("%d-%d-%d", t.Year(), int(t.Month()), t.Day())
}
