// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the configuration that can be loaded from a JSON file.
// All fields are optional; missing values fall back to defaults, and secrets
// (DATABASE_URL, ALERT_WEBHOOK_URL) may instead come from the environment.
type Config struct {
	// Store
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL

	// Site
	SiteURL string `json:"site_url,omitempty"` // Retail site to search against

	// Scraping
	MaxBatchItems     int `json:"max_batch_items,omitempty"`     // Items per batch invocation
	ResolveTimeoutSec int `json:"resolve_timeout_sec,omitempty"` // Per-item page resolution budget
	InvocationSec     int `json:"invocation_sec,omitempty"`      // Whole-invocation hard budget
	JitterMinMs       int `json:"jitter_min_ms,omitempty"`       // Inter-item delay lower bound
	JitterMaxMs       int `json:"jitter_max_ms,omitempty"`       // Inter-item delay upper bound (exclusive)

	// Cadence (standard cron expressions, local time)
	BuildSchedule  string `json:"build_schedule,omitempty"`  // Daily plan build
	ScrapeSchedule string `json:"scrape_schedule,omitempty"` // Frequent batch runs, window-bounded

	// Alerting
	AlertWebhookURL string `json:"alert_webhook_url,omitempty"` // Price-drop alert endpoint
	AlertNonce      string `json:"alert_nonce,omitempty"`       // Nonce string the endpoint expects

	// Server
	Port int `json:"port,omitempty"`

	// Behavior
	Verbose bool `json:"verbose,omitempty"` // Development logging
}

// DefaultConfig returns the defaults used when neither file nor flags provide
// a value. Cadence and pacing defaults match the production deployment: plans
// build at 21:00, batches run every 8 minutes within the 00:00-11:59 window.
func DefaultConfig() Config {
	return Config{
		SiteURL:           "https://www.costcoast.com",
		MaxBatchItems:     3,
		ResolveTimeoutSec: 90,
		InvocationSec:     300,
		JitterMinMs:       2800,
		JitterMaxMs:       3500,
		BuildSchedule:     "0 21 * * *",
		ScrapeSchedule:    "*/8 0-11 * * *",
		Port:              8080,
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// FromEnv fills secret fields from the environment when the file left them
// empty.
func (c *Config) FromEnv() {
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if c.AlertWebhookURL == "" {
		c.AlertWebhookURL = os.Getenv("ALERT_WEBHOOK_URL")
	}
	if c.AlertNonce == "" {
		c.AlertNonce = os.Getenv("ALERT_NONCE")
	}
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.MaxBatchItems < 0 {
		return fmt.Errorf("config error: 'max_batch_items' must be non-negative")
	}
	if c.ResolveTimeoutSec < 0 || c.InvocationSec < 0 {
		return fmt.Errorf("config error: timeouts must be non-negative")
	}
	if c.JitterMinMs < 0 || c.JitterMaxMs < 0 {
		return fmt.Errorf("config error: jitter bounds must be non-negative")
	}
	if c.JitterMaxMs != 0 && c.JitterMaxMs <= c.JitterMinMs {
		return fmt.Errorf("config error: 'jitter_max_ms' must exceed 'jitter_min_ms'")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' out of range")
	}
	return nil
}

// MergeWithDefaults returns a new Config with unset fields filled from
// defaults. CLI flags should always win for bools, so those are not merged.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.SiteURL == "" {
		result.SiteURL = defaults.SiteURL
	}
	if result.BuildSchedule == "" {
		result.BuildSchedule = defaults.BuildSchedule
	}
	if result.ScrapeSchedule == "" {
		result.ScrapeSchedule = defaults.ScrapeSchedule
	}
	if result.AlertWebhookURL == "" {
		result.AlertWebhookURL = defaults.AlertWebhookURL
	}
	if result.AlertNonce == "" {
		result.AlertNonce = defaults.AlertNonce
	}

	if result.MaxBatchItems == 0 {
		result.MaxBatchItems = defaults.MaxBatchItems
	}
	if result.ResolveTimeoutSec == 0 {
		result.ResolveTimeoutSec = defaults.ResolveTimeoutSec
	}
	if result.InvocationSec == 0 {
		result.InvocationSec = defaults.InvocationSec
	}
	if result.JitterMinMs == 0 {
		result.JitterMinMs = defaults.JitterMinMs
	}
	if result.JitterMaxMs == 0 {
		result.JitterMaxMs = defaults.JitterMaxMs
	}
	if result.Port == 0 {
		result.Port = defaults.Port
	}

	return result
}
