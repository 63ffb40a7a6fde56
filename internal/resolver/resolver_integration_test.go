//go:build integration

package resolver

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// Runs a real headless browser against the live site. Opt in with
// PRICEWATCH_BROWSER_TESTS=1; needs Chrome on PATH and network access.
func TestResolveLiveSite(t *testing.T) {
	if os.Getenv("PRICEWATCH_BROWSER_TESTS") == "" {
		t.Skip("PRICEWATCH_BROWSER_TESTS not set")
	}
	query := os.Getenv("PRICEWATCH_TEST_QUERY")
	if query == "" {
		t.Skip("PRICEWATCH_TEST_QUERY not set")
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(),
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("no-sandbox", true),
		)...,
	)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()
	if err := chromedp.Run(browserCtx); err != nil {
		t.Fatalf("Failed to launch browser: %v", err)
	}

	r := New("https://www.costcoast.com", 90*time.Second, zap.NewNop())
	info, err := r.Resolve(browserCtx, query)
	if err != nil {
		t.Fatalf("Resolve(%q) error = %v", query, err)
	}
	t.Logf("resolved: searchable=%q price=%v", info.Searchable, info.Price)
	if info.Searchable == "" {
		t.Error("Resolve() settled without a classification")
	}
}
