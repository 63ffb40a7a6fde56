package executor

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"
)

// userAgent replaces the headless default, which advertises automation.
const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// session is one browser lifetime. Exactly one is opened per batch; every
// item's tab is a child of browserCtx.
type session struct {
	browserCtx context.Context
	cancels    []context.CancelFunc
}

// newBrowserSession launches a headless browser with the default automation
// fingerprints masked.
func newBrowserSession(ctx context.Context) (*session, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("disable-blink-features", "AutomationControlled"),
			chromedp.UserAgent(userAgent),
		)...,
	)

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	// Start the browser eagerly so launch failures surface here rather than
	// on the first item.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	return &session{
		browserCtx: browserCtx,
		cancels:    []context.CancelFunc{cancelAlloc, cancelBrowser},
	}, nil
}

// Close shuts the browser down, then the allocator.
func (s *session) Close() {
	for i := len(s.cancels) - 1; i >= 0; i-- {
		s.cancels[i]()
	}
}
