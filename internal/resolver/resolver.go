// Package resolver drives one browser tab against one item query and resolves
// the resulting page into a price/searchability classification by racing the
// finite set of terminal page states the site can render.
package resolver

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"go.uber.org/zap"

	"github.com/alexmmd/pricewatch/internal/types"
)

// Page markers. Each selector identifies one terminal rendering of a search.
const (
	selSearchField       = "#search-field"
	selNoResults         = "#no-results"
	selWarehouseOnly     = "a.pill-style-warehouse-only"
	selSingleResultPrice = `[automation-id='itemPriceOutput_0']`
	selBundlePrice       = "#starting-bundle-price"
	selPrimaryPrice      = "#pull-right-price span.value"
)

// memberOnlyExpr checks for the members-only sub-marker once the primary price
// element exists.
const memberOnlyExpr = `document.querySelector("p.member-only[automation-id='memberOnly']") !== null`

// priceStableExpr waits for the primary price text to settle away from the
// placeholder glyphs the site renders while the real price loads.
const priceStableExpr = `(() => {
	const el = document.querySelector("#pull-right-price span.value");
	return !!el && el.textContent !== "- -.- -" && el.textContent !== "--";
})()`

// Resolver resolves item queries against the retail site.
type Resolver struct {
	siteURL string
	timeout time.Duration
	logger  *zap.Logger
}

// New creates a Resolver. timeout bounds one whole resolution, navigation
// included; every detector inherits it, so no wait can outlive the budget.
func New(siteURL string, timeout time.Duration, logger *zap.Logger) *Resolver {
	return &Resolver{siteURL: siteURL, timeout: timeout, logger: logger}
}

// Resolve opens a fresh tab on the batch's browser, submits the item query
// through the site's search input and races the page-state detectors. The tab
// is closed on every exit path. No catalog writes happen here.
func (r *Resolver) Resolve(browserCtx context.Context, query string) (types.PriceInfo, error) {
	tabCtx, closeTab := chromedp.NewContext(browserCtx)
	defer closeTab()

	tabCtx, cancel := context.WithTimeout(tabCtx, r.timeout)
	defer cancel()

	if err := chromedp.Run(tabCtx,
		chromedp.Navigate(r.siteURL),
		chromedp.WaitVisible(selSearchField, chromedp.ByQuery),
		chromedp.Click(selSearchField, chromedp.ByQuery),
		chromedp.SetValue(selSearchField, "", chromedp.ByQuery),
		chromedp.SendKeys(selSearchField, query+kb.Enter, chromedp.ByQuery),
	); err != nil {
		return types.PriceInfo{}, fmt.Errorf("search submit failed for %q: %w", query, err)
	}

	outcome, err := Race(tabCtx, r.detectors())
	if err != nil {
		return types.PriceInfo{}, fmt.Errorf("resolve %q: %w", query, err)
	}

	r.logger.Debug("page state resolved",
		zap.String("query", query),
		zap.String("marker", outcome.Label),
		zap.String("searchable", string(outcome.Info.Searchable)))
	return outcome.Info, nil
}

// detectors returns the five wait-conditions for the mutually exclusive page
// states a search can land in.
func (r *Resolver) detectors() []Detector {
	return []Detector{
		{Label: "no-results", Wait: markerOnly(selNoResults, types.SearchabilityNotFound)},
		{Label: "warehouse-only", Wait: markerOnly(selWarehouseOnly, types.SearchabilityWarehouseOnly)},
		{Label: "single-result", Wait: markerPrice(selSingleResultPrice, types.SearchabilitySingleResult)},
		{Label: "bundle-price", Wait: markerPrice(selBundlePrice, types.SearchabilityBundlePrice)},
		{Label: "primary-price", Wait: primaryPrice},
	}
}

// markerOnly waits for a marker that classifies the page without a price.
func markerOnly(sel string, s types.Searchability) func(context.Context) (types.PriceInfo, error) {
	return func(ctx context.Context) (types.PriceInfo, error) {
		if err := chromedp.Run(ctx, chromedp.WaitReady(sel, chromedp.ByQuery)); err != nil {
			return types.PriceInfo{}, err
		}
		return types.PriceInfo{Searchable: s}, nil
	}
}

// markerPrice waits for a marker and parses the price from its text.
func markerPrice(sel string, s types.Searchability) func(context.Context) (types.PriceInfo, error) {
	return func(ctx context.Context) (types.PriceInfo, error) {
		var text string
		if err := chromedp.Run(ctx,
			chromedp.WaitReady(sel, chromedp.ByQuery),
			chromedp.Text(sel, &text, chromedp.ByQuery),
		); err != nil {
			return types.PriceInfo{}, err
		}
		return types.PriceInfo{Price: ParsePrice(text), Searchable: s}, nil
	}
}

// primaryPrice handles the ordinary product page: members-only items expose
// the price element but gate its value, so the sub-marker is checked before
// waiting out the placeholder glyphs.
func primaryPrice(ctx context.Context) (types.PriceInfo, error) {
	if err := chromedp.Run(ctx, chromedp.WaitReady(selPrimaryPrice, chromedp.ByQuery)); err != nil {
		return types.PriceInfo{}, err
	}

	var memberOnly bool
	if err := chromedp.Run(ctx, chromedp.Evaluate(memberOnlyExpr, &memberOnly)); err != nil {
		return types.PriceInfo{}, err
	}
	if memberOnly {
		return types.PriceInfo{Searchable: types.SearchabilityMembersOnly}, nil
	}

	var text string
	if err := chromedp.Run(ctx,
		chromedp.Poll(priceStableExpr, nil),
		chromedp.Text(selPrimaryPrice, &text, chromedp.ByQuery),
	); err != nil {
		return types.PriceInfo{}, err
	}
	return types.PriceInfo{Price: ParsePrice(text), Searchable: types.SearchabilityFindable}, nil
}
