// Package notify fans out price-drop events: an immediate webhook alert plus
// accumulation of per-member notifications for the daily digest. Delivery to
// the member (push, SMS) is a downstream collaborator's job.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/alexmmd/pricewatch/internal/types"
)

// Store is the persistence the notifier needs.
type Store interface {
	GetProfile(ctx context.Context, itemID string) (*types.CatalogItem, error)
	Subscriptions(ctx context.Context, itemID string) ([]types.Subscription, error)
	AppendNotifications(ctx context.Context, dayID string, notes []types.Notification) error
	Notifications(ctx context.Context, dayID string) ([]types.Notification, error)
}

// alertPayload is the body POSTed to the price-drop webhook.
type alertPayload struct {
	GoodID   int     `json:"good_id"`
	GoodName string  `json:"good_name"`
	Price    float64 `json:"price"`
	NonceStr string  `json:"nonce_str"`
}

// Notifier reacts to price drops. There is no exactly-once guarantee: a
// retried invocation may alert twice.
type Notifier struct {
	store      Store
	client     *http.Client
	webhookURL string
	nonce      string
	logger     *zap.Logger
	now        func() time.Time
}

// New creates a Notifier. An empty webhookURL disables the webhook alert but
// keeps digest accumulation.
func New(store Store, webhookURL, nonce string, logger *zap.Logger) *Notifier {
	return &Notifier{
		store:      store,
		client:     &http.Client{Timeout: 10 * time.Second},
		webhookURL: webhookURL,
		nonce:      nonce,
		logger:     logger,
		now:        time.Now,
	}
}

// PriceDropped fires the webhook alert and queues notifications for every
// subscriber whose purchase price exceeds the new price. Partial failures are
// joined and returned for logging; the caller must not treat them as fatal.
func (n *Notifier) PriceDropped(ctx context.Context, itemID string, newPrice float64) error {
	item, err := n.store.GetProfile(ctx, itemID)
	if err != nil {
		return fmt.Errorf("price drop %s: %w", itemID, err)
	}
	name := ""
	if item != nil {
		name = item.Name
	}

	var errs []error
	if n.webhookURL != "" {
		if err := n.postAlert(ctx, itemID, name, newPrice); err != nil {
			errs = append(errs, err)
		} else {
			n.logger.Info("price drop alert sent",
				zap.String("item_id", itemID), zap.Float64("new_price", newPrice))
		}
	}

	if err := n.queueNotifications(ctx, itemID, newPrice); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (n *Notifier) postAlert(ctx context.Context, itemID, name string, newPrice float64) error {
	goodID, _ := strconv.Atoi(itemID)
	body, err := json.Marshal(alertPayload{
		GoodID:   goodID,
		GoodName: name,
		Price:    newPrice,
		NonceStr: n.nonce,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal alert for %s: %w", itemID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build alert request for %s: %w", itemID, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send alert for %s: %w", itemID, err)
	}
	defer resp.Body.Close() //nolint:errcheck // nothing useful to do with close errors

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("alert webhook for %s returned %s", itemID, resp.Status)
	}
	return nil
}

// queueNotifications appends a notification for every subscription that paid
// more than the new price to today's digest document.
func (n *Notifier) queueNotifications(ctx context.Context, itemID string, newPrice float64) error {
	subs, err := n.store.Subscriptions(ctx, itemID)
	if err != nil {
		return fmt.Errorf("failed to load subscriptions for %s: %w", itemID, err)
	}

	var notes []types.Notification
	for _, sub := range subs {
		paid, err := strconv.ParseFloat(sub.Price, 64)
		if err != nil {
			continue
		}
		if paid > newPrice {
			notes = append(notes, types.Notification{Subscription: sub, NewPrice: newPrice})
		}
	}
	if len(notes) == 0 {
		return nil
	}

	dayID := types.DayID(n.now())
	if err := n.store.AppendNotifications(ctx, dayID, notes); err != nil {
		return fmt.Errorf("failed to queue notifications for %s: %w", itemID, err)
	}
	n.logger.Info("notifications queued",
		zap.String("item_id", itemID), zap.Int("count", len(notes)))
	return nil
}

// MemberDigest is one member's rendered daily message.
type MemberDigest struct {
	MemberID string
	Body     string
}

// Digest groups the day's notifications by member and renders one message per
// member, ordered by member id. The delivery pipeline consumes these.
func (n *Notifier) Digest(ctx context.Context, date time.Time) ([]MemberDigest, error) {
	dayID := types.DayID(date)
	notes, err := n.store.Notifications(ctx, dayID)
	if err != nil {
		return nil, fmt.Errorf("digest %s: %w", dayID, err)
	}
	if len(notes) == 0 {
		return nil, nil
	}

	grouped := make(map[string][]types.Notification)
	for _, note := range notes {
		grouped[note.MemberID] = append(grouped[note.MemberID], note)
	}

	memberIDs := make([]string, 0, len(grouped))
	for memberID := range grouped {
		memberIDs = append(memberIDs, memberID)
	}
	sort.Strings(memberIDs)

	digests := make([]MemberDigest, 0, len(memberIDs))
	for _, memberID := range memberIDs {
		var sb strings.Builder
		sb.WriteString("Price changes for purchased items:")
		for _, note := range grouped[memberID] {
			fmt.Fprintf(&sb, "\n%s bought %s at %s, now %.2f",
				note.Name, note.TradeDatetime, note.Price, note.NewPrice)
		}
		digests = append(digests, MemberDigest{MemberID: memberID, Body: sb.String()})
	}
	return digests, nil
}
