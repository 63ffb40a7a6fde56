package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/alexmmd/pricewatch/internal/types"
)

// AddSubscription records one member's purchase of an item.
func (s *Store) AddSubscription(ctx context.Context, sub types.Subscription) error {
	if _, err := s.pool.Exec(ctx,
		`INSERT INTO subscriptions (id, item_id, member_id, receipt_id, name, price, trade_datetime)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.New(), sub.ItemID, sub.MemberID, sub.ReceiptID, sub.Name, sub.Price, sub.TradeDatetime,
	); err != nil {
		return fmt.Errorf("failed to add subscription for %s: %w", sub.ItemID, err)
	}
	return nil
}

// Subscriptions returns every subscription for an item.
func (s *Store) Subscriptions(ctx context.Context, itemID string) ([]types.Subscription, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT item_id, member_id, receipt_id, name, price, trade_datetime
		 FROM subscriptions WHERE item_id = $1 ORDER BY trade_datetime`,
		itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions for %s: %w", itemID, err)
	}
	defer rows.Close()

	var subs []types.Subscription
	for rows.Next() {
		var sub types.Subscription
		if err := rows.Scan(&sub.ItemID, &sub.MemberID, &sub.ReceiptID, &sub.Name, &sub.Price, &sub.TradeDatetime); err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// AppendNotifications appends to the day's notification document, creating it
// on first use.
func (s *Store) AppendNotifications(ctx context.Context, dayID string, notes []types.Notification) error {
	if len(notes) == 0 {
		return nil
	}
	value, err := json.Marshal(notes)
	if err != nil {
		return fmt.Errorf("failed to marshal notifications: %w", err)
	}
	if _, err := s.pool.Exec(ctx,
		`INSERT INTO daily_notifications (day_id, notifications) VALUES ($1, $2)
		 ON CONFLICT (day_id) DO UPDATE
		 SET notifications = daily_notifications.notifications || EXCLUDED.notifications`,
		dayID, value,
	); err != nil {
		return fmt.Errorf("failed to append notifications for %s: %w", dayID, err)
	}
	return nil
}

// Notifications returns the day's accumulated notifications, or nil when none
// were recorded.
func (s *Store) Notifications(ctx context.Context, dayID string) ([]types.Notification, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT notifications FROM daily_notifications WHERE day_id = $1`, dayID,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get notifications for %s: %w", dayID, err)
	}

	var notes []types.Notification
	if err := json.Unmarshal(raw, &notes); err != nil {
		return nil, fmt.Errorf("failed to parse notifications for %s: %w", dayID, err)
	}
	return notes, nil
}
