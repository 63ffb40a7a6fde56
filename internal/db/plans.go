package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/alexmmd/pricewatch/internal/types"
)

// SavePlan writes the work list for one date, replacing any pre-existing plan
// for that date and list. Replacement resets the done list: a rebuilt plan
// starts the day over.
func (s *Store) SavePlan(ctx context.Context, planID, list string, todos []types.WorkItem) error {
	if todos == nil {
		todos = []types.WorkItem{}
	}
	value, err := json.Marshal(todos)
	if err != nil {
		return fmt.Errorf("failed to marshal todos: %w", err)
	}
	if _, err := s.pool.Exec(ctx,
		`INSERT INTO plans (plan_id, list, todos, done) VALUES ($1, $2, $3, '[]')
		 ON CONFLICT (plan_id, list) DO UPDATE SET todos = EXCLUDED.todos, done = '[]', created_at = NOW()`,
		planID, list, value,
	); err != nil {
		return fmt.Errorf("failed to save plan %s/%s: %w", planID, list, err)
	}
	return nil
}

// GetPlan reads the plan for a date and list. Returns (nil, nil) when no plan
// exists for that date.
func (s *Store) GetPlan(ctx context.Context, planID, list string) (*types.DailyPlan, error) {
	var todosRaw, doneRaw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT todos, done FROM plans WHERE plan_id = $1 AND list = $2`,
		planID, list,
	).Scan(&todosRaw, &doneRaw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get plan %s/%s: %w", planID, list, err)
	}

	plan := &types.DailyPlan{PlanID: planID}
	if err := json.Unmarshal(todosRaw, &plan.Todos); err != nil {
		return nil, fmt.Errorf("failed to parse todos for %s/%s: %w", planID, list, err)
	}
	if err := json.Unmarshal(doneRaw, &plan.Done); err != nil {
		return nil, fmt.Errorf("failed to parse done for %s/%s: %w", planID, list, err)
	}
	return plan, nil
}

// AppendDone appends results to a plan's done list. The read-modify-write runs
// in one transaction with the plan row locked, so concurrent invocations
// cannot drop each other's entries. Entries are not deduplicated: recording
// the same result twice appends it twice.
func (s *Store) AppendDone(ctx context.Context, planID, list string, results []types.ScrapeResult) error {
	if len(results) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	var doneRaw []byte
	err = tx.QueryRow(ctx,
		`SELECT done FROM plans WHERE plan_id = $1 AND list = $2 FOR UPDATE`,
		planID, list,
	).Scan(&doneRaw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("no plan exists for %s/%s", planID, list)
		}
		return fmt.Errorf("failed to read done list for %s/%s: %w", planID, list, err)
	}

	var done []types.ScrapeResult
	if err := json.Unmarshal(doneRaw, &done); err != nil {
		return fmt.Errorf("failed to parse done list for %s/%s: %w", planID, list, err)
	}
	done = append(done, results...)

	value, err := json.Marshal(done)
	if err != nil {
		return fmt.Errorf("failed to marshal done list: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE plans SET done = $3 WHERE plan_id = $1 AND list = $2`,
		planID, list, value,
	); err != nil {
		return fmt.Errorf("failed to update done list for %s/%s: %w", planID, list, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit done list for %s/%s: %w", planID, list, err)
	}
	return nil
}
