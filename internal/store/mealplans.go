package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MealPlans interface {
	Get(ctx context.Context, userID string, weekStart time.Time) (json.RawMessage, error)
	Upsert(ctx context.Context, userID string, weekStart time.Time, meals json.RawMessage) (modified, upserted int64, err error)
}

type PgMealPlans struct {
	pool *pgxpool.Pool
}

func NewMealPlans(pool *pgxpool.Pool) *PgMealPlans {
	return &PgMealPlans{pool: pool}
}

func (s *PgMealPlans) Get(ctx context.Context, userID string, weekStart time.Time) (json.RawMessage, error) {
	var meals json.RawMessage
	err := s.pool.QueryRow(ctx, `
		SELECT meals FROM meal_plans WHERE user_id = $1 AND week_start = $2
	`, userID, weekStart).Scan(&meals)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select meal plan: %w", err)
	}
	return meals, nil
}

// Upsert writes the plan for one week and reports whether a row was updated
// or newly inserted, matching the counters the frontend already consumes.
func (s *PgMealPlans) Upsert(ctx context.Context, userID string, weekStart time.Time, meals json.RawMessage) (int64, int64, error) {
	var inserted bool
	err := s.pool.QueryRow(ctx, `
		INSERT INTO meal_plans (user_id, week_start, meals)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, week_start)
		DO UPDATE SET meals = EXCLUDED.meals, updated_at = NOW()
		RETURNING (xmax = 0)
	`, userID, weekStart, meals).Scan(&inserted)
	if err != nil {
		return 0, 0, fmt.Errorf("upsert meal plan: %w", err)
	}
	if inserted {
		return 0, 1, nil
	}
	return 1, 0, nil
}
