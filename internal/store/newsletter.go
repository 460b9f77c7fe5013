package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Newsletter interface {
	Subscribe(ctx context.Context, email string) error
	Subscribers(ctx context.Context) ([]string, error)
}

type PgNewsletter struct {
	pool *pgxpool.Pool
}

func NewNewsletter(pool *pgxpool.Pool) *PgNewsletter {
	return &PgNewsletter{pool: pool}
}

func (s *PgNewsletter) Subscribe(ctx context.Context, email string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO newsletter_subscribers (email) VALUES ($1)
	`, email)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert subscriber: %w", err)
	}
	return nil
}

func (s *PgNewsletter) Subscribers(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT email FROM newsletter_subscribers ORDER BY subscribed_at`)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("scan subscriber: %w", err)
		}
		out = append(out, email)
	}
	return out, rows.Err()
}
