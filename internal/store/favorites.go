package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Favorites interface {
	Add(ctx context.Context, userEmail, recipeTitle string) error
	Remove(ctx context.Context, userEmail, recipeTitle string) error
	Recipes(ctx context.Context, userEmail string) ([]Recipe, error)
}

type PgFavorites struct {
	pool *pgxpool.Pool
}

func NewFavorites(pool *pgxpool.Pool) *PgFavorites {
	return &PgFavorites{pool: pool}
}

// Add is an idempotent upsert: favoriting twice is not an error.
func (s *PgFavorites) Add(ctx context.Context, userEmail, recipeTitle string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO favorites (user_email, recipe_title)
		VALUES ($1, $2)
		ON CONFLICT (user_email, recipe_title) DO NOTHING
	`, userEmail, recipeTitle)
	if err != nil {
		return fmt.Errorf("insert favorite: %w", err)
	}
	return nil
}

func (s *PgFavorites) Remove(ctx context.Context, userEmail, recipeTitle string) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM favorites WHERE user_email = $1 AND recipe_title = $2
	`, userEmail, recipeTitle)
	if err != nil {
		return fmt.Errorf("delete favorite: %w", err)
	}
	return nil
}

// Recipes returns the full recipe documents for a user's favorites, newest
// favorite first. Favorites whose recipe was deleted silently drop out of
// the join.
func (s *PgFavorites) Recipes(ctx context.Context, userEmail string) ([]Recipe, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT r.id, r.title, r.description, r.category, r.why_love, r.image,
		       r.images, r.ingredients, r.steps, r.owner_email, r.created_at
		FROM favorites f
		JOIN recipes r ON r.title = f.recipe_title
		WHERE f.user_email = $1
		ORDER BY f.created_at DESC
	`, userEmail)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()
	return scanRecipes(rows)
}
