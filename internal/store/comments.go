package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Comment struct {
	ID          string    `json:"id"`
	RecipeTitle string    `json:"recipeTitle"`
	AuthorEmail string    `json:"authorEmail"`
	Rating      *float64  `json:"rating"`
	Body        string    `json:"comment"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Comments interface {
	Add(ctx context.Context, c *Comment) error
	ForRecipe(ctx context.Context, recipeTitle string) ([]Comment, error)
}

type PgComments struct {
	pool *pgxpool.Pool
}

func NewComments(pool *pgxpool.Pool) *PgComments {
	return &PgComments{pool: pool}
}

func (s *PgComments) Add(ctx context.Context, c *Comment) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO comments (recipe_title, author_email, rating, body)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, c.RecipeTitle, c.AuthorEmail, c.Rating, c.Body).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

func (s *PgComments) ForRecipe(ctx context.Context, recipeTitle string) ([]Comment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, recipe_title, author_email, rating, body, created_at
		FROM comments
		WHERE recipe_title = $1
		ORDER BY created_at DESC
	`, recipeTitle)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	out := []Comment{}
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.RecipeTitle, &c.AuthorEmail, &c.Rating, &c.Body, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
