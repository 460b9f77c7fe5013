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

type Recipe struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	WhyLove     string          `json:"whyLove"`
	Image       string          `json:"image"`
	Images      []string        `json:"images"`
	ExtraImages []string        `json:"extraImages"`
	Ingredients json.RawMessage `json:"ingredients"`
	Steps       json.RawMessage `json:"steps"`
	OwnerEmail  string          `json:"ownerEmail"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// RecipeUpdate mirrors ProfileUpdate: nil leaves a column as is. Images are
// only replaced when at least one new file was uploaded.
type RecipeUpdate struct {
	Title       string
	Description string
	Category    string
	WhyLove     string
	Ingredients json.RawMessage
	Steps       json.RawMessage
	Images      []string
}

type Recipes interface {
	List(ctx context.Context) ([]Recipe, error)
	ByTitle(ctx context.Context, title string) (*Recipe, error)
	Create(ctx context.Context, r *Recipe) error
	Update(ctx context.Context, title string, upd RecipeUpdate) error
	Delete(ctx context.Context, title string) error
}

type PgRecipes struct {
	pool *pgxpool.Pool
}

func NewRecipes(pool *pgxpool.Pool) *PgRecipes {
	return &PgRecipes{pool: pool}
}

const recipeColumns = `id, title, description, category, why_love, image, images, ingredients, steps, owner_email, created_at`

func (s *PgRecipes) List(ctx context.Context) ([]Recipe, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+recipeColumns+` FROM recipes ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	defer rows.Close()
	return scanRecipes(rows)
}

func (s *PgRecipes) ByTitle(ctx context.Context, title string) (*Recipe, error) {
	r, err := scanRecipe(s.pool.QueryRow(ctx, `SELECT `+recipeColumns+` FROM recipes WHERE title = $1`, title))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select recipe: %w", err)
	}
	return r, nil
}

func (s *PgRecipes) Create(ctx context.Context, r *Recipe) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO recipes (title, description, category, why_love, image, images, ingredients, steps, owner_email)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`, r.Title, r.Description, r.Category, r.WhyLove, r.Image, r.Images, r.Ingredients, r.Steps, r.OwnerEmail).
		Scan(&r.ID, &r.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert recipe: %w", err)
	}
	r.ExtraImages = tail(r.Images)
	return nil
}

func (s *PgRecipes) Update(ctx context.Context, title string, upd RecipeUpdate) error {
	var firstImage *string
	var images []string
	if len(upd.Images) > 0 {
		firstImage = &upd.Images[0]
		images = upd.Images
	}
	ct, err := s.pool.Exec(ctx, `
		UPDATE recipes
		SET title       = $1,
		    description = $2,
		    category    = $3,
		    why_love    = $4,
		    ingredients = $5,
		    steps       = $6,
		    image       = COALESCE($7, image),
		    images      = COALESCE($8, images),
		    updated_at  = NOW()
		WHERE title = $9
	`, upd.Title, upd.Description, upd.Category, upd.WhyLove, upd.Ingredients, upd.Steps,
		firstImage, images, title)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("update recipe: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PgRecipes) Delete(ctx context.Context, title string) error {
	ct, err := s.pool.Exec(ctx, `DELETE FROM recipes WHERE title = $1`, title)
	if err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanRecipe(row pgx.Row) (*Recipe, error) {
	r := &Recipe{}
	err := row.Scan(&r.ID, &r.Title, &r.Description, &r.Category, &r.WhyLove,
		&r.Image, &r.Images, &r.Ingredients, &r.Steps, &r.OwnerEmail, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	r.normalize()
	return r, nil
}

func scanRecipes(rows pgx.Rows) ([]Recipe, error) {
	out := []Recipe{}
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recipe: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// normalize keeps the wire shape the frontend expects: images never null,
// extraImages always the tail of images.
func (r *Recipe) normalize() {
	if r.Images == nil {
		r.Images = []string{}
	}
	r.ExtraImages = tail(r.Images)
}

func tail(images []string) []string {
	if len(images) > 1 {
		return images[1:]
	}
	return []string{}
}
