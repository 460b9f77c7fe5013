package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// User is an account row. Password carries the bcrypt hash and is never
// serialized.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	AboutMe   string    `json:"aboutMe"`
	AvatarURL *string   `json:"profilePicUrl"`
	CreatedAt time.Time `json:"-"`
}

// ProfileUpdate carries the fields of a profile edit. Nil means "leave the
// column alone"; a pointer to the empty string clears it (the bio can be
// blanked on purpose).
type ProfileUpdate struct {
	Name      *string
	Email     *string
	AboutMe   *string
	AvatarURL *string
}

// Users is the credential store adapter: every read/write of account rows
// goes through it, so handlers never see the database directly.
type Users interface {
	Create(ctx context.Context, name, email, passwordHash string) (*User, error)
	ByEmail(ctx context.Context, email string) (*User, error)
	ByID(ctx context.Context, id string) (*User, error)
	UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) (*User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	Delete(ctx context.Context, id string) error
}

type PgUsers struct {
	pool *pgxpool.Pool
}

func NewUsers(pool *pgxpool.Pool) *PgUsers {
	return &PgUsers{pool: pool}
}

func (s *PgUsers) Create(ctx context.Context, name, email, passwordHash string) (*User, error) {
	u := &User{Name: name, Email: email, Password: passwordHash}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO users (name, email, password)
		VALUES ($1, $2, $3)
		RETURNING id, about_me, avatar_url, created_at
	`, name, email, passwordHash).Scan(&u.ID, &u.AboutMe, &u.AvatarURL, &u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (s *PgUsers) ByEmail(ctx context.Context, email string) (*User, error) {
	return s.scanOne(s.pool.QueryRow(ctx, `
		SELECT id, name, email, password, about_me, avatar_url, created_at
		FROM users WHERE email = $1
	`, email))
}

func (s *PgUsers) ByID(ctx context.Context, id string) (*User, error) {
	return s.scanOne(s.pool.QueryRow(ctx, `
		SELECT id, name, email, password, about_me, avatar_url, created_at
		FROM users WHERE id = $1
	`, id))
}

func (s *PgUsers) scanOne(row pgx.Row) (*User, error) {
	u := &User{}
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.AboutMe, &u.AvatarURL, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	return u, nil
}

func (s *PgUsers) UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) (*User, error) {
	u := &User{}
	err := s.pool.QueryRow(ctx, `
		UPDATE users
		SET name       = COALESCE($1, name),
		    email      = COALESCE($2, email),
		    about_me   = COALESCE($3, about_me),
		    avatar_url = COALESCE($4, avatar_url),
		    updated_at = NOW()
		WHERE id = $5
		RETURNING id, name, email, password, about_me, avatar_url, created_at
	`, upd.Name, upd.Email, upd.AboutMe, upd.AvatarURL, id).
		Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.AboutMe, &u.AvatarURL, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return u, nil
}

func (s *PgUsers) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	ct, err := s.pool.Exec(ctx, `
		UPDATE users SET password = $1, updated_at = NOW() WHERE id = $2
	`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the account and its per-user data. Recipes and comments the
// user authored stay; favorites and meal plans are meaningless without the
// account and go with it.
func (s *PgUsers) Delete(ctx context.Context, id string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback(ctx)

	var email string
	err = tx.QueryRow(ctx, `DELETE FROM users WHERE id = $1 RETURNING email`, id).Scan(&email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("delete user: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM favorites WHERE user_email = $1`, email); err != nil {
		return fmt.Errorf("delete favorites: %w", err)
	}
	// meal_plans rows drop via ON DELETE CASCADE.

	return tx.Commit(ctx)
}
