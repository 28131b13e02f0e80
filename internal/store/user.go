package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/choretally/internal/database"
	"github.com/dukerupert/choretally/internal/model"
)

type UserStore struct {
	db *database.DB
}

func NewUserStore(db *database.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	var sub sql.NullString
	err := scanner.Scan(&u.ID, &u.Email, &u.Name, &sub, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.GoogleSub = sub.String
	return &u, nil
}

const userCols = `id, email, name, google_sub, created_at, updated_at`

func (s *UserStore) Create(ctx context.Context, email, name string) (*model.User, error) {
	now := time.Now().UTC()
	id, err := s.db.ExecReturningID(ctx,
		`INSERT INTO users (email, name, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		email, name, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *UserStore) GetByID(ctx context.Context, id int64) (*model.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByGoogleSub(ctx context.Context, sub string) (*model.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE google_sub = ?`, sub)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by google sub: %w", err)
	}
	return u, nil
}

// LinkGoogleSub records the Google subject for a user who signed in with Google.
func (s *UserStore) LinkGoogleSub(ctx context.Context, id int64, sub string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET google_sub = ?, updated_at = ? WHERE id = ?`,
		sub, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("link google sub: %w", err)
	}
	return nil
}

func (s *UserStore) UpdateName(ctx context.Context, id int64, name string) (*model.User, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET name = ?, updated_at = ? WHERE id = ?`,
		name, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update user name: %w", err)
	}
	return s.GetByID(ctx, id)
}
