package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/choretally/internal/chore"
	"github.com/dukerupert/choretally/internal/database"
	"github.com/dukerupert/choretally/internal/model"
)

// ChoreOrder selects the sort applied by ChoreStore.ListByGroup.
type ChoreOrder int

const (
	// OrderByName sorts alphabetically by stored name.
	OrderByName ChoreOrder = iota
	// OrderByPopularity sorts by log count, highest first, then by name.
	OrderByPopularity
)

type ListChoresOptions struct {
	ExcludeFreeform bool
	Order           ChoreOrder
}

type ChoreStore struct {
	db *database.DB
}

func NewChoreStore(db *database.DB) *ChoreStore {
	return &ChoreStore{db: db}
}

func scanChore(scanner interface{ Scan(...any) error }) (*model.Chore, error) {
	var c model.Chore
	err := scanner.Scan(
		&c.ID, &c.GroupID, &c.Name, &c.Points, &c.Description, &c.Freeform,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.DisplayName = chore.DisplayName(c.Name, c.Freeform)
	return &c, nil
}

const choreCols = `id, group_id, name, points, description, freeform, created_at, updated_at`

func (s *ChoreStore) Create(ctx context.Context, groupID int64, name string, points int, description string) (*model.Chore, error) {
	id, err := insertChore(ctx, s.db, groupID, name, points, description, false, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

func insertChore(ctx context.Context, q database.Querier, groupID int64, name string, points int, description string, freeform bool, now time.Time) (int64, error) {
	id, err := q.ExecReturningID(ctx,
		`INSERT INTO chores (group_id, name, points, description, freeform, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		groupID, name, points, description, freeform, now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("insert chore: %w", err)
	}
	return id, nil
}

// CreateFreeformWithLog stores a freeform chore and its log in one
// transaction and returns both.
func (s *ChoreStore) CreateFreeformWithLog(ctx context.Context, groupID, userID int64, storedName string, minutes int, description string, usedTimer bool) (*model.Chore, *model.ChoreLog, error) {
	now := time.Now().UTC()
	var choreID, logID int64
	err := s.db.WithTx(ctx, func(q database.Querier) error {
		var err error
		choreID, err = insertChore(ctx, q, groupID, storedName, minutes, description, true, now)
		if err != nil {
			return err
		}
		logID, err = insertChoreLog(ctx, q, choreID, userID, groupID, &usedTimer, now)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	c, err := s.GetByID(ctx, choreID)
	if err != nil {
		return nil, nil, err
	}
	l := &model.ChoreLog{
		ID: logID, ChoreID: choreID, UserID: userID, GroupID: groupID,
		UsedTimer: &usedTimer, CreatedAt: now,
	}
	return c, l, nil
}

func (s *ChoreStore) GetByID(ctx context.Context, id int64) (*model.Chore, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+choreCols+` FROM chores WHERE id = ?`, id)
	c, err := scanChore(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chore: %w", err)
	}
	return c, nil
}

func (s *ChoreStore) GetByGroupAndName(ctx context.Context, groupID int64, name string) (*model.Chore, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+choreCols+` FROM chores WHERE group_id = ? AND name = ?`,
		groupID, name,
	)
	c, err := scanChore(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chore by name: %w", err)
	}
	return c, nil
}

func (s *ChoreStore) ListByGroup(ctx context.Context, groupID int64, opts ListChoresOptions) ([]model.Chore, error) {
	where := `c.group_id = ?`
	args := []any{groupID}
	if opts.ExcludeFreeform {
		where += ` AND c.freeform = ?`
		args = append(args, false)
	}

	var query string
	switch opts.Order {
	case OrderByPopularity:
		query = `SELECT c.id, c.group_id, c.name, c.points, c.description, c.freeform, c.created_at, c.updated_at
			FROM chores c
			LEFT JOIN chore_logs l ON l.chore_id = c.id
			WHERE ` + where + `
			GROUP BY c.id, c.group_id, c.name, c.points, c.description, c.freeform, c.created_at, c.updated_at
			ORDER BY COUNT(l.id) DESC, c.name ASC`
	default:
		query = `SELECT c.id, c.group_id, c.name, c.points, c.description, c.freeform, c.created_at, c.updated_at
			FROM chores c
			WHERE ` + where + `
			ORDER BY c.name ASC`
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list chores: %w", err)
	}
	defer rows.Close()

	var chores []model.Chore
	for rows.Next() {
		c, err := scanChore(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chore: %w", err)
		}
		chores = append(chores, *c)
	}
	return chores, rows.Err()
}

func (s *ChoreStore) Update(ctx context.Context, id int64, name string, points int, description string) (*model.Chore, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE chores SET name = ?, points = ?, description = ?, updated_at = ? WHERE id = ?`,
		name, points, description, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update chore: %w", err)
	}
	return s.GetByID(ctx, id)
}

// Delete removes a chore. Logs that reference it are left in place.
func (s *ChoreStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM chores WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete chore: %w", err)
	}
	return nil
}
