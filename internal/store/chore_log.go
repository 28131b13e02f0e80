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

type ChoreLogStore struct {
	db *database.DB
}

func NewChoreLogStore(db *database.DB) *ChoreLogStore {
	return &ChoreLogStore{db: db}
}

func scanChoreLog(scanner interface{ Scan(...any) error }) (*model.ChoreLog, error) {
	var l model.ChoreLog
	var usedTimer sql.NullBool
	err := scanner.Scan(&l.ID, &l.ChoreID, &l.UserID, &l.GroupID, &usedTimer, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	if usedTimer.Valid {
		l.UsedTimer = &usedTimer.Bool
	}
	return &l, nil
}

const choreLogCols = `id, chore_id, user_id, group_id, used_timer, created_at`

func insertChoreLog(ctx context.Context, q database.Querier, choreID, userID, groupID int64, usedTimer *bool, now time.Time) (int64, error) {
	var ut sql.NullBool
	if usedTimer != nil {
		ut = sql.NullBool{Bool: *usedTimer, Valid: true}
	}
	id, err := q.ExecReturningID(ctx,
		`INSERT INTO chore_logs (chore_id, user_id, group_id, used_timer, created_at) VALUES (?, ?, ?, ?, ?)`,
		choreID, userID, groupID, ut, now,
	)
	if err != nil {
		return 0, fmt.Errorf("insert chore log: %w", err)
	}
	return id, nil
}

func (s *ChoreLogStore) Create(ctx context.Context, choreID, userID, groupID int64) (*model.ChoreLog, error) {
	id, err := insertChoreLog(ctx, s.db, choreID, userID, groupID, nil, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

func (s *ChoreLogStore) GetByID(ctx context.Context, id int64) (*model.ChoreLog, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+choreLogCols+` FROM chore_logs WHERE id = ?`, id)
	l, err := scanChoreLog(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chore log: %w", err)
	}
	return l, nil
}

func (s *ChoreLogStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM chore_logs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete chore log: %w", err)
	}
	return nil
}

const logEntryQuery = `SELECT l.id, l.chore_id, c.name, c.points, c.freeform, l.user_id, u.name, u.email, l.used_timer, l.created_at
	FROM chore_logs l
	JOIN chores c ON c.id = l.chore_id
	JOIN users u ON u.id = l.user_id
	WHERE l.group_id = ?
	ORDER BY l.created_at DESC, l.id DESC`

// ListRecent returns up to limit logs for a group, newest first. A limit of
// zero or less returns every log. Logs whose chore was deleted are skipped.
func (s *ChoreLogStore) ListRecent(ctx context.Context, groupID int64, limit int) ([]model.LogEntry, error) {
	query := logEntryQuery
	args := []any{groupID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list recent logs: %w", err)
	}
	defer rows.Close()

	var entries []model.LogEntry
	for rows.Next() {
		var e model.LogEntry
		var userName, email string
		var usedTimer sql.NullBool
		err := rows.Scan(
			&e.ID, &e.ChoreID, &e.ChoreName, &e.ChorePoints, &e.Freeform,
			&e.UserID, &userName, &email, &usedTimer, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan log entry: %w", err)
		}
		e.ChoreName = chore.DisplayName(e.ChoreName, e.Freeform)
		e.UserDisplayName = model.DisplayName(userName, email)
		if usedTimer.Valid {
			e.UsedTimer = &usedTimer.Bool
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ListPoints returns the user, point value and time of every log in a group
// whose chore still exists. A non-zero since or until bounds created_at
// inclusively.
func (s *ChoreLogStore) ListPoints(ctx context.Context, groupID int64, since, until time.Time) ([]model.PointsLog, error) {
	query := `SELECT l.user_id, c.points, l.created_at
		 FROM chore_logs l
		 JOIN chores c ON c.id = l.chore_id
		 WHERE l.group_id = ?`
	args := []any{groupID}
	// Stored times are UTC; bounds must match for SQLite's text comparison.
	if !since.IsZero() {
		query += ` AND l.created_at >= ?`
		args = append(args, since.UTC())
	}
	if !until.IsZero() {
		query += ` AND l.created_at <= ?`
		args = append(args, until.UTC())
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list points: %w", err)
	}
	defer rows.Close()

	var logs []model.PointsLog
	for rows.Next() {
		var p model.PointsLog
		if err := rows.Scan(&p.UserID, &p.Points, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan points log: %w", err)
		}
		logs = append(logs, p)
	}
	return logs, rows.Err()
}
