package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/choretally/internal/database"
	"github.com/dukerupert/choretally/internal/model"
)

type GroupStore struct {
	db *database.DB
}

func NewGroupStore(db *database.DB) *GroupStore {
	return &GroupStore{db: db}
}

func scanGroup(scanner interface{ Scan(...any) error }) (*model.Group, error) {
	var g model.Group
	var createdBy sql.NullInt64
	err := scanner.Scan(&g.ID, &g.Name, &g.SharingCode, &g.Agreement, &createdBy, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if createdBy.Valid {
		g.CreatedBy = &createdBy.Int64
	}
	return &g, nil
}

const groupCols = `id, name, sharing_code, agreement, created_by, created_at, updated_at`

// NewSharingCode returns a fresh opaque invite code.
func NewSharingCode() string {
	return uuid.NewString()
}

// Create inserts a group and its creator's membership in one transaction.
func (s *GroupStore) Create(ctx context.Context, creatorID int64, name string) (*model.Group, error) {
	now := time.Now().UTC()
	var id int64
	err := s.db.WithTx(ctx, func(q database.Querier) error {
		var err error
		id, err = q.ExecReturningID(ctx,
			`INSERT INTO chore_groups (name, sharing_code, agreement, created_by, created_at, updated_at) VALUES (?, ?, '', ?, ?, ?)`,
			name, NewSharingCode(), creatorID, now, now,
		)
		if err != nil {
			return fmt.Errorf("insert group: %w", err)
		}
		_, err = q.ExecReturningID(ctx,
			`INSERT INTO group_members (group_id, user_id, joined_at) VALUES (?, ?, ?)`,
			id, creatorID, now,
		)
		if err != nil {
			return fmt.Errorf("insert creator membership: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

func (s *GroupStore) GetByID(ctx context.Context, id int64) (*model.Group, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+groupCols+` FROM chore_groups WHERE id = ?`, id)
	g, err := scanGroup(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get group: %w", err)
	}
	return g, nil
}

func (s *GroupStore) GetBySharingCode(ctx context.Context, code string) (*model.Group, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+groupCols+` FROM chore_groups WHERE sharing_code = ?`, code)
	g, err := scanGroup(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get group by sharing code: %w", err)
	}
	return g, nil
}

func (s *GroupStore) UpdateName(ctx context.Context, id int64, name string) (*model.Group, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE chore_groups SET name = ?, updated_at = ? WHERE id = ?`,
		name, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update group name: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *GroupStore) UpdateAgreement(ctx context.Context, id int64, agreement string) (*model.Group, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE chore_groups SET agreement = ?, updated_at = ? WHERE id = ?`,
		agreement, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update group agreement: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *GroupStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chore_groups`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count groups: %w", err)
	}
	return n, nil
}

// --- Membership methods ---

// AddMember inserts a membership. A duplicate (group, user) pair fails with a
// unique violation; see database.IsUniqueViolation.
func (s *GroupStore) AddMember(ctx context.Context, groupID, userID int64) (*model.Membership, error) {
	now := time.Now().UTC()
	id, err := s.db.ExecReturningID(ctx,
		`INSERT INTO group_members (group_id, user_id, joined_at) VALUES (?, ?, ?)`,
		groupID, userID, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert membership: %w", err)
	}
	return &model.Membership{ID: id, GroupID: groupID, UserID: userID, JoinedAt: now}, nil
}

func (s *GroupStore) GetMembership(ctx context.Context, groupID, userID int64) (*model.Membership, error) {
	var m model.Membership
	err := s.db.QueryRowContext(ctx,
		`SELECT id, group_id, user_id, joined_at FROM group_members WHERE group_id = ? AND user_id = ?`,
		groupID, userID,
	).Scan(&m.ID, &m.GroupID, &m.UserID, &m.JoinedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get membership: %w", err)
	}
	return &m, nil
}

func (s *GroupStore) IsMember(ctx context.Context, groupID, userID int64) (bool, error) {
	m, err := s.GetMembership(ctx, groupID, userID)
	if err != nil {
		return false, err
	}
	return m != nil, nil
}

// ListMembers returns a group's members in the order they joined.
func (s *GroupStore) ListMembers(ctx context.Context, groupID int64) ([]model.Member, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT gm.id, u.id, u.email, u.name, gm.joined_at
		 FROM group_members gm
		 JOIN users u ON u.id = gm.user_id
		 WHERE gm.group_id = ?
		 ORDER BY gm.joined_at ASC, gm.id ASC`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []model.Member
	for rows.Next() {
		var m model.Member
		if err := rows.Scan(&m.MembershipID, &m.UserID, &m.Email, &m.Name, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		m.DisplayName = model.DisplayName(m.Name, m.Email)
		members = append(members, m)
	}
	return members, rows.Err()
}

// ListForUser returns the groups a user belongs to, most recently joined first.
func (s *GroupStore) ListForUser(ctx context.Context, userID int64) ([]model.Group, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT g.id, g.name, g.sharing_code, g.agreement, g.created_by, g.created_at, g.updated_at
		 FROM chore_groups g
		 JOIN group_members gm ON gm.group_id = g.id
		 WHERE gm.user_id = ?
		 ORDER BY gm.joined_at DESC, gm.id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list groups for user: %w", err)
	}
	defer rows.Close()

	var groups []model.Group
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		groups = append(groups, *g)
	}
	return groups, rows.Err()
}
