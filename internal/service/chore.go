package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/dukerupert/choretally/internal/apperr"
	"github.com/dukerupert/choretally/internal/config"
	"github.com/dukerupert/choretally/internal/database"
	"github.com/dukerupert/choretally/internal/model"
	"github.com/dukerupert/choretally/internal/store"
)

// ListChoresOptions filters and sorts a chore listing. An empty Order uses
// the service default.
type ListChoresOptions struct {
	ExcludeFreeform bool
	Order           config.ChoreOrder
}

type ChoreService struct {
	st           *store.Stores
	defaultOrder config.ChoreOrder
}

func NewChoreService(st *store.Stores, defaultOrder config.ChoreOrder) *ChoreService {
	if defaultOrder == "" {
		defaultOrder = config.OrderAlphabetical
	}
	return &ChoreService{st: st, defaultOrder: defaultOrder}
}

func storeOrder(o config.ChoreOrder) (store.ChoreOrder, bool) {
	switch o {
	case config.OrderAlphabetical:
		return store.OrderByName, true
	case config.OrderPopularity:
		return store.OrderByPopularity, true
	}
	return 0, false
}

func (s *ChoreService) ListChores(ctx context.Context, groupID int64, opts ListChoresOptions) ([]model.Chore, error) {
	order := opts.Order
	if order == "" {
		order = s.defaultOrder
	}
	so, ok := storeOrder(order)
	if !ok {
		return nil, apperr.Validation("unknown chore order %q", order)
	}

	chores, err := s.st.Chores.ListByGroup(ctx, groupID, store.ListChoresOptions{
		ExcludeFreeform: opts.ExcludeFreeform,
		Order:           so,
	})
	if err != nil {
		return nil, apperr.Unexpected("failed to list chores", err)
	}
	return nonNil(chores), nil
}

func validateChore(name string, points int) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperr.Validation("chore name is required")
	}
	if points < 1 {
		return "", apperr.Validation("points must be at least 1")
	}
	if points > maxChorePoints {
		return "", apperr.Validation("points must be at most %d", maxChorePoints)
	}
	return name, nil
}

func (s *ChoreService) AddChore(ctx context.Context, callerID, groupID int64, name string, points int, description string) (*model.Chore, error) {
	if _, err := requireMember(ctx, s.st, groupID, callerID); err != nil {
		return nil, err
	}
	name, err := validateChore(name, points)
	if err != nil {
		return nil, err
	}

	existing, err := s.st.Chores.GetByGroupAndName(ctx, groupID, name)
	if err != nil {
		return nil, apperr.Unexpected("failed to check chore name", err)
	}
	if existing != nil {
		return nil, duplicateChore(name)
	}

	c, err := s.st.Chores.Create(ctx, groupID, name, points, strings.TrimSpace(description))
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, duplicateChore(name)
		}
		return nil, apperr.Unexpected("failed to create chore", err)
	}
	return c, nil
}

func (s *ChoreService) UpdateChore(ctx context.Context, callerID, choreID int64, name string, points int, description string) (*model.Chore, error) {
	c, err := s.getChore(ctx, choreID)
	if err != nil {
		return nil, err
	}
	if _, err := requireMember(ctx, s.st, c.GroupID, callerID); err != nil {
		return nil, err
	}
	if c.Freeform {
		return nil, apperr.Validation("freeform entries cannot be edited")
	}
	name, err = validateChore(name, points)
	if err != nil {
		return nil, err
	}

	other, err := s.st.Chores.GetByGroupAndName(ctx, c.GroupID, name)
	if err != nil {
		return nil, apperr.Unexpected("failed to check chore name", err)
	}
	if other != nil && other.ID != choreID {
		return nil, duplicateChore(name)
	}

	updated, err := s.st.Chores.Update(ctx, choreID, name, points, strings.TrimSpace(description))
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, duplicateChore(name)
		}
		return nil, apperr.Unexpected("failed to update chore", err)
	}
	return updated, nil
}

// DeleteChore hard-deletes a chore and returns it. Existing logs of the
// chore stay in place but no longer show up in listings or totals.
func (s *ChoreService) DeleteChore(ctx context.Context, callerID, choreID int64) (*model.Chore, error) {
	c, err := s.getChore(ctx, choreID)
	if err != nil {
		return nil, err
	}
	if _, err := requireMember(ctx, s.st, c.GroupID, callerID); err != nil {
		return nil, err
	}
	if err := s.st.Chores.Delete(ctx, choreID); err != nil {
		return nil, apperr.Unexpected("failed to delete chore", err)
	}
	return c, nil
}

func (s *ChoreService) getChore(ctx context.Context, choreID int64) (*model.Chore, error) {
	c, err := s.st.Chores.GetByID(ctx, choreID)
	if err != nil {
		return nil, apperr.Unexpected("failed to load chore", err)
	}
	if c == nil {
		return nil, apperr.NotFound("chore not found")
	}
	return c, nil
}

func duplicateChore(name string) error {
	return apperr.Duplicate(fmt.Sprintf("a chore named %q already exists in this group", name))
}
