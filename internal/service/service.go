// Package service implements the group, chore, log and leaderboard
// operations on top of the stores. Every operation returns an *apperr.Error
// for failures the caller can act on; anything else is unexpected.
package service

import (
	"context"

	"github.com/dukerupert/choretally/internal/apperr"
	"github.com/dukerupert/choretally/internal/model"
	"github.com/dukerupert/choretally/internal/store"
)

const (
	maxAgreementLength = 2000

	defaultRecentLogs = 10
	maxRecentLogs     = 100

	// Both fit comfortably in a 32-bit INTEGER column.
	maxChorePoints     = 10000
	maxFreeformMinutes = 24 * 60
)

// requireMember returns the group when userID belongs to it.
func requireMember(ctx context.Context, st *store.Stores, groupID, userID int64) (*model.Group, error) {
	if userID == 0 {
		return nil, apperr.Unauthenticated("sign in required")
	}
	g, err := st.Groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, apperr.Unexpected("failed to load group", err)
	}
	if g == nil {
		return nil, apperr.NotFound("group not found")
	}
	ok, err := st.Groups.IsMember(ctx, groupID, userID)
	if err != nil {
		return nil, apperr.Unexpected("failed to check membership", err)
	}
	if !ok {
		return nil, apperr.Forbidden("not a member of this group")
	}
	return g, nil
}
