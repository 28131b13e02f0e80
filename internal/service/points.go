package service

import (
	"context"
	"time"

	"github.com/dukerupert/choretally/internal/apperr"
	"github.com/dukerupert/choretally/internal/model"
	"github.com/dukerupert/choretally/internal/points"
	"github.com/dukerupert/choretally/internal/store"
)

type PointsService struct {
	st  *store.Stores
	loc *time.Location
	now func() time.Time
}

func NewPointsService(st *store.Stores, loc *time.Location) *PointsService {
	if loc == nil {
		loc = time.UTC
	}
	return &PointsService{st: st, loc: loc, now: time.Now}
}

// ComputePointsPerUser totals each member's points inside w.
func (s *PointsService) ComputePointsPerUser(ctx context.Context, groupID int64, w points.Window) ([]model.UserPoints, error) {
	g, err := s.st.Groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, apperr.Unexpected("failed to load group", err)
	}
	if g == nil {
		return nil, apperr.NotFound("group not found")
	}

	members, err := s.st.Groups.ListMembers(ctx, groupID)
	if err != nil {
		return nil, apperr.Unexpected("failed to list members", err)
	}
	logs, err := s.st.Logs.ListPoints(ctx, groupID, w.Start, w.End)
	if err != nil {
		return nil, apperr.Unexpected("failed to list logs", err)
	}
	return points.Compute(members, logs, w), nil
}

// CurrentWeek is the window from the start of this week to now.
func (s *PointsService) CurrentWeek() points.Window {
	return points.WeekWindow(s.now(), s.loc)
}
