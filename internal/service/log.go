package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/dukerupert/choretally/internal/apperr"
	"github.com/dukerupert/choretally/internal/chore"
	"github.com/dukerupert/choretally/internal/metrics"
	"github.com/dukerupert/choretally/internal/model"
	"github.com/dukerupert/choretally/internal/store"
)

type LogService struct {
	st      *store.Stores
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewLogService(st *store.Stores, m *metrics.Metrics, logger *slog.Logger) *LogService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogService{st: st, metrics: m, logger: logger}
}

// LogChore records that callerID completed choreID in groupID.
func (s *LogService) LogChore(ctx context.Context, callerID, choreID, groupID int64) (*model.ChoreLog, error) {
	if callerID == 0 {
		return nil, apperr.Unauthenticated("sign in required")
	}
	u, err := s.st.Users.GetByID(ctx, callerID)
	if err != nil {
		return nil, apperr.Unexpected("failed to load user", err)
	}
	if u == nil {
		return nil, apperr.NotFound("user not found")
	}
	c, err := s.st.Chores.GetByID(ctx, choreID)
	if err != nil {
		return nil, apperr.Unexpected("failed to load chore", err)
	}
	if c == nil || c.GroupID != groupID {
		return nil, apperr.NotFound("chore not found")
	}
	if _, err := requireMember(ctx, s.st, groupID, callerID); err != nil {
		return nil, err
	}

	l, err := s.st.Logs.Create(ctx, choreID, callerID, groupID)
	if err != nil {
		return nil, apperr.Unexpected("failed to log chore", err)
	}
	s.metrics.ChoreLogged(metrics.KindCatalog)
	return l, nil
}

// DeleteChoreLog removes a log. Only its author may remove it.
func (s *LogService) DeleteChoreLog(ctx context.Context, callerID, logID int64) (*model.ChoreLog, error) {
	if callerID == 0 {
		return nil, apperr.Unauthenticated("sign in required")
	}
	l, err := s.st.Logs.GetByID(ctx, logID)
	if err != nil {
		return nil, apperr.Unexpected("failed to load chore log", err)
	}
	if l == nil {
		return nil, apperr.NotFound("chore log not found")
	}
	if l.UserID != callerID {
		return nil, apperr.Forbidden("only the person who logged a chore can remove it")
	}

	if err := s.st.Logs.Delete(ctx, logID); err != nil {
		return nil, apperr.Unexpected("failed to delete chore log", err)
	}
	return l, nil
}

// ListRecentLogs returns the newest logs of a group. limit defaults to 10
// and is capped at 100.
func (s *LogService) ListRecentLogs(ctx context.Context, groupID int64, limit int) ([]model.LogEntry, error) {
	if limit <= 0 {
		limit = defaultRecentLogs
	}
	if limit > maxRecentLogs {
		limit = maxRecentLogs
	}
	entries, err := s.st.Logs.ListRecent(ctx, groupID, limit)
	if err != nil {
		return nil, apperr.Unexpected("failed to list logs", err)
	}
	return nonNil(entries), nil
}

// LogFreeform records an ad hoc timed task: a freeform chore worth one
// point per minute plus its log, written together.
func (s *LogService) LogFreeform(ctx context.Context, callerID, groupID int64, name string, minutes int, description string, timeWasEdited bool) (*model.ChoreLog, error) {
	if _, err := requireMember(ctx, s.st, groupID, callerID); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	if minutes <= 0 {
		return nil, apperr.Validation("minutes must be greater than zero")
	}
	if minutes > maxFreeformMinutes {
		return nil, apperr.Validation("minutes must be at most %d", maxFreeformMinutes)
	}

	_, l, err := s.st.Chores.CreateFreeformWithLog(ctx,
		groupID, callerID, chore.FreeformName(name), minutes,
		strings.TrimSpace(description), !timeWasEdited,
	)
	if err != nil {
		return nil, apperr.Unexpected("failed to log freeform chore", err)
	}
	s.metrics.ChoreLogged(metrics.KindFreeform)
	return l, nil
}
