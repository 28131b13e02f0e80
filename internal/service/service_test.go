package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dukerupert/choretally/internal/apperr"
	"github.com/dukerupert/choretally/internal/config"
	"github.com/dukerupert/choretally/internal/database"
	"github.com/dukerupert/choretally/internal/email"
	"github.com/dukerupert/choretally/internal/metrics"
	"github.com/dukerupert/choretally/internal/model"
	"github.com/dukerupert/choretally/internal/store"
)

type fakeInviter struct {
	mu      sync.Mutex
	invites []email.Invite
	err     error
}

func (f *fakeInviter) SendInvite(_ context.Context, inv email.Invite) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invites = append(f.invites, inv)
	return f.err
}

type env struct {
	st       *store.Stores
	groups   *GroupService
	chores   *ChoreService
	logs     *LogService
	points   *PointsService
	accounts *AccountService
	inviter  *fakeInviter
	metrics  *metrics.Metrics
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st := store.New(db)
	inv := &fakeInviter{}
	m := metrics.New()
	chores := NewChoreService(st, config.OrderAlphabetical)
	return &env{
		st:       st,
		groups:   NewGroupService(st, chores, inv, m, nil),
		chores:   chores,
		logs:     NewLogService(st, m, nil),
		points:   NewPointsService(st, nil),
		accounts: NewAccountService(st, config.Default().Auth.SessionTTL, nil),
		inviter:  inv,
		metrics:  m,
	}
}

func (e *env) user(t *testing.T, addr, name string) *model.User {
	t.Helper()
	u, err := e.st.Users.Create(context.Background(), addr, name)
	require.NoError(t, err)
	return u
}

func requireKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, apperr.KindOf(err), "error: %v", err)
}
