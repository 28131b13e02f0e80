package service

import (
	"context"
	"log/slog"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/dukerupert/choretally/internal/apperr"
	"github.com/dukerupert/choretally/internal/database"
	"github.com/dukerupert/choretally/internal/email"
	"github.com/dukerupert/choretally/internal/metrics"
	"github.com/dukerupert/choretally/internal/model"
	"github.com/dukerupert/choretally/internal/store"
)

// Inviter delivers the join link to someone added by email.
type Inviter interface {
	SendInvite(ctx context.Context, inv email.Invite) error
}

type GroupService struct {
	st      *store.Stores
	chores  *ChoreService
	inviter Inviter
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewGroupService builds the group service. Group detail lists chores through
// chores, so it follows the configured catalog order; a nil chores falls back
// to alphabetical.
func NewGroupService(st *store.Stores, chores *ChoreService, inviter Inviter, m *metrics.Metrics, logger *slog.Logger) *GroupService {
	if logger == nil {
		logger = slog.Default()
	}
	if chores == nil {
		chores = NewChoreService(st, "")
	}
	return &GroupService{st: st, chores: chores, inviter: inviter, metrics: m, logger: logger}
}

// RequireMember fails unless userID belongs to groupID.
func (s *GroupService) RequireMember(ctx context.Context, groupID, userID int64) error {
	_, err := requireMember(ctx, s.st, groupID, userID)
	return err
}

// CreateGroup creates a group with a fresh sharing code and makes the creator
// its first member.
func (s *GroupService) CreateGroup(ctx context.Context, creatorID int64, name string) (*model.Group, error) {
	if creatorID == 0 {
		return nil, apperr.Unauthenticated("sign in required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("group name is required")
	}

	g, err := s.st.Groups.Create(ctx, creatorID, name)
	if err != nil {
		return nil, apperr.Unexpected("failed to create group", err)
	}
	s.logger.Info("group created", "group_id", g.ID, "user_id", creatorID)
	return g, nil
}

// JoinByShareCode adds userID to the group with the given sharing code.
// Joining a group twice succeeds and reports AlreadyMember.
func (s *GroupService) JoinByShareCode(ctx context.Context, code string, userID int64) (*model.JoinResult, error) {
	if userID == 0 {
		return nil, apperr.Unauthenticated("sign in required")
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperr.Validation("sharing code is required")
	}

	g, err := s.st.Groups.GetBySharingCode(ctx, code)
	if err != nil {
		return nil, apperr.Unexpected("failed to look up group", err)
	}
	if g == nil {
		return nil, apperr.NotFound("group not found")
	}
	return s.join(ctx, g.ID, userID)
}

func (s *GroupService) join(ctx context.Context, groupID, userID int64) (*model.JoinResult, error) {
	res := &model.JoinResult{GroupID: groupID}

	// The membership check is advisory; the unique index decides races.
	existing, err := s.st.Groups.GetMembership(ctx, groupID, userID)
	if err != nil {
		return nil, apperr.Unexpected("failed to check membership", err)
	}
	if existing != nil {
		res.AlreadyMember = true
		s.metrics.GroupJoined(metrics.OutcomeAlreadyMember)
		return res, nil
	}

	if _, err := s.st.Groups.AddMember(ctx, groupID, userID); err != nil {
		if !database.IsUniqueViolation(err) {
			return nil, apperr.Unexpected("failed to join group", err)
		}
		res.AlreadyMember = true
		s.metrics.GroupJoined(metrics.OutcomeAlreadyMember)
		return res, nil
	}

	s.metrics.GroupJoined(metrics.OutcomeJoined)
	s.logger.Info("member joined", "group_id", groupID, "user_id", userID)
	return res, nil
}

// FindGroupByShareCode resolves an invite link to the group's id and name.
func (s *GroupService) FindGroupByShareCode(ctx context.Context, code string) (*model.GroupSummary, error) {
	g, err := s.st.Groups.GetBySharingCode(ctx, strings.TrimSpace(code))
	if err != nil {
		return nil, apperr.Unexpected("failed to look up group", err)
	}
	if g == nil {
		return nil, apperr.NotFound("group not found")
	}
	return &model.GroupSummary{ID: g.ID, Name: g.Name}, nil
}

func (s *GroupService) UpdateGroupName(ctx context.Context, callerID, groupID int64, name string) (*model.Group, error) {
	if _, err := requireMember(ctx, s.st, groupID, callerID); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("group name is required")
	}

	g, err := s.st.Groups.UpdateName(ctx, groupID, name)
	if err != nil {
		return nil, apperr.Unexpected("failed to update group", err)
	}
	return g, nil
}

func (s *GroupService) UpdateGroupAgreement(ctx context.Context, callerID, groupID int64, agreement string) (*model.Group, error) {
	if _, err := requireMember(ctx, s.st, groupID, callerID); err != nil {
		return nil, err
	}
	agreement = strings.TrimSpace(agreement)
	if n := utf8.RuneCountInString(agreement); n > maxAgreementLength {
		return nil, apperr.Validation("agreement must be at most %d characters (got %d)", maxAgreementLength, n)
	}

	g, err := s.st.Groups.UpdateAgreement(ctx, groupID, agreement)
	if err != nil {
		return nil, apperr.Unexpected("failed to update agreement", err)
	}
	return g, nil
}

// GetGroupDetail returns a group with its members, chores and most recent
// logs. Only members may read it.
func (s *GroupService) GetGroupDetail(ctx context.Context, callerID, groupID int64) (*model.GroupDetail, error) {
	g, err := requireMember(ctx, s.st, groupID, callerID)
	if err != nil {
		return nil, err
	}

	members, err := s.st.Groups.ListMembers(ctx, groupID)
	if err != nil {
		return nil, apperr.Unexpected("failed to list members", err)
	}
	chores, err := s.chores.ListChores(ctx, groupID, ListChoresOptions{})
	if err != nil {
		return nil, err
	}
	logs, err := s.st.Logs.ListRecent(ctx, groupID, maxRecentLogs)
	if err != nil {
		return nil, apperr.Unexpected("failed to list logs", err)
	}

	return &model.GroupDetail{
		Group:   *g,
		Members: nonNil(members),
		Chores:  nonNil(chores),
		Logs:    nonNil(logs),
	}, nil
}

func (s *GroupService) ListUserGroups(ctx context.Context, userID int64) ([]model.Group, error) {
	if userID == 0 {
		return nil, apperr.Unauthenticated("sign in required")
	}
	groups, err := s.st.Groups.ListForUser(ctx, userID)
	if err != nil {
		return nil, apperr.Unexpected("failed to list groups", err)
	}
	return nonNil(groups), nil
}

func (s *GroupService) CountGroups(ctx context.Context) (int, error) {
	n, err := s.st.Groups.Count(ctx)
	if err != nil {
		return 0, apperr.Unexpected("failed to count groups", err)
	}
	return n, nil
}

// AddMemberByEmail adds the user with the given email to the group, creating
// the user if needed, and sends them the group's join link. A non-empty name
// replaces the user's current name.
func (s *GroupService) AddMemberByEmail(ctx context.Context, callerID, groupID int64, addr, name string) (*model.User, *model.JoinResult, error) {
	g, err := requireMember(ctx, s.st, groupID, callerID)
	if err != nil {
		return nil, nil, err
	}

	addr, err = normalizeEmail(addr)
	if err != nil {
		return nil, nil, err
	}
	u, err := findOrCreateUser(ctx, s.st, addr, strings.TrimSpace(name))
	if err != nil {
		return nil, nil, err
	}

	res, err := s.join(ctx, groupID, u.ID)
	if err != nil {
		return nil, nil, err
	}

	if !res.AlreadyMember && s.inviter != nil {
		var inviterName string
		if caller, err := s.st.Users.GetByID(ctx, callerID); err == nil && caller != nil {
			inviterName = caller.DisplayName()
		}
		inv := email.Invite{
			ToEmail:     u.Email,
			ToName:      u.Name,
			GroupName:   g.Name,
			InviterName: inviterName,
			SharingCode: g.SharingCode,
		}
		// The membership stands even if the email does not go out.
		if err := s.inviter.SendInvite(ctx, inv); err != nil {
			s.logger.Warn("send invite failed", "group_id", groupID, "to", u.Email, "error", err)
		}
	}
	return u, res, nil
}

func normalizeEmail(addr string) (string, error) {
	addr = strings.ToLower(strings.TrimSpace(addr))
	if addr == "" {
		return "", apperr.Validation("email is required")
	}
	parsed, err := mail.ParseAddress(addr)
	if err != nil || parsed.Address != addr {
		return "", apperr.Validation("invalid email address")
	}
	return addr, nil
}

// findOrCreateUser returns the user with addr, creating them if needed. A
// non-empty name that differs from the stored one replaces it.
func findOrCreateUser(ctx context.Context, st *store.Stores, addr, name string) (*model.User, error) {
	u, err := st.Users.GetByEmail(ctx, addr)
	if err != nil {
		return nil, apperr.Unexpected("failed to look up user", err)
	}
	if u == nil {
		u, err = st.Users.Create(ctx, addr, name)
		if err != nil {
			if !database.IsUniqueViolation(err) {
				return nil, apperr.Unexpected("failed to create user", err)
			}
			// Created concurrently; use that row.
			if u, err = st.Users.GetByEmail(ctx, addr); err != nil || u == nil {
				return nil, apperr.Unexpected("failed to look up user", err)
			}
		}
		return u, nil
	}
	if name != "" && name != u.Name {
		u, err = st.Users.UpdateName(ctx, u.ID, name)
		if err != nil {
			return nil, apperr.Unexpected("failed to update user", err)
		}
	}
	return u, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
