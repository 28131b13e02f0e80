package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/dukerupert/choretally/internal/apperr"
	"github.com/dukerupert/choretally/internal/model"
	"github.com/dukerupert/choretally/internal/oauth"
	"github.com/dukerupert/choretally/internal/store"
)

// AccountService signs users in and manages their sessions.
type AccountService struct {
	st         *store.Stores
	sessionTTL time.Duration
	logger     *slog.Logger
}

func NewAccountService(st *store.Stores, sessionTTL time.Duration, logger *slog.Logger) *AccountService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AccountService{st: st, sessionTTL: sessionTTL, logger: logger}
}

// SignIn resolves a provider identity to a user: first by subject, then by
// email (linking the subject), otherwise by creating a new user.
func (s *AccountService) SignIn(ctx context.Context, id oauth.Identity) (*model.User, error) {
	if id.Subject == "" {
		return nil, apperr.Unauthenticated("identity has no subject")
	}
	u, err := s.st.Users.GetByGoogleSub(ctx, id.Subject)
	if err != nil {
		return nil, apperr.Unexpected("failed to look up user", err)
	}
	if u != nil {
		return u, nil
	}

	addr, err := normalizeEmail(id.Email)
	if err != nil {
		return nil, err
	}
	u, err = s.st.Users.GetByEmail(ctx, addr)
	if err != nil {
		return nil, apperr.Unexpected("failed to look up user", err)
	}
	if u == nil {
		u, err = findOrCreateUser(ctx, s.st, addr, strings.TrimSpace(id.Name))
		if err != nil {
			return nil, err
		}
		s.logger.Info("user created", "user_id", u.ID)
	} else if u.Name == "" && strings.TrimSpace(id.Name) != "" {
		// Users added by email before their first sign-in pick up their
		// provider name.
		if u, err = s.st.Users.UpdateName(ctx, u.ID, strings.TrimSpace(id.Name)); err != nil {
			return nil, apperr.Unexpected("failed to update user", err)
		}
	}

	if err := s.st.Users.LinkGoogleSub(ctx, u.ID, id.Subject); err != nil {
		return nil, apperr.Unexpected("failed to link account", err)
	}
	u.GoogleSub = id.Subject
	return u, nil
}

// StartSession creates a session and returns the raw token for the cookie.
func (s *AccountService) StartSession(ctx context.Context, userID int64) (string, *model.Session, error) {
	sess, token, err := s.st.Sessions.Create(ctx, userID, s.sessionTTL)
	if err != nil {
		return "", nil, apperr.Unexpected("failed to start session", err)
	}
	return token, sess, nil
}

// Authenticate returns the user and session behind a session token.
func (s *AccountService) Authenticate(ctx context.Context, token string) (*model.User, *model.Session, error) {
	if token == "" {
		return nil, nil, apperr.Unauthenticated("sign in required")
	}
	sess, err := s.st.Sessions.GetByToken(ctx, token)
	if err != nil {
		return nil, nil, apperr.Unexpected("failed to load session", err)
	}
	if sess == nil {
		return nil, nil, apperr.Unauthenticated("session expired")
	}
	u, err := s.st.Users.GetByID(ctx, sess.UserID)
	if err != nil {
		return nil, nil, apperr.Unexpected("failed to load user", err)
	}
	if u == nil {
		return nil, nil, apperr.Unauthenticated("user no longer exists")
	}
	return u, sess, nil
}

func (s *AccountService) EndSession(ctx context.Context, token string) error {
	if err := s.st.Sessions.Delete(ctx, token); err != nil {
		return apperr.Unexpected("failed to end session", err)
	}
	return nil
}

func (s *AccountService) GetUser(ctx context.Context, userID int64) (*model.User, error) {
	u, err := s.st.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, apperr.Unexpected("failed to load user", err)
	}
	if u == nil {
		return nil, apperr.NotFound("user not found")
	}
	return u, nil
}

// CleanupSessions deletes expired sessions.
func (s *AccountService) CleanupSessions(ctx context.Context) (int64, error) {
	return s.st.Sessions.DeleteExpired(ctx)
}
