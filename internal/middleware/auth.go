package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dukerupert/choretally/internal/apperr"
	"github.com/dukerupert/choretally/internal/auth"
	"github.com/dukerupert/choretally/internal/model"
)

const SessionCookieName = "choretally_session"

// Authenticator resolves a session token to its user. Unknown or expired
// tokens are reported as apperr.KindUnauthenticated (or nil, nil, nil); any
// other error means the lookup itself failed.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.User, *model.Session, error)
}

// lookup returns ok=false for anonymous requests and a non-nil error only
// when the session could not be checked.
func lookup(a Authenticator, r *http.Request) (auth.AuthContext, bool, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return auth.AuthContext{}, false, nil
	}
	u, sess, err := a.Authenticate(r.Context(), cookie.Value)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindUnauthenticated {
			return auth.AuthContext{}, false, nil
		}
		return auth.AuthContext{}, false, err
	}
	if u == nil || sess == nil {
		return auth.AuthContext{}, false, nil
	}
	return auth.AuthContext{
		UserID:    u.ID,
		SessionID: sess.ID,
		Email:     u.Email,
		Name:      u.Name,
	}, true, nil
}

func writeAuthError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   msg,
	})
}

func sessionFailed(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	logger.Error("session lookup failed", "path", r.URL.Path, "request_id", RequestID(r.Context()), "error", err)
	writeAuthError(w, http.StatusInternalServerError, "internal error")
}

// RequireAuth validates the session cookie and populates AuthContext.
// Requests without a valid session get a 401 JSON error; a failed lookup
// gets a 500.
func RequireAuth(a Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ac, ok, err := lookup(a, r)
			if err != nil {
				sessionFailed(w, r, logger, err)
				return
			}
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "sign in required")
				return
			}
			noteUser(r.Context(), ac.UserID)
			next.ServeHTTP(w, r.WithContext(auth.WithAuth(r.Context(), ac)))
		})
	}
}

// OptionalAuth populates AuthContext when a valid session cookie is present
// and passes anonymous requests through untouched.
func OptionalAuth(a Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ac, ok, err := lookup(a, r)
			if err != nil {
				sessionFailed(w, r, logger, err)
				return
			}
			if ok {
				noteUser(r.Context(), ac.UserID)
				r = r.WithContext(auth.WithAuth(r.Context(), ac))
			}
			next.ServeHTTP(w, r)
		})
	}
}
