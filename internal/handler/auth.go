package handler

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dukerupert/choretally/internal/apperr"
	"github.com/dukerupert/choretally/internal/auth"
	"github.com/dukerupert/choretally/internal/middleware"
	"github.com/dukerupert/choretally/internal/oauth"
	"github.com/dukerupert/choretally/internal/service"
	"github.com/dukerupert/choretally/internal/websocket"
)

const (
	nonceCookieName = "choretally_oauth_nonce"
	nonceCookieTTL  = 10 * time.Minute
)

type AuthHandler struct {
	accounts      *service.AccountService
	groups        *service.GroupService
	provider      oauth.Provider
	states        *oauth.StateSigner
	hub           *websocket.Hub
	sessionTTL    time.Duration
	secureCookies bool
	logger        *slog.Logger
}

// NewAuthHandler wires Google sign-in. A nil provider disables the
// /auth/google routes.
func NewAuthHandler(
	as *service.AccountService,
	gs *service.GroupService,
	provider oauth.Provider,
	states *oauth.StateSigner,
	hub *websocket.Hub,
	sessionTTL time.Duration,
	secureCookies bool,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		accounts:      as,
		groups:        gs,
		provider:      provider,
		states:        states,
		hub:           hub,
		sessionTTL:    sessionTTL,
		secureCookies: secureCookies,
		logger:        logger,
	}
}

func (h *AuthHandler) secure(r *http.Request) bool {
	return h.secureCookies || r.TLS != nil
}

// GoogleStart redirects to Google's consent page. Query: next, a local path
// to return to after sign-in.
func (h *AuthHandler) GoogleStart(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		http.Error(w, "Google sign-in is not configured", http.StatusNotFound)
		return
	}

	state, nonce, err := h.states.Sign(r.URL.Query().Get("next"))
	if err != nil {
		h.logger.Error("sign oauth state", "error", err)
		http.Error(w, "Something went wrong", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     nonceCookieName,
		Value:    nonce,
		Path:     "/auth/google",
		MaxAge:   int(nonceCookieTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.secure(r),
	})
	http.Redirect(w, r, h.provider.AuthCodeURL(state), http.StatusFound)
}

// GoogleCallback finishes sign-in: it checks the state, exchanges the code,
// signs the user in and starts a session.
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		http.Error(w, "Google sign-in is not configured", http.StatusNotFound)
		return
	}
	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		h.logger.Info("google sign-in cancelled", "error", e)
		http.Redirect(w, r, "/?auth_error="+url.QueryEscape(e), http.StatusSeeOther)
		return
	}

	var nonce string
	if c, err := r.Cookie(nonceCookieName); err == nil {
		nonce = c.Value
	}
	http.SetCookie(w, &http.Cookie{
		Name:     nonceCookieName,
		Value:    "",
		Path:     "/auth/google",
		MaxAge:   -1,
		HttpOnly: true,
	})

	state, err := h.states.Verify(q.Get("state"), nonce)
	if err != nil {
		h.logger.Warn("invalid oauth state", "error", err)
		http.Error(w, "Sign-in link expired, please try again", http.StatusBadRequest)
		return
	}

	id, err := h.provider.Exchange(r.Context(), q.Get("code"))
	if err != nil {
		h.logger.Error("google exchange", "error", err)
		http.Error(w, "Google sign-in failed", http.StatusBadGateway)
		return
	}
	if !id.EmailVerified {
		http.Error(w, "Your Google email address is not verified", http.StatusForbidden)
		return
	}

	u, err := h.accounts.SignIn(r.Context(), *id)
	if err != nil {
		h.logger.Error("sign in", "error", err)
		http.Error(w, apperr.Message(err), apperr.HTTPStatus(err))
		return
	}
	token, _, err := h.accounts.StartSession(r.Context(), u.ID)
	if err != nil {
		h.logger.Error("start session", "user_id", u.ID, "error", err)
		http.Error(w, "Something went wrong", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.sessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.secure(r),
	})
	h.logger.Info("signed in", "user_id", u.ID)
	http.Redirect(w, r, state.Next, http.StatusSeeOther)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(middleware.SessionCookieName); err == nil && c.Value != "" {
		if err := h.accounts.EndSession(r.Context(), c.Value); err != nil {
			h.logger.Error("end session", "error", err)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	writeData(w, http.StatusOK, map[string]bool{"signed_out": true})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.accounts.GetUser(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, u)
}

// JoinLink handles the invite link a member shares. Anonymous visitors are
// sent through sign-in and come back here; signed-in visitors join and land
// on the group page.
func (h *AuthHandler) JoinLink(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	userID := auth.UserID(r.Context())
	if userID == 0 {
		next := "/join/" + url.PathEscape(code)
		http.Redirect(w, r, "/auth/google/start?next="+url.QueryEscape(next), http.StatusSeeOther)
		return
	}

	res, err := h.groups.JoinByShareCode(r.Context(), code, userID)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindUnexpected {
			h.logger.Error("join by link", "error", err)
		}
		http.Error(w, apperr.Message(err), apperr.HTTPStatus(err))
		return
	}
	if !res.AlreadyMember && h.hub != nil {
		h.hub.Broadcast(websocket.NewMessage(res.GroupID, websocket.EntityMember, websocket.ActionJoined, userID, nil))
	}
	http.Redirect(w, r, "/groups/"+strconv.FormatInt(res.GroupID, 10), http.StatusSeeOther)
}
