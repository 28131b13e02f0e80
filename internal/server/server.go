package server

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/dukerupert/choretally/internal/config"
	"github.com/dukerupert/choretally/internal/database"
	"github.com/dukerupert/choretally/internal/handler"
	"github.com/dukerupert/choretally/internal/metrics"
	"github.com/dukerupert/choretally/internal/middleware"
	"github.com/dukerupert/choretally/internal/oauth"
	"github.com/dukerupert/choretally/internal/service"
	"github.com/dukerupert/choretally/internal/store"
	ws "github.com/dukerupert/choretally/internal/websocket"
)

const stateTTL = 10 * time.Minute

var (
	signInPolicy = middleware.Policy{Name: "sign_in", Limit: 20, Window: time.Minute}
	sharePolicy  = middleware.Policy{Name: "share_code", Limit: 30, Window: time.Minute}
)

type Server struct {
	hub         *ws.Hub
	metrics     *metrics.Metrics
	accounts    *service.AccountService
	rateLimiter *middleware.RateLimiter

	healthH      *handler.HealthHandler
	authH        *handler.AuthHandler
	groupH       *handler.GroupHandler
	choreH       *handler.ChoreHandler
	logH         *handler.LogHandler
	leaderboardH *handler.LeaderboardHandler
	liveH        *handler.LiveHandler

	logger *slog.Logger
}

// New wires stores, services and handlers. provider may be nil when Google
// sign-in is not configured; inviter may be nil to skip invite emails.
func New(cfg *config.Config, db *database.DB, provider oauth.Provider, inviter service.Inviter, version string, logger *slog.Logger) *Server {
	st := store.New(db)
	m := metrics.New()
	hub := ws.NewHub(logger.With("component", "websocket"))

	chores := service.NewChoreService(st, cfg.Chores.Order)
	groups := service.NewGroupService(st, chores, inviter, m, logger.With("component", "groups"))
	logs := service.NewLogService(st, m, logger.With("component", "logs"))
	pts := service.NewPointsService(st, cfg.Location())
	accounts := service.NewAccountService(st, cfg.Auth.SessionTTL, logger.With("component", "accounts"))

	states := oauth.NewStateSigner([]byte(cfg.Auth.StateSecret), stateTTL)

	limiter := middleware.NewRateLimiter()
	limiter.OnReject = m.RateLimited

	return &Server{
		hub:          hub,
		metrics:      m,
		accounts:     accounts,
		rateLimiter:  limiter,
		healthH:      handler.NewHealthHandler(db, version, logger.With("component", "health")),
		authH:        handler.NewAuthHandler(accounts, groups, provider, states, hub, cfg.Auth.SessionTTL, cfg.Auth.SecureCookies, logger.With("component", "auth")),
		groupH:       handler.NewGroupHandler(groups, hub, logger.With("component", "group")),
		choreH:       handler.NewChoreHandler(chores, groups, hub, logger.With("component", "chore")),
		logH:         handler.NewLogHandler(logs, groups, hub, logger.With("component", "chore_log")),
		leaderboardH: handler.NewLeaderboardHandler(pts, groups, logger.With("component", "leaderboard")),
		liveH:        handler.NewLiveHandler(groups, hub, originPatterns(cfg.Server.BaseURL), logger.With("component", "live")),
		logger:       logger,
	}
}

// originPatterns allows websocket upgrades from the configured site.
func originPatterns(baseURL string) []string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return nil
	}
	return []string{u.Host}
}

// Accounts returns the account service for session cleanup.
func (s *Server) Accounts() *service.AccountService {
	return s.accounts
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	authLog := s.logger.With("component", "session")
	requireAuth := middleware.RequireAuth(s.accounts, authLog)
	optionalAuth := middleware.OptionalAuth(s.accounts, authLog)
	protected := func(h http.HandlerFunc) http.Handler {
		return requireAuth(h)
	}

	// Public routes
	mux.HandleFunc("GET /health", s.healthH.Health)
	mux.Handle("GET /metrics", s.metrics.Handler())
	signIn := middleware.RateLimit(s.rateLimiter, signInPolicy)
	shareCode := middleware.RateLimit(s.rateLimiter, sharePolicy)

	mux.Handle("GET /auth/google/start", signIn(http.HandlerFunc(s.authH.GoogleStart)))
	mux.Handle("GET /auth/google/callback", signIn(http.HandlerFunc(s.authH.GoogleCallback)))
	mux.HandleFunc("POST /auth/logout", s.authH.Logout)
	mux.Handle("GET /join/{code}", shareCode(optionalAuth(http.HandlerFunc(s.authH.JoinLink))))
	mux.HandleFunc("GET /api/stats/groups", s.groupH.Stats)
	mux.Handle("GET /api/sharing-codes/{code}", shareCode(http.HandlerFunc(s.groupH.BySharingID)))

	// Account
	mux.Handle("GET /api/me", protected(s.authH.Me))
	mux.Handle("GET /api/me/groups", protected(s.groupH.ListMine))

	// Groups
	mux.Handle("POST /api/groups", protected(s.groupH.Create))
	mux.Handle("POST /api/groups/join", protected(s.groupH.Join))
	mux.Handle("GET /api/groups/{id}", protected(s.groupH.Get))
	mux.Handle("PATCH /api/groups/{id}", protected(s.groupH.UpdateName))
	mux.Handle("PUT /api/groups/{id}/agreement", protected(s.groupH.UpdateAgreement))
	mux.Handle("POST /api/groups/{id}/members", protected(s.groupH.AddMember))

	// Chores
	mux.Handle("GET /api/groups/{id}/chores", protected(s.choreH.List))
	mux.Handle("POST /api/groups/{id}/chores", protected(s.choreH.Create))
	mux.Handle("PUT /api/chores/{id}", protected(s.choreH.Update))
	mux.Handle("DELETE /api/chores/{id}", protected(s.choreH.Delete))

	// Activity
	mux.Handle("POST /api/groups/{id}/logs", protected(s.logH.Create))
	mux.Handle("POST /api/groups/{id}/freeform", protected(s.logH.Freeform))
	mux.Handle("GET /api/groups/{id}/logs", protected(s.logH.List))
	mux.Handle("DELETE /api/chore-logs/{id}", protected(s.logH.Delete))
	mux.Handle("GET /api/groups/{id}/leaderboard", protected(s.leaderboardH.Get))

	// Live feed
	mux.Handle("GET /ws/groups/{id}", protected(s.liveH.Serve))

	h := middleware.Metrics(s.metrics)(mux)
	return middleware.RequestLogger(s.logger.With("component", "http"))(h)
}
