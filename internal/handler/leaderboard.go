package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/choretally/internal/apperr"
	"github.com/dukerupert/choretally/internal/auth"
	"github.com/dukerupert/choretally/internal/model"
	"github.com/dukerupert/choretally/internal/points"
	"github.com/dukerupert/choretally/internal/service"
)

type LeaderboardHandler struct {
	points *service.PointsService
	groups *service.GroupService
	logger *slog.Logger
}

func NewLeaderboardHandler(ps *service.PointsService, gs *service.GroupService, logger *slog.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{points: ps, groups: gs, logger: logger}
}

type leaderboardResponse struct {
	Range     string             `json:"range"`
	Start     *time.Time         `json:"start,omitempty"`
	End       *time.Time         `json:"end,omitempty"`
	Standings []model.UserPoints `json:"standings"`
}

// windowFromQuery reads range=week|all, or explicit RFC 3339 from/to bounds
// which take precedence.
func (h *LeaderboardHandler) windowFromQuery(r *http.Request) (string, points.Window, error) {
	q := r.URL.Query()
	from, to := q.Get("from"), q.Get("to")
	if from != "" || to != "" {
		var w points.Window
		var err error
		if from != "" {
			if w.Start, err = time.Parse(time.RFC3339, from); err != nil {
				return "", w, apperr.Validation("from must be an RFC 3339 timestamp")
			}
		}
		if to != "" {
			if w.End, err = time.Parse(time.RFC3339, to); err != nil {
				return "", w, apperr.Validation("to must be an RFC 3339 timestamp")
			}
		}
		if !w.Start.IsZero() && !w.End.IsZero() && w.End.Before(w.Start) {
			return "", w, apperr.Validation("to must not be before from")
		}
		return "custom", w, nil
	}

	switch rng := q.Get("range"); rng {
	case "", "all":
		return "all", points.AllTime(), nil
	case "week":
		return "week", h.points.CurrentWeek(), nil
	default:
		return "", points.Window{}, apperr.Validation("range must be week or all")
	}
}

func (h *LeaderboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	groupID, err := parseIDParam(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	rng, win, err := h.windowFromQuery(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.groups.RequireMember(r.Context(), groupID, auth.UserID(r.Context())); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	standings, err := h.points.ComputePointsPerUser(r.Context(), groupID, win)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	resp := leaderboardResponse{Range: rng, Standings: standings}
	if !win.Start.IsZero() {
		resp.Start = &win.Start
	}
	if !win.End.IsZero() {
		resp.End = &win.End
	}
	writeData(w, http.StatusOK, resp)
}
