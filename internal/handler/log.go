package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/choretally/internal/apperr"
	"github.com/dukerupert/choretally/internal/auth"
	"github.com/dukerupert/choretally/internal/model"
	"github.com/dukerupert/choretally/internal/service"
	"github.com/dukerupert/choretally/internal/websocket"
)

type LogHandler struct {
	logs   *service.LogService
	groups *service.GroupService
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewLogHandler(ls *service.LogService, gs *service.GroupService, hub *websocket.Hub, logger *slog.Logger) *LogHandler {
	return &LogHandler{logs: ls, groups: gs, hub: hub, logger: logger}
}

func (h *LogHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

func (h *LogHandler) logCreated(l *model.ChoreLog, freeform bool) {
	h.broadcast(websocket.NewMessage(l.GroupID, websocket.EntityChoreLog, websocket.ActionCreated, l.ID, map[string]any{
		"chore_id": l.ChoreID,
		"user_id":  l.UserID,
		"freeform": freeform,
	}))
}

type logRequest struct {
	ChoreID int64 `json:"chore_id"`
}

func (h *LogHandler) Create(w http.ResponseWriter, r *http.Request) {
	groupID, err := parseIDParam(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req logRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if req.ChoreID <= 0 {
		writeError(w, r, h.logger, apperr.Validation("chore_id is required"))
		return
	}

	l, err := h.logs.LogChore(r.Context(), auth.UserID(r.Context()), req.ChoreID, groupID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.logCreated(l, false)
	writeData(w, http.StatusCreated, l)
}

type freeformRequest struct {
	Name          string `json:"name"`
	Minutes       int    `json:"minutes"`
	Description   string `json:"description"`
	TimeWasEdited bool   `json:"time_was_edited"`
}

func (h *LogHandler) Freeform(w http.ResponseWriter, r *http.Request) {
	groupID, err := parseIDParam(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req freeformRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	l, err := h.logs.LogFreeform(r.Context(), auth.UserID(r.Context()), groupID, req.Name, req.Minutes, req.Description, req.TimeWasEdited)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.logCreated(l, true)
	writeData(w, http.StatusCreated, l)
}

// List serves a group's recent activity, newest first. Query: limit (default 10, max 100).
func (h *LogHandler) List(w http.ResponseWriter, r *http.Request) {
	groupID, err := parseIDParam(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var limit int
	if s := r.URL.Query().Get("limit"); s != "" {
		if limit, err = strconv.Atoi(s); err != nil {
			writeError(w, r, h.logger, apperr.Validation("limit must be a number"))
			return
		}
	}
	if err := h.groups.RequireMember(r.Context(), groupID, auth.UserID(r.Context())); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	entries, err := h.logs.ListRecentLogs(r.Context(), groupID, limit)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, entries)
}

func (h *LogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	l, err := h.logs.DeleteChoreLog(r.Context(), auth.UserID(r.Context()), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.broadcast(websocket.NewMessage(l.GroupID, websocket.EntityChoreLog, websocket.ActionDeleted, l.ID, nil))
	writeData(w, http.StatusOK, map[string]int64{"id": l.ID})
}
