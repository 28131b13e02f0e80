package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/choretally/internal/auth"
	"github.com/dukerupert/choretally/internal/config"
	"github.com/dukerupert/choretally/internal/service"
	"github.com/dukerupert/choretally/internal/websocket"
)

type ChoreHandler struct {
	chores *service.ChoreService
	groups *service.GroupService
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewChoreHandler(cs *service.ChoreService, gs *service.GroupService, hub *websocket.Hub, logger *slog.Logger) *ChoreHandler {
	return &ChoreHandler{chores: cs, groups: gs, hub: hub, logger: logger}
}

func (h *ChoreHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

type choreRequest struct {
	Name        string `json:"name"`
	Points      int    `json:"points"`
	Description string `json:"description"`
}

// List serves a group's catalog. Query: exclude_freeform=1, order=alphabetical|popularity.
func (h *ChoreHandler) List(w http.ResponseWriter, r *http.Request) {
	groupID, err := parseIDParam(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.groups.RequireMember(r.Context(), groupID, auth.UserID(r.Context())); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	q := r.URL.Query()
	opts := service.ListChoresOptions{
		ExcludeFreeform: q.Get("exclude_freeform") == "1" || q.Get("exclude_freeform") == "true",
		Order:           config.ChoreOrder(q.Get("order")),
	}
	chores, err := h.chores.ListChores(r.Context(), groupID, opts)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, chores)
}

func (h *ChoreHandler) Create(w http.ResponseWriter, r *http.Request) {
	groupID, err := parseIDParam(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req choreRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	c, err := h.chores.AddChore(r.Context(), auth.UserID(r.Context()), groupID, req.Name, req.Points, req.Description)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.broadcast(websocket.NewMessage(c.GroupID, websocket.EntityChore, websocket.ActionCreated, c.ID, nil))
	writeData(w, http.StatusCreated, c)
}

func (h *ChoreHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req choreRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	c, err := h.chores.UpdateChore(r.Context(), auth.UserID(r.Context()), id, req.Name, req.Points, req.Description)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.broadcast(websocket.NewMessage(c.GroupID, websocket.EntityChore, websocket.ActionUpdated, c.ID, nil))
	writeData(w, http.StatusOK, c)
}

func (h *ChoreHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	c, err := h.chores.DeleteChore(r.Context(), auth.UserID(r.Context()), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.broadcast(websocket.NewMessage(c.GroupID, websocket.EntityChore, websocket.ActionDeleted, c.ID, nil))
	writeData(w, http.StatusOK, map[string]int64{"id": c.ID})
}
