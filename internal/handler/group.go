package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/choretally/internal/apperr"
	"github.com/dukerupert/choretally/internal/auth"
	"github.com/dukerupert/choretally/internal/model"
	"github.com/dukerupert/choretally/internal/service"
	"github.com/dukerupert/choretally/internal/websocket"
)

type GroupHandler struct {
	groups *service.GroupService
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewGroupHandler(gs *service.GroupService, hub *websocket.Hub, logger *slog.Logger) *GroupHandler {
	return &GroupHandler{groups: gs, hub: hub, logger: logger}
}

func (h *GroupHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

func (h *GroupHandler) Stats(w http.ResponseWriter, r *http.Request) {
	n, err := h.groups.CountGroups(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, map[string]int{"count": n})
}

func (h *GroupHandler) BySharingID(w http.ResponseWriter, r *http.Request) {
	g, err := h.groups.FindGroupByShareCode(r.Context(), r.PathValue("code"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, g)
}

func (h *GroupHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	groups, err := h.groups.ListUserGroups(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, groups)
}

type groupRequest struct {
	Name string `json:"name"`
}

func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req groupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	g, err := h.groups.CreateGroup(r.Context(), auth.UserID(r.Context()), req.Name)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusCreated, g)
}

type joinRequest struct {
	Code string `json:"code"`
}

func (h *GroupHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	userID := auth.UserID(r.Context())
	res, err := h.groups.JoinByShareCode(r.Context(), req.Code, userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if !res.AlreadyMember {
		h.broadcast(websocket.NewMessage(res.GroupID, websocket.EntityMember, websocket.ActionJoined, userID, nil))
	}
	writeData(w, http.StatusOK, res)
}

func (h *GroupHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	detail, err := h.groups.GetGroupDetail(r.Context(), auth.UserID(r.Context()), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, detail)
}

func (h *GroupHandler) UpdateName(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req groupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	g, err := h.groups.UpdateGroupName(r.Context(), auth.UserID(r.Context()), id, req.Name)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.broadcast(websocket.NewMessage(g.ID, websocket.EntityGroup, websocket.ActionUpdated, g.ID, map[string]any{"name": g.Name}))
	writeData(w, http.StatusOK, g)
}

type agreementRequest struct {
	Agreement string `json:"agreement"`
}

func (h *GroupHandler) UpdateAgreement(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req agreementRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	g, err := h.groups.UpdateGroupAgreement(r.Context(), auth.UserID(r.Context()), id, req.Agreement)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.broadcast(websocket.NewMessage(g.ID, websocket.EntityGroup, websocket.ActionUpdated, g.ID, map[string]any{"agreement": g.Agreement}))
	writeData(w, http.StatusOK, g)
}

type memberRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type memberResponse struct {
	User          *model.User `json:"user"`
	AlreadyMember bool        `json:"already_member"`
}

func (h *GroupHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req memberRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if req.Email == "" {
		writeError(w, r, h.logger, apperr.Validation("email is required"))
		return
	}

	u, res, err := h.groups.AddMemberByEmail(r.Context(), auth.UserID(r.Context()), id, req.Email, req.Name)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	status := http.StatusOK
	if !res.AlreadyMember {
		status = http.StatusCreated
		h.broadcast(websocket.NewMessage(id, websocket.EntityMember, websocket.ActionJoined, u.ID, nil))
	}
	writeData(w, status, memberResponse{User: u, AlreadyMember: res.AlreadyMember})
}
