package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/choretally/internal/auth"
	"github.com/dukerupert/choretally/internal/service"
	"github.com/dukerupert/choretally/internal/websocket"
)

// LiveHandler upgrades members to the group activity feed.
type LiveHandler struct {
	groups         *service.GroupService
	hub            *websocket.Hub
	originPatterns []string
	logger         *slog.Logger
}

func NewLiveHandler(gs *service.GroupService, hub *websocket.Hub, originPatterns []string, logger *slog.Logger) *LiveHandler {
	return &LiveHandler{groups: gs, hub: hub, originPatterns: originPatterns, logger: logger}
}

func (h *LiveHandler) Serve(w http.ResponseWriter, r *http.Request) {
	groupID, err := parseIDParam(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	userID := auth.UserID(r.Context())
	if err := h.groups.RequireMember(r.Context(), groupID, userID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.hub.Serve(w, r, groupID, userID, h.originPatterns)
}
