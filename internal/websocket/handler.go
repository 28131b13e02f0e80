package websocket

import (
	"net/http"

	ws "github.com/coder/websocket"
)

// Serve upgrades the request and streams groupID's activity to it until the
// connection closes. Callers must have checked membership already.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, groupID, userID int64, originPatterns []string) {
	conn, err := ws.Accept(w, r, &ws.AcceptOptions{
		OriginPatterns: originPatterns,
	})
	if err != nil {
		h.logger.Warn("accept websocket", "group_id", groupID, "error", err)
		return
	}

	h.logger.Debug("client connected", "group_id", groupID, "user_id", userID)
	NewClient(h, conn, groupID, userID).Run(r.Context())
	h.logger.Debug("client disconnected", "group_id", groupID, "user_id", userID)
}
