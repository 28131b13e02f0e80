package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// Entities and actions carried in activity feed messages.
const (
	EntityChore    = "chore"
	EntityChoreLog = "chore_log"
	EntityGroup    = "group"
	EntityMember   = "member"

	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
	ActionJoined  = "joined"
)

// Message is a live activity notification for one group.
type Message struct {
	Type    string         `json:"type"`
	Entity  string         `json:"entity"`
	Action  string         `json:"action"`
	GroupID int64          `json:"group_id"`
	ID      int64          `json:"id,omitempty"`
	Extra   map[string]any `json:"extra,omitempty"`
}

// NewMessage creates a Message with the Type field derived from entity and action.
func NewMessage(groupID int64, entity, action string, id int64, extra map[string]any) Message {
	return Message{
		Type:    fmt.Sprintf("%s_%s", entity, action),
		Entity:  entity,
		Action:  action,
		GroupID: groupID,
		ID:      id,
		Extra:   extra,
	}
}

// Hub tracks connected clients per group and fans messages out to the
// clients of the message's group.
type Hub struct {
	mu     sync.RWMutex
	groups map[int64]map[*Client]struct{}
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		groups: make(map[int64]map[*Client]struct{}),
		logger: logger,
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.groups[c.groupID]
	if !ok {
		set = make(map[*Client]struct{})
		h.groups[c.groupID] = set
	}
	set[c] = struct{}{}
}

// Unregister removes a client and closes its send channel. Unregistering
// twice is a no-op.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.groups[c.groupID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.groups, c.groupID)
	}
}

// Broadcast sends msg to every client watching msg.GroupID.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.groups[msg.GroupID] {
		select {
		case c.send <- data:
		default:
			// Slow client; drop rather than block the sender.
			h.logger.Debug("dropped message", "group_id", msg.GroupID, "type", msg.Type)
		}
	}
}

// ClientCount returns the number of connected clients across all groups.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.groups {
		n += len(set)
	}
	return n
}

func (h *Hub) GroupClientCount(groupID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[groupID])
}
