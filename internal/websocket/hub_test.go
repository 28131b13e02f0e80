package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	ws "github.com/coder/websocket"
)

// mockClient creates a Client with a send channel but no real connection.
func mockClient(hub *Hub, groupID int64) *Client {
	return &Client{
		hub:     hub,
		groupID: groupID,
		send:    make(chan []byte, sendBufferSize),
	}
}

func TestRegisterUnregister(t *testing.T) {
	hub := NewHub(slog.Default())

	c1 := mockClient(hub, 1)
	c2 := mockClient(hub, 2)

	hub.Register(c1)
	hub.Register(c2)

	if got := hub.ClientCount(); got != 2 {
		t.Fatalf("expected 2 clients, got %d", got)
	}
	if got := hub.GroupClientCount(1); got != 1 {
		t.Fatalf("expected 1 client in group 1, got %d", got)
	}

	hub.Unregister(c1)
	if got := hub.GroupClientCount(1); got != 0 {
		t.Fatalf("expected 0 clients in group 1 after unregister, got %d", got)
	}

	hub.Unregister(c2)
	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestDoubleUnregister(t *testing.T) {
	hub := NewHub(slog.Default())
	c := mockClient(hub, 1)
	hub.Register(c)
	hub.Unregister(c)
	// Should not panic
	hub.Unregister(c)

	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestBroadcastScopedToGroup(t *testing.T) {
	hub := NewHub(slog.Default())

	roomies1 := mockClient(hub, 1)
	roomies2 := mockClient(hub, 1)
	other := mockClient(hub, 2)
	hub.Register(roomies1)
	hub.Register(roomies2)
	hub.Register(other)

	hub.Broadcast(NewMessage(1, EntityChoreLog, ActionCreated, 42, map[string]any{"points": float64(5)}))

	for _, c := range []*Client{roomies1, roomies2} {
		select {
		case data := <-c.send:
			var got Message
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got.Type != "chore_log_created" {
				t.Errorf("type = %q, want %q", got.Type, "chore_log_created")
			}
			if got.GroupID != 1 || got.ID != 42 {
				t.Errorf("group/id = %d/%d, want 1/42", got.GroupID, got.ID)
			}
			if got.Extra["points"] != float64(5) {
				t.Errorf("extra points = %v, want 5", got.Extra["points"])
			}
		default:
			t.Error("expected message in client send channel")
		}
	}

	select {
	case <-other.send:
		t.Error("client of another group should not receive the message")
	default:
	}
}

func TestBroadcastDropsWhenFull(t *testing.T) {
	hub := NewHub(slog.Default())
	c := mockClient(hub, 1)
	hub.Register(c)

	for i := 0; i < sendBufferSize; i++ {
		c.send <- []byte("fill")
	}

	done := make(chan struct{})
	go func() {
		hub.Broadcast(NewMessage(1, EntityChore, ActionCreated, 1, nil))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on full client buffer")
	}
}

func TestConcurrentBroadcast(t *testing.T) {
	hub := NewHub(slog.Default())

	clients := make([]*Client, 10)
	for i := range clients {
		clients[i] = mockClient(hub, int64(i%2))
		hub.Register(clients[i])
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			hub.Broadcast(NewMessage(int64(i%2), EntityChore, ActionUpdated, int64(i), nil))
		}(i)
	}
	wg.Wait()

	for _, c := range clients {
		hub.Unregister(c)
	}
	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestNewMessage(t *testing.T) {
	msg := NewMessage(3, EntityMember, ActionJoined, 7, nil)
	if msg.Type != "member_joined" {
		t.Errorf("type = %q, want %q", msg.Type, "member_joined")
	}
	if msg.GroupID != 3 {
		t.Errorf("group_id = %d, want 3", msg.GroupID)
	}
}

func TestServeDeliversGroupMessages(t *testing.T) {
	hub := NewHub(slog.Default())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(w, r, 5, 1, nil)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := ws.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	// The hello frame is written after registration.
	_, first, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read hello: %v", err)
	}
	if !strings.Contains(string(first), `"type":"connected"`) || !strings.Contains(string(first), `"group_id":5`) {
		t.Fatalf("hello = %s", first)
	}

	hub.Broadcast(NewMessage(5, EntityGroup, ActionUpdated, 5, nil))

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got Message
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Type != "group_updated" {
		t.Errorf("type = %q, want %q", got.Type, "group_updated")
	}
}
