package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dukerupert/choretally/internal/auth"
	"github.com/dukerupert/choretally/internal/config"
	"github.com/dukerupert/choretally/internal/database"
	"github.com/dukerupert/choretally/internal/model"
	"github.com/dukerupert/choretally/internal/service"
	"github.com/dukerupert/choretally/internal/store"
	"github.com/dukerupert/choretally/internal/websocket"
)

type choreFixture struct {
	h      *ChoreHandler
	hub    *websocket.Hub
	alice  *model.User
	bob    *model.User
	group  *model.Group
	groups *service.GroupService
}

func setupChoreHandler(t *testing.T) *choreFixture {
	t.Helper()
	db, err := database.OpenMemory()
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	st := store.New(db)
	alice, _ := st.Users.Create(ctx, "alice@example.com", "Alice")
	bob, _ := st.Users.Create(ctx, "bob@example.com", "Bob")

	groups := service.NewGroupService(st, nil, nil, nil, discard)
	g, err := groups.CreateGroup(ctx, alice.ID, "Roomies")
	if err != nil {
		t.Fatalf("create group: %v", err)
	}

	hub := websocket.NewHub(discard)
	h := NewChoreHandler(service.NewChoreService(st, config.OrderAlphabetical), groups, hub, discard)
	return &choreFixture{h: h, hub: hub, alice: alice, bob: bob, group: g, groups: groups}
}

func asUser(req *http.Request, userID int64) *http.Request {
	return req.WithContext(auth.WithAuth(req.Context(), auth.AuthContext{UserID: userID}))
}

func TestChoreHandlerCreateAndList(t *testing.T) {
	f := setupChoreHandler(t)

	req := httptest.NewRequest("POST", "/api/groups/1/chores", strings.NewReader(`{"name":"Dishes","points":5}`))
	req.SetPathValue("id", "1")
	rec := httptest.NewRecorder()
	f.h.Create(rec, asUser(req, f.alice.ID))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest("GET", "/api/groups/1/chores", nil)
	req.SetPathValue("id", "1")
	rec = httptest.NewRecorder()
	f.h.List(rec, asUser(req, f.alice.ID))
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var env struct {
		Data []model.Chore `json:"data"`
	}
	json.Unmarshal(rec.Body.Bytes(), &env)
	if len(env.Data) != 1 || env.Data[0].Name != "Dishes" {
		t.Errorf("chores = %+v", env.Data)
	}
}

func TestChoreHandlerListRequiresMembership(t *testing.T) {
	f := setupChoreHandler(t)

	req := httptest.NewRequest("GET", "/api/groups/1/chores", nil)
	req.SetPathValue("id", "1")
	rec := httptest.NewRecorder()
	f.h.List(rec, asUser(req, f.bob.ID))
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestChoreHandlerBadOrder(t *testing.T) {
	f := setupChoreHandler(t)

	req := httptest.NewRequest("GET", "/api/groups/1/chores?order=random", nil)
	req.SetPathValue("id", "1")
	rec := httptest.NewRecorder()
	f.h.List(rec, asUser(req, f.alice.ID))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestChoreHandlerInvalidJSON(t *testing.T) {
	f := setupChoreHandler(t)

	req := httptest.NewRequest("POST", "/api/groups/1/chores", strings.NewReader(`{`))
	req.SetPathValue("id", "1")
	rec := httptest.NewRecorder()
	f.h.Create(rec, asUser(req, f.alice.ID))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
