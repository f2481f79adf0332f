package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"reversi-arena/internal/ai"
	"reversi-arena/internal/session"
	"reversi-arena/internal/store"
	"reversi-arena/internal/ws"
)

func newTestRouter(t *testing.T) (http.Handler, *store.Memory, *session.Registry) {
	t.Helper()
	st := store.NewMemory()
	srv := ws.NewServer(st)
	reg := session.NewRegistry(session.Config{TickInterval: time.Hour}, st, ai.NewSelector(1), srv)
	srv.SetRegistry(reg)
	t.Cleanup(reg.CloseAll)
	return newRouter(st, srv, reg), st, reg
}

func getJSON(t *testing.T, h http.Handler, path string, wantStatus int) map[string]any {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != wantStatus {
		t.Fatalf("GET %s = %d, want %d (body %s)", path, rec.Code, wantStatus, rec.Body.String())
	}
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal %s body: %v", path, err)
	}
	return out
}

func TestHealthReportsCounts(t *testing.T) {
	h, _, reg := newTestRouter(t)
	if _, err := reg.CreateRoom(session.Seat{ConnID: "c1", Nickname: "alice", Coins: 100}); err != nil {
		t.Fatalf("create room: %v", err)
	}

	out := getJSON(t, h, "/health", http.StatusOK)
	if out["status"] != "ok" {
		t.Fatalf("status = %v", out["status"])
	}
	if out["activeRooms"] != float64(1) {
		t.Fatalf("activeRooms = %v, want 1", out["activeRooms"])
	}
	if out["playerCount"] != float64(0) {
		t.Fatalf("playerCount = %v, want 0", out["playerCount"])
	}
}

func TestPlayerLookup(t *testing.T) {
	h, st, _ := newTestRouter(t)
	if _, err := st.GetOrCreate(context.Background(), "alice", "cat"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	out := getJSON(t, h, "/player/alice", http.StatusOK)
	if out["nickname"] != "alice" {
		t.Fatalf("nickname = %v", out["nickname"])
	}
	if out["coins"] != float64(store.InitialCoins) {
		t.Fatalf("coins = %v, want %d", out["coins"], store.InitialCoins)
	}

	// Lookup is case-insensitive, matching the login identity rule.
	out = getJSON(t, h, "/player/ALICE", http.StatusOK)
	if out["nickname"] != "alice" {
		t.Fatalf("nickname = %v", out["nickname"])
	}

	out = getJSON(t, h, "/player/nobody", http.StatusNotFound)
	if out["error"] != "player_not_found" {
		t.Fatalf("error = %v", out["error"])
	}
}

func TestLeaderboard(t *testing.T) {
	h, st, _ := newTestRouter(t)
	ctx := context.Background()
	for _, nick := range []string{"alice", "bob", "carol"} {
		if _, err := st.GetOrCreate(ctx, nick, ""); err != nil {
			t.Fatalf("seed %s: %v", nick, err)
		}
	}
	if _, err := st.UpdateCoins(ctx, "bob", 10, store.OutcomeWin); err != nil {
		t.Fatalf("update: %v", err)
	}

	out := getJSON(t, h, "/leaderboard?limit=2", http.StatusOK)
	items, ok := out["items"].([]any)
	if !ok || len(items) != 2 {
		t.Fatalf("items = %v", out["items"])
	}
	top, _ := items[0].(map[string]any)
	if top["nickname"] != "bob" {
		t.Fatalf("top nickname = %v, want bob", top["nickname"])
	}
	if out["limit"] != float64(2) {
		t.Fatalf("limit = %v, want 2", out["limit"])
	}

	out = getJSON(t, h, "/leaderboard", http.StatusOK)
	if out["limit"] != float64(10) {
		t.Fatalf("default limit = %v, want 10", out["limit"])
	}

	out = getJSON(t, h, "/leaderboard?limit=0", http.StatusBadRequest)
	if out["error"] != "bad_limit" {
		t.Fatalf("error = %v", out["error"])
	}
}
