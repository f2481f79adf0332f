package store_test

import (
	"context"
	"errors"
	"testing"

	"reversi-arena/internal/store"
	"reversi-arena/internal/testutil"
)

func TestPostgresRoundTrip(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()
	ctx := context.Background()

	p, err := st.GetOrCreate(ctx, "alice", "cat")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.Coins != store.InitialCoins {
		t.Fatalf("coins = %d, want %d", p.Coins, store.InitialCoins)
	}

	// Same identity regardless of case; avatar updates when provided.
	again, err := st.GetOrCreate(ctx, "ALICE", "dog")
	if err != nil {
		t.Fatalf("get again: %v", err)
	}
	if again.Nickname != "alice" || again.Avatar != "dog" {
		t.Fatalf("again = %+v", again)
	}

	if _, err := st.Get(ctx, "nobody"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("get missing: %v", err)
	}
}

func TestPostgresUpdateCoins(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := st.GetOrCreate(ctx, "bob", ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	p, err := st.UpdateCoins(ctx, "bob", 10, store.OutcomeWin)
	if err != nil {
		t.Fatalf("win: %v", err)
	}
	if p.Coins != store.InitialCoins+10 || p.Wins != 1 || p.Played != 1 {
		t.Fatalf("after win = %+v", p)
	}

	p, err = st.UpdateCoins(ctx, "bob", -500, store.OutcomeLose)
	if err != nil {
		t.Fatalf("lose: %v", err)
	}
	if p.Coins != 0 {
		t.Fatalf("coins = %d, want clamp at 0", p.Coins)
	}
	if p.Losses != 1 || p.Played != 2 {
		t.Fatalf("counters = %+v", p)
	}

	if _, err := st.UpdateCoins(ctx, "nobody", 5, store.OutcomeDraw); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("update missing: %v", err)
	}
}

func TestPostgresLeaderboard(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()
	ctx := context.Background()

	for _, nick := range []string{"alice", "bob", "carol"} {
		if _, err := st.GetOrCreate(ctx, nick, ""); err != nil {
			t.Fatalf("seed %s: %v", nick, err)
		}
	}
	if _, err := st.UpdateCoins(ctx, "carol", 20, store.OutcomeWin); err != nil {
		t.Fatalf("update: %v", err)
	}

	top, err := st.Leaderboard(ctx, 2)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(top) != 2 || top[0].Nickname != "carol" {
		t.Fatalf("leaderboard = %+v", top)
	}

	n, err := st.Count(ctx)
	if err != nil || n != 3 {
		t.Fatalf("count = %d, %v", n, err)
	}
}
