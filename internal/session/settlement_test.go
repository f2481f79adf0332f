package session

import (
	"context"
	"errors"
	"testing"

	"reversi-arena/internal/board"
	"reversi-arena/internal/store"
)

type failingStore struct {
	*store.Memory
}

func (f *failingStore) UpdateCoins(ctx context.Context, nickname string, delta int, outcome store.Outcome) (*store.Player, error) {
	return nil, errors.New("store down")
}

func TestSettleSkipsAIAndDisconnectedSeats(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()
	if _, err := mem.GetOrCreate(ctx, "human", ""); err != nil {
		t.Fatalf("seed: %v", err)
	}
	svc := NewSettlementService(mem)
	seats := []*Seat{
		{Nickname: "human", Color: board.Black, Connected: true, Coins: 100},
		{Nickname: "cpu-hard", Color: board.White, Connected: true, IsAI: true},
		{Nickname: "gone", Color: board.White, Connected: false, Coins: 100},
	}
	txns := svc.Settle(ctx, "ROOM01", seats, board.Black, false)
	if len(txns) != 1 {
		t.Fatalf("expected only the connected human settled, got %+v", txns)
	}
	if txns[0].Nickname != "human" || txns[0].Delta != 10 || txns[0].NewBalance != 110 {
		t.Fatalf("transaction: %+v", txns[0])
	}
	if txns[0].ID == "" {
		t.Fatalf("transaction id missing")
	}
}

func TestSettleClampsAtZero(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()
	if _, err := mem.GetOrCreate(ctx, "broke", ""); err != nil {
		t.Fatalf("seed: %v", err)
	}
	// Drain the balance below the loss delta first.
	if _, err := mem.UpdateCoins(ctx, "broke", -97, store.OutcomeLose); err != nil {
		t.Fatalf("drain: %v", err)
	}
	svc := NewSettlementService(mem)
	seats := []*Seat{{Nickname: "broke", Color: board.White, Connected: true, Coins: 3}}
	txns := svc.Settle(ctx, "ROOM01", seats, board.Black, false)
	if len(txns) != 1 || txns[0].NewBalance != 0 {
		t.Fatalf("expected clamp at zero, got %+v", txns)
	}
	if p, _ := mem.Get(ctx, "broke"); p.Coins != 0 {
		t.Fatalf("store balance %d", p.Coins)
	}
}

func TestSettleSurvivesStoreFailure(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()
	if _, err := mem.GetOrCreate(ctx, "human", ""); err != nil {
		t.Fatalf("seed: %v", err)
	}
	svc := NewSettlementService(&failingStore{Memory: mem})
	seats := []*Seat{{Nickname: "human", Color: board.Black, Connected: true, Coins: 100}}
	txns := svc.Settle(ctx, "ROOM01", seats, board.Black, false)
	if len(txns) != 1 {
		t.Fatalf("transactions: %+v", txns)
	}
	if txns[0].Settled {
		t.Fatalf("failed write must be reported unsettled")
	}
	if txns[0].NewBalance != 110 {
		t.Fatalf("locally computed balance: %+v", txns[0])
	}
	if seats[0].Coins != 110 {
		t.Fatalf("seat snapshot not updated: %d", seats[0].Coins)
	}
}
