package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no player record matches a nickname.
var ErrNotFound = errors.New("not found")

// InitialCoins is the balance a brand-new player starts with.
const InitialCoins = 100

// Outcome classifies one player's result for counter bookkeeping.
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLose Outcome = "lose"
	OutcomeDraw Outcome = "draw"
)

// Player is one persistent player record. Nicknames are matched
// case-insensitively but stored as first seen.
type Player struct {
	Nickname  string    `json:"nickname"`
	Avatar    string    `json:"avatar,omitempty"`
	Coins     int       `json:"coins"`
	Played    int       `json:"played"`
	Wins      int       `json:"wins"`
	Losses    int       `json:"losses"`
	Draws     int       `json:"draws"`
	CreatedAt time.Time `json:"createdAt"`
}

// PlayerStore is the read/write contract the game server consumes.
// UpdateCoins clamps the balance at zero and bumps the play counters.
type PlayerStore interface {
	Get(ctx context.Context, nickname string) (*Player, error)
	GetOrCreate(ctx context.Context, nickname, avatar string) (*Player, error)
	UpdateCoins(ctx context.Context, nickname string, delta int, outcome Outcome) (*Player, error)
	Leaderboard(ctx context.Context, limit int) ([]Player, error)
	Count(ctx context.Context) (int, error)
	Close() error
}

// Open picks the store implementation: a Postgres-backed store when a
// DSN is configured, otherwise the in-memory store.
func Open(ctx context.Context, dsn string) (PlayerStore, error) {
	if dsn == "" {
		return NewMemory(), nil
	}
	pg, err := OpenPostgres(dsn)
	if err != nil {
		return nil, err
	}
	if err := pg.Ping(ctx); err != nil {
		_ = pg.Close()
		return nil, err
	}
	if err := pg.EnsureSchema(ctx); err != nil {
		_ = pg.Close()
		return nil, err
	}
	return pg, nil
}
