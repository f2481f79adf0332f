package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// Memory is a PlayerStore held in process memory. It backs local runs
// without a database and every test.
type Memory struct {
	mu      sync.RWMutex
	players map[string]*Player // keyed by lowercased nickname
}

func NewMemory() *Memory {
	return &Memory{players: make(map[string]*Player)}
}

func key(nickname string) string {
	return strings.ToLower(strings.TrimSpace(nickname))
}

func (m *Memory) Get(ctx context.Context, nickname string) (*Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.players[key(nickname)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *Memory) GetOrCreate(ctx context.Context, nickname, avatar string) (*Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key(nickname)
	if p, ok := m.players[k]; ok {
		if avatar != "" && p.Avatar != avatar {
			p.Avatar = avatar
		}
		cp := *p
		return &cp, nil
	}
	p := &Player{
		Nickname:  nickname,
		Avatar:    avatar,
		Coins:     InitialCoins,
		CreatedAt: time.Now(),
	}
	m.players[k] = p
	cp := *p
	return &cp, nil
}

func (m *Memory) UpdateCoins(ctx context.Context, nickname string, delta int, outcome Outcome) (*Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.players[key(nickname)]
	if !ok {
		return nil, ErrNotFound
	}
	p.Coins += delta
	if p.Coins < 0 {
		p.Coins = 0
	}
	p.Played++
	switch outcome {
	case OutcomeWin:
		p.Wins++
	case OutcomeLose:
		p.Losses++
	case OutcomeDraw:
		p.Draws++
	}
	cp := *p
	return &cp, nil
}

func (m *Memory) Leaderboard(ctx context.Context, limit int) ([]Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Player, 0, len(m.players))
	for _, p := range m.players {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Coins != out[j].Coins {
			return out[i].Coins > out[j].Coins
		}
		return key(out[i].Nickname) < key(out[j].Nickname)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.players), nil
}

func (m *Memory) Close() error { return nil }
