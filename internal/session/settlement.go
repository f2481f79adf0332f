package session

import (
	"context"

	"github.com/rs/zerolog/log"

	"reversi-arena/internal/board"
	"reversi-arena/internal/store"
)

// Coin deltas per outcome. Balances are clamped at zero by the store.
const (
	coinsWin  = 10
	coinsDraw = 5
	coinsLose = -5
)

// SettlementService turns a finished game into coin movements on the
// external player store. It is invoked exactly once per terminal
// transition, from inside the owning session's goroutine.
type SettlementService struct {
	store store.PlayerStore
}

func NewSettlementService(st store.PlayerStore) *SettlementService {
	return &SettlementService{store: st}
}

// Settle computes and persists per-seat coin deltas. AI seats and
// disconnected or unauthenticated human seats are skipped. A store
// failure never corrupts the in-memory result: the transaction is
// reported with Settled=false and the locally clamped balance.
func (s *SettlementService) Settle(ctx context.Context, roomID string, seats []*Seat, winnerColor board.Cell, draw bool) []CoinTransaction {
	var txns []CoinTransaction
	for _, seat := range seats {
		if seat == nil || seat.IsAI || seat.Nickname == "" || !seat.Connected {
			continue
		}
		var outcome store.Outcome
		var delta int
		switch {
		case draw:
			outcome, delta = store.OutcomeDraw, coinsDraw
		case seat.Color == winnerColor:
			outcome, delta = store.OutcomeWin, coinsWin
		default:
			outcome, delta = store.OutcomeLose, coinsLose
		}

		old := seat.Coins
		newBalance := old + delta
		if newBalance < 0 {
			newBalance = 0
		}
		settled := true
		rec, err := s.store.UpdateCoins(ctx, seat.Nickname, delta, outcome)
		if err != nil {
			settled = false
			log.Error().Err(err).
				Str("room", roomID).
				Str("nickname", seat.Nickname).
				Int("delta", delta).
				Msg("settlement write failed")
		} else {
			newBalance = rec.Coins
		}
		seat.Coins = newBalance

		txns = append(txns, CoinTransaction{
			ID:         store.NewID(),
			Nickname:   seat.Nickname,
			Outcome:    outcome,
			Delta:      delta,
			OldBalance: old,
			NewBalance: newBalance,
			Settled:    settled,
		})
	}
	return txns
}
