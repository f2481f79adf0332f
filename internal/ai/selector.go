package ai

import (
	"math/rand"
	"sync"

	"reversi-arena/internal/board"
)

// Difficulty selects how much the bot thinks before moving.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// ParseDifficulty normalizes a client-supplied tier, defaulting to Medium.
func ParseDifficulty(s string) Difficulty {
	switch Difficulty(s) {
	case Easy, Medium, Hard:
		return Difficulty(s)
	default:
		return Medium
	}
}

// Selector picks bot moves. The random source is owned by the selector
// so tests can seed it; the mutex keeps one selector usable from many
// sessions.
type Selector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewSelector(seed int64) *Selector {
	return &Selector{rng: rand.New(rand.NewSource(seed))}
}

// SelectMove returns the bot's move for player, or false when the
// player has no legal move.
func (s *Selector) SelectMove(b board.Board, player board.Cell, tier Difficulty) (board.Move, bool) {
	moves := board.ValidMoves(b, player)
	if len(moves) == 0 {
		return board.Move{}, false
	}
	switch tier {
	case Easy:
		return s.pick(moves), true
	case Hard:
		return greedyMove(b, moves, player), true
	default:
		return s.mediumMove(moves), true
	}
}

func (s *Selector) pick(moves []board.Move) board.Move {
	s.mu.Lock()
	defer s.mu.Unlock()
	return moves[s.rng.Intn(len(moves))]
}

// mediumMove prefers corners, then edges, then anything, choosing
// uniformly inside the best non-empty tier.
func (s *Selector) mediumMove(moves []board.Move) board.Move {
	var corners, edges []board.Move
	for _, m := range moves {
		switch {
		case isCorner(m):
			corners = append(corners, m)
		case isEdge(m):
			edges = append(edges, m)
		}
	}
	if len(corners) > 0 {
		return s.pick(corners)
	}
	if len(edges) > 0 {
		return s.pick(edges)
	}
	return s.pick(moves)
}

// greedyMove is a one-ply lookahead, not a search: each candidate is
// applied and the resulting position scored; the first best candidate
// in scan order wins ties, so the choice is deterministic.
func greedyMove(b board.Board, moves []board.Move, player board.Cell) board.Move {
	best := moves[0]
	bestScore := positionScore(board.Apply(b, best, player), player)
	for _, m := range moves[1:] {
		if score := positionScore(board.Apply(b, m, player), player); score > bestScore {
			best, bestScore = m, score
		}
	}
	return best
}

const (
	cornerWeight = 25
	edgeWeight   = 5
)

// positionScore values material plus weighted corner and edge control.
func positionScore(b board.Board, player board.Cell) int {
	opp := player.Opponent()
	score := 0
	for r := 0; r < board.Size; r++ {
		for c := 0; c < board.Size; c++ {
			var sign int
			switch b[r][c] {
			case player:
				sign = 1
			case opp:
				sign = -1
			default:
				continue
			}
			m := board.Move{Row: r, Col: c}
			score += sign
			if isCorner(m) {
				score += sign * cornerWeight
			}
			if isEdge(m) { // corners are edge cells too
				score += sign * edgeWeight
			}
		}
	}
	return score
}

func isCorner(m board.Move) bool {
	return (m.Row == 0 || m.Row == board.Size-1) && (m.Col == 0 || m.Col == board.Size-1)
}

func isEdge(m board.Move) bool {
	return m.Row == 0 || m.Row == board.Size-1 || m.Col == 0 || m.Col == board.Size-1
}
