package board

import "fmt"

// Cell is the content of one board square.
type Cell int8

const (
	Empty Cell = iota
	Black      // moves first
	White
)

func (c Cell) String() string {
	switch c {
	case Black:
		return "black"
	case White:
		return "white"
	default:
		return "empty"
	}
}

// Opponent returns the other color. Calling it on Empty is a bug.
func (c Cell) Opponent() Cell {
	switch c {
	case Black:
		return White
	case White:
		return Black
	}
	panic("board: Opponent on empty cell")
}

const Size = 8

// Board is a plain value; copying it copies the position. All
// operations are pure, so boards can be shared across goroutines.
type Board [Size][Size]Cell

// Move is a target square in [0,7]x[0,7].
type Move struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// InBounds reports whether the move addresses a real square.
func (m Move) InBounds() bool {
	return m.Row >= 0 && m.Row < Size && m.Col >= 0 && m.Col < Size
}

var directions = [8][2]int{
	{-1, -1}, {-1, 0}, {-1, 1},
	{0, -1}, {0, 1},
	{1, -1}, {1, 0}, {1, 1},
}

// Initial returns the standard four-piece starting position.
func Initial() Board {
	var b Board
	b[3][3] = White
	b[3][4] = Black
	b[4][3] = Black
	b[4][4] = White
	return b
}

// wouldFlip walks from m in direction d and reports whether the ray
// brackets at least one opponent piece between m and an own-color
// piece. The walk stops at the first empty cell or the board edge.
func wouldFlip(b Board, m Move, d [2]int, player Cell) bool {
	r, c := m.Row+d[0], m.Col+d[1]
	seenOpponent := false
	for r >= 0 && r < Size && c >= 0 && c < Size {
		switch b[r][c] {
		case player.Opponent():
			seenOpponent = true
		case player:
			return seenOpponent
		default:
			return false
		}
		r += d[0]
		c += d[1]
	}
	return false
}

// IsValidMove reports whether player may place a piece at m.
func IsValidMove(b Board, m Move, player Cell) bool {
	if !m.InBounds() || b[m.Row][m.Col] != Empty {
		return false
	}
	for _, d := range directions {
		if wouldFlip(b, m, d, player) {
			return true
		}
	}
	return false
}

// ValidMoves returns every legal move for player in row-major order.
func ValidMoves(b Board, player Cell) []Move {
	var moves []Move
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			m := Move{Row: r, Col: c}
			if b[r][c] == Empty && IsValidMove(b, m, player) {
				moves = append(moves, m)
			}
		}
	}
	return moves
}

// Apply places player's piece at m and flips every bracketed opponent
// run, returning the new board. The caller must have checked
// IsValidMove first; applying an illegal move panics.
func Apply(b Board, m Move, player Cell) Board {
	if !IsValidMove(b, m, player) {
		panic(fmt.Sprintf("board: Apply called with illegal move (%d,%d) for %s", m.Row, m.Col, player))
	}
	next := b
	next[m.Row][m.Col] = player
	for _, d := range directions {
		if !wouldFlip(b, m, d, player) {
			continue
		}
		r, c := m.Row+d[0], m.Col+d[1]
		for next[r][c] == player.Opponent() {
			next[r][c] = player
			r += d[0]
			c += d[1]
		}
	}
	return next
}

// IsTerminal reports whether neither color has a legal move.
func IsTerminal(b Board) bool {
	return len(ValidMoves(b, Black)) == 0 && len(ValidMoves(b, White)) == 0
}

// Score counts the pieces of each color.
func Score(b Board) (black, white int) {
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			switch b[r][c] {
			case Black:
				black++
			case White:
				white++
			}
		}
	}
	return black, white
}
