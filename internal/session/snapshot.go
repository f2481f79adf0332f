package session

import (
	"time"

	"reversi-arena/internal/ai"
	"reversi-arena/internal/board"
	"reversi-arena/internal/store"
)

// Status is the room lifecycle state.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusPaused   Status = "paused"
	StatusFinished Status = "finished"
)

// Seat is one of the two participant slots. The connection id is
// volatile and rebound on reconnect; the nickname is the stable
// identity key (matched case-insensitively).
type Seat struct {
	ConnID    string
	Nickname  string
	Avatar    string
	Color     board.Cell // Empty until assigned
	Ready     bool
	Connected bool
	IsAI      bool
	Coins     int
}

// SeatView is the wire form of a Seat.
type SeatView struct {
	Nickname  string `json:"nickname"`
	Avatar    string `json:"avatar,omitempty"`
	Color     string `json:"color,omitempty"`
	Ready     bool   `json:"ready"`
	Connected bool   `json:"connected"`
	IsAI      bool   `json:"isAi"`
	Coins     int    `json:"coins"`
}

// Snapshot is an immutable view of a session, safe to hand to any
// goroutine. Board cells encode 0=empty, 1=black, 2=white.
type Snapshot struct {
	RoomID       string            `json:"roomId"`
	Status       Status            `json:"status"`
	Board        board.Board       `json:"board"`
	CurrentTurn  string            `json:"currentTurn,omitempty"`
	TimeLeft     int               `json:"timeLeft"`
	LastMove     *board.Move       `json:"lastMove,omitempty"`
	Winner       string            `json:"winner,omitempty"`
	Seats        []SeatView        `json:"seats"`
	ValidMoves   []board.Move      `json:"validMoves,omitempty"`
	ScoreBlack   int               `json:"scoreBlack"`
	ScoreWhite   int               `json:"scoreWhite"`
	VsAI         bool              `json:"vsAi"`
	Difficulty   ai.Difficulty     `json:"difficulty,omitempty"`
	Transactions []CoinTransaction `json:"transactions,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
}

// CoinTransaction records one seat's settlement result. Settled is
// false when the player-store write failed; the in-memory balances are
// still reported so the client sees a consistent story.
type CoinTransaction struct {
	ID         string        `json:"id"`
	Nickname   string        `json:"nickname"`
	Outcome    store.Outcome `json:"outcome"`
	Delta      int           `json:"delta"`
	OldBalance int           `json:"oldBalance"`
	NewBalance int           `json:"newBalance"`
	Settled    bool          `json:"settled"`
}

// Broadcaster receives outbound events from sessions. Implementations
// must not call back into the session from these methods.
type Broadcaster interface {
	SessionUpdate(snap Snapshot)
	TimerTick(roomID string, timeLeft int)
	GameOver(snap Snapshot)
}

func (s *Seat) view() SeatView {
	color := ""
	if s.Color != board.Empty {
		color = s.Color.String()
	}
	return SeatView{
		Nickname:  s.Nickname,
		Avatar:    s.Avatar,
		Color:     color,
		Ready:     s.Ready,
		Connected: s.Connected,
		IsAI:      s.IsAI,
		Coins:     s.Coins,
	}
}
