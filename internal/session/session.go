package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"reversi-arena/internal/ai"
	"reversi-arena/internal/board"
	"reversi-arena/internal/store"
)

// Config carries the per-session tunables.
type Config struct {
	TurnSeconds  int
	AIMoveDelay  time.Duration
	TickInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.TurnSeconds <= 0 {
		c.TurnSeconds = 30
	}
	if c.AIMoveDelay <= 0 {
		c.AIMoveDelay = 800 * time.Millisecond
	}
	if c.TickInterval <= 0 {
		c.TickInterval = time.Second
	}
	return c
}

// Session owns one room. All mutable state below the mailbox is owned
// by the run goroutine: external callers, clock callbacks and the AI
// scheduler all funnel through the mailbox, so events against the same
// room are processed in a total order. Sessions share nothing, so
// different rooms proceed fully in parallel.
type Session struct {
	id        string
	createdAt time.Time

	cfg      Config
	selector *ai.Selector
	store    store.PlayerStore
	settle   *SettlementService
	bcast    Broadcaster
	clock    *TurnClock

	mailbox   chan func()
	closed    chan struct{}
	closeOnce sync.Once

	// Owned by the run goroutine.
	status       Status
	bd           board.Board
	turn         board.Cell
	seats        []*Seat
	timeLeft     int
	lastMove     *board.Move
	winner       string
	txns         []CoinTransaction
	lastActivity time.Time
	vsAI         bool
	tier         ai.Difficulty
	clockGen     uint64
	epoch        uint64
	settled      bool
}

// Params describes a room at creation time.
type Params struct {
	ID         string
	Creator    Seat
	VsAI       bool
	Difficulty ai.Difficulty
}

// New builds a session and starts its actor goroutine. A human-vs-human
// room starts Waiting with one seat; an AI room starts Playing at once,
// with the creator as black.
func New(p Params, cfg Config, st store.PlayerStore, selector *ai.Selector, bcast Broadcaster) *Session {
	cfg = cfg.withDefaults()
	now := time.Now()
	s := &Session{
		id:           p.ID,
		createdAt:    now,
		cfg:          cfg,
		selector:     selector,
		store:        st,
		settle:       NewSettlementService(st),
		bcast:        bcast,
		clock:        NewTurnClock(cfg.TickInterval),
		mailbox:      make(chan func(), 32),
		closed:       make(chan struct{}),
		status:       StatusWaiting,
		bd:           board.Initial(),
		turn:         board.Black,
		timeLeft:     cfg.TurnSeconds,
		lastActivity: now,
	}

	creator := p.Creator
	creator.Color = board.Black
	creator.Connected = true
	s.seats = []*Seat{&creator}

	if p.VsAI {
		s.vsAI = true
		s.tier = p.Difficulty
		s.seats = append(s.seats, &Seat{
			Nickname:  BotNickname(p.Difficulty),
			IsAI:      true,
			Connected: true,
			Ready:     true,
			Color:     board.White,
		})
		creator.Ready = true
		s.status = StatusPlaying
		s.startClock()
	}

	go s.run()
	return s
}

// BotNickname names the AI seat for a difficulty tier.
func BotNickname(tier ai.Difficulty) string {
	return "cpu-" + string(tier)
}

func (s *Session) ID() string           { return s.id }
func (s *Session) CreatedAt() time.Time { return s.createdAt }

func (s *Session) run() {
	for {
		select {
		case fn := <-s.mailbox:
			fn()
		case <-s.closed:
			return
		}
	}
}

// call runs fn inside the actor and waits for its result.
func (s *Session) call(fn func() error) error {
	errc := make(chan error, 1)
	select {
	case s.mailbox <- func() { errc <- fn() }:
	case <-s.closed:
		return ErrRoomClosed
	}
	select {
	case err := <-errc:
		return err
	case <-s.closed:
		return ErrRoomClosed
	}
}

// post runs fn inside the actor without waiting; it is dropped if the
// session is already closed.
func (s *Session) post(fn func()) {
	select {
	case s.mailbox <- fn:
	case <-s.closed:
	}
}

// Close stops the actor and its clock. Idempotent.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.clock.Stop()
		close(s.closed)
	})
}

// Join seats a second human. The remaining color (white) is assigned
// immediately.
func (s *Session) Join(connID, nickname, avatar string, coins int) error {
	return s.call(func() error {
		if s.seatByNick(nickname) != nil {
			return ErrAlreadyJoined
		}
		if len(s.seats) >= 2 {
			return ErrRoomFull
		}
		if s.status != StatusWaiting {
			return ErrNotWaiting
		}
		// Take whichever color the sitting seat does not hold; after
		// seat turnover in a Waiting room the survivor may own white.
		color := board.Black
		for _, seated := range s.seats {
			if seated.Color == board.Black {
				color = board.White
			}
		}
		s.seats = append(s.seats, &Seat{
			ConnID:    connID,
			Nickname:  nickname,
			Avatar:    avatar,
			Color:     color,
			Connected: true,
			Coins:     coins,
		})
		s.touch()
		s.broadcastUpdate()
		return nil
	})
}

// SetReady marks a seat ready; when both seats are ready the game
// starts: colors are settled (assigned at seating, fixed up if seat
// turnover left them clashing), the board resets and the turn clock
// begins.
func (s *Session) SetReady(nickname string) error {
	return s.call(func() error {
		seat := s.seatByNick(nickname)
		if seat == nil {
			return ErrNotSeated
		}
		if s.status != StatusWaiting {
			return ErrNotWaiting
		}
		seat.Ready = true
		s.touch()
		if len(s.seats) == 2 && s.seats[0].Ready && s.seats[1].Ready {
			s.beginPlay()
		}
		s.broadcastUpdate()
		return nil
	})
}

func (s *Session) beginPlay() {
	// Reassign unless the two seats hold distinct, non-empty colors.
	if s.seats[0].Color == board.Empty || s.seats[1].Color == board.Empty ||
		s.seats[0].Color == s.seats[1].Color {
		s.seats[0].Color = board.Black
		s.seats[1].Color = board.White
	}
	s.bd = board.Initial()
	s.turn = board.Black
	s.lastMove = nil
	s.epoch++
	s.status = StatusPlaying
	s.startClock()
	log.Info().Str("room", s.id).Msg("game started")
}

// ApplyMove validates and applies one move for the acting seat, then
// advances the turn (auto-skipping an opponent with no legal reply, or
// finishing when neither side can move). Rejections never mutate state.
func (s *Session) ApplyMove(nickname string, m board.Move) error {
	return s.call(func() error {
		if s.status != StatusPlaying {
			return ErrNotPlaying
		}
		seat := s.seatByNick(nickname)
		if seat == nil {
			return ErrNotSeated
		}
		if seat.Color != s.turn {
			return ErrNotYourTurn
		}
		if !m.InBounds() || !board.IsValidMove(s.bd, m, s.turn) {
			return ErrInvalidMove
		}
		mover := s.turn
		s.bd = board.Apply(s.bd, m, mover)
		mv := m
		s.lastMove = &mv
		s.touch()
		s.advance(mover)
		return nil
	})
}

// Timeout forfeits the current player's turn, with the same skip or
// finish logic as having no legal move. The clock calls this when a
// countdown expires; it is also the operational escape hatch.
func (s *Session) Timeout() error {
	return s.call(func() error {
		if s.status != StatusPlaying {
			return ErrNotPlaying
		}
		s.forfeitTurn()
		return nil
	})
}

func (s *Session) forfeitTurn() {
	log.Info().Str("room", s.id).Str("turn", s.turn.String()).Msg("turn forfeited on timeout")
	s.touch()
	s.advance(s.turn)
}

// advance hands the turn over after mover acted (or forfeited).
// Exactly one of three things happens: the opponent takes the turn,
// the turn skips back to mover because the opponent is stuck, or the
// game finishes because both sides are stuck.
func (s *Session) advance(mover board.Cell) {
	s.epoch++
	next := mover.Opponent()
	if len(board.ValidMoves(s.bd, next)) == 0 {
		if len(board.ValidMoves(s.bd, mover)) == 0 {
			s.finish(board.Empty, false)
			return
		}
		log.Info().Str("room", s.id).Str("skipped", next.String()).Msg("auto-skip, no legal moves")
		next = mover
	}
	s.turn = next
	s.startClock()
	s.broadcastUpdate()
	s.maybeScheduleAI()
}

func (s *Session) startClock() {
	s.timeLeft = s.cfg.TurnSeconds
	s.clockGen = s.clock.Start(s.cfg.TurnSeconds,
		func(gen uint64, remaining int) {
			s.post(func() {
				if gen != s.clockGen || s.status != StatusPlaying {
					return
				}
				s.timeLeft = remaining
				s.bcast.TimerTick(s.id, remaining)
			})
		},
		func(gen uint64) {
			s.post(func() {
				if gen != s.clockGen || s.status != StatusPlaying {
					return
				}
				s.forfeitTurn()
			})
		})
}

// maybeScheduleAI queues the bot's reply after a short pacing delay.
// The epoch captured here lets the callback detect that the room moved
// on (new game, pause, timeout) and drop itself.
func (s *Session) maybeScheduleAI() {
	seat := s.seatByColor(s.turn)
	if s.status != StatusPlaying || seat == nil || !seat.IsAI {
		return
	}
	epoch := s.epoch
	time.AfterFunc(s.cfg.AIMoveDelay, func() {
		s.post(func() {
			if s.epoch != epoch || s.status != StatusPlaying {
				return
			}
			cur := s.seatByColor(s.turn)
			if cur == nil || !cur.IsAI {
				return
			}
			mover := s.turn
			m, ok := s.selector.SelectMove(s.bd, mover, s.tier)
			if !ok {
				// advance already guarantees the side on turn can move
				log.Warn().Str("room", s.id).Msg("bot had no move on its turn")
				s.advance(mover)
				return
			}
			s.bd = board.Apply(s.bd, m, mover)
			mv := m
			s.lastMove = &mv
			s.touch()
			s.advance(mover)
		})
	})
}

// finish ends the game, settles coins exactly once and broadcasts the
// terminal snapshot. forced carries a surrender winner; otherwise the
// winner comes from the piece counts.
func (s *Session) finish(forcedWinner board.Cell, forced bool) {
	s.clock.Stop()
	s.epoch++
	black, white := board.Score(s.bd)
	winnerColor := forcedWinner
	draw := false
	if !forced {
		switch {
		case black > white:
			winnerColor = board.Black
		case white > black:
			winnerColor = board.White
		default:
			draw = true
		}
	}
	s.status = StatusFinished
	s.timeLeft = 0
	if draw {
		s.winner = "draw"
	} else if seat := s.seatByColor(winnerColor); seat != nil {
		s.winner = seat.Nickname
	}
	if !s.settled {
		s.settled = true
		s.txns = s.settle.Settle(context.Background(), s.id, s.seats, winnerColor, draw)
	}
	s.touch()
	log.Info().
		Str("room", s.id).
		Str("winner", s.winner).
		Int("black", black).
		Int("white", white).
		Msg("game over")
	s.bcast.GameOver(s.snapshot())
}

// Surrender ends the game immediately, crediting the opponent.
func (s *Session) Surrender(nickname string) error {
	return s.call(func() error {
		if s.status != StatusPlaying {
			return ErrNotPlaying
		}
		seat := s.seatByNick(nickname)
		if seat == nil {
			return ErrNotSeated
		}
		if seat.Color == board.Empty {
			return ErrNotPlaying
		}
		s.touch()
		log.Info().Str("room", s.id).Str("nickname", seat.Nickname).Msg("surrender")
		s.finish(seat.Color.Opponent(), true)
		return nil
	})
}

// NewGame resets a finished room for a rematch, reusing the seats.
// Coin snapshots are refreshed from the player store and the previous
// transactions cleared. AI rooms restart Playing immediately; human
// rooms go back to Waiting for a fresh ready exchange.
func (s *Session) NewGame(nickname string) error {
	return s.call(func() error {
		if s.seatByNick(nickname) == nil {
			return ErrNotSeated
		}
		if s.status != StatusFinished {
			return ErrNotFinished
		}
		for _, seat := range s.seats {
			if seat.IsAI || seat.Nickname == "" {
				continue
			}
			rec, err := s.store.Get(context.Background(), seat.Nickname)
			if err != nil {
				log.Warn().Err(err).Str("room", s.id).Str("nickname", seat.Nickname).Msg("coin refresh failed")
				continue
			}
			seat.Coins = rec.Coins
		}
		s.bd = board.Initial()
		s.turn = board.Black
		s.lastMove = nil
		s.winner = ""
		s.txns = nil
		s.settled = false
		s.epoch++
		s.touch()
		if s.vsAI {
			s.status = StatusPlaying
			s.startClock()
		} else {
			s.status = StatusWaiting
			s.timeLeft = s.cfg.TurnSeconds
			for _, seat := range s.seats {
				seat.Ready = false
			}
		}
		log.Info().Str("room", s.id).Bool("vs_ai", s.vsAI).Msg("new game")
		s.broadcastUpdate()
		return nil
	})
}

// Disconnect handles a seat's transport going away. Human-vs-human
// games in Playing pause and stop the clock; Waiting rooms and AI rooms
// drop the seat instead. The returned flag reports that no connected
// human remains and the room should be removed.
func (s *Session) Disconnect(nickname string) (bool, error) {
	empty := false
	err := s.call(func() error {
		seat := s.seatByNick(nickname)
		if seat == nil {
			return ErrNotSeated
		}
		s.touch()
		if s.vsAI || s.status == StatusWaiting {
			s.removeSeat(seat)
			empty = !s.hasConnectedHuman()
			if !empty {
				s.broadcastUpdate()
			}
			log.Info().Str("room", s.id).Str("nickname", nickname).Bool("empty", empty).Msg("seat left")
			return nil
		}
		seat.Connected = false
		seat.ConnID = ""
		if s.status == StatusPlaying {
			s.status = StatusPaused
			s.clock.Stop()
			s.epoch++
			log.Info().Str("room", s.id).Str("nickname", nickname).Msg("game paused on disconnect")
		}
		s.broadcastUpdate()
		return nil
	})
	return empty, err
}

// Reconnect rebinds a returning player's connection handle by nickname
// and resumes a paused game once every seat is connected again.
func (s *Session) Reconnect(connID, nickname string, coins int) error {
	return s.call(func() error {
		seat := s.seatByNick(nickname)
		if seat == nil {
			return ErrNotSeated
		}
		seat.ConnID = connID
		seat.Connected = true
		seat.Coins = coins
		s.touch()
		if s.status == StatusPaused && s.allConnected() {
			s.status = StatusPlaying
			s.epoch++
			s.startClock()
			log.Info().Str("room", s.id).Str("nickname", nickname).Msg("game resumed on reconnect")
		}
		s.broadcastUpdate()
		return nil
	})
}

// Snapshot returns an immutable view of the room.
func (s *Session) Snapshot() (Snapshot, error) {
	var snap Snapshot
	err := s.call(func() error {
		snap = s.snapshot()
		return nil
	})
	return snap, err
}

// EligibleForCleanup reports whether the room has had no connected
// human seat for longer than the idle window. A closed session is
// always eligible.
func (s *Session) EligibleForCleanup(now time.Time, idle time.Duration) bool {
	eligible := false
	err := s.call(func() error {
		eligible = !s.hasConnectedHuman() && now.Sub(s.lastActivity) > idle
		return nil
	})
	if err != nil {
		return true
	}
	return eligible
}

func (s *Session) snapshot() Snapshot {
	black, white := board.Score(s.bd)
	snap := Snapshot{
		RoomID:     s.id,
		Status:     s.status,
		Board:      s.bd,
		TimeLeft:   s.timeLeft,
		Winner:     s.winner,
		ScoreBlack: black,
		ScoreWhite: white,
		VsAI:       s.vsAI,
		Difficulty: s.tier,
		CreatedAt:  s.createdAt,
	}
	if s.status == StatusPlaying {
		snap.CurrentTurn = s.turn.String()
		snap.ValidMoves = board.ValidMoves(s.bd, s.turn)
	}
	if s.lastMove != nil {
		mv := *s.lastMove
		snap.LastMove = &mv
	}
	for _, seat := range s.seats {
		snap.Seats = append(snap.Seats, seat.view())
	}
	if len(s.txns) > 0 {
		snap.Transactions = append([]CoinTransaction(nil), s.txns...)
	}
	return snap
}

func (s *Session) broadcastUpdate() {
	s.bcast.SessionUpdate(s.snapshot())
}

func (s *Session) seatByNick(nickname string) *Seat {
	for _, seat := range s.seats {
		if strings.EqualFold(seat.Nickname, nickname) {
			return seat
		}
	}
	return nil
}

func (s *Session) seatByColor(color board.Cell) *Seat {
	for _, seat := range s.seats {
		if seat.Color == color {
			return seat
		}
	}
	return nil
}

func (s *Session) removeSeat(target *Seat) {
	kept := s.seats[:0]
	for _, seat := range s.seats {
		if seat != target {
			kept = append(kept, seat)
		}
	}
	s.seats = kept
}

func (s *Session) hasConnectedHuman() bool {
	for _, seat := range s.seats {
		if !seat.IsAI && seat.Connected {
			return true
		}
	}
	return false
}

func (s *Session) allConnected() bool {
	for _, seat := range s.seats {
		if !seat.Connected {
			return false
		}
	}
	return len(s.seats) == 2
}

func (s *Session) touch() {
	s.lastActivity = time.Now()
}
