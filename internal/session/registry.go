package session

import (
	"context"
	"math/rand"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"reversi-arena/internal/ai"
	"reversi-arena/internal/store"
)

const (
	roomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	roomCodeLen      = 6
	roomCodeRetries  = 32
)

var roomCodePattern = regexp.MustCompile(`^[A-Z0-9]{6}$`)

// ValidRoomCode reports whether a client-supplied room id is well formed.
func ValidRoomCode(code string) bool {
	return roomCodePattern.MatchString(code)
}

// Registry owns every live session. It is constructed once and passed
// to the transport handlers; rooms never live in package globals.
type Registry struct {
	cfg      Config
	store    store.PlayerStore
	selector *ai.Selector
	bcast    Broadcaster

	mu       sync.Mutex
	sessions map[string]*Session
	rng      *rand.Rand
}

func NewRegistry(cfg Config, st store.PlayerStore, selector *ai.Selector, bcast Broadcaster) *Registry {
	return &Registry{
		cfg:      cfg.withDefaults(),
		store:    st,
		selector: selector,
		bcast:    bcast,
		sessions: make(map[string]*Session),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// CreateRoom opens a human-vs-human room with the creator seated.
func (r *Registry) CreateRoom(creator Seat) (*Session, error) {
	return r.create(Params{Creator: creator})
}

// CreateAIRoom opens a room against the bot; the game starts at once.
func (r *Registry) CreateAIRoom(creator Seat, tier ai.Difficulty) (*Session, error) {
	return r.create(Params{Creator: creator, VsAI: true, Difficulty: tier})
}

func (r *Registry) create(p Params) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, err := r.newRoomCodeLocked()
	if err != nil {
		return nil, err
	}
	p.ID = id
	s := New(p, r.cfg, r.store, r.selector, r.bcast)
	r.sessions[id] = s
	log.Info().Str("room", id).Bool("vs_ai", p.VsAI).Str("creator", p.Creator.Nickname).Msg("room created")
	return s, nil
}

// newRoomCodeLocked allocates a 6-character uppercase alphanumeric code
// unique among live rooms, with bounded retries. Exhaustion fails this
// request only, never the process.
func (r *Registry) newRoomCodeLocked() (string, error) {
	for i := 0; i < roomCodeRetries; i++ {
		buf := make([]byte, roomCodeLen)
		for j := range buf {
			buf[j] = roomCodeAlphabet[r.rng.Intn(len(roomCodeAlphabet))]
		}
		code := string(buf)
		if _, taken := r.sessions[code]; !taken {
			return code, nil
		}
	}
	return "", ErrCodesExhausted
}

// Get resolves a room code, case-insensitively.
func (r *Registry) Get(id string) (*Session, error) {
	code := strings.ToUpper(strings.TrimSpace(id))
	if !ValidRoomCode(code) {
		return nil, ErrRoomNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[code]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return s, nil
}

// Remove closes and drops a session.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()
	if ok {
		s.Close()
		log.Info().Str("room", id).Msg("room removed")
	}
}

// Count reports the number of live rooms.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// CloseAll tears down every session, for shutdown and tests.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()
	for _, s := range sessions {
		s.Close()
	}
}

// StartJanitor sweeps rooms whose human seats have all been gone for
// longer than the idle window. It stops when ctx is cancelled.
func (r *Registry) StartJanitor(ctx context.Context, every, idle time.Duration) {
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.sweep(time.Now(), idle)
			}
		}
	}()
}

func (r *Registry) sweep(now time.Time, idle time.Duration) {
	r.mu.Lock()
	sessions := make(map[string]*Session, len(r.sessions))
	for id, s := range r.sessions {
		sessions[id] = s
	}
	r.mu.Unlock()
	for id, s := range sessions {
		if s.EligibleForCleanup(now, idle) {
			log.Info().Str("room", id).Msg("room expired")
			r.Remove(id)
		}
	}
}
