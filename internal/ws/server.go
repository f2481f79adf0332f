package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"reversi-arena/internal/ai"
	"reversi-arena/internal/board"
	"reversi-arena/internal/session"
	"reversi-arena/internal/store"
)

var nicknamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{2,16}$`)

// Client is one websocket connection. The id is a volatile handle; the
// nickname, once logged in, is the stable identity used for seat
// rebinding across reconnects.
type Client struct {
	id   string
	conn *websocket.Conn
	send chan []byte

	nickname string
	player   *store.Player
}

// Server is the connection supervisor: it upgrades websockets, decodes
// intents, routes them to sessions through the registry and fans
// session events back out to room members. Identity is keyed by
// lowercased nickname, never by the connection handle.
type Server struct {
	st       store.PlayerStore
	registry *session.Registry
	upgrader websocket.Upgrader

	mu         sync.Mutex
	byNickname map[string]*Client
	rooms      map[string]map[*Client]bool
	roomOf     map[*Client]string
	seatedIn   map[string]string // nickname key -> room id, survives disconnects
}

func NewServer(st store.PlayerStore) *Server {
	return &Server{
		st:         st,
		upgrader:   websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		byNickname: map[string]*Client{},
		rooms:      map[string]map[*Client]bool{},
		roomOf:     map[*Client]string{},
		seatedIn:   map[string]string{},
	}
}

// SetRegistry closes the construction cycle: the registry needs the
// server as its broadcaster, the server needs the registry for routing.
func (s *Server) SetRegistry(reg *session.Registry) {
	s.registry = reg
}

// PlayerCount reports logged-in connections, for the health endpoint.
func (s *Server) PlayerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byNickname)
}

func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	client := &Client{id: uuid.NewString(), conn: conn, send: make(chan []byte, 32)}
	go s.writeLoop(client)
	s.readLoop(client)
}

func (s *Server) writeLoop(c *Client) {
	for msg := range c.send {
		_ = c.conn.WriteMessage(websocket.TextMessage, msg)
	}
}

func (s *Server) readLoop(c *Client) {
	defer func() {
		s.handleDisconnect(c)
		_ = c.conn.Close()
	}()
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var env Envelope
		if err := json.Unmarshal(msg, &env); err != nil {
			s.sendError(c, "bad_message", "malformed message")
			continue
		}
		s.dispatch(c, env.Type, msg)
	}
}

func (s *Server) dispatch(c *Client, typ string, msg []byte) {
	if typ == "login" {
		var m LoginMessage
		if err := json.Unmarshal(msg, &m); err != nil {
			s.sendError(c, "bad_message", "malformed login")
			return
		}
		s.handleLogin(c, m)
		return
	}
	if c.nickname == "" {
		s.sendError(c, "not_authenticated", "login first")
		return
	}
	switch typ {
	case "createRoom":
		s.handleCreateRoom(c)
	case "joinRoom":
		var m JoinRoomMessage
		if err := json.Unmarshal(msg, &m); err != nil {
			s.sendError(c, "bad_message", "malformed joinRoom")
			return
		}
		s.handleJoinRoom(c, m)
	case "createAIGame":
		var m CreateAIGameMessage
		if err := json.Unmarshal(msg, &m); err != nil {
			s.sendError(c, "bad_message", "malformed createAIGame")
			return
		}
		s.handleCreateAIGame(c, m)
	case "ready":
		var m ReadyMessage
		if err := json.Unmarshal(msg, &m); err != nil {
			s.sendError(c, "bad_message", "malformed ready")
			return
		}
		s.withSession(c, m.RoomID, func(sess *session.Session) error {
			return sess.SetReady(c.nickname)
		})
	case "move":
		var m MoveMessage
		if err := json.Unmarshal(msg, &m); err != nil {
			s.sendError(c, "bad_message", "malformed move")
			return
		}
		s.withSession(c, m.RoomID, func(sess *session.Session) error {
			return sess.ApplyMove(c.nickname, board.Move{Row: m.Row, Col: m.Col})
		})
	case "newGame":
		var m NewGameMessage
		if err := json.Unmarshal(msg, &m); err != nil {
			s.sendError(c, "bad_message", "malformed newGame")
			return
		}
		s.withSession(c, m.RoomID, func(sess *session.Session) error {
			return sess.NewGame(c.nickname)
		})
	case "surrender":
		var m SurrenderMessage
		if err := json.Unmarshal(msg, &m); err != nil {
			s.sendError(c, "bad_message", "malformed surrender")
			return
		}
		s.withSession(c, m.RoomID, func(sess *session.Session) error {
			return sess.Surrender(c.nickname)
		})
	default:
		s.sendError(c, "bad_message", "unknown message type "+typ)
	}
}

func (s *Server) handleLogin(c *Client, m LoginMessage) {
	nickname := strings.TrimSpace(m.Nickname)
	if !nicknamePattern.MatchString(nickname) {
		s.sendError(c, "invalid_nickname", "nickname must be 2-16 word characters")
		return
	}
	player, err := s.st.GetOrCreate(context.Background(), nickname, m.Avatar)
	if err != nil {
		s.sendError(c, "store_unavailable", "player store unavailable")
		return
	}
	k := nickKey(nickname)

	s.mu.Lock()
	if old := s.byNickname[k]; old != nil && old != c {
		// One live connection per identity; the newcomer wins.
		s.dropLocked(old)
		safeClose(old.send)
		_ = old.conn.Close()
	}
	c.nickname = player.Nickname
	c.player = player
	s.byNickname[k] = c
	roomID := s.seatedIn[k]
	s.mu.Unlock()

	log.Info().Str("nickname", player.Nickname).Str("conn", c.id).Msg("login")
	s.sendJSON(c, LoginResult{Type: "loginOk", Player: player})

	if roomID != "" {
		s.tryRebind(c, k, roomID, player.Coins)
	}
}

// tryRebind re-seats a returning player into the room their nickname
// was bound to before the connection dropped.
func (s *Server) tryRebind(c *Client, k, roomID string, coins int) {
	sess, err := s.registry.Get(roomID)
	if err != nil {
		s.mu.Lock()
		delete(s.seatedIn, k)
		s.mu.Unlock()
		return
	}
	if err := sess.Reconnect(c.id, c.nickname, coins); err != nil {
		s.mu.Lock()
		delete(s.seatedIn, k)
		s.mu.Unlock()
		return
	}
	s.enterRoom(c, roomID)
	snap, err := sess.Snapshot()
	if err != nil {
		return
	}
	log.Info().Str("nickname", c.nickname).Str("room", roomID).Msg("seat rebound")
	s.sendJSON(c, RoomEvent{Type: "roomJoined", RoomID: roomID, Session: snap})
}

func (s *Server) handleCreateRoom(c *Client) {
	if s.currentRoom(c) != "" {
		s.sendError(c, "already_in_room", "leave the current room first")
		return
	}
	sess, err := s.registry.CreateRoom(s.seatFor(c))
	if err != nil {
		s.sendSessionError(c, err)
		return
	}
	s.enterRoom(c, sess.ID())
	snap, err := sess.Snapshot()
	if err != nil {
		s.sendSessionError(c, err)
		return
	}
	s.sendJSON(c, RoomEvent{Type: "roomCreated", RoomID: sess.ID(), Session: snap})
}

func (s *Server) handleCreateAIGame(c *Client, m CreateAIGameMessage) {
	if s.currentRoom(c) != "" {
		s.sendError(c, "already_in_room", "leave the current room first")
		return
	}
	sess, err := s.registry.CreateAIRoom(s.seatFor(c), ai.ParseDifficulty(m.Difficulty))
	if err != nil {
		s.sendSessionError(c, err)
		return
	}
	s.enterRoom(c, sess.ID())
	snap, err := sess.Snapshot()
	if err != nil {
		s.sendSessionError(c, err)
		return
	}
	s.sendJSON(c, RoomEvent{Type: "aiGameCreated", RoomID: sess.ID(), Session: snap})
}

func (s *Server) handleJoinRoom(c *Client, m JoinRoomMessage) {
	if s.currentRoom(c) != "" {
		s.sendError(c, "already_in_room", "leave the current room first")
		return
	}
	sess, err := s.registry.Get(m.RoomID)
	if err != nil {
		s.sendSessionError(c, err)
		return
	}
	seat := s.seatFor(c)
	if err := sess.Join(seat.ConnID, seat.Nickname, seat.Avatar, seat.Coins); err != nil {
		s.sendSessionError(c, err)
		return
	}
	s.enterRoom(c, sess.ID())
	snap, err := sess.Snapshot()
	if err != nil {
		s.sendSessionError(c, err)
		return
	}
	s.sendJSON(c, RoomEvent{Type: "roomJoined", RoomID: sess.ID(), Session: snap})
}

func (s *Server) withSession(c *Client, roomID string, fn func(*session.Session) error) {
	sess, err := s.registry.Get(roomID)
	if err != nil {
		s.sendSessionError(c, err)
		return
	}
	if err := fn(sess); err != nil {
		s.sendSessionError(c, err)
	}
}

func (s *Server) handleDisconnect(c *Client) {
	s.mu.Lock()
	roomID := s.roomOf[c]
	s.dropLocked(c)
	s.mu.Unlock()
	safeClose(c.send)

	if c.nickname == "" || roomID == "" {
		return
	}
	sess, err := s.registry.Get(roomID)
	if err != nil {
		return
	}
	empty, err := sess.Disconnect(c.nickname)
	if err != nil {
		return
	}
	log.Info().Str("nickname", c.nickname).Str("room", roomID).Bool("empty", empty).Msg("disconnect")
	if empty {
		s.registry.Remove(roomID)
		s.forgetRoom(roomID)
		return
	}
	// If the seat was removed rather than paused, drop the rebind entry.
	snap, err := sess.Snapshot()
	if err != nil {
		return
	}
	for _, seat := range snap.Seats {
		if strings.EqualFold(seat.Nickname, c.nickname) {
			return // seat survives; nickname may rebind later
		}
	}
	s.mu.Lock()
	delete(s.seatedIn, nickKey(c.nickname))
	s.mu.Unlock()
}

// dropLocked removes a client from every supervisor map except
// seatedIn, which intentionally survives for reconnection.
func (s *Server) dropLocked(c *Client) {
	if c.nickname != "" && s.byNickname[nickKey(c.nickname)] == c {
		delete(s.byNickname, nickKey(c.nickname))
	}
	if roomID, ok := s.roomOf[c]; ok {
		delete(s.roomOf, c)
		if members := s.rooms[roomID]; members != nil {
			delete(members, c)
			if len(members) == 0 {
				delete(s.rooms, roomID)
			}
		}
	}
}

func (s *Server) enterRoom(c *Client, roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rooms[roomID] == nil {
		s.rooms[roomID] = map[*Client]bool{}
	}
	s.rooms[roomID][c] = true
	s.roomOf[c] = roomID
	s.seatedIn[nickKey(c.nickname)] = roomID
}

func (s *Server) forgetRoom(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.rooms[roomID] {
		delete(s.roomOf, c)
	}
	delete(s.rooms, roomID)
	for k, id := range s.seatedIn {
		if id == roomID {
			delete(s.seatedIn, k)
		}
	}
}

func (s *Server) currentRoom(c *Client) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomOf[c]
}

func (s *Server) seatFor(c *Client) session.Seat {
	return session.Seat{
		ConnID:   c.id,
		Nickname: c.player.Nickname,
		Avatar:   c.player.Avatar,
		Coins:    c.player.Coins,
	}
}

// SessionUpdate implements session.Broadcaster.
func (s *Server) SessionUpdate(snap session.Snapshot) {
	s.broadcast(snap.RoomID, SessionUpdateMessage{Type: "sessionUpdate", Session: snap})
}

// TimerTick implements session.Broadcaster.
func (s *Server) TimerTick(roomID string, timeLeft int) {
	s.broadcast(roomID, TimerTickMessage{Type: "timerTick", RoomID: roomID, TimeLeft: timeLeft})
}

// GameOver implements session.Broadcaster.
func (s *Server) GameOver(snap session.Snapshot) {
	s.broadcast(snap.RoomID, GameOverMessage{Type: "gameOver", Session: snap})
}

func (s *Server) broadcast(roomID string, v any) {
	msg, err := json.Marshal(v)
	if err != nil {
		return
	}
	s.mu.Lock()
	for c := range s.rooms[roomID] {
		safeSend(c.send, msg)
	}
	s.mu.Unlock()
}

func (s *Server) sendJSON(c *Client, v any) {
	msg, err := json.Marshal(v)
	if err != nil {
		return
	}
	safeSend(c.send, msg)
}

func (s *Server) sendError(c *Client, code, message string) {
	s.sendJSON(c, ErrorMessage{Type: "error", Code: code, Message: message})
}

// sendSessionError maps the session package's typed errors onto wire
// codes; the sentinels double as stable codes.
func (s *Server) sendSessionError(c *Client, err error) {
	code := "internal_error"
	for _, sentinel := range []error{
		session.ErrRoomNotFound, session.ErrRoomFull, session.ErrRoomClosed,
		session.ErrAlreadyJoined, session.ErrNotSeated, session.ErrNotYourTurn,
		session.ErrInvalidMove, session.ErrNotPlaying, session.ErrNotWaiting,
		session.ErrNotFinished, session.ErrCodesExhausted,
	} {
		if errors.Is(err, sentinel) {
			code = sentinel.Error()
			break
		}
	}
	s.sendError(c, code, err.Error())
}

func nickKey(nickname string) string {
	return strings.ToLower(nickname)
}

func safeSend(ch chan []byte, msg []byte) {
	defer func() { _ = recover() }()
	select {
	case ch <- msg:
	default:
	}
}

func safeClose(ch chan []byte) {
	defer func() { _ = recover() }()
	close(ch)
}
