package ws

import (
	"reversi-arena/internal/session"
	"reversi-arena/internal/store"
)

// Inbound intents. Every message carries a type discriminator; the
// reader decodes the envelope first, then the concrete shape.

type Envelope struct {
	Type string `json:"type"`
}

type LoginMessage struct {
	Type     string `json:"type"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar,omitempty"`
}

type CreateRoomMessage struct {
	Type string `json:"type"`
}

type JoinRoomMessage struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`
}

type CreateAIGameMessage struct {
	Type       string `json:"type"`
	Difficulty string `json:"difficulty,omitempty"`
}

type ReadyMessage struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`
}

type MoveMessage struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`
	Row    int    `json:"row"`
	Col    int    `json:"col"`
}

type NewGameMessage struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`
}

type SurrenderMessage struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`
}

// Outbound events.

type LoginResult struct {
	Type   string        `json:"type"` // "loginOk"
	Player *store.Player `json:"player"`
}

// RoomEvent acknowledges create/join/reconnect to the acting client;
// its Type distinguishes roomCreated, roomJoined and aiGameCreated.
type RoomEvent struct {
	Type    string           `json:"type"`
	RoomID  string           `json:"roomId"`
	Session session.Snapshot `json:"session"`
}

type SessionUpdateMessage struct {
	Type    string           `json:"type"` // "sessionUpdate"
	Session session.Snapshot `json:"session"`
}

type TimerTickMessage struct {
	Type     string `json:"type"` // "timerTick"
	RoomID   string `json:"roomId"`
	TimeLeft int    `json:"timeLeft"`
}

type GameOverMessage struct {
	Type    string           `json:"type"` // "gameOver"
	Session session.Snapshot `json:"session"`
}

type ErrorMessage struct {
	Type    string `json:"type"` // "error"
	Code    string `json:"code"`
	Message string `json:"message"`
}
