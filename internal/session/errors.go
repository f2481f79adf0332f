package session

import "errors"

var (
	ErrRoomNotFound   = errors.New("room_not_found")
	ErrRoomFull       = errors.New("room_full")
	ErrRoomClosed     = errors.New("room_closed")
	ErrAlreadyJoined  = errors.New("already_joined")
	ErrNotSeated      = errors.New("not_in_room")
	ErrNotYourTurn    = errors.New("not_your_turn")
	ErrInvalidMove    = errors.New("invalid_move")
	ErrNotPlaying     = errors.New("game_not_playing")
	ErrNotWaiting     = errors.New("game_already_started")
	ErrNotFinished    = errors.New("game_not_finished")
	ErrCodesExhausted = errors.New("room_code_space_exhausted")
)
