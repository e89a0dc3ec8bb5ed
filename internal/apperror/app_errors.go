package apperror

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrGameIsNotStarted = errors.New("game is not started")
	ErrGameFinished     = errors.New("game is already finished")
	ErrVersionConflict  = errors.New("version conflict")
	ErrNotAParticipant  = errors.New("not a participant")
	ErrNotYourGame      = errors.New("not your game")
	ErrNotYourTurn      = errors.New("it's not your turn")
	ErrIllegalMove      = errors.New("illegal move")
	ErrMalformedBoard   = errors.New("malformed board")
	ErrCodeTaken        = errors.New("room code is already taken")
	ErrUnauthorized     = errors.New("unauthorized")
)
