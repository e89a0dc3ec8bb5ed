package apperror

import "errors"

const CodeInternal = "internal"

// codes is checked in order; the first match wins.
var codes = []struct {
	err  error
	code string
}{
	{ErrUnauthorized, "unauthorized"},
	{ErrNotFound, "not_found"},
	{ErrVersionConflict, "version_conflict"},
	{ErrGameIsNotStarted, "not_started"},
	{ErrGameFinished, "already_finished"},
	{ErrNotYourTurn, "wrong_turn"},
	{ErrNotAParticipant, "not_a_participant"},
	{ErrNotYourGame, "not_your_game"},
	{ErrIllegalMove, "illegal_move"},
	{ErrMalformedBoard, "malformed_board"},
	{ErrCodeTaken, "code_taken"},
}

// Code returns the wire code clients see for err, or CodeInternal for anything unknown.
func Code(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}

	return CodeInternal
}
