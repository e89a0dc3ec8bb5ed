package entity

import "github.com/rocketscienceinc/tictactoe-arena/internal/tictactoe"

// Seat is a player's fixed role in a room.
type Seat string

const (
	SeatPlayerOne Seat = "player_one"
	SeatPlayerTwo Seat = "player_two"
	SeatNone      Seat = "none"
)

// Mark - player one always plays X, player two always plays O.
func (that Seat) Mark() tictactoe.Mark {
	if that == SeatPlayerOne {
		return tictactoe.X
	}
	return tictactoe.O
}

func (that Seat) Other() Seat {
	switch that {
	case SeatPlayerOne:
		return SeatPlayerTwo
	case SeatPlayerTwo:
		return SeatPlayerOne
	default:
		return SeatNone
	}
}

// Role is what a user became after joining a room.
type Role string

const (
	RolePlayerOne Role = "player_one"
	RolePlayerTwo Role = "player_two"
	RoleSpectator Role = "spectator"
)

// Actor identifies who made a move in a bot game.
type Actor string

const (
	ActorHuman Actor = "human"
	ActorBot   Actor = "bot"
	ActorNone  Actor = "none"
)
