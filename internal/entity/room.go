package entity

import (
	"fmt"
	"slices"
	"time"

	"github.com/rocketscienceinc/tictactoe-arena/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-arena/internal/tictactoe"
)

// LeaveOutcome tells the caller what a Leave did to the room.
type LeaveOutcome string

const (
	LeaveSpectator    LeaveOutcome = "spectator_left"
	LeaveDestroyed    LeaveOutcome = "room_destroyed"
	LeaveForfeited    LeaveOutcome = "forfeited"
	LeaveSeatReleased LeaveOutcome = "seat_released"
	LeaveNoop         LeaveOutcome = "noop"
)

// Room is a human-vs-human match. Board, Turn and Status are a projection of Moves plus join/leave events.
type Room struct {
	ID          string          `json:"id"`
	Code        string          `json:"code"`
	PlayerOneID string          `json:"player_one_id"`
	PlayerTwoID string          `json:"player_two_id,omitempty"`
	Spectators  []string        `json:"spectators,omitempty"`
	Status      string          `json:"status"`
	Turn        Seat            `json:"current_turn"`
	Board       tictactoe.Board `json:"board"`
	Winner      Seat            `json:"winner"`
	IsDraw      bool            `json:"is_draw"`
	Version     int64           `json:"version"`
	Moves       []Move          `json:"moves,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func NewRoom(id, code, ownerID string, now time.Time) *Room {
	return &Room{
		ID:          id,
		Code:        code,
		PlayerOneID: ownerID,
		Status:      StatusWaiting,
		Turn:        SeatPlayerOne,
		Board:       tictactoe.NewBoard(),
		Winner:      SeatNone,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (that *Room) IsWaiting() bool {
	return that.Status == StatusWaiting
}

func (that *Room) IsOngoing() bool {
	return that.Status == StatusOngoing
}

func (that *Room) IsFinished() bool {
	return that.Status == StatusFinished
}

// SeatOf returns the seat held by userID, or SeatNone for spectators and strangers.
func (that *Room) SeatOf(userID string) Seat {
	switch {
	case userID == "":
		return SeatNone
	case userID == that.PlayerOneID:
		return SeatPlayerOne
	case userID == that.PlayerTwoID:
		return SeatPlayerTwo
	default:
		return SeatNone
	}
}

func (that *Room) IsSpectator(userID string) bool {
	return slices.Contains(that.Spectators, userID)
}

// Join seats userID as player two when the seat is free, otherwise registers a spectator.
// Re-joining changes nothing and reports changed == false.
func (that *Room) Join(userID string, now time.Time) (Role, bool) {
	switch {
	case that.SeatOf(userID) == SeatPlayerOne:
		return RolePlayerOne, false
	case that.SeatOf(userID) == SeatPlayerTwo:
		return RolePlayerTwo, false
	case that.IsSpectator(userID):
		return RoleSpectator, false
	}

	if that.PlayerTwoID == "" && that.IsWaiting() {
		that.PlayerTwoID = userID
		that.Status = StatusOngoing
		that.touch(now)

		return RolePlayerTwo, true
	}

	that.Spectators = append(that.Spectators, userID)
	that.touch(now)

	return RoleSpectator, true
}

// MakeMove validates and applies a move for userID. The check order is part of the contract.
func (that *Room) MakeMove(userID string, cell int, expectedVersion *int64, now time.Time) (Move, error) {
	if err := confirmOngoingState(that.Status); err != nil {
		return Move{}, err
	}

	if err := confirmVersion(that.Version, expectedVersion); err != nil {
		return Move{}, err
	}

	seat := that.SeatOf(userID)
	if seat == SeatNone {
		return Move{}, fmt.Errorf("%w: user %s", apperror.ErrNotAParticipant, userID)
	}

	if seat != that.Turn {
		return Move{}, apperror.ErrNotYourTurn
	}

	if err := confirmLegal(that.Board, cell); err != nil {
		return Move{}, err
	}

	mark := seat.Mark()

	board, err := that.Board.Apply(cell, mark)
	if err != nil {
		return Move{}, fmt.Errorf("%w: %w", apperror.ErrIllegalMove, err)
	}

	move := Move{
		Order:    len(that.Moves) + 1,
		Actor:    userID,
		Cell:     cell,
		Mark:     mark,
		PlayedAt: now,
	}

	that.Board = board
	that.Moves = append(that.Moves, move)

	switch {
	case tictactoe.Winner(board) != tictactoe.Empty:
		that.Status = StatusFinished
		that.Winner = seat
		that.Turn = SeatNone
	case tictactoe.IsDraw(board):
		that.Status = StatusFinished
		that.IsDraw = true
		that.Turn = SeatNone
	default:
		that.Turn = seat.Other()
	}

	that.touch(now)

	return move, nil
}

// Leave removes userID from the room. LeaveDestroyed means the caller must delete the room.
func (that *Room) Leave(userID string, now time.Time) (LeaveOutcome, error) {
	switch that.SeatOf(userID) {
	case SeatPlayerOne:
		return LeaveDestroyed, nil

	case SeatPlayerTwo:
		switch {
		case that.IsFinished():
			return LeaveNoop, nil

		case that.IsOngoing() && len(that.Moves) > 0:
			that.Status = StatusFinished
			that.Winner = SeatPlayerOne
			that.Turn = SeatNone
			that.PlayerTwoID = ""
			that.touch(now)

			return LeaveForfeited, nil

		default:
			// nobody has moved yet, so the room goes back to waiting
			that.PlayerTwoID = ""
			that.Status = StatusWaiting
			that.Turn = SeatPlayerOne
			that.touch(now)

			return LeaveSeatReleased, nil
		}
	}

	if idx := slices.Index(that.Spectators, userID); idx >= 0 {
		that.Spectators = slices.Delete(that.Spectators, idx, idx+1)
		that.touch(now)

		return LeaveSpectator, nil
	}

	return LeaveNoop, fmt.Errorf("%w: user %s", apperror.ErrNotAParticipant, userID)
}

// History replays the move log into the board after each move.
func (that *Room) History() ([]tictactoe.Board, error) {
	boards, err := tictactoe.Replay(Cells(that.Moves))
	if err != nil {
		return nil, fmt.Errorf("failed to replay room %s: %w", that.ID, err)
	}

	return boards, nil
}

func (that *Room) touch(now time.Time) {
	that.Version++
	that.UpdatedAt = now
}
