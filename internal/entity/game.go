package entity

import (
	"errors"
	"fmt"
	"time"

	"github.com/rocketscienceinc/tictactoe-arena/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-arena/internal/tictactoe"
)

const (
	StatusWaiting  = "waiting"
	StatusOngoing  = "in_progress"
	StatusFinished = "finished"
)

var ErrUnknownGameStatus = errors.New("unknown game status")

// Move is one entry of a match's append-only move log.
type Move struct {
	Order    int            `json:"order"`
	Actor    string         `json:"actor"`
	Cell     int            `json:"cell"`
	Mark     tictactoe.Mark `json:"mark"`
	PlayedAt time.Time      `json:"played_at"`
}

// Cells returns the played cells in log order.
func Cells(moves []Move) []int {
	cells := make([]int, len(moves))
	for i, move := range moves {
		cells[i] = move.Cell
	}

	return cells
}

// confirmOngoingState maps a status to the error a move attempt must report.
func confirmOngoingState(status string) error {
	switch status {
	case StatusWaiting:
		return apperror.ErrGameIsNotStarted
	case StatusFinished:
		return apperror.ErrGameFinished
	case StatusOngoing:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownGameStatus, status)
	}
}

func confirmVersion(current int64, expected *int64) error {
	if expected != nil && *expected != current {
		return fmt.Errorf("%w: expected %d, current %d", apperror.ErrVersionConflict, *expected, current)
	}

	return nil
}

func confirmLegal(board tictactoe.Board, cell int) error {
	if !board.IsLegal(cell) {
		if cell < 0 || cell >= tictactoe.BoardSize {
			return fmt.Errorf("%w: %w: cell %d", apperror.ErrIllegalMove, tictactoe.ErrInvalidCell, cell)
		}

		return fmt.Errorf("%w: %w: cell %d", apperror.ErrIllegalMove, tictactoe.ErrCellOccupied, cell)
	}

	return nil
}
