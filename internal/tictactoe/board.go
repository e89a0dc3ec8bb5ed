package tictactoe

import (
	"errors"
	"fmt"
)

// Mark is the content of a single board cell.
type Mark byte

const (
	Empty Mark = '-'
	X     Mark = 'X'
	O     Mark = 'O'
)

const (
	BoardSize = 9
	center    = 4
)

var (
	ErrInvalidCell    = errors.New("invalid cell index")
	ErrCellOccupied   = errors.New("cell is already occupied")
	ErrMalformedBoard = errors.New("malformed board")
)

// Board is a 3x3 board stored row-major. It is a value type: Apply returns a copy.
type Board [BoardSize]Mark

// NewBoard returns a board with every cell empty.
func NewBoard() Board {
	var board Board
	for i := range board {
		board[i] = Empty
	}

	return board
}

// Opponent returns the other playing mark.
func (that Mark) Opponent() Mark {
	if that == X {
		return O
	}
	return X
}

func (that Mark) String() string {
	return string(that)
}

func (that Mark) MarshalText() ([]byte, error) {
	return []byte{byte(that)}, nil
}

func (that *Mark) UnmarshalText(text []byte) error {
	if len(text) != 1 {
		return fmt.Errorf("%w: mark %q", ErrMalformedBoard, text)
	}

	switch mark := Mark(text[0]); mark {
	case X, O, Empty:
		*that = mark
		return nil
	default:
		return fmt.Errorf("%w: mark %q", ErrMalformedBoard, text)
	}
}

// IsLegal - checks that the cell is on the board and not taken yet.
func (that Board) IsLegal(cell int) bool {
	return cell >= 0 && cell < BoardSize && that[cell] == Empty
}

// Apply returns a new board with mark placed on cell.
func (that Board) Apply(cell int, mark Mark) (Board, error) {
	if cell < 0 || cell >= BoardSize {
		return that, fmt.Errorf("%w: cell %d", ErrInvalidCell, cell)
	}

	if that[cell] != Empty {
		return that, fmt.Errorf("%w: cell %d", ErrCellOccupied, cell)
	}

	that[cell] = mark

	return that, nil
}

// IsEmpty reports whether no mark has been placed yet.
func (that Board) IsEmpty() bool {
	for _, cell := range that {
		if cell != Empty {
			return false
		}
	}
	return true
}

func (that Board) count(mark Mark) int {
	n := 0
	for _, cell := range that {
		if cell == mark {
			n++
		}
	}
	return n
}

func (that Board) String() string {
	return string(that[:])
}

// ParseBoard - deserializes a 9-character board and checks it is reachable under alternating play.
func ParseBoard(raw string) (Board, error) {
	var board Board

	if len(raw) != BoardSize {
		return board, fmt.Errorf("%w: expected %d cells, got %d", ErrMalformedBoard, BoardSize, len(raw))
	}

	for i := 0; i < BoardSize; i++ {
		switch mark := Mark(raw[i]); mark {
		case X, O, Empty:
			board[i] = mark
		default:
			return board, fmt.Errorf("%w: unexpected symbol %q at %d", ErrMalformedBoard, raw[i], i)
		}
	}

	if err := CheckParity(board); err != nil {
		return board, err
	}

	return board, nil
}

func (that Board) MarshalText() ([]byte, error) {
	return []byte(that.String()), nil
}

func (that *Board) UnmarshalText(text []byte) error {
	board, err := ParseBoard(string(text))
	if err != nil {
		return err
	}

	*that = board

	return nil
}
