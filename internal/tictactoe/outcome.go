package tictactoe

import "fmt"

// WinCombos lists the rows, then columns, then diagonals.
var WinCombos = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Winner returns the mark of the first completed triple, or Empty.
// It does not assume the board came from legal play.
func Winner(board Board) Mark {
	for _, combo := range WinCombos {
		a, b, c := board[combo[0]], board[combo[1]], board[combo[2]]
		if a != Empty && a == b && b == c {
			return a
		}
	}

	return Empty
}

// IsDraw - the board is full and nobody has three in a row.
func IsDraw(board Board) bool {
	for _, cell := range board {
		if cell == Empty {
			return false
		}
	}

	return Winner(board) == Empty
}

func IsTerminal(board Board) bool {
	return Winner(board) != Empty || IsDraw(board)
}

// LegalMoves returns the empty cells in ascending order.
func LegalMoves(board Board) []int {
	moves := make([]int, 0, BoardSize)
	for i, cell := range board {
		if cell == Empty {
			moves = append(moves, i)
		}
	}

	return moves
}

// CheckParity - X moves first, so X must equal O or lead it by exactly one.
func CheckParity(board Board) error {
	xs, os := board.count(X), board.count(O)
	if xs != os && xs != os+1 {
		return fmt.Errorf("%w: %d X and %d O", ErrMalformedBoard, xs, os)
	}

	return nil
}

// NextMark returns the mark whose turn it is on a parity-valid board.
func NextMark(board Board) Mark {
	if board.count(X) == board.count(O) {
		return X
	}
	return O
}

// Replay rebuilds the board after each move of a log that started on an empty board with X.
func Replay(cells []int) ([]Board, error) {
	boards := make([]Board, 0, len(cells))

	board := NewBoard()
	mark := X
	for i, cell := range cells {
		if Winner(board) != Empty {
			return nil, fmt.Errorf("move %d played after the game was won", i+1)
		}

		next, err := board.Apply(cell, mark)
		if err != nil {
			return nil, fmt.Errorf("move %d: %w", i+1, err)
		}

		boards = append(boards, next)
		board = next
		mark = mark.Opponent()
	}

	return boards, nil
}
