package tictactoe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBestMove(t *testing.T) {
	t.Run("Empty board opens in the center", func(t *testing.T) {
		assert.Equal(t, 4, BestMove(NewBoard(), X, O))
	})

	t.Run("Full board reports no move", func(t *testing.T) {
		assert.Equal(t, NoMove, BestMove(boardOf("XOXOXOOXO"), X, O))
	})

	t.Run("Takes an immediate win before blocking", func(t *testing.T) {
		// Given: O can complete the middle row while X threatens the top row
		board := boardOf("XX-OO-X--")

		// When: O searches
		cell := BestMove(board, O, X)

		// Then: O wins instead of blocking
		assert.Equal(t, 5, cell)
	})

	t.Run("Blocks the opponent's immediate win", func(t *testing.T) {
		// Given: X threatens the top row
		board := boardOf("XX--O----")

		// When: O searches
		cell := BestMove(board, O, X)

		// Then: O blocks at 2
		assert.Equal(t, 2, cell)
	})

	t.Run("Answers a corner opening with the center", func(t *testing.T) {
		assert.Equal(t, 4, BestMove(boardOf("X--------"), O, X))
	})

	t.Run("Answers a center opening with the lowest corner", func(t *testing.T) {
		// every corner draws, edges lose; ties go to the lowest index
		assert.Equal(t, 0, BestMove(boardOf("----X----"), O, X))
	})

	t.Run("Avoids the fork by taking an edge", func(t *testing.T) {
		// Given: X holds opposite corners around O's center
		board := boardOf("X---O---X")

		// When: O searches
		cell := BestMove(board, O, X)

		// Then: O takes the lowest edge; corners lose to a fork
		assert.Contains(t, []int{1, 3, 5, 7}, cell)
		assert.Equal(t, 1, cell)
	})
}

// playOut walks every opponent reply while the engine answers for engine, and fails on any engine loss.
func playOut(t *testing.T, board Board, engine, toMove Mark) {
	t.Helper()

	if winner := Winner(board); winner != Empty {
		require.Equal(t, engine, winner, "engine lost on %s", board)
		return
	}

	if IsDraw(board) {
		return
	}

	if toMove == engine {
		cell := BestMove(board, engine, engine.Opponent())
		require.True(t, board.IsLegal(cell), "illegal engine move %d on %s", cell, board)

		next, err := board.Apply(cell, engine)
		require.NoError(t, err)

		playOut(t, next, engine, engine.Opponent())
		return
	}

	for _, cell := range LegalMoves(board) {
		next, err := board.Apply(cell, toMove)
		require.NoError(t, err)

		playOut(t, next, engine, engine)
	}
}

func TestBestMove_NeverLoses(t *testing.T) {
	t.Run("Engine moving first as X", func(t *testing.T) {
		playOut(t, NewBoard(), X, X)
	})

	t.Run("Engine moving second as O", func(t *testing.T) {
		playOut(t, NewBoard(), O, X)
	})
}

func TestBestMove_SelfPlayDraws(t *testing.T) {
	// Given: the engine plays both sides from the empty board
	board := NewBoard()
	mark := X

	// When: it plays to the end
	for !IsTerminal(board) {
		cell := BestMove(board, mark, mark.Opponent())

		next, err := board.Apply(cell, mark)
		require.NoError(t, err)

		board = next
		mark = mark.Opponent()
	}

	// Then: perfect play is a draw
	assert.True(t, IsDraw(board))
}

func TestBestMove_DoesNotMutateInput(t *testing.T) {
	board := boardOf("X---O----")
	before := board

	_ = BestMove(board, X, O)

	assert.Equal(t, before, board)
}
