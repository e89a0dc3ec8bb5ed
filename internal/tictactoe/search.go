package tictactoe

import "math"

// NoMove is returned by BestMove when the board has no empty cell.
const NoMove = -1

const winScore = 10

// BestMove picks a never-losing cell for me, assuming opponent plays optimally afterwards.
// Ties between equally scored cells go to the lowest index.
func BestMove(board Board, me, opponent Mark) int {
	moves := LegalMoves(board)
	if len(moves) == 0 {
		return NoMove
	}

	if board.IsEmpty() {
		return center
	}

	// take a win if there is one
	for _, cell := range moves {
		if next, _ := board.Apply(cell, me); Winner(next) == me {
			return cell
		}
	}

	// otherwise block the opponent's win
	for _, cell := range moves {
		if next, _ := board.Apply(cell, opponent); Winner(next) == opponent {
			return cell
		}
	}

	bestCell := NoMove
	bestScore := math.MinInt
	alpha, beta := math.MinInt, math.MaxInt

	for _, cell := range moves {
		next, _ := board.Apply(cell, me)

		score := minimax(next, 1, false, alpha, beta, me, opponent)
		if score > bestScore {
			bestScore = score
			bestCell = cell
		}

		alpha = max(alpha, bestScore)
	}

	return bestCell
}

// minimax scores board from me's point of view; depth counts plies since the search root.
func minimax(board Board, depth int, maximizing bool, alpha, beta int, me, opponent Mark) int {
	switch Winner(board) {
	case me:
		return winScore - depth
	case opponent:
		return depth - winScore
	}

	moves := LegalMoves(board)
	if len(moves) == 0 {
		return 0
	}

	if maximizing {
		best := math.MinInt
		for _, cell := range moves {
			next, _ := board.Apply(cell, me)

			best = max(best, minimax(next, depth+1, false, alpha, beta, me, opponent))
			alpha = max(alpha, best)
			if beta <= alpha {
				break
			}
		}

		return best
	}

	best := math.MaxInt
	for _, cell := range moves {
		next, _ := board.Apply(cell, opponent)

		best = min(best, minimax(next, depth+1, true, alpha, beta, me, opponent))
		beta = min(beta, best)
		if beta <= alpha {
			break
		}
	}

	return best
}
