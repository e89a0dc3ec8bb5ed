package entity

import (
	"fmt"
	"time"

	"github.com/rocketscienceinc/tictactoe-arena/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-arena/internal/tictactoe"
)

// BotGame is a single human playing against the search engine.
type BotGame struct {
	ID        string          `json:"id"`
	OwnerID   string          `json:"owner_id"`
	HumanMark tictactoe.Mark  `json:"human_mark"`
	Status    string          `json:"status"`
	Turn      Actor           `json:"current_turn"`
	Board     tictactoe.Board `json:"board"`
	Winner    Actor           `json:"winner"`
	IsDraw    bool            `json:"is_draw"`
	Version   int64           `json:"version"`
	Moves     []Move          `json:"moves,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewBotGame - whoever moves first plays X. When the bot opens, its move is already
// recorded and it is the human's turn; creation itself does not bump the version.
func NewBotGame(id, ownerID string, humanGoesFirst bool, now time.Time) *BotGame {
	game := &BotGame{
		ID:        id,
		OwnerID:   ownerID,
		HumanMark: tictactoe.O,
		Status:    StatusOngoing,
		Turn:      ActorHuman,
		Board:     tictactoe.NewBoard(),
		Winner:    ActorNone,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if humanGoesFirst {
		game.HumanMark = tictactoe.X
		return game
	}

	game.Moves = append(game.Moves, game.playBot(now))

	return game
}

func (that *BotGame) BotMark() tictactoe.Mark {
	return that.HumanMark.Opponent()
}

func (that *BotGame) IsFinished() bool {
	return that.Status == StatusFinished
}

// MakeMove applies the human move and, unless that ended the game, the bot's reply.
// The returned slice holds the moves appended by this call.
func (that *BotGame) MakeMove(userID string, cell int, expectedVersion *int64, now time.Time) ([]Move, error) {
	if err := confirmOngoingState(that.Status); err != nil {
		return nil, err
	}

	if err := confirmVersion(that.Version, expectedVersion); err != nil {
		return nil, err
	}

	if userID != that.OwnerID {
		return nil, fmt.Errorf("%w: user %s", apperror.ErrNotYourGame, userID)
	}

	if that.Turn != ActorHuman {
		return nil, apperror.ErrNotYourTurn
	}

	if err := confirmLegal(that.Board, cell); err != nil {
		return nil, err
	}

	board, err := that.Board.Apply(cell, that.HumanMark)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrIllegalMove, err)
	}

	that.Board = board

	appended := []Move{{
		Order:    len(that.Moves) + 1,
		Actor:    string(ActorHuman),
		Cell:     cell,
		Mark:     that.HumanMark,
		PlayedAt: now,
	}}
	that.Moves = append(that.Moves, appended[0])

	if !tictactoe.IsTerminal(that.Board) {
		botMove := that.playBot(now)
		that.Moves = append(that.Moves, botMove)
		appended = append(appended, botMove)
	}

	that.settle()
	that.Version++
	that.UpdatedAt = now

	return appended, nil
}

// History replays the move log into the board after each move.
func (that *BotGame) History() ([]tictactoe.Board, error) {
	boards, err := tictactoe.Replay(Cells(that.Moves))
	if err != nil {
		return nil, fmt.Errorf("failed to replay bot game %s: %w", that.ID, err)
	}

	return boards, nil
}

func (that *BotGame) playBot(now time.Time) Move {
	cell := tictactoe.BestMove(that.Board, that.BotMark(), that.HumanMark)
	if cell == tictactoe.NoMove {
		panic(fmt.Sprintf("search returned no move on a live board %s", that.Board))
	}

	board, err := that.Board.Apply(cell, that.BotMark())
	if err != nil {
		panic(fmt.Sprintf("search returned illegal cell %d on board %s: %v", cell, that.Board, err))
	}

	that.Board = board

	return Move{
		Order:    len(that.Moves) + 1,
		Actor:    string(ActorBot),
		Cell:     cell,
		Mark:     that.BotMark(),
		PlayedAt: now,
	}
}

func (that *BotGame) settle() {
	switch winner := tictactoe.Winner(that.Board); {
	case winner == that.HumanMark:
		that.Status = StatusFinished
		that.Winner = ActorHuman
		that.Turn = ActorNone
	case winner == that.BotMark():
		that.Status = StatusFinished
		that.Winner = ActorBot
		that.Turn = ActorNone
	case tictactoe.IsDraw(that.Board):
		that.Status = StatusFinished
		that.IsDraw = true
		that.Turn = ActorNone
	default:
		that.Turn = ActorHuman
	}
}
