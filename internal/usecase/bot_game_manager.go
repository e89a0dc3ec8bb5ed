package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/tictactoe-arena/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-arena/internal/entity"
	"github.com/rocketscienceinc/tictactoe-arena/internal/tictactoe"
)

type botGameRepo interface {
	Create(ctx context.Context, game *entity.BotGame) error
	GetByID(ctx context.Context, id string) (*entity.BotGame, error)
	ConditionalUpdate(ctx context.Context, game *entity.BotGame, expectedVersion int64, appended ...entity.Move) error
	DeleteByID(ctx context.Context, id string) error
}

// Suggestion is the engine's answer for an arbitrary position.
type Suggestion struct {
	Cell int            `json:"cell"`
	Mark tictactoe.Mark `json:"mark"`
}

type BotGameManager struct {
	logger *slog.Logger
	games  botGameRepo

	retries int
	now     func() time.Time
	newID   func() string
}

func NewBotGameManager(logger *slog.Logger, games botGameRepo, retries int) *BotGameManager {
	return &BotGameManager{
		logger: logger,
		games:  games,

		retries: max(retries, 0),
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
}

// CreateBotGame starts a game against the engine. If the bot opens, its move is already on the board.
func (that *BotGameManager) CreateBotGame(ctx context.Context, userID string, humanGoesFirst bool) (*entity.BotGame, error) {
	log := that.logger.With("method", "CreateBotGame")

	game := entity.NewBotGame(that.newID(), userID, humanGoesFirst, that.now())

	if err := that.games.Create(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to create bot game: %w", err)
	}

	log.Info("bot game created", "game_id", game.ID, "user_id", userID, "human_goes_first", humanGoesFirst)

	return game, nil
}

// GetBotGame returns the game only to its owner.
func (that *BotGameManager) GetBotGame(ctx context.Context, id, userID string) (*entity.BotGame, error) {
	game, err := that.games.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get bot game: %w", err)
	}

	if game.OwnerID != userID {
		return nil, fmt.Errorf("%w: user %s", apperror.ErrNotYourGame, userID)
	}

	return game, nil
}

// AbandonBotGame deletes the game together with its move log.
func (that *BotGameManager) AbandonBotGame(ctx context.Context, id, userID string) error {
	if _, err := that.GetBotGame(ctx, id, userID); err != nil {
		return err
	}

	if err := that.games.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete bot game: %w", err)
	}

	that.logger.With("method", "AbandonBotGame").Info("bot game abandoned", "game_id", id, "user_id", userID)

	return nil
}

// MakeMove plays the human move and the bot's reply as one versioned transition.
func (that *BotGameManager) MakeMove(ctx context.Context, id, userID string, cell int, expectedVersion *int64) (*entity.BotGame, []entity.Move, error) {
	log := that.logger.With("method", "MakeMove")

	retries := that.retries
	if expectedVersion != nil {
		retries = 0
	}

	var err error

	for attempt := 0; attempt <= retries; attempt++ {
		var game *entity.BotGame

		game, err = that.games.GetByID(ctx, id)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get bot game: %w", err)
		}

		readVersion := game.Version

		moves, moveErr := game.MakeMove(userID, cell, expectedVersion, that.now())
		if moveErr != nil {
			return nil, nil, fmt.Errorf("failed to make move: %w", moveErr)
		}

		err = that.games.ConditionalUpdate(ctx, game, readVersion, moves...)
		if err == nil {
			if game.IsFinished() {
				log.Info("bot game finished", "game_id", id, "winner", game.Winner, "is_draw", game.IsDraw)
			}

			return game, moves, nil
		}

		if !errors.Is(err, apperror.ErrVersionConflict) {
			return nil, nil, fmt.Errorf("failed to update bot game: %w", err)
		}

		log.Debug("version conflict", "game_id", id, "read_version", readVersion, "attempt", attempt)
	}

	return nil, nil, fmt.Errorf("failed to make move: %w", err)
}

// Analyze suggests the best move for whoever is to play on an externally supplied board.
func (that *BotGameManager) Analyze(raw string) (Suggestion, error) {
	board, err := tictactoe.ParseBoard(raw)
	if err != nil {
		return Suggestion{}, fmt.Errorf("%w: %w", apperror.ErrMalformedBoard, err)
	}

	if tictactoe.IsTerminal(board) {
		return Suggestion{}, fmt.Errorf("%w: board %s has no moves left", apperror.ErrGameFinished, board)
	}

	mark := tictactoe.NextMark(board)

	return Suggestion{
		Cell: tictactoe.BestMove(board, mark, mark.Opponent()),
		Mark: mark,
	}, nil
}
