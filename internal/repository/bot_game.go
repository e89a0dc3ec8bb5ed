package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-arena/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-arena/internal/entity"
)

type dbBotGame struct {
	client *redis.Client
}

func NewBotGameRepository(client *redis.Client) BotGameRepository {
	return &dbBotGame{
		client: client,
	}
}

func botGameKey(id string) string {
	return "bot-game:" + id
}

func botGameMovesKey(id string) string {
	return "bot-game:" + id + ":moves"
}

func marshalBotGame(game *entity.BotGame) ([]byte, error) {
	record := *game
	record.Moves = nil

	gameJSON, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("could not marshal bot game: %w", err)
	}

	return gameJSON, nil
}

func (that *dbBotGame) Create(ctx context.Context, game *entity.BotGame) error {
	gameJSON, err := marshalBotGame(game)
	if err != nil {
		return err
	}

	moves, err := encodeMoves(game.Moves)
	if err != nil {
		return err
	}

	_, err = that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, botGameKey(game.ID), gameJSON, 0)
		if len(moves) > 0 {
			pipe.RPush(ctx, botGameMovesKey(game.ID), moves...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to set bot game: %w", err)
	}

	return nil
}

func (that *dbBotGame) GetByID(ctx context.Context, id string) (*entity.BotGame, error) {
	response, moves, err := loadSnapshot(ctx, that.client, botGameKey(id), botGameMovesKey(id))
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("bot game %s: %w", id, apperror.ErrNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get bot game by id: %w", err)
	}

	var game entity.BotGame
	if err = json.Unmarshal(response, &game); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bot game: %w", err)
	}

	game.Moves = moves

	return &game, nil
}

func (that *dbBotGame) ConditionalUpdate(ctx context.Context, game *entity.BotGame, expectedVersion int64, appended ...entity.Move) error {
	gameJSON, err := marshalBotGame(game)
	if err != nil {
		return err
	}

	return compareAndSet(ctx, that.client, botGameKey(game.ID), botGameMovesKey(game.ID), expectedVersion, gameJSON, appended)
}

func (that *dbBotGame) DeleteByID(ctx context.Context, id string) error {
	deleted, err := that.client.Del(ctx, botGameKey(id), botGameMovesKey(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete bot game by ID: %w", err)
	}

	if deleted == 0 {
		return fmt.Errorf("bot game %s: %w", id, apperror.ErrNotFound)
	}

	return nil
}
