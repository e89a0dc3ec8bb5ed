package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/rocketscienceinc/tictactoe-arena/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-arena/internal/entity"
)

type sqlBotGame struct {
	db *gorm.DB
}

func NewSQLBotGameRepository(db *gorm.DB) BotGameRepository {
	return &sqlBotGame{
		db: db,
	}
}

func (that *sqlBotGame) Create(ctx context.Context, game *entity.BotGame) error {
	record := newBotGameRecord(game)

	if err := that.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to insert bot game: %w", err)
	}

	return nil
}

func (that *sqlBotGame) GetByID(ctx context.Context, id string) (*entity.BotGame, error) {
	var record botGameRecord

	err := that.db.WithContext(ctx).
		Preload("Moves", orderedMoves).
		Where("id = ?", id).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("bot game %s: %w", id, apperror.ErrNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get bot game: %w", err)
	}

	return record.toEntity()
}

func (that *sqlBotGame) ConditionalUpdate(ctx context.Context, game *entity.BotGame, expectedVersion int64, appended ...entity.Move) error {
	record := newBotGameRecord(game)
	record.Moves = nil

	return that.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&record).
			Where("version = ?", expectedVersion).
			Select(botGameColumns).
			Updates(&record)
		if result.Error != nil {
			return fmt.Errorf("failed to update bot game: %w", result.Error)
		}

		if result.RowsAffected == 0 {
			return missingOrStale(tx, &botGameRecord{}, game.ID, expectedVersion)
		}

		if moves := newBotGameMoveRecords(game.ID, appended); len(moves) > 0 {
			if err := tx.Create(&moves).Error; err != nil {
				return fmt.Errorf("failed to append bot game moves: %w", err)
			}
		}

		return nil
	})
}

func (that *sqlBotGame) DeleteByID(ctx context.Context, id string) error {
	return that.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("bot_game_id = ?", id).Delete(&botGameMoveRecord{}).Error; err != nil {
			return fmt.Errorf("failed to delete bot game moves: %w", err)
		}

		result := tx.Where("id = ?", id).Delete(&botGameRecord{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete bot game by ID: %w", result.Error)
		}

		if result.RowsAffected == 0 {
			return fmt.Errorf("bot game %s: %w", id, apperror.ErrNotFound)
		}

		return nil
	})
}
