package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/rocketscienceinc/tictactoe-arena/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-arena/internal/entity"
)

type sqlRoom struct {
	db *gorm.DB
}

func NewSQLRoomRepository(db *gorm.DB) RoomRepository {
	return &sqlRoom{
		db: db,
	}
}

func orderedMoves(db *gorm.DB) *gorm.DB {
	return db.Order("move_order")
}

func (that *sqlRoom) Create(ctx context.Context, room *entity.Room) error {
	record := newRoomRecord(room)

	err := that.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var taken int64
		if err := tx.Model(&roomRecord{}).Where("code = ?", room.Code).Count(&taken).Error; err != nil {
			return fmt.Errorf("failed to check room code: %w", err)
		}

		if taken > 0 {
			return fmt.Errorf("%w: %s", apperror.ErrCodeTaken, room.Code)
		}

		if err := tx.Create(&record).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: %s", apperror.ErrCodeTaken, room.Code)
			}

			return fmt.Errorf("failed to insert room: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	return nil
}

func (that *sqlRoom) get(ctx context.Context, query string, arg string) (*entity.Room, error) {
	var record roomRecord

	err := that.db.WithContext(ctx).
		Preload("Moves", orderedMoves).
		Where(query, arg).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("room %s: %w", arg, apperror.ErrNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	return record.toEntity()
}

func (that *sqlRoom) GetByID(ctx context.Context, id string) (*entity.Room, error) {
	return that.get(ctx, "id = ?", id)
}

func (that *sqlRoom) GetByCode(ctx context.Context, code string) (*entity.Room, error) {
	return that.get(ctx, "code = ?", code)
}

func (that *sqlRoom) ConditionalUpdate(ctx context.Context, room *entity.Room, expectedVersion int64, appended ...entity.Move) error {
	record := newRoomRecord(room)
	record.Moves = nil

	return that.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&record).
			Where("version = ?", expectedVersion).
			Select(roomColumns).
			Updates(&record)
		if result.Error != nil {
			return fmt.Errorf("failed to update room: %w", result.Error)
		}

		if result.RowsAffected == 0 {
			return missingOrStale(tx, &roomRecord{}, room.ID, expectedVersion)
		}

		if moves := newRoomMoveRecords(room.ID, appended); len(moves) > 0 {
			if err := tx.Create(&moves).Error; err != nil {
				return fmt.Errorf("failed to append room moves: %w", err)
			}
		}

		return nil
	})
}

func (that *sqlRoom) DeleteByID(ctx context.Context, id string) error {
	return that.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("room_id = ?", id).Delete(&roomMoveRecord{}).Error; err != nil {
			return fmt.Errorf("failed to delete room moves: %w", err)
		}

		result := tx.Where("id = ?", id).Delete(&roomRecord{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete room by ID: %w", result.Error)
		}

		if result.RowsAffected == 0 {
			return fmt.Errorf("room %s: %w", id, apperror.ErrNotFound)
		}

		return nil
	})
}

// missingOrStale explains why a version-guarded update touched no rows.
func missingOrStale(tx *gorm.DB, model any, id string, expectedVersion int64) error {
	var found int64
	if err := tx.Model(model).Where("id = ?", id).Count(&found).Error; err != nil {
		return fmt.Errorf("failed to check match %s: %w", id, err)
	}

	if found == 0 {
		return fmt.Errorf("match %s: %w", id, apperror.ErrNotFound)
	}

	return fmt.Errorf("%w: match %s is no longer at version %d", apperror.ErrVersionConflict, id, expectedVersion)
}
