package repository

import (
	"context"

	"github.com/rocketscienceinc/tictactoe-arena/internal/entity"
)

// RoomRepository persists rooms and their move logs.
// ConditionalUpdate stores room and appends moves only if the stored version still equals
// expectedVersion; otherwise it returns apperror.ErrVersionConflict and writes nothing.
type RoomRepository interface {
	Create(ctx context.Context, room *entity.Room) error
	GetByID(ctx context.Context, id string) (*entity.Room, error)
	GetByCode(ctx context.Context, code string) (*entity.Room, error)
	ConditionalUpdate(ctx context.Context, room *entity.Room, expectedVersion int64, appended ...entity.Move) error
	DeleteByID(ctx context.Context, id string) error
}

// BotGameRepository persists bot games and their move logs, with the same conditional write contract.
type BotGameRepository interface {
	Create(ctx context.Context, game *entity.BotGame) error
	GetByID(ctx context.Context, id string) (*entity.BotGame, error)
	ConditionalUpdate(ctx context.Context, game *entity.BotGame, expectedVersion int64, appended ...entity.Move) error
	DeleteByID(ctx context.Context, id string) error
}
