package repository

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/rocketscienceinc/tictactoe-arena/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-arena/internal/entity"
)

// memoryRoom keeps rooms in process. Snapshots are copied in and out so callers never share state.
type memoryRoom struct {
	mu     sync.Mutex
	byID   map[string]*entity.Room
	byCode map[string]string
}

func NewMemoryRoomRepository() RoomRepository {
	return &memoryRoom{
		byID:   make(map[string]*entity.Room),
		byCode: make(map[string]string),
	}
}

func cloneRoom(room *entity.Room) *entity.Room {
	clone := *room
	clone.Spectators = slices.Clone(room.Spectators)
	clone.Moves = slices.Clone(room.Moves)

	return &clone
}

func (that *memoryRoom) Create(_ context.Context, room *entity.Room) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, taken := that.byCode[room.Code]; taken {
		return fmt.Errorf("%w: %s", apperror.ErrCodeTaken, room.Code)
	}

	that.byID[room.ID] = cloneRoom(room)
	that.byCode[room.Code] = room.ID

	return nil
}

func (that *memoryRoom) GetByID(_ context.Context, id string) (*entity.Room, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	room, ok := that.byID[id]
	if !ok {
		return nil, fmt.Errorf("room %s: %w", id, apperror.ErrNotFound)
	}

	return cloneRoom(room), nil
}

func (that *memoryRoom) GetByCode(ctx context.Context, code string) (*entity.Room, error) {
	that.mu.Lock()
	id, ok := that.byCode[code]
	that.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("room code %s: %w", code, apperror.ErrNotFound)
	}

	return that.GetByID(ctx, id)
}

func (that *memoryRoom) ConditionalUpdate(_ context.Context, room *entity.Room, expectedVersion int64, appended ...entity.Move) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	stored, ok := that.byID[room.ID]
	if !ok {
		return fmt.Errorf("room %s: %w", room.ID, apperror.ErrNotFound)
	}

	if stored.Version != expectedVersion {
		return fmt.Errorf("%w: expected %d, stored %d", apperror.ErrVersionConflict, expectedVersion, stored.Version)
	}

	next := cloneRoom(room)
	next.Moves = append(slices.Clone(stored.Moves), appended...)
	that.byID[room.ID] = next

	return nil
}

func (that *memoryRoom) DeleteByID(_ context.Context, id string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	room, ok := that.byID[id]
	if !ok {
		return fmt.Errorf("room %s: %w", id, apperror.ErrNotFound)
	}

	delete(that.byCode, room.Code)
	delete(that.byID, id)

	return nil
}

type memoryBotGame struct {
	mu    sync.Mutex
	games map[string]*entity.BotGame
}

func NewMemoryBotGameRepository() BotGameRepository {
	return &memoryBotGame{
		games: make(map[string]*entity.BotGame),
	}
}

func cloneBotGame(game *entity.BotGame) *entity.BotGame {
	clone := *game
	clone.Moves = slices.Clone(game.Moves)

	return &clone
}

func (that *memoryBotGame) Create(_ context.Context, game *entity.BotGame) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.games[game.ID] = cloneBotGame(game)

	return nil
}

func (that *memoryBotGame) GetByID(_ context.Context, id string) (*entity.BotGame, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	game, ok := that.games[id]
	if !ok {
		return nil, fmt.Errorf("bot game %s: %w", id, apperror.ErrNotFound)
	}

	return cloneBotGame(game), nil
}

func (that *memoryBotGame) ConditionalUpdate(_ context.Context, game *entity.BotGame, expectedVersion int64, appended ...entity.Move) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	stored, ok := that.games[game.ID]
	if !ok {
		return fmt.Errorf("bot game %s: %w", game.ID, apperror.ErrNotFound)
	}

	if stored.Version != expectedVersion {
		return fmt.Errorf("%w: expected %d, stored %d", apperror.ErrVersionConflict, expectedVersion, stored.Version)
	}

	next := cloneBotGame(game)
	next.Moves = append(slices.Clone(stored.Moves), appended...)
	that.games[game.ID] = next

	return nil
}

func (that *memoryBotGame) DeleteByID(_ context.Context, id string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.games[id]; !ok {
		return fmt.Errorf("bot game %s: %w", id, apperror.ErrNotFound)
	}

	delete(that.games, id)

	return nil
}
