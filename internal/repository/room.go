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

type dbRoom struct {
	client *redis.Client
}

func NewRoomRepository(client *redis.Client) RoomRepository {
	return &dbRoom{
		client: client,
	}
}

func roomKey(id string) string {
	return "room:" + id
}

func roomMovesKey(id string) string {
	return "room:" + id + ":moves"
}

func roomCodeKey(code string) string {
	return "room-code:" + code
}

func marshalRoom(room *entity.Room) ([]byte, error) {
	record := *room
	record.Moves = nil

	roomJSON, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("could not marshal room: %w", err)
	}

	return roomJSON, nil
}

func (that *dbRoom) Create(ctx context.Context, room *entity.Room) error {
	roomJSON, err := marshalRoom(room)
	if err != nil {
		return err
	}

	moves, err := encodeMoves(room.Moves)
	if err != nil {
		return err
	}

	codeKey := roomCodeKey(room.Code)

	// the code reservation and the room are written in one transaction, so a failed write
	// never leaves a code pointing at a missing room
	txf := func(tx *redis.Tx) error {
		taken, err := tx.Exists(ctx, codeKey).Result()
		if err != nil {
			return fmt.Errorf("failed to check room code: %w", err)
		}

		if taken > 0 {
			return fmt.Errorf("%w: %s", apperror.ErrCodeTaken, room.Code)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, codeKey, room.ID, 0)
			pipe.Set(ctx, roomKey(room.ID), roomJSON, 0)
			if len(moves) > 0 {
				pipe.RPush(ctx, roomMovesKey(room.ID), moves...)
			}
			return nil
		})

		return err
	}

	err = that.client.Watch(ctx, txf, codeKey)
	if errors.Is(err, redis.TxFailedErr) {
		return fmt.Errorf("%w: %s reserved concurrently", apperror.ErrCodeTaken, room.Code)
	}

	if err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}

	return nil
}

func (that *dbRoom) GetByID(ctx context.Context, id string) (*entity.Room, error) {
	response, moves, err := loadSnapshot(ctx, that.client, roomKey(id), roomMovesKey(id))
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("room %s: %w", id, apperror.ErrNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get room by id: %w", err)
	}

	var room entity.Room
	if err = json.Unmarshal(response, &room); err != nil {
		return nil, fmt.Errorf("failed to unmarshal room: %w", err)
	}

	room.Moves = moves

	return &room, nil
}

func (that *dbRoom) GetByCode(ctx context.Context, code string) (*entity.Room, error) {
	id, err := that.client.Get(ctx, roomCodeKey(code)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("room code %s: %w", code, apperror.ErrNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get room by code: %w", err)
	}

	return that.GetByID(ctx, id)
}

func (that *dbRoom) ConditionalUpdate(ctx context.Context, room *entity.Room, expectedVersion int64, appended ...entity.Move) error {
	roomJSON, err := marshalRoom(room)
	if err != nil {
		return err
	}

	return compareAndSet(ctx, that.client, roomKey(room.ID), roomMovesKey(room.ID), expectedVersion, roomJSON, appended)
}

func (that *dbRoom) DeleteByID(ctx context.Context, id string) error {
	room, err := that.GetByID(ctx, id)
	if err != nil {
		return err
	}

	_, err = that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, roomKey(id), roomMovesKey(id), roomCodeKey(room.Code))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete room by ID: %w", err)
	}

	return nil
}
