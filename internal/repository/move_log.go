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

// versionStamp decodes only the version of a stored match.
type versionStamp struct {
	Version int64 `json:"version"`
}

func encodeMoves(moves []entity.Move) ([]any, error) {
	encoded := make([]any, 0, len(moves))

	for _, move := range moves {
		moveJSON, err := json.Marshal(move)
		if err != nil {
			return nil, fmt.Errorf("could not marshal move: %w", err)
		}

		encoded = append(encoded, moveJSON)
	}

	return encoded, nil
}

// loadSnapshot reads a match record and its move log in one MULTI so both belong to the same version.
func loadSnapshot(ctx context.Context, client *redis.Client, key, movesKey string) ([]byte, []entity.Move, error) {
	var (
		get    *redis.StringCmd
		lrange *redis.StringSliceCmd
	)

	_, err := client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		get = pipe.Get(ctx, key)
		lrange = pipe.LRange(ctx, movesKey, 0, -1)
		return nil
	})
	if errors.Is(err, redis.Nil) {
		return nil, nil, apperror.ErrNotFound
	}

	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", key, err)
	}

	response, err := get.Bytes()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", key, err)
	}

	rawMoves, err := lrange.Result()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get moves: %w", err)
	}

	if len(rawMoves) == 0 {
		return response, nil, nil
	}

	moves := make([]entity.Move, len(rawMoves))
	for i, raw := range rawMoves {
		if err = json.Unmarshal([]byte(raw), &moves[i]); err != nil {
			return nil, nil, fmt.Errorf("failed to unmarshal move: %w", err)
		}
	}

	return response, moves, nil
}

// compareAndSet overwrites key with payload and appends moves to movesKey, but only if the
// stored version equals expectedVersion. Any concurrent write to key aborts the transaction.
func compareAndSet(
	ctx context.Context,
	client *redis.Client,
	key, movesKey string,
	expectedVersion int64,
	payload []byte,
	appended []entity.Move,
) error {
	encoded, err := encodeMoves(appended)
	if err != nil {
		return err
	}

	txf := func(tx *redis.Tx) error {
		response, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return apperror.ErrNotFound
		}

		if err != nil {
			return fmt.Errorf("failed to read current version: %w", err)
		}

		var stamp versionStamp
		if err = json.Unmarshal(response, &stamp); err != nil {
			return fmt.Errorf("failed to unmarshal version: %w", err)
		}

		if stamp.Version != expectedVersion {
			return fmt.Errorf("%w: expected %d, stored %d", apperror.ErrVersionConflict, expectedVersion, stamp.Version)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			if len(encoded) > 0 {
				pipe.RPush(ctx, movesKey, encoded...)
			}
			return nil
		})

		return err
	}

	err = client.Watch(ctx, txf, key)
	if errors.Is(err, redis.TxFailedErr) {
		return fmt.Errorf("%w: concurrent write to %s", apperror.ErrVersionConflict, key)
	}

	if err != nil {
		return fmt.Errorf("conditional update of %s: %w", key, err)
	}

	return nil
}
