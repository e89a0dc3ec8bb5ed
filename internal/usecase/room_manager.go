package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/tictactoe-arena/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-arena/internal/entity"
	"github.com/rocketscienceinc/tictactoe-arena/internal/tictactoe"
)

const (
	roomCodeLength   = 6
	roomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeAttempts     = 5

	// untilCommitted retries a conflicting transition until it commits or the context ends.
	untilCommitted = -1
)

type roomRepo interface {
	Create(ctx context.Context, room *entity.Room) error
	GetByID(ctx context.Context, id string) (*entity.Room, error)
	GetByCode(ctx context.Context, code string) (*entity.Room, error)
	ConditionalUpdate(ctx context.Context, room *entity.Room, expectedVersion int64, appended ...entity.Move) error
	DeleteByID(ctx context.Context, id string) error
}

// roomTransition is one optimistic attempt against a fresh snapshot.
// It returns the moves to append and whether anything needs persisting.
type roomTransition func(room *entity.Room) ([]entity.Move, bool, error)

type RoomManager struct {
	logger *slog.Logger
	rooms  roomRepo

	retries int
	now     func() time.Time
	newID   func() string
	newCode func() (string, error)
}

func NewRoomManager(logger *slog.Logger, rooms roomRepo, retries int) *RoomManager {
	return &RoomManager{
		logger: logger,
		rooms:  rooms,

		retries: max(retries, 0),
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
		newCode: generateRoomCode,
	}
}

// generateRoomCode - generates a short code a human can type to join a room.
func generateRoomCode() (string, error) {
	code := make([]byte, roomCodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(roomCodeAlphabet))))
		if err != nil {
			return "", fmt.Errorf("failed to generate room code: %w", err)
		}

		code[i] = roomCodeAlphabet[n.Int64()]
	}

	return string(code), nil
}

// CreateRoom opens a waiting room owned by userID. A taken code is regenerated.
func (that *RoomManager) CreateRoom(ctx context.Context, userID string) (*entity.Room, error) {
	log := that.logger.With("method", "CreateRoom")

	id := that.newID()

	for attempt := 1; attempt <= codeAttempts; attempt++ {
		code, err := that.newCode()
		if err != nil {
			return nil, err
		}

		room := entity.NewRoom(id, code, userID, that.now())

		err = that.rooms.Create(ctx, room)
		if errors.Is(err, apperror.ErrCodeTaken) {
			log.Debug("room code collision", "code", code, "attempt", attempt)
			continue
		}

		if err != nil {
			return nil, fmt.Errorf("failed to create room: %w", err)
		}

		log.Info("room created", "room_id", room.ID, "code", room.Code, "user_id", userID)

		return room, nil
	}

	return nil, fmt.Errorf("failed to create room after %d attempts: %w", codeAttempts, apperror.ErrCodeTaken)
}

func (that *RoomManager) GetRoom(ctx context.Context, id string) (*entity.Room, error) {
	room, err := that.rooms.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	return room, nil
}

func (that *RoomManager) GetRoomByCode(ctx context.Context, code string) (*entity.Room, error) {
	room, err := that.rooms.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to get room by code: %w", err)
	}

	return room, nil
}

// JoinRoom seats userID or registers a spectator. Join has no failing rule, so conflicts are retried
// until the join commits: the loser of a seat race ends up spectating rather than being rejected.
func (that *RoomManager) JoinRoom(ctx context.Context, id, userID string) (*entity.Room, entity.Role, error) {
	var role entity.Role

	room, err := that.commit(ctx, "JoinRoom", id, untilCommitted, func(room *entity.Room) ([]entity.Move, bool, error) {
		var changed bool
		role, changed = room.Join(userID, that.now())

		return nil, changed, nil
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to join room: %w", err)
	}

	return room, role, nil
}

func (that *RoomManager) JoinRoomByCode(ctx context.Context, code, userID string) (*entity.Room, entity.Role, error) {
	room, err := that.GetRoomByCode(ctx, code)
	if err != nil {
		return nil, "", err
	}

	return that.JoinRoom(ctx, room.ID, userID)
}

// MakeMove plays cell for userID. With an expected version the caller owns the race and a conflict
// is returned as is; without one the move is re-validated against the current room.
func (that *RoomManager) MakeMove(ctx context.Context, id, userID string, cell int, expectedVersion *int64) (*entity.Room, entity.Move, error) {
	retries := that.retries
	if expectedVersion != nil {
		retries = 0
	}

	var move entity.Move

	room, err := that.commit(ctx, "MakeMove", id, retries, func(room *entity.Room) ([]entity.Move, bool, error) {
		var err error

		move, err = room.MakeMove(userID, cell, expectedVersion, that.now())
		if err != nil {
			return nil, false, err
		}

		return []entity.Move{move}, true, nil
	})
	if err != nil {
		return nil, entity.Move{}, fmt.Errorf("failed to make move: %w", err)
	}

	return room, move, nil
}

// LeaveRoom removes userID. The returned room is nil when player one left and the room was destroyed.
func (that *RoomManager) LeaveRoom(ctx context.Context, id, userID string) (*entity.Room, entity.LeaveOutcome, error) {
	log := that.logger.With("method", "LeaveRoom")

	var outcome entity.LeaveOutcome

	room, err := that.commit(ctx, "LeaveRoom", id, that.retries, func(room *entity.Room) ([]entity.Move, bool, error) {
		var err error

		outcome, err = room.Leave(userID, that.now())
		if err != nil {
			return nil, false, err
		}

		changed := outcome != entity.LeaveNoop && outcome != entity.LeaveDestroyed

		return nil, changed, nil
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to leave room: %w", err)
	}

	if outcome == entity.LeaveDestroyed {
		if err = that.rooms.DeleteByID(ctx, id); err != nil {
			return nil, "", fmt.Errorf("failed to destroy room: %w", err)
		}

		log.Info("room destroyed by its owner", "room_id", id, "user_id", userID)

		return nil, outcome, nil
	}

	log.Debug("left room", "room_id", id, "user_id", userID, "outcome", outcome)

	return room, outcome, nil
}

// History returns the board after each move of the room.
func (that *RoomManager) History(ctx context.Context, id string) ([]tictactoe.Board, error) {
	room, err := that.GetRoom(ctx, id)
	if err != nil {
		return nil, err
	}

	boards, err := room.History()
	if err != nil {
		return nil, fmt.Errorf("failed to build history: %w", err)
	}

	return boards, nil
}

// commit loads the room, applies transition and writes it back conditioned on the version it read.
// A version conflict reloads and tries again, up to retries more times, or without bound for untilCommitted.
func (that *RoomManager) commit(ctx context.Context, method, id string, retries int, transition roomTransition) (*entity.Room, error) {
	log := that.logger.With("method", method)

	var err error

	for attempt := 0; retries == untilCommitted || attempt <= retries; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("gave up after %d attempts: %w", attempt, ctxErr)
		}

		var room *entity.Room

		room, err = that.rooms.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to get room: %w", err)
		}

		readVersion := room.Version

		appended, changed, transitionErr := transition(room)
		if transitionErr != nil {
			return nil, transitionErr
		}

		if !changed {
			return room, nil
		}

		err = that.rooms.ConditionalUpdate(ctx, room, readVersion, appended...)
		if err == nil {
			return room, nil
		}

		if !errors.Is(err, apperror.ErrVersionConflict) {
			return nil, fmt.Errorf("failed to update room: %w", err)
		}

		log.Debug("version conflict", "room_id", id, "read_version", readVersion, "attempt", attempt)
	}

	return nil, err
}
