package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/rocketscienceinc/tictactoe-arena/internal/entity"
	"github.com/rocketscienceinc/tictactoe-arena/internal/tictactoe"
)

type roomRecord struct {
	ID          string           `gorm:"primaryKey;type:text"`
	Code        string           `gorm:"type:text;uniqueIndex;not null"`
	PlayerOneID string           `gorm:"type:text;not null"`
	PlayerTwoID string           `gorm:"type:text"`
	Spectators  []string         `gorm:"serializer:json"`
	Status      string           `gorm:"type:text;not null"`
	Turn        string           `gorm:"type:text;not null"`
	Board       string           `gorm:"type:text;not null"`
	Winner      string           `gorm:"type:text;not null"`
	IsDraw      bool             `gorm:"not null"`
	Version     int64            `gorm:"not null"`
	CreatedAt   time.Time        `gorm:"autoCreateTime:false"`
	UpdatedAt   time.Time        `gorm:"autoUpdateTime:false"`
	Moves       []roomMoveRecord `gorm:"foreignKey:RoomID;constraint:OnDelete:CASCADE"`
}

func (roomRecord) TableName() string {
	return "rooms"
}

type roomMoveRecord struct {
	ID       int64     `gorm:"primaryKey;autoIncrement"`
	RoomID   string    `gorm:"type:text;not null;uniqueIndex:idx_room_move_order"`
	Order    int       `gorm:"column:move_order;not null;uniqueIndex:idx_room_move_order"`
	Actor    string    `gorm:"type:text;not null"`
	Cell     int       `gorm:"not null"`
	Mark     string    `gorm:"type:text;not null"`
	PlayedAt time.Time `gorm:"not null"`
}

func (roomMoveRecord) TableName() string {
	return "room_moves"
}

type botGameRecord struct {
	ID        string              `gorm:"primaryKey;type:text"`
	OwnerID   string              `gorm:"type:text;index;not null"`
	HumanMark string              `gorm:"type:text;not null"`
	Status    string              `gorm:"type:text;not null"`
	Turn      string              `gorm:"type:text;not null"`
	Board     string              `gorm:"type:text;not null"`
	Winner    string              `gorm:"type:text;not null"`
	IsDraw    bool                `gorm:"not null"`
	Version   int64               `gorm:"not null"`
	CreatedAt time.Time           `gorm:"autoCreateTime:false"`
	UpdatedAt time.Time           `gorm:"autoUpdateTime:false"`
	Moves     []botGameMoveRecord `gorm:"foreignKey:BotGameID;constraint:OnDelete:CASCADE"`
}

func (botGameRecord) TableName() string {
	return "bot_games"
}

type botGameMoveRecord struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	BotGameID string    `gorm:"type:text;not null;uniqueIndex:idx_bot_game_move_order"`
	Order     int       `gorm:"column:move_order;not null;uniqueIndex:idx_bot_game_move_order"`
	Actor     string    `gorm:"type:text;not null"`
	Cell      int       `gorm:"not null"`
	Mark      string    `gorm:"type:text;not null"`
	PlayedAt  time.Time `gorm:"not null"`
}

func (botGameMoveRecord) TableName() string {
	return "bot_game_moves"
}

// AutoMigrate creates or updates the match tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&roomRecord{}, &roomMoveRecord{}, &botGameRecord{}, &botGameMoveRecord{}); err != nil {
		return fmt.Errorf("failed to migrate match tables: %w", err)
	}

	return nil
}

// roomColumns are rewritten on every conditional update; id, code, player one and created_at never change.
var roomColumns = []string{"player_two_id", "spectators", "status", "turn", "board", "winner", "is_draw", "version", "updated_at"}

var botGameColumns = []string{"status", "turn", "board", "winner", "is_draw", "version", "updated_at"}

func parseMark(raw string) (tictactoe.Mark, error) {
	var mark tictactoe.Mark
	if err := mark.UnmarshalText([]byte(raw)); err != nil {
		return mark, err
	}

	return mark, nil
}

func newRoomRecord(room *entity.Room) roomRecord {
	return roomRecord{
		ID:          room.ID,
		Code:        room.Code,
		PlayerOneID: room.PlayerOneID,
		PlayerTwoID: room.PlayerTwoID,
		Spectators:  room.Spectators,
		Status:      room.Status,
		Turn:        string(room.Turn),
		Board:       room.Board.String(),
		Winner:      string(room.Winner),
		IsDraw:      room.IsDraw,
		Version:     room.Version,
		CreatedAt:   room.CreatedAt,
		UpdatedAt:   room.UpdatedAt,
		Moves:       newRoomMoveRecords(room.ID, room.Moves),
	}
}

func newRoomMoveRecords(roomID string, moves []entity.Move) []roomMoveRecord {
	if len(moves) == 0 {
		return nil
	}

	records := make([]roomMoveRecord, len(moves))
	for i, move := range moves {
		records[i] = roomMoveRecord{
			RoomID:   roomID,
			Order:    move.Order,
			Actor:    move.Actor,
			Cell:     move.Cell,
			Mark:     move.Mark.String(),
			PlayedAt: move.PlayedAt,
		}
	}

	return records
}

func (that roomRecord) toEntity() (*entity.Room, error) {
	board, err := tictactoe.ParseBoard(that.Board)
	if err != nil {
		return nil, fmt.Errorf("room %s: %w", that.ID, err)
	}

	room := &entity.Room{
		ID:          that.ID,
		Code:        that.Code,
		PlayerOneID: that.PlayerOneID,
		PlayerTwoID: that.PlayerTwoID,
		Spectators:  that.Spectators,
		Status:      that.Status,
		Turn:        entity.Seat(that.Turn),
		Board:       board,
		Winner:      entity.Seat(that.Winner),
		IsDraw:      that.IsDraw,
		Version:     that.Version,
		CreatedAt:   that.CreatedAt,
		UpdatedAt:   that.UpdatedAt,
	}

	for _, record := range that.Moves {
		mark, err := parseMark(record.Mark)
		if err != nil {
			return nil, fmt.Errorf("room %s move %d: %w", that.ID, record.Order, err)
		}

		room.Moves = append(room.Moves, entity.Move{
			Order:    record.Order,
			Actor:    record.Actor,
			Cell:     record.Cell,
			Mark:     mark,
			PlayedAt: record.PlayedAt,
		})
	}

	return room, nil
}

func newBotGameRecord(game *entity.BotGame) botGameRecord {
	return botGameRecord{
		ID:        game.ID,
		OwnerID:   game.OwnerID,
		HumanMark: game.HumanMark.String(),
		Status:    game.Status,
		Turn:      string(game.Turn),
		Board:     game.Board.String(),
		Winner:    string(game.Winner),
		IsDraw:    game.IsDraw,
		Version:   game.Version,
		CreatedAt: game.CreatedAt,
		UpdatedAt: game.UpdatedAt,
		Moves:     newBotGameMoveRecords(game.ID, game.Moves),
	}
}

func newBotGameMoveRecords(gameID string, moves []entity.Move) []botGameMoveRecord {
	if len(moves) == 0 {
		return nil
	}

	records := make([]botGameMoveRecord, len(moves))
	for i, move := range moves {
		records[i] = botGameMoveRecord{
			BotGameID: gameID,
			Order:     move.Order,
			Actor:     move.Actor,
			Cell:      move.Cell,
			Mark:      move.Mark.String(),
			PlayedAt:  move.PlayedAt,
		}
	}

	return records
}

func (that botGameRecord) toEntity() (*entity.BotGame, error) {
	board, err := tictactoe.ParseBoard(that.Board)
	if err != nil {
		return nil, fmt.Errorf("bot game %s: %w", that.ID, err)
	}

	humanMark, err := parseMark(that.HumanMark)
	if err != nil {
		return nil, fmt.Errorf("bot game %s: %w", that.ID, err)
	}

	game := &entity.BotGame{
		ID:        that.ID,
		OwnerID:   that.OwnerID,
		HumanMark: humanMark,
		Status:    that.Status,
		Turn:      entity.Actor(that.Turn),
		Board:     board,
		Winner:    entity.Actor(that.Winner),
		IsDraw:    that.IsDraw,
		Version:   that.Version,
		CreatedAt: that.CreatedAt,
		UpdatedAt: that.UpdatedAt,
	}

	for _, record := range that.Moves {
		mark, err := parseMark(record.Mark)
		if err != nil {
			return nil, fmt.Errorf("bot game %s move %d: %w", that.ID, record.Order, err)
		}

		game.Moves = append(game.Moves, entity.Move{
			Order:    record.Order,
			Actor:    record.Actor,
			Cell:     record.Cell,
			Mark:     mark,
			PlayedAt: record.PlayedAt,
		})
	}

	return game, nil
}
