package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rocketscienceinc/tictactoe-arena/internal/config"
	"github.com/rocketscienceinc/tictactoe-arena/internal/repository"
	"github.com/rocketscienceinc/tictactoe-arena/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-arena/internal/service"
	"github.com/rocketscienceinc/tictactoe-arena/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-arena/transport/rest"
	"github.com/rocketscienceinc/tictactoe-arena/transport/websocket"
)

const shutdownTimeout = 10 * time.Second

var ErrAddrNotFound = errors.New("redis address string is empty")

// repositories is the storage selected by config together with whatever must be closed on exit.
type repositories struct {
	rooms    repository.RoomRepository
	botGames repository.BotGameRepository
	closer   io.Closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	repos, err := openRepositories(ctx, conf)
	if err != nil {
		return err
	}

	defer func() {
		if err = repos.closer.Close(); err != nil {
			log.Error("could not close storage", "error", err)
		}
	}()

	authService, err := service.NewAuthService(conf.JWTSecretKey)
	if err != nil {
		return fmt.Errorf("could not create auth service: %w", err)
	}

	roomManager := usecase.NewRoomManager(logger, repos.rooms, conf.ConflictRetries)
	botGameManager := usecase.NewBotGameManager(logger, repos.botGames, conf.ConflictRetries)

	roomStream := websocket.New(logger, roomManager, conf.RoomPollInterval)

	server := rest.New(logger, authService, roomManager, roomStream, botGameManager)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort, "storage", conf.Storage.Driver)
		if httpErr := server.Start(conf.HTTPPort); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err = server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown: %w", err)
	}

	return nil
}

func openRepositories(ctx context.Context, conf *config.Config) (*repositories, error) {
	switch conf.Storage.Driver {
	case config.DriverRedis:
		if conf.Redis.Host == "" {
			return nil, ErrAddrNotFound
		}

		redisStorage, err := storage.NewRedisStorage(ctx, storage.RedisOptions{
			Addr:     conf.Redis.GetRedisAddr(),
			Password: conf.Redis.Password,
			DB:       conf.Redis.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("could not connect to redis storage: %w", err)
		}

		return &repositories{
			rooms:    repository.NewRoomRepository(redisStorage.Connection),
			botGames: repository.NewBotGameRepository(redisStorage.Connection),
			closer:   redisStorage,
		}, nil

	case config.DriverSQLite:
		sqliteStorage, err := storage.NewSQLiteStorage(ctx, conf.SQLiteStoragePath)
		if err != nil {
			return nil, fmt.Errorf("could not open sqlite storage: %w", err)
		}

		if err = repository.AutoMigrate(sqliteStorage.Connection); err != nil {
			return nil, errors.Join(err, sqliteStorage.Close())
		}

		return &repositories{
			rooms:    repository.NewSQLRoomRepository(sqliteStorage.Connection),
			botGames: repository.NewSQLBotGameRepository(sqliteStorage.Connection),
			closer:   sqliteStorage,
		}, nil

	default:
		return &repositories{
			rooms:    repository.NewMemoryRoomRepository(),
			botGames: repository.NewMemoryBotGameRepository(),
			closer:   nopCloser{},
		}, nil
	}
}
