package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/rocketscienceinc/tictactoe-arena/internal/entity"
	"github.com/rocketscienceinc/tictactoe-arena/internal/tictactoe"
	"github.com/rocketscienceinc/tictactoe-arena/internal/usecase"
)

type roomUseCase interface {
	CreateRoom(ctx context.Context, userID string) (*entity.Room, error)
	GetRoom(ctx context.Context, id string) (*entity.Room, error)
	GetRoomByCode(ctx context.Context, code string) (*entity.Room, error)
	JoinRoom(ctx context.Context, id, userID string) (*entity.Room, entity.Role, error)
	JoinRoomByCode(ctx context.Context, code, userID string) (*entity.Room, entity.Role, error)
	MakeMove(ctx context.Context, id, userID string, cell int, expectedVersion *int64) (*entity.Room, entity.Move, error)
	LeaveRoom(ctx context.Context, id, userID string) (*entity.Room, entity.LeaveOutcome, error)
	History(ctx context.Context, id string) ([]tictactoe.Board, error)
}

type botGameUseCase interface {
	CreateBotGame(ctx context.Context, userID string, humanGoesFirst bool) (*entity.BotGame, error)
	GetBotGame(ctx context.Context, id, userID string) (*entity.BotGame, error)
	AbandonBotGame(ctx context.Context, id, userID string) error
	MakeMove(ctx context.Context, id, userID string, cell int, expectedVersion *int64) (*entity.BotGame, []entity.Move, error)
	Analyze(raw string) (usecase.Suggestion, error)
}

type roomStreamer interface {
	Serve(writer http.ResponseWriter, req *http.Request, roomID, userID string) error
}

type tokenParser interface {
	ParseToken(tokenString string) (string, error)
}

type Server struct {
	logger *slog.Logger
	echo   *echo.Echo
}

func New(logger *slog.Logger, auth tokenParser, rooms roomUseCase, stream roomStreamer, botGames botGameUseCase) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 10 * time.Second
	e.Server.IdleTimeout = 30 * time.Second

	server := &Server{
		logger: logger.With("component", "rest"),
		echo:   e,
	}

	e.HTTPErrorHandler = server.handleError
	e.Use(middleware.Recover())
	e.Use(requestLogger(server.logger))

	e.GET("/ping", pingHandler)

	secured := authenticate(auth)

	roomHandler := newRoomHandler(rooms)
	e.POST("/rooms", roomHandler.create, secured)
	e.POST("/rooms/join", roomHandler.joinByCode, secured)
	e.GET("/rooms/code/:code", roomHandler.getByCode, secured)
	e.GET("/rooms/:id", roomHandler.get, secured)
	e.POST("/rooms/:id/join", roomHandler.join, secured)
	e.POST("/rooms/:id/moves", roomHandler.move, secured)
	e.POST("/rooms/:id/leave", roomHandler.leave, secured)
	e.GET("/rooms/:id/history", roomHandler.history, secured)
	e.GET("/rooms/:id/ws", streamHandler(stream), secured)

	botGameHandler := newBotGameHandler(botGames)
	e.POST("/bot-games", botGameHandler.create, secured)
	e.GET("/bot-games/:id", botGameHandler.get, secured)
	e.DELETE("/bot-games/:id", botGameHandler.abandon, secured)
	e.POST("/bot-games/:id/moves", botGameHandler.move, secured)
	e.POST("/analysis/best-move", botGameHandler.analyze, secured)

	return server
}

func (that *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	that.echo.ServeHTTP(w, r)
}

// Start - blocks serving HTTP until Shutdown is called.
func (that *Server) Start(port string) error {
	if err := that.echo.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func (that *Server) Shutdown(ctx context.Context) error {
	if err := that.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency}

			if v.Error != nil {
				logger.Debug("request failed", append(attrs, "error", v.Error)...)
				return nil
			}

			logger.Debug("request", attrs...)

			return nil
		},
	})
}
