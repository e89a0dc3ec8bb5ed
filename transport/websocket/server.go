package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-arena/internal/entity"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10

	maxMessageSize = 4096

	defaultPollInterval = 500 * time.Millisecond
)

type roomUseCase interface {
	GetRoom(ctx context.Context, id string) (*entity.Room, error)
	JoinRoom(ctx context.Context, id, userID string) (*entity.Room, entity.Role, error)
	MakeMove(ctx context.Context, id, userID string, cell int, expectedVersion *int64) (*entity.Room, entity.Move, error)
	LeaveRoom(ctx context.Context, id, userID string) (*entity.Room, entity.LeaveOutcome, error)
}

type handlerFunc func(ctx context.Context, sess *session, message *Message) error

// Server streams room snapshots to connected clients and accepts room actions over the same connection.
type Server struct {
	logger       *slog.Logger
	rooms        roomUseCase
	upgrader     websocket.Upgrader
	pollInterval time.Duration

	handlers map[string]handlerFunc
}

func New(logger *slog.Logger, rooms roomUseCase, pollInterval time.Duration) *Server {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	server := &Server{
		logger: logger.With("component", "websocket"),
		rooms:  rooms,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},
		pollInterval: pollInterval,

		handlers: make(map[string]handlerFunc),
	}

	server.handlers[actionJoin] = server.handleJoin
	server.handlers[actionMove] = server.handleMove
	server.handlers[actionLeave] = server.handleLeave

	return server
}

// Serve upgrades the request and streams room roomID to userID until either side closes.
// Errors are returned only before the upgrade; afterwards they are logged.
func (that *Server) Serve(writer http.ResponseWriter, req *http.Request, roomID, userID string) error {
	log := that.logger.With("method", "Serve", "roomID", roomID, "userID", userID)

	room, err := that.rooms.GetRoom(req.Context(), roomID)
	if err != nil {
		return fmt.Errorf("failed to open room stream: %w", err)
	}

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Warn("failed to upgrade connection", "error", err)
		return nil
	}

	defer conn.Close()

	log.Info("WebSocket connection established")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sess := newSession(conn, roomID, userID)

	sess.mu.Lock()
	err = sess.pushRoom(room)
	sess.mu.Unlock()

	if err != nil {
		log.Error("failed to send initial snapshot", "error", err)
		return nil
	}

	watcherDone := make(chan struct{})
	go func() {
		defer close(watcherDone)
		that.watch(ctx, sess)
	}()

	if err = that.handleMessages(ctx, sess); err != nil {
		log.Info("WebSocket connection closed", "reason", err)
	}

	cancel()
	<-watcherDone

	return nil
}

// handleMessages - processes messages from the client until the connection fails or closes.
func (that *Server) handleMessages(ctx context.Context, sess *session) error {
	log := that.logger.With("method", "handleMessages", "roomID", sess.roomID)

	sess.conn.SetReadLimit(maxMessageSize)
	if err := sess.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return fmt.Errorf("failed to set read deadline: %w", err)
	}

	sess.conn.SetPongHandler(func(string) error {
		return sess.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := sess.conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("failed to read message: %w", err)
		}

		var message Message
		if err = json.Unmarshal(data, &message); err != nil {
			log.Warn("failed to unmarshal message", "error", err)
			that.reply(sess, func() error {
				return sess.sendError("", "bad_request", "message is not valid json")
			})
			continue
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Warn("unknown action", "action", message.Action)
			that.reply(sess, func() error {
				return sess.sendError(message.Action, codeUnknownAction, "unknown action "+message.Action)
			})
			continue
		}

		that.reply(sess, func() error {
			return handler(ctx, sess, &message)
		})
	}
}

// reply runs fn with the session locked so actions never interleave with polls.
func (that *Server) reply(sess *session, fn func() error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.closing {
		return
	}

	if err := fn(); err != nil {
		that.logger.Error("error processing message", "roomID", sess.roomID, "error", err)
	}
}
