package websocket

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-arena/internal/entity"
)

// session is one client connection watching one room.
type session struct {
	conn   *websocket.Conn
	roomID string
	userID string

	// mu serializes actions, polls and writes, and guards the fields below.
	mu      sync.Mutex
	version int64
	sent    bool
	closing bool
}

func newSession(conn *websocket.Conn, roomID, userID string) *session {
	return &session{
		conn:   conn,
		roomID: roomID,
		userID: userID,
	}
}

// pushRoom sends room unless the client has already seen this version or a newer one.
func (that *session) pushRoom(room *entity.Room) error {
	if that.sent && room.Version <= that.version {
		return nil
	}

	if err := that.send(actionUpdate, room); err != nil {
		return err
	}

	that.sent = true
	that.version = room.Version

	return nil
}

// markSeen records a version the client received inside another payload.
func (that *session) markSeen(room *entity.Room) {
	if room != nil && room.Version > that.version {
		that.sent = true
		that.version = room.Version
	}
}

func (that *session) sendError(action, code, message string) error {
	return that.send(actionError, errorPayload{Action: action, Code: code, Message: message})
}

func (that *session) send(action string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	data, err := json.Marshal(Message{Action: action, Payload: body})
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err = that.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	if err = that.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

// close starts the closing handshake; the read loop ends once the client answers or the deadline passes.
func (that *session) close(reason string) error {
	that.closing = true

	message := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
	if err := that.conn.WriteControl(websocket.CloseMessage, message, time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("failed to write close message: %w", err)
	}

	if err := that.conn.SetReadDeadline(time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("failed to set read deadline: %w", err)
	}

	return nil
}
