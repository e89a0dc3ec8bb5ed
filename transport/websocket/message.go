package websocket

import (
	"encoding/json"

	"github.com/rocketscienceinc/tictactoe-arena/internal/entity"
)

const (
	actionJoin   = "room:join"
	actionMove   = "room:move"
	actionLeave  = "room:leave"
	actionUpdate = "room:update"
	actionClosed = "room:closed"
	actionError  = "error"
)

const codeUnknownAction = "unknown_action"

// Message is the envelope for every frame in both directions.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// movePayload mirrors the REST move body; a version_conflict reply means the client should wait for
// the next room:update and retry with its version.
type movePayload struct {
	Cell            *int   `json:"cell"`
	ExpectedVersion *int64 `json:"expected_version,omitempty"`
}

type joinPayload struct {
	Room *entity.Room `json:"room"`
	Role entity.Role  `json:"role"`
}

type leavePayload struct {
	Room    *entity.Room        `json:"room,omitempty"`
	Outcome entity.LeaveOutcome `json:"outcome"`
}

type closedPayload struct {
	RoomID string `json:"room_id"`
}

type errorPayload struct {
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
