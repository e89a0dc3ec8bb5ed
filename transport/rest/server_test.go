package rest

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-arena/internal/entity"
	"github.com/rocketscienceinc/tictactoe-arena/internal/repository"
	"github.com/rocketscienceinc/tictactoe-arena/internal/service"
	"github.com/rocketscienceinc/tictactoe-arena/internal/usecase"
	roomstream "github.com/rocketscienceinc/tictactoe-arena/transport/websocket"
)

type testAPI struct {
	t      *testing.T
	server *Server
	auth   service.AuthService
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	auth, err := service.NewAuthService("test-secret")
	require.NoError(t, err)

	rooms := usecase.NewRoomManager(logger, repository.NewMemoryRoomRepository(), 3)
	botGames := usecase.NewBotGameManager(logger, repository.NewMemoryBotGameRepository(), 3)

	return &testAPI{
		t:      t,
		server: New(logger, auth, rooms, roomstream.New(logger, rooms, 10*time.Millisecond), botGames),
		auth:   auth,
	}
}

// do sends a request as user; an empty user sends no token.
func (that *testAPI) do(method, path, user, body string) *httptest.ResponseRecorder {
	that.t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	if user != "" {
		token, err := that.auth.GenerateToken(user)
		require.NoError(that.t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	that.server.ServeHTTP(rec, req)

	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var value T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &value), rec.Body.String())

	return value
}

func TestPing(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodGet, "/ping", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
}

func TestAuthentication(t *testing.T) {
	api := newTestAPI(t)

	t.Run("Missing token", func(t *testing.T) {
		rec := api.do(http.MethodPost, "/rooms", "", "")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "unauthorized", decode[errorResponse](t, rec).Code)
	})

	t.Run("Invalid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/rooms", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		rec := httptest.NewRecorder()

		api.server.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRoomFlow(t *testing.T) {
	// Given: alice created a room and bob joined it by code
	api := newTestAPI(t)

	rec := api.do(http.MethodPost, "/rooms", "alice", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	room := decode[entity.Room](t, rec)

	rec = api.do(http.MethodPost, "/rooms/join", "bob", `{"code":"`+room.Code+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	joined := decode[joinResponse](t, rec)
	assert.Equal(t, entity.RolePlayerTwo, joined.Role)
	assert.Equal(t, int64(1), joined.Room.Version)

	roomPath := "/rooms/" + room.ID

	t.Run("Spectator joins by id", func(t *testing.T) {
		rec := api.do(http.MethodPost, roomPath+"/join", "carol", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, entity.RoleSpectator, decode[joinResponse](t, rec).Role)
	})

	t.Run("Room by code", func(t *testing.T) {
		rec := api.do(http.MethodGet, "/rooms/code/"+room.Code, "carol", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, room.ID, decode[entity.Room](t, rec).ID)
	})

	t.Run("Errors map to statuses", func(t *testing.T) {
		cases := []struct {
			name   string
			user   string
			body   string
			status int
			code   string
		}{
			{"wrong turn", "bob", `{"cell":4}`, http.StatusConflict, "wrong_turn"},
			{"stale version", "alice", `{"cell":4,"expected_version":0}`, http.StatusConflict, "version_conflict"},
			{"spectator", "carol", `{"cell":4}`, http.StatusForbidden, "not_a_participant"},
			{"out of range", "alice", `{"cell":9}`, http.StatusUnprocessableEntity, "illegal_move"},
			{"missing cell", "alice", `{}`, http.StatusBadRequest, "bad_request"},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				rec := api.do(http.MethodPost, roomPath+"/moves", tc.user, tc.body)

				assert.Equal(t, tc.status, rec.Code, rec.Body.String())
				assert.Equal(t, tc.code, decode[errorResponse](t, rec).Code)
			})
		}
	})

	t.Run("Accepted move", func(t *testing.T) {
		rec := api.do(http.MethodPost, roomPath+"/moves", "alice", `{"cell":4,"expected_version":2}`)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		response := decode[roomMoveResponse](t, rec)
		assert.Equal(t, "----X----", response.Room.Board.String())
		assert.Equal(t, entity.SeatPlayerTwo, response.Room.Turn)
		assert.Equal(t, 1, response.Move.Order)
	})

	t.Run("History", func(t *testing.T) {
		rec := api.do(http.MethodGet, roomPath+"/history", "carol", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"boards":["----X----"]}`, rec.Body.String())
	})

	t.Run("Player two forfeits by leaving", func(t *testing.T) {
		rec := api.do(http.MethodPost, roomPath+"/leave", "bob", "")

		require.Equal(t, http.StatusOK, rec.Code)
		response := decode[leaveResponse](t, rec)
		assert.Equal(t, entity.LeaveForfeited, response.Outcome)
		assert.Equal(t, entity.SeatPlayerOne, response.Room.Winner)
	})

	t.Run("Finished room rejects moves", func(t *testing.T) {
		rec := api.do(http.MethodPost, roomPath+"/moves", "alice", `{"cell":0}`)

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "already_finished", decode[errorResponse](t, rec).Code)
	})

	t.Run("Owner leaving removes the room", func(t *testing.T) {
		rec := api.do(http.MethodPost, roomPath+"/leave", "alice", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, entity.LeaveDestroyed, decode[leaveResponse](t, rec).Outcome)

		rec = api.do(http.MethodGet, roomPath, "alice", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestRoomNotStarted(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodPost, "/rooms", "alice", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	room := decode[entity.Room](t, rec)

	rec = api.do(http.MethodPost, "/rooms/"+room.ID+"/moves", "alice", `{"cell":4}`)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "not_started", decode[errorResponse](t, rec).Code)
}

func TestRoomMoveAfterSpectatorJoin(t *testing.T) {
	// Given: a started room at version 1
	api := newTestAPI(t)

	rec := api.do(http.MethodPost, "/rooms", "alice", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	room := decode[entity.Room](t, rec)

	rec = api.do(http.MethodPost, "/rooms/"+room.ID+"/join", "bob", "")
	require.Equal(t, http.StatusOK, rec.Code)
	roomPath := "/rooms/" + room.ID

	// When: carol starts spectating before alice moves at the version she read
	rec = api.do(http.MethodPost, roomPath+"/join", "carol", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(http.MethodPost, roomPath+"/moves", "alice", `{"cell":4,"expected_version":1}`)

	// Then: the pinned move conflicts, and succeeds after re-reading the room
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "version_conflict", decode[errorResponse](t, rec).Code)

	rec = api.do(http.MethodGet, roomPath, "alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	current := decode[entity.Room](t, rec)
	assert.Equal(t, "---------", current.Board.String())

	rec = api.do(http.MethodPost, roomPath+"/moves", "alice", fmt.Sprintf(`{"cell":4,"expected_version":%d}`, current.Version))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, current.Version+1, decode[roomMoveResponse](t, rec).Room.Version)
}

func TestBotGameFlow(t *testing.T) {
	api := newTestAPI(t)

	t.Run("Bot opening is part of the created game", func(t *testing.T) {
		rec := api.do(http.MethodPost, "/bot-games", "alice", `{"human_goes_first":false}`)

		require.Equal(t, http.StatusCreated, rec.Code)
		game := decode[entity.BotGame](t, rec)
		assert.Equal(t, "----X----", game.Board.String())
		assert.Equal(t, entity.ActorHuman, game.Turn)
		assert.Equal(t, int64(0), game.Version)
	})

	t.Run("Move returns both moves", func(t *testing.T) {
		rec := api.do(http.MethodPost, "/bot-games", "alice", `{"human_goes_first":true}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		game := decode[entity.BotGame](t, rec)

		rec = api.do(http.MethodPost, "/bot-games/"+game.ID+"/moves", "alice", `{"cell":4}`)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		response := decode[botGameMoveResponse](t, rec)
		assert.Equal(t, []int{4, 0}, entity.Cells(response.Moves))
		assert.Equal(t, int64(1), response.Game.Version)
	})

	t.Run("Other users are refused", func(t *testing.T) {
		rec := api.do(http.MethodPost, "/bot-games", "alice", `{"human_goes_first":true}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		game := decode[entity.BotGame](t, rec)

		rec = api.do(http.MethodGet, "/bot-games/"+game.ID, "mallory", "")

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "not_your_game", decode[errorResponse](t, rec).Code)
	})

	t.Run("Abandon", func(t *testing.T) {
		rec := api.do(http.MethodPost, "/bot-games", "alice", `{"human_goes_first":true}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		game := decode[entity.BotGame](t, rec)

		rec = api.do(http.MethodDelete, "/bot-games/"+game.ID, "alice", "")
		require.Equal(t, http.StatusNoContent, rec.Code)

		rec = api.do(http.MethodGet, "/bot-games/"+game.ID, "alice", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestAnalysis(t *testing.T) {
	api := newTestAPI(t)

	t.Run("Suggests a move", func(t *testing.T) {
		rec := api.do(http.MethodPost, "/analysis/best-move", "alice", `{"board":"XX--O----"}`)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"cell":2,"mark":"O"}`, rec.Body.String())
	})

	t.Run("Malformed board", func(t *testing.T) {
		rec := api.do(http.MethodPost, "/analysis/best-move", "alice", `{"board":"XXXX-----"}`)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "malformed_board", decode[errorResponse](t, rec).Code)
	})
}

func TestRoomStream(t *testing.T) {
	// Given: a room served over a real listener
	api := newTestAPI(t)

	rec := api.do(http.MethodPost, "/rooms", "alice", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	room := decode[entity.Room](t, rec)

	httpServer := httptest.NewServer(api.server)
	defer httpServer.Close()

	token, err := api.auth.GenerateToken("alice")
	require.NoError(t, err)

	base := "ws" + strings.TrimPrefix(httpServer.URL, "http")

	t.Run("Token in the query string", func(t *testing.T) {
		// When: alice opens the stream
		conn, resp, err := websocket.DefaultDialer.Dial(base+"/rooms/"+room.ID+"/ws?access_token="+token, nil)
		require.NoError(t, err)
		defer conn.Close()
		_ = resp.Body.Close()

		// Then: the current snapshot is pushed first
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var message roomstream.Message
		require.NoError(t, conn.ReadJSON(&message))
		assert.Equal(t, "room:update", message.Action)
	})

	t.Run("Missing token", func(t *testing.T) {
		_, resp, err := websocket.DefaultDialer.Dial(base+"/rooms/"+room.ID+"/ws", nil)

		require.ErrorIs(t, err, websocket.ErrBadHandshake)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("Unknown room", func(t *testing.T) {
		_, resp, err := websocket.DefaultDialer.Dial(base+"/rooms/missing/ws?access_token="+token, nil)

		require.ErrorIs(t, err, websocket.ErrBadHandshake)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
