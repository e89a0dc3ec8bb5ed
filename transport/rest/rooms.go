package rest

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rocketscienceinc/tictactoe-arena/internal/entity"
	"github.com/rocketscienceinc/tictactoe-arena/internal/tictactoe"
)

// moveRequest pins the move to expected_version when given. Any accepted change bumps the version,
// spectator joins included, so a client that gets version_conflict should re-read the room and retry.
type moveRequest struct {
	Cell            *int   `json:"cell"`
	ExpectedVersion *int64 `json:"expected_version"`
}

type joinByCodeRequest struct {
	Code string `json:"code"`
}

type joinResponse struct {
	Room *entity.Room `json:"room"`
	Role entity.Role  `json:"role"`
}

type roomMoveResponse struct {
	Room *entity.Room `json:"room"`
	Move entity.Move  `json:"move"`
}

type leaveResponse struct {
	Room    *entity.Room        `json:"room"`
	Outcome entity.LeaveOutcome `json:"outcome"`
}

type historyResponse struct {
	Boards []tictactoe.Board `json:"boards"`
}

type roomHandler struct {
	rooms roomUseCase
}

func newRoomHandler(rooms roomUseCase) *roomHandler {
	return &roomHandler{rooms: rooms}
}

func bindMove(c echo.Context) (moveRequest, error) {
	var request moveRequest
	if err := c.Bind(&request); err != nil {
		return request, err
	}

	if request.Cell == nil {
		return request, echo.NewHTTPError(http.StatusBadRequest, "cell is required")
	}

	return request, nil
}

func (that *roomHandler) create(c echo.Context) error {
	room, err := that.rooms.CreateRoom(c.Request().Context(), userID(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, room)
}

func (that *roomHandler) get(c echo.Context) error {
	room, err := that.rooms.GetRoom(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, room)
}

func (that *roomHandler) getByCode(c echo.Context) error {
	room, err := that.rooms.GetRoomByCode(c.Request().Context(), c.Param("code"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, room)
}

func (that *roomHandler) join(c echo.Context) error {
	room, role, err := that.rooms.JoinRoom(c.Request().Context(), c.Param("id"), userID(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, joinResponse{Room: room, Role: role})
}

func (that *roomHandler) joinByCode(c echo.Context) error {
	var request joinByCodeRequest
	if err := c.Bind(&request); err != nil {
		return err
	}

	if request.Code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "code is required")
	}

	room, role, err := that.rooms.JoinRoomByCode(c.Request().Context(), request.Code, userID(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, joinResponse{Room: room, Role: role})
}

func (that *roomHandler) move(c echo.Context) error {
	request, err := bindMove(c)
	if err != nil {
		return err
	}

	room, move, err := that.rooms.MakeMove(c.Request().Context(), c.Param("id"), userID(c), *request.Cell, request.ExpectedVersion)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, roomMoveResponse{Room: room, Move: move})
}

func (that *roomHandler) leave(c echo.Context) error {
	room, outcome, err := that.rooms.LeaveRoom(c.Request().Context(), c.Param("id"), userID(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, leaveResponse{Room: room, Outcome: outcome})
}

func (that *roomHandler) history(c echo.Context) error {
	boards, err := that.rooms.History(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, historyResponse{Boards: boards})
}

// streamHandler hands the connection over to the websocket stream of room :id.
func streamHandler(stream roomStreamer) echo.HandlerFunc {
	return func(c echo.Context) error {
		return stream.Serve(c.Response(), c.Request(), c.Param("id"), userID(c))
	}
}
