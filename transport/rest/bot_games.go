package rest

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rocketscienceinc/tictactoe-arena/internal/entity"
)

type createBotGameRequest struct {
	HumanGoesFirst bool `json:"human_goes_first"`
}

type analysisRequest struct {
	Board string `json:"board"`
}

type botGameMoveResponse struct {
	Game  *entity.BotGame `json:"game"`
	Moves []entity.Move   `json:"moves"`
}

type botGameHandler struct {
	games botGameUseCase
}

func newBotGameHandler(games botGameUseCase) *botGameHandler {
	return &botGameHandler{games: games}
}

func (that *botGameHandler) create(c echo.Context) error {
	var request createBotGameRequest
	if err := c.Bind(&request); err != nil {
		return err
	}

	game, err := that.games.CreateBotGame(c.Request().Context(), userID(c), request.HumanGoesFirst)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, game)
}

func (that *botGameHandler) get(c echo.Context) error {
	game, err := that.games.GetBotGame(c.Request().Context(), c.Param("id"), userID(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, game)
}

func (that *botGameHandler) abandon(c echo.Context) error {
	if err := that.games.AbandonBotGame(c.Request().Context(), c.Param("id"), userID(c)); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

func (that *botGameHandler) move(c echo.Context) error {
	request, err := bindMove(c)
	if err != nil {
		return err
	}

	game, moves, err := that.games.MakeMove(c.Request().Context(), c.Param("id"), userID(c), *request.Cell, request.ExpectedVersion)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, botGameMoveResponse{Game: game, Moves: moves})
}

func (that *botGameHandler) analyze(c echo.Context) error {
	var request analysisRequest
	if err := c.Bind(&request); err != nil {
		return err
	}

	suggestion, err := that.games.Analyze(request.Board)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, suggestion)
}
