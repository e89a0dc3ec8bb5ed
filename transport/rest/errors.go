package rest

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/rocketscienceinc/tictactoe-arena/internal/apperror"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorMapping struct {
	err    error
	status int
}

// errorMappings is checked in order; the first match decides the status.
var errorMappings = []errorMapping{
	{apperror.ErrUnauthorized, http.StatusUnauthorized},
	{apperror.ErrNotFound, http.StatusNotFound},
	{apperror.ErrVersionConflict, http.StatusConflict},
	{apperror.ErrGameIsNotStarted, http.StatusConflict},
	{apperror.ErrGameFinished, http.StatusConflict},
	{apperror.ErrNotYourTurn, http.StatusConflict},
	{apperror.ErrNotAParticipant, http.StatusForbidden},
	{apperror.ErrNotYourGame, http.StatusForbidden},
	{apperror.ErrIllegalMove, http.StatusUnprocessableEntity},
	{apperror.ErrMalformedBoard, http.StatusUnprocessableEntity},
}

func (that *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, response := that.describe(err)

	if writeErr := c.JSON(status, response); writeErr != nil {
		that.logger.Error("failed to write error response", "error", writeErr)
	}
}

func (that *Server) describe(err error) (int, errorResponse) {
	for _, mapping := range errorMappings {
		if errors.Is(err, mapping.err) {
			return mapping.status, errorResponse{Code: apperror.Code(err), Message: err.Error()}
		}
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code, errorResponse{
			Code:    strings.ToLower(strings.ReplaceAll(http.StatusText(httpErr.Code), " ", "_")),
			Message: fmt.Sprint(httpErr.Message),
		}
	}

	that.logger.Error("unhandled error", "error", err)

	return http.StatusInternalServerError, errorResponse{Code: apperror.CodeInternal, Message: http.StatusText(http.StatusInternalServerError)}
}
