package rest

import (
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/rocketscienceinc/tictactoe-arena/internal/apperror"
)

const (
	userIDKey       = "user_id"
	bearerPrefix    = "Bearer "
	tokenQueryParam = "access_token"
)

// authenticate resolves the bearer token into a user id stored on the context.
// Browsers cannot set headers on websocket upgrades, so the token may also come as ?access_token=.
func authenticate(auth tokenParser) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := c.QueryParam(tokenQueryParam)

			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if strings.HasPrefix(header, bearerPrefix) {
				token = strings.TrimPrefix(header, bearerPrefix)
			}

			if token == "" {
				return fmt.Errorf("%w: missing bearer token", apperror.ErrUnauthorized)
			}

			userID, err := auth.ParseToken(token)
			if err != nil {
				return err
			}

			c.Set(userIDKey, userID)

			return next(c)
		}
	}
}

func userID(c echo.Context) string {
	id, _ := c.Get(userIDKey).(string)
	return id
}
