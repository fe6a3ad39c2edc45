package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"landq-backend/pkg/account"
)

const (
	HeaderAccountID = "Ax-Account-Id"
	HeaderRequestID = "Ax-Request-Id"
	HeaderRequestAt = "Ax-Request-At"

	accountKey = "landq.account"
)

// Identity reads the caller's account from Ax-Account-Id. The header is
// optional here; operations that need a caller reject an empty one. A
// malformed header is refused outright.
func Identity() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := strings.TrimSpace(c.Request().Header.Get(HeaderAccountID))
			if raw == "" {
				return next(c)
			}
			a, err := account.Normalize(raw)
			if err != nil {
				return c.JSON(http.StatusBadRequest, map[string]string{
					"error": "invalid " + HeaderAccountID,
					"code":  "invalid_account",
				})
			}
			c.Set(accountKey, a)
			return next(c)
		}
	}
}

// Account returns the caller set by Identity, or "" when none was sent.
func Account(c echo.Context) string {
	a, _ := c.Get(accountKey).(string)
	return a
}
