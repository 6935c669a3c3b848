package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
)

// InternalKey guards /internal routes with a shared secret carried in the
// X-Internal-Key header. An empty configured key disables the guard (local
// development).
func InternalKey(key string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if key == "" {
				return next(c)
			}

			provided := c.Request().Header.Get("X-Internal-Key")
			if subtle.ConstantTimeCompare([]byte(provided), []byte(key)) != 1 {
				return c.JSON(http.StatusUnauthorized, map[string]string{"message": "invalid internal key"})
			}

			return next(c)
		}
	}
}
