package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"rateview/pkg/logger"
)

// ErrorHandler is the global echo HTTP error handler: echo errors keep their
// status, everything else becomes an opaque 500.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		message, ok := httpErr.Message.(string)
		if !ok {
			message = http.StatusText(httpErr.Code)
		}
		_ = c.JSON(httpErr.Code, map[string]string{"message": message})
		return
	}

	logger.Error("unhandled request error",
		"method", c.Request().Method,
		"path", c.Path(),
		"error", err,
	)
	_ = c.JSON(http.StatusInternalServerError, map[string]string{"message": "internal server error"})
}
