package apperr

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sajib9090/restaurant-management-backend/pkg/logger"
)

// HTTPErrorHandler renders every error as the standard failure
// envelope {"success": false, "message": ...}. Unexpected errors are
// logged with their cause and reported as a generic 500.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "Internal server error"

	var appErr *Error
	var httpErr *echo.HTTPError
	switch {
	case errors.As(err, &appErr):
		status = appErr.Status
		message = appErr.Message
	case errors.As(err, &httpErr):
		status = httpErr.Code
		if msg, ok := httpErr.Message.(string); ok {
			message = msg
		} else {
			message = http.StatusText(httpErr.Code)
		}
		// The rate limiter returns 429 with echo's default message.
		if status == http.StatusTooManyRequests {
			message = "Too many requests, please try again later"
		}
	}

	if status >= http.StatusInternalServerError {
		logger.FromEcho(c).Error("Request failed",
			zap.Int("status", status),
			zap.Error(err),
		)
	}

	resp := echo.Map{
		"success": false,
		"message": message,
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, resp)
}
