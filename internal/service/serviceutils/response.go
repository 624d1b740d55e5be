package serviceutils

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/locvowork/payroll/internal/apperror"
	"github.com/locvowork/payroll/internal/logger"
	"github.com/locvowork/payroll/pkg/hal"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// StatusFromCode maps an application error code to its HTTP status.
func StatusFromCode(code apperror.Code) int {
	switch code {
	case apperror.CodeValidation:
		return http.StatusBadRequest
	case apperror.CodeNotFound:
		return http.StatusNotFound
	case apperror.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ResponseError renders err with a status derived from its apperror code.
// Application errors expose their own message, anything else only the fallback message.
func ResponseError(c echo.Context, message string, err error) error {
	ctx := c.Request().Context()
	status := StatusFromCode(apperror.GetCode(err))

	body := ErrorResponse{Success: false, Error: message}
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		body.Error = appErr.Message
		body.Message = message
	}

	if status >= http.StatusInternalServerError {
		logger.ErrorLog(ctx, err, "%s", message)
	} else {
		logger.DebugLog(ctx, "%s: %v", message, err)
	}
	return c.JSON(status, body)
}

// ResponseHAL renders v as a HAL document.
func ResponseHAL(c echo.Context, status int, v interface{}) error {
	c.Response().Header().Set(echo.HeaderContentType, hal.MediaType)
	return c.JSON(status, v)
}
