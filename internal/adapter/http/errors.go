package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"landq-backend/internal/infrastructure/logger"
	"landq-backend/pkg/apperr"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error   string       `json:"error"`
	Code    string       `json:"code,omitempty"`
	Ref     string       `json:"ref,omitempty"`
	Details []FieldError `json:"details,omitempty"`
}

var kindStatus = map[apperr.Kind]int{
	apperr.KindValidation:    http.StatusUnprocessableEntity,
	apperr.KindConflict:      http.StatusConflict,
	apperr.KindAuthorization: http.StatusForbidden,
	apperr.KindState:         http.StatusConflict,
	apperr.KindNotFound:      http.StatusNotFound,
	apperr.KindUnavailable:   http.StatusServiceUnavailable,
	apperr.KindInternal:      http.StatusInternalServerError,
}

// StatusOf maps an error's kind to its HTTP status.
func StatusOf(err error) int {
	if s, ok := kindStatus[apperr.KindOf(err)]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// respondError writes err as an ErrorResponse. Causes attached to coded errors
// are logged, not returned to the client.
func respondError(c echo.Context, log *logger.Logger, err error) error {
	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Kind == apperr.KindInternal {
		log.Error("request failed", "method", c.Request().Method, "route", c.Path(), "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error", Code: "internal"})
	}
	status := StatusOf(ae)
	if status >= http.StatusInternalServerError {
		log.Warn("dependency unavailable", "route", c.Path(), "code", ae.Code, "error", err)
	}
	return c.JSON(status, ErrorResponse{Error: ae.Message, Code: ae.Code, Ref: ae.Ref})
}

func badBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body", Code: "invalid_body"})
}

func invalid(c echo.Context, err error) error {
	return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
		Error:   "validation failed",
		Code:    "validation_failed",
		Details: ToFieldErrors(err),
	})
}

// bind decodes and validates the body into req. A false return means the
// response has already been written.
func bind(c echo.Context, req any) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, badBody(c)
	}
	if err := c.Validate(req); err != nil {
		return false, invalid(c, err)
	}
	return true, nil
}
