package httpserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/service"
)

type Envelope struct {
	Success bool                 `json:"success"`
	Data    any                  `json:"data,omitempty"`
	Message string               `json:"message,omitempty"`
	Errors  []service.FieldError `json:"errors,omitempty"`
}

func respond(c echo.Context, status int, data any) error {
	return c.JSON(status, Envelope{Success: true, Data: data})
}

func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, "Validation failed"
	case errors.Is(err, service.ErrInsufficientStock):
		return http.StatusConflict, "Insufficient stock"
	case errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, "Forbidden"
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict, "Conflict"
	case errors.Is(err, service.ErrInvalidTransition):
		return http.StatusConflict, "Status change not allowed"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// fail logs a service error and turns it into an HTTP error. The cause stays
// attached as Internal so ErrorHandler can list field errors.
func fail(l *slog.Logger, event string, err error) error {
	status, reason := statusOf(err)
	if status >= 500 {
		l.Error(event, "status", status, "reason", reason, "error", err)
	} else {
		l.Warn(event, "status", status, "reason", reason, "error", err)
	}

	message := err.Error()
	if status >= 500 || errors.Is(err, service.ErrValidation) {
		message = reason
	}
	return echo.NewHTTPError(status, message).SetInternal(err)
}

func badBody(l *slog.Logger, event string, err error) error {
	l.Warn(event, "status", 400, "reason", "invalid body", "error", err)
	return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
}

func fieldErrors(err error) []service.FieldError {
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		return ve.Errors
	}
	var se *service.InsufficientStockError
	if errors.As(err, &se) {
		return []service.FieldError{{
			Field:   fmt.Sprintf("items[%d].quantity", se.Index),
			Message: fmt.Sprintf("Only %d left in size %s", se.Available, se.Size),
			Value:   se.Requested,
		}}
	}
	return nil
}

// ErrorHandler renders every error in the response envelope.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var (
		status  int
		message string
		fields  []service.FieldError
		he      *echo.HTTPError
	)
	if errors.As(err, &he) {
		status = he.Code
		message = fmt.Sprint(he.Message)
		if he.Internal != nil {
			fields = fieldErrors(he.Internal)
		}
	} else {
		status, message = statusOf(err)
		fields = fieldErrors(err)
		if status >= 500 {
			logging.FromContext(c.Request().Context()).Error("unhandled_error", "error", err)
		}
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, Envelope{Success: false, Message: message, Errors: fields})
}
