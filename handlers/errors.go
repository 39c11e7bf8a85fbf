package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"user-service/logger"
	"user-service/repository"
	"user-service/service"
)

// Fixed messages for server-side failures; internal details never reach clients.
const (
	MessageStorageFailure = "A server error occurred. Please try again later."
	MessageInternal       = "Internal server error"
	MessageInvalidBody    = "Invalid request body"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Status    string    `json:"status"`
}

// Classify maps an error to the status code and client-facing message.
func Classify(err error) (int, string) {
	var validationErrs ValidationErrors
	if errors.As(err, &validationErrs) {
		return http.StatusBadRequest, validationErrs.Error()
	}

	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		switch svcErr.Kind {
		case service.KindNotFound:
			return http.StatusNotFound, svcErr.Message
		case service.KindNotCreated, service.KindNotUpdated, service.KindNotDeleted:
			return http.StatusBadRequest, svcErr.Message
		}
	}

	var storageErr *repository.StorageError
	if errors.As(err, &storageErr) {
		return http.StatusInternalServerError, MessageStorageFailure
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) && httpErr.Code < http.StatusInternalServerError {
		if msg, ok := httpErr.Message.(string); ok {
			return httpErr.Code, msg
		}
		return httpErr.Code, http.StatusText(httpErr.Code)
	}

	return http.StatusInternalServerError, MessageInternal
}

// StatusName renders a status code as an upper snake case name, e.g. BAD_REQUEST.
func StatusName(code int) string {
	text := http.StatusText(code)
	if text == "" {
		return "UNKNOWN"
	}
	text = strings.ReplaceAll(text, "-", " ")
	return strings.ToUpper(strings.ReplaceAll(text, " ", "_"))
}

// ErrorHandler renders handler errors as ErrorResponse bodies.
func ErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, message := Classify(err)

		reqLog := logger.WithRequestID(c.Request().Context(), log).With(
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.Int("status", code),
		)
		if code >= http.StatusInternalServerError {
			reqLog.Error("request failed", zap.Error(err))
		} else {
			reqLog.Warn("request rejected", zap.String("reason", message))
		}

		resp := ErrorResponse{
			Message:   message,
			Timestamp: time.Now(),
			Status:    StatusName(code),
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(code)
		} else {
			writeErr = c.JSON(code, resp)
		}
		if writeErr != nil {
			reqLog.Error("failed to write error response", zap.Error(writeErr))
		}
	}
}
