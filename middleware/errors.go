// ABOUTME: Error taxonomy and JSON error writer for API responses
// ABOUTME: Redacts secret-like substrings and attaches request-tracking IDs

package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/canvasai/mixboard/backend/models"
)

// AppError is an error with an HTTP status and optional machine-readable code.
// Handlers return it (or a plain error, treated as internal) and WriteError
// shapes the envelope.
type AppError struct {
	Status  int
	Code    string
	Message string
	Err     error // wrapped cause, logged but never returned to the client
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func BadRequest(message string) *AppError {
	return &AppError{Status: http.StatusBadRequest, Message: message}
}

func BadRequestCode(message, code string) *AppError {
	return &AppError{Status: http.StatusBadRequest, Message: message, Code: code}
}

func NotFound(message string) *AppError {
	return &AppError{Status: http.StatusNotFound, Message: message}
}

func Internal(message string, err error) *AppError {
	return &AppError{Status: http.StatusInternalServerError, Message: message, Err: err}
}

// Upstream wraps a provider failure, carrying the upstream status where one
// exists. Statuses outside the HTTP error range collapse to 502.
func Upstream(status int, message string) *AppError {
	if status < 400 || status > 599 {
		status = http.StatusBadGateway
	}
	return &AppError{Status: status, Message: message, Code: "UPSTREAM_ERROR"}
}

// Secret-like patterns scrubbed from anything logged or returned.
var sensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)bearer\s+\S+`),
	regexp.MustCompile(`(?i)authorization:\s*\S+`),
	regexp.MustCompile(`sk-[a-zA-Z0-9]+`),
	regexp.MustCompile(`(?i)api[_-]?key\S*`),
	regexp.MustCompile(`(?i)api[_-]?secret\S*`),
	regexp.MustCompile(`(?i)password\S*`),
	regexp.MustCompile(`(?i)token\S*`),
}

// Redact replaces secret-like substrings with [REDACTED].
func Redact(message string) string {
	for _, pattern := range sensitivePatterns {
		message = pattern.ReplaceAllString(message, "[REDACTED]")
	}
	return message
}

// WriteError normalizes err into the JSON envelope. The request-tracking ID
// set by LogRequest is echoed back for correlation. Outside development,
// non-operational errors collapse to a generic message.
func WriteError(w http.ResponseWriter, r *http.Request, err error, development bool) {
	requestID := w.Header().Get("X-Request-ID")

	var appErr *AppError
	operational := errors.As(err, &appErr)
	if !operational {
		appErr = &AppError{Status: http.StatusInternalServerError, Message: err.Error(), Err: err}
	}

	safeMessage := Redact(appErr.Message)

	slog.Error("Request failed",
		"request_id", requestID,
		"method", r.Method,
		"path", r.URL.Path,
		"status", appErr.Status,
		"error", safeMessage,
	)

	clientError := safeMessage
	if !development && !operational {
		clientError = "服务器内部错误"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.Status)
	json.NewEncoder(w).Encode(models.Response{
		Success:   false,
		Error:     clientError,
		RequestID: requestID,
		Code:      appErr.Code,
	})
}
