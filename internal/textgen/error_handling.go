package textgen

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v3"

	"github.com/myrjola/wellplan/internal/errors"
)

// ErrorType categorises API failures.
type ErrorType string

const (
	ErrorTypeRateLimit      ErrorType = "rate_limit"
	ErrorTypeQuotaExceeded  ErrorType = "quota_exceeded"
	ErrorTypeInvalidRequest ErrorType = "invalid_request"
	ErrorTypeAuthentication ErrorType = "authentication"
	ErrorTypePermission     ErrorType = "permission"
	ErrorTypeNotFound       ErrorType = "not_found"
	ErrorTypeServer         ErrorType = "server_error"
	ErrorTypeTimeout        ErrorType = "timeout"
	ErrorTypeUnknown        ErrorType = "unknown"
)

// Error is a classified API failure.
type Error struct {
	Type       ErrorType
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("openai error (%s): %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Classify maps err to an *Error. Status codes from the API take precedence over message matching.
func Classify(err error) *Error {
	classified := &Error{
		Type:       ErrorTypeUnknown,
		StatusCode: 0,
		Message:    err.Error(),
		Err:        err,
	}

	if errors.Is(err, context.DeadlineExceeded) {
		classified.Type = ErrorTypeTimeout
		classified.Message = "request timed out"
		return classified
	}
	if errors.Is(err, context.Canceled) {
		classified.Type = ErrorTypeTimeout
		classified.Message = "request was canceled"
		return classified
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		classified.StatusCode = apiErr.StatusCode
		classified.Message = apiErr.Message
		if classified.Message == "" {
			classified.Message = http.StatusText(apiErr.StatusCode)
		}
		if t := typeFromStatus(apiErr.StatusCode, apiErr.Code); t != ErrorTypeUnknown {
			classified.Type = t
			return classified
		}
	}

	classified.Type = typeFromMessage(strings.ToLower(err.Error()))
	return classified
}

func typeFromStatus(status int, code string) ErrorType {
	switch {
	case status == http.StatusTooManyRequests && code == "insufficient_quota":
		return ErrorTypeQuotaExceeded
	case status == http.StatusTooManyRequests:
		return ErrorTypeRateLimit
	case status == http.StatusUnauthorized:
		return ErrorTypeAuthentication
	case status == http.StatusForbidden:
		return ErrorTypePermission
	case status == http.StatusNotFound:
		return ErrorTypeNotFound
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return ErrorTypeInvalidRequest
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return ErrorTypeTimeout
	case status >= http.StatusInternalServerError:
		return ErrorTypeServer
	default:
		return ErrorTypeUnknown
	}
}

func typeFromMessage(msg string) ErrorType {
	switch {
	case strings.Contains(msg, "rate limit") || strings.Contains(msg, "too many requests"):
		return ErrorTypeRateLimit
	case strings.Contains(msg, "quota") || strings.Contains(msg, "billing"):
		return ErrorTypeQuotaExceeded
	case strings.Contains(msg, "unauthorized") || strings.Contains(msg, "api key"):
		return ErrorTypeAuthentication
	case strings.Contains(msg, "forbidden") || strings.Contains(msg, "permission"):
		return ErrorTypePermission
	case strings.Contains(msg, "timeout"):
		return ErrorTypeTimeout
	case strings.Contains(msg, "server") || strings.Contains(msg, "502") ||
		strings.Contains(msg, "503") || strings.Contains(msg, "504"):
		return ErrorTypeServer
	default:
		return ErrorTypeUnknown
	}
}
