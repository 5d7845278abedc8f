package llm

import (
	"fmt"
	"strings"
)

// Error is the unified error interface returned by provider adapters and the client.
type Error interface {
	error
	Provider() string
	StatusCode() int
}

type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + strings.TrimSpace(e.Message)
}
func (e *ConfigurationError) Provider() string { return "" }
func (e *ConfigurationError) StatusCode() int  { return 0 }

type httpErrorBase struct {
	provider   string
	statusCode int
	message    string
}

func (e *httpErrorBase) Error() string {
	msg := strings.TrimSpace(e.message)
	if msg == "" {
		msg = "request failed"
	}
	return fmt.Sprintf("%s error (status=%d): %s", e.provider, e.statusCode, msg)
}
func (e *httpErrorBase) Provider() string { return e.provider }
func (e *httpErrorBase) StatusCode() int  { return e.statusCode }

type InvalidRequestError struct{ httpErrorBase }
type AuthenticationError struct{ httpErrorBase }
type AccessDeniedError struct{ httpErrorBase }
type NotFoundError struct{ httpErrorBase }
type ContentFilterError struct{ httpErrorBase }
type RateLimitError struct{ httpErrorBase }
type ServerError struct{ httpErrorBase }
type UnknownHTTPError struct{ httpErrorBase }

// ErrorFromHTTPStatus classifies a provider HTTP failure into the unified
// hierarchy. The consultation core treats every one of these as fatal to
// the request, so no retryability metadata is carried.
func ErrorFromHTTPStatus(provider string, statusCode int, message string) error {
	base := httpErrorBase{
		provider:   strings.TrimSpace(provider),
		statusCode: statusCode,
		message:    message,
	}
	switch statusCode {
	case 400, 422:
		if strings.Contains(strings.ToLower(message), "content filter") || strings.Contains(strings.ToLower(message), "safety") {
			return &ContentFilterError{base}
		}
		return &InvalidRequestError{base}
	case 401:
		return &AuthenticationError{base}
	case 403:
		return &AccessDeniedError{base}
	case 404:
		return &NotFoundError{base}
	case 429:
		return &RateLimitError{base}
	case 500, 502, 503, 504:
		return &ServerError{base}
	default:
		return &UnknownHTTPError{base}
	}
}
