package generation

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"ai-chat-router-be/pkg/ai/classifier"
)

// Failure kinds. Match with errors.Is; the concrete value is always *Error.
var (
	ErrAuthentication = errors.New("authentication failed")
	ErrRateLimited    = errors.New("rate limit exceeded")
	ErrGeneration     = errors.New("generation failed")
	ErrNetwork        = errors.New("network failure")
	ErrCancelled      = errors.New("generation cancelled")
)

const (
	msgAuthentication = "Authentication failed. Please log in again."
	msgRateLimited    = "Rate limit exceeded. Please wait before making another request."
)

// Error carries enough for the caller to pick a banner: re-login, upgrade/wait, or retry
type Error struct {
	Kind       error
	Category   classifier.Category
	StatusCode int    // 0 when the request never got a response
	Message    string // Server-supplied when available
	Err        error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Type is the short machine-readable kind sent to clients
func (e *Error) Type() string {
	switch e.Kind {
	case ErrAuthentication:
		return "auth"
	case ErrRateLimited:
		return "rate_limit"
	case ErrNetwork:
		return "network"
	case ErrCancelled:
		return "cancelled"
	default:
		return "generation"
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// NewStatusError maps a non-2xx upstream response to a typed failure
func NewStatusError(category classifier.Category, status int, body []byte, fallback string) *Error {
	var parsed errorBody
	_ = json.Unmarshal(body, &parsed)

	e := &Error{
		Category:   category,
		StatusCode: status,
		Message:    parsed.Error,
	}

	switch status {
	case http.StatusUnauthorized:
		e.Kind = ErrAuthentication
		if e.Message == "" {
			e.Message = msgAuthentication
		}
	case http.StatusTooManyRequests:
		e.Kind = ErrRateLimited
		if e.Message == "" {
			e.Message = msgRateLimited
		}
	default:
		e.Kind = ErrGeneration
		if e.Message == "" {
			e.Message = fallback
		}
	}
	return e
}

func NewNetworkError(category classifier.Category, err error) *Error {
	return &Error{
		Kind:     ErrNetwork,
		Category: category,
		Message:  fmt.Sprintf("request to %s endpoint failed: %v", category, err),
		Err:      err,
	}
}

func newMalformedError(category classifier.Category, status int, err error) *Error {
	return &Error{
		Kind:       ErrGeneration,
		Category:   category,
		StatusCode: status,
		Message:    fmt.Sprintf("malformed %s response: %v", category, err),
		Err:        err,
	}
}

// fallbackMessage mirrors the upstream naming: "API error: 500", "Healthcare API error: 500"
func fallbackMessage(category classifier.Category, status int) string {
	switch category {
	case classifier.Healthcare:
		return fmt.Sprintf("Healthcare API error: %d", status)
	case classifier.Education:
		return fmt.Sprintf("Education API error: %d", status)
	default:
		return fmt.Sprintf("API error: %d", status)
	}
}

// AsError extracts *Error from err
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
