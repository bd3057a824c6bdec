package gateway

import (
	"errors"
	"fmt"
)

// Kind classifies a gateway failure.
type Kind string

const (
	KindSessionExpired Kind = "SESSION_EXPIRED"
	KindForbidden      Kind = "FORBIDDEN"
	KindBackend        Kind = "BACKEND"
	KindTransport      Kind = "TRANSPORT"
)

// Sentinels for errors.Is matching against an *Error of the same kind.
var (
	ErrSessionExpired = errors.New("session expired")
	ErrForbidden      = errors.New("forbidden")
)

// DefaultMessage is shown when the backend gives no message of its own.
const DefaultMessage = "An error occurred"

// Error is the uniform failure returned by the gateway.
type Error struct {
	Kind       Kind
	Status     int
	Message    string
	TrackingID string
	Err        error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, msg, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrSessionExpired) and errors.Is(err, ErrForbidden)
// match by kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrSessionExpired:
		return e.Kind == KindSessionExpired
	case ErrForbidden:
		return e.Kind == KindForbidden
	}
	return false
}

// UserMessage returns the text that may be shown to an end user. Transport
// failures never expose their underlying detail.
func UserMessage(err error) string {
	var gwErr *Error
	if !errors.As(err, &gwErr) {
		return genericUserMessage
	}
	switch gwErr.Kind {
	case KindSessionExpired:
		return "Your session has expired. Please log in again."
	case KindForbidden:
		return "You do not have access to this resource."
	case KindBackend:
		return gwErr.Message
	default:
		return genericUserMessage
	}
}

const genericUserMessage = "An unexpected error occurred. Please try again later."
