package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotInitialized     = errors.New("widget not initialized")
	ErrAlreadyInitialized = errors.New("widget already initialized")
	ErrMissingBotID       = errors.New("bot id is required")
	ErrMissingBaseURL     = errors.New("api base url is required")
	ErrBusy               = errors.New("previous message still awaiting response")
	ErrChatLocked         = errors.New("chat locked until lead form is submitted or skipped")
	ErrAlreadyRated       = errors.New("message already rated")
	ErrUnknownCommand     = errors.New("unknown command")
)

// ErrorKind discriminates transport and flow failures. Validation never
// reaches the network; Unavailable marks optional-endpoint failures that
// callers swallow.
type ErrorKind string

const (
	ErrKindTimeout      ErrorKind = "timeout"
	ErrKindUnauthorized ErrorKind = "unauthorized"
	ErrKindRateLimited  ErrorKind = "rate_limited"
	ErrKindValidation   ErrorKind = "validation"
	ErrKindUnavailable  ErrorKind = "unavailable"
	ErrKindGeneric      ErrorKind = "generic"
)

// APIError is the normalized form of every non-2xx or failed transport call.
type APIError struct {
	Kind   ErrorKind
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s (%d)", e.Kind, e.Status)
}

// UserMessage returns the conversational error text rendered as a bot turn.
func (e *APIError) UserMessage() string {
	switch e.Kind {
	case ErrKindRateLimited:
		return "You're sending messages too quickly. Please wait a moment and try again."
	case ErrKindUnauthorized:
		return "This chat is temporarily unavailable due to a configuration problem."
	case ErrKindTimeout:
		return "The response is taking longer than expected. Please try again."
	default:
		if e.Detail != "" {
			return e.Detail
		}
		return "Sorry, something went wrong. Please try again."
	}
}

// AsAPIError unwraps err into an APIError, wrapping unknown errors as Generic
// so callers always have a kind to branch on.
func AsAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return &APIError{Kind: ErrKindGeneric, Detail: err.Error()}
}
