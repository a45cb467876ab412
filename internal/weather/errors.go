package weather

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies acquisition failures
type ErrorKind string

const (
	KindCredential ErrorKind = "credential"
	KindPermission ErrorKind = "permission"
	KindDataFormat ErrorKind = "data_format"
	KindUnknown    ErrorKind = "unknown"
)

// Sentinels usable with errors.Is against a *FetchError
var (
	ErrCredential = errors.New("credential error")
	ErrPermission = errors.New("permission error")
	ErrDataFormat = errors.New("data format error")
	ErrUnknown    = errors.New("unknown fetch error")
)

// FetchError is a weather acquisition failure carrying a user-legible message
type FetchError struct {
	Kind    ErrorKind
	Message string // Safe to show to the user
	Err     error  // Underlying cause, may be nil
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind
func (e *FetchError) Is(target error) bool {
	switch e.Kind {
	case KindCredential:
		return target == ErrCredential
	case KindPermission:
		return target == ErrPermission
	case KindDataFormat:
		return target == ErrDataFormat
	case KindUnknown:
		return target == ErrUnknown
	}
	return false
}

// UserMessage returns the message meant for display
func (e *FetchError) UserMessage() string {
	return e.Message
}

func missingCredentialError() *FetchError {
	return &FetchError{
		Kind:    KindCredential,
		Message: "API key is missing or invalid. Please set GEMINI_API_KEY in .env.local",
	}
}

func dataFormatError(err error) *FetchError {
	return &FetchError{
		Kind:    KindDataFormat,
		Message: "Invalid data format received",
		Err:     err,
	}
}

func unexpectedShapeError(err error) *FetchError {
	return &FetchError{
		Kind:    KindUnknown,
		Message: "Failed to fetch weather data: " + err.Error(),
		Err:     err,
	}
}

// classifyUpstream maps a generation-call failure onto the error taxonomy
func classifyUpstream(err error) *FetchError {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "API_KEY") || strings.Contains(msg, "API key not valid"):
		return &FetchError{
			Kind:    KindCredential,
			Message: "Invalid API key. Please check your GEMINI_API_KEY in .env.local",
			Err:     err,
		}
	case strings.Contains(msg, "403") || strings.Contains(msg, "PERMISSION_DENIED"):
		return &FetchError{
			Kind:    KindPermission,
			Message: "API key permission denied. Please check your API key permissions.",
			Err:     err,
		}
	default:
		return &FetchError{
			Kind:    KindUnknown,
			Message: "Failed to fetch weather data: " + msg,
			Err:     err,
		}
	}
}

// UserMessage extracts a displayable message from any error
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Message
	}
	return "Connection failed. Please retry."
}

// KindOf returns the kind of a FetchError, or KindUnknown for other errors
func KindOf(err error) ErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}
