package model

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindPayloadTooLarge       ErrorKind = "PAYLOAD_TOO_LARGE"
	KindUnsupportedFormat     ErrorKind = "UNSUPPORTED_FORMAT"
	KindEmptyInput            ErrorKind = "EMPTY_INPUT"
	KindAuthenticationFailed  ErrorKind = "AUTHENTICATION_FAILED"
	KindRateLimited           ErrorKind = "RATE_LIMITED"
	KindTransientNetworkError ErrorKind = "TRANSIENT_NETWORK_ERROR"
	KindMalformedResponse     ErrorKind = "MALFORMED_RESPONSE"
	KindRequestRejected       ErrorKind = "REQUEST_REJECTED"
	KindUnknownProvider       ErrorKind = "UNKNOWN_PROVIDER"
	KindUnknownModel          ErrorKind = "UNKNOWN_MODEL"
	KindNoCredential          ErrorKind = "NO_CREDENTIAL"
	KindUnsupportedCapability ErrorKind = "UNSUPPORTED_CAPABILITY"
	KindGenerationFailed      ErrorKind = "GENERATION_FAILED"
	KindCancelled             ErrorKind = "CANCELLED"
	KindInvalidConfig         ErrorKind = "INVALID_CONFIG"
	KindNotFound              ErrorKind = "NOT_FOUND"
	KindStorageFailed         ErrorKind = "STORAGE_FAILED"
)

// Error is the tagged failure passed from providers through stages to the orchestrator.
type Error struct {
	Kind    ErrorKind
	Op      string // e.g. "openai.audioTranscriptionGenerator.Generate"
	Message string // human readable, includes the vendor's raw message when there is one
	Err     error
}

func NewError(kind ErrorKind, op string, message string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}

	prefix := string(e.Kind)
	if e.Op != "" {
		prefix = e.Op + ": " + prefix
	}
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", prefix, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", prefix, e.Err)
	default:
		return prefix
	}
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether any *Error in err's chain carries kind.
func IsKind(err error, kind ErrorKind) bool {
	for err != nil {
		var typed *Error
		if !errors.As(err, &typed) {
			return false
		}
		if typed.Kind == kind {
			return true
		}
		err = typed.Err
	}
	return false
}

// KindOf returns the outermost kind in err's chain, or "" when err carries none.
func KindOf(err error) ErrorKind {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind
	}
	return ""
}

// RootKind returns the innermost kind, skipping GenerationFailed wrappers.
func RootKind(err error) ErrorKind {
	kind := ErrorKind("")
	for err != nil {
		var typed *Error
		if !errors.As(err, &typed) {
			break
		}
		kind = typed.Kind
		err = typed.Err
	}
	return kind
}
