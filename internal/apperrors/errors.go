package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind categorizes connector errors
type Kind string

const (
	KindConfiguration    Kind = "configuration"
	KindTransport        Kind = "transport"
	KindGateway          Kind = "gateway"
	KindDecode           Kind = "decode"
	KindMissingFields    Kind = "missing_fields"
	KindInvalidSignature Kind = "invalid_signature"
	KindConflict         Kind = "conflict"
	KindNotFound         Kind = "not_found"
	KindPersistence      Kind = "persistence"
	KindSession          Kind = "session"
)

// Error is the single error type returned across package boundaries
type Error struct {
	Kind    Kind
	Message string

	// StatusCode and Body are set for gateway errors.
	StatusCode int
	Body       string

	// Fields lists the missing input fields for KindMissingFields.
	Fields []string

	Cause error
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Kind == KindGateway && e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s (caused by: %v)", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Cause
}

// Configuration creates a configuration error
func Configuration(message string) *Error {
	return &Error{Kind: KindConfiguration, Message: message}
}

// Transport wraps a network or timeout failure
func Transport(err error) *Error {
	return &Error{Kind: KindTransport, Message: "gateway request failed", Cause: err}
}

// Gateway reports a non-2xx answer from the gateway
func Gateway(statusCode int, body string) *Error {
	return &Error{
		Kind:       KindGateway,
		Message:    "gateway rejected the request",
		StatusCode: statusCode,
		Body:       body,
	}
}

// Decode wraps a malformed gateway response
func Decode(err error) *Error {
	return &Error{Kind: KindDecode, Message: "malformed gateway response", Cause: err}
}

// MissingFields reports absent or unusable input fields
func MissingFields(fields ...string) *Error {
	return &Error{
		Kind:    KindMissingFields,
		Message: "missing required fields: " + strings.Join(fields, ", "),
		Fields:  fields,
	}
}

// InvalidSignature reports a failed HMAC check
func InvalidSignature() *Error {
	return &Error{Kind: KindInvalidSignature, Message: "signature verification failed"}
}

// Conflict reports a duplicate order reference
func Conflict(orderReference string) *Error {
	return &Error{
		Kind:    KindConflict,
		Message: fmt.Sprintf("transaction for order reference %q already exists", orderReference),
	}
}

// NotFound creates a not found error
func NotFound(resource string) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s not found", resource)}
}

// Persistence wraps a storage failure
func Persistence(operation string, err error) *Error {
	return &Error{Kind: KindPersistence, Message: operation + " failed", Cause: err}
}

// Session wraps any session creation failure behind a user-facing message
func Session(message string, cause error) *Error {
	return &Error{Kind: KindSession, Message: message, Cause: cause}
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether any *Error in err's chain has the given kind.
func Is(err error, kind Kind) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Cause
	}
	return false
}

// IsGatewayFailure treats decode errors as gateway errors
func IsGatewayFailure(err error) bool {
	return Is(err, KindGateway) || Is(err, KindDecode)
}
