package token

import (
	"errors"
	"fmt"
)

// Sentinel errors for the tokenization engine.
// These errors can be used with errors.Is() for error checking.
var (
	// ErrInvalidReference indicates a required module-path/qualified-name
	// pair is missing or empty.
	ErrInvalidReference = errors.New("invalid type reference")

	// ErrResolutionFailure indicates a (module, qualname) pair does not
	// resolve to a registered type.
	ErrResolutionFailure = errors.New("type resolution failed")

	// ErrUnresolvedReference indicates a key-referenced marker could not be
	// resolved to any known content during decode.
	ErrUnresolvedReference = errors.New("unresolved key reference")

	// ErrMalformedRepresentation indicates an encoded value does not match
	// the shape the active decode mode expects.
	ErrMalformedRepresentation = errors.New("malformed representation")

	// ErrUnsupportedValue indicates a type declared a field whose value is
	// not a permitted shape (primitive, sequence, string-keyed mapping, or
	// nested Tokenizable). This is a programming error in the participating
	// type, detected at encode time.
	ErrUnsupportedValue = errors.New("unsupported field value")
)

// Error kinds categorize errors by their type.
const (
	// KindInvalidReference represents errors from absent type references.
	KindInvalidReference = "invalid_reference"

	// KindResolution represents errors resolving a type reference.
	KindResolution = "resolution"

	// KindUnresolved represents errors resolving a key marker during decode.
	KindUnresolved = "unresolved_reference"

	// KindMalformed represents errors from mis-shaped encoded values.
	KindMalformed = "malformed"

	// KindEncode represents encode-time programming errors.
	KindEncode = "encode"
)

// Error is a structured error type that wraps underlying errors with the
// operation that failed and the category of error.
//
// Error implements the error interface and supports error unwrapping,
// making it compatible with errors.Is() and errors.As().
type Error struct {
	// Op is the operation that failed (e.g., "token.FromDeep").
	Op string

	// Kind categorizes the error (e.g., KindResolution).
	Kind string

	// Err is the underlying error that caused this error.
	Err error
}

// Error implements the error interface, returning a formatted message that
// includes the operation, kind, and underlying error.
func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("token: %s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("token: %s (%s): %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying error, allowing errors.Is() and errors.As()
// to work correctly with wrapped errors.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is implements error matching for Error, allowing comparison based on the
// underlying error or on another Error's Op and Kind.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}

	if t, ok := target.(*Error); ok {
		if t.Kind != "" && e.Kind == t.Kind {
			if t.Op == "" || e.Op == t.Op {
				return true
			}
		}
	}

	return errors.Is(e.Err, target)
}

func newError(op, kind string, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}
