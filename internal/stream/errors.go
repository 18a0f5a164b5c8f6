package stream

import (
	"errors"
	"fmt"
)

var (
	// Sentinel errors for errors.Is checks at the boundary.
	ErrOpen          = errors.New("stream: source could not be opened")
	ErrEmpty         = errors.New("stream: no data returned from source")
	ErrRead          = errors.New("stream: read failure")
	ErrNoCommandLine = errors.New("stream: transport has no command-line representation")
)

// Error wraps a sentinel with the variant it occurred on and the underlying
// cause.
type Error struct {
	Sentinel error
	Variant  string
	Err      error
}

func (e *Error) Error() string {
	msg := e.Sentinel.Error()
	if e.Variant != "" {
		msg = fmt.Sprintf("%s (variant %q)", msg, e.Variant)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap makes both the sentinel and the underlying cause matchable with
// errors.Is.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Sentinel}
	}
	return []error{e.Sentinel, e.Err}
}

// OpenError reports a failed open of the named variant.
func OpenError(variant string, err error) error {
	return &Error{Sentinel: ErrOpen, Variant: variant, Err: err}
}

// ReadError reports an I/O fault while reading the named variant.
func ReadError(variant string, err error) error {
	return &Error{Sentinel: ErrRead, Variant: variant, Err: err}
}

// EmptyError reports a source that opened but produced zero bytes.
func EmptyError(variant string) error {
	return &Error{Sentinel: ErrEmpty, Variant: variant}
}
