// Package sink provides the uniform write targets a dispatched stream can be
// delivered to: a file (or stdout), a player process, or an HTTP client
// connection.
package sink

import (
	"errors"
	"io"
	"net"
	"syscall"
)

// Kind is the closed set of sink flavours. Error classification and
// progress eligibility key off it instead of runtime type checks.
type Kind int

const (
	KindFile Kind = iota
	KindPlayer
	KindHTTP
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindPlayer:
		return "player"
	case KindHTTP:
		return "http"
	default:
		return "unknown"
	}
}

// Sink is a write target with an open/write/close lifecycle. Open must
// succeed before the first Write; Close is idempotent and safe on every
// exit path.
type Sink interface {
	Open() error
	Write(p []byte) (int, error)
	Close() error
	Kind() Kind
}

// disconnectable marks the kinds whose consumer may legitimately vanish
// mid-stream.
var disconnectable = map[Kind]bool{
	KindPlayer: true,
	KindHTTP:   true,
}

// ExpectedDisconnect reports whether a write fault is a normal
// consumer-went-away event for the given sink kind. Broken pipe, invalid
// handle and connection reset are expected when a player quits or an HTTP
// client hangs up; on a file sink the same codes are hard errors.
func ExpectedDisconnect(kind Kind, err error) bool {
	if !disconnectable[kind] {
		return false
	}
	return errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, syscall.EINVAL) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, io.ErrClosedPipe)
}
