// Package stream defines the source side of the relay engine: named stream
// variants produced by a resolver, and the error taxonomy for everything
// that can go wrong between open and end-of-stream.
package stream

import (
	"context"
	"io"
)

// Source is an opaque, ordered byte producer for one named stream variant.
// Once opened, reads are monotonic; there is no rewind.
type Source interface {
	// Open acquires the underlying transport and returns a reader for the
	// raw stream bytes. The caller owns the reader and must close it
	// exactly once.
	Open(ctx context.Context) (io.ReadCloser, error)

	// TransportKind names the transport backing this source (e.g. "http",
	// "rtmp"). Used for passthrough eligibility and command-line lookup,
	// nothing else.
	TransportKind() string
}

// CommandLiner is implemented by sources that are backed by an external
// fetch command and can render it for display.
type CommandLiner interface {
	// CommandLine returns the shell command that would fetch this stream,
	// or ErrNoCommandLine if the transport has no such representation.
	CommandLine() (string, error)
}

// Referencer is implemented by sources whose stream can be handed to a
// player directly as a URL, enabling passthrough delivery.
type Referencer interface {
	URL() string
}
