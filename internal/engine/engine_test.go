package engine

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync/atomic"

	"github.com/pipecast/pipecast/internal/sink"
)

// fakeReader scripts a sequence of read results and records Close calls.
type fakeReader struct {
	chunks  [][]byte
	readErr error // returned after the chunks are exhausted, nil means EOF
	closed  int32
}

func (f *fakeReader) Read(p []byte) (int, error) {
	if len(f.chunks) == 0 {
		if f.readErr != nil {
			return 0, f.readErr
		}
		return 0, io.EOF
	}
	chunk := f.chunks[0]
	n := copy(p, chunk)
	if n < len(chunk) {
		f.chunks[0] = chunk[n:]
	} else {
		f.chunks = f.chunks[1:]
	}
	return n, nil
}

func (f *fakeReader) Close() error {
	atomic.AddInt32(&f.closed, 1)
	return nil
}

func (f *fakeReader) closeCount() int {
	return int(atomic.LoadInt32(&f.closed))
}

// fakeSource hands out a scripted reader and counts open attempts.
type fakeSource struct {
	kind    string
	reader  *fakeReader
	openErr error
	opens   int32
}

func (f *fakeSource) Open(context.Context) (io.ReadCloser, error) {
	atomic.AddInt32(&f.opens, 1)
	if f.openErr != nil {
		return nil, f.openErr
	}
	return f.reader, nil
}

func (f *fakeSource) TransportKind() string {
	if f.kind == "" {
		return "fake"
	}
	return f.kind
}

func (f *fakeSource) openCount() int {
	return int(atomic.LoadInt32(&f.opens))
}

// fakeSink collects writes and can fail on a given write index.
type fakeSink struct {
	kind      sink.Kind
	buf       bytes.Buffer
	failAt    int // 0 disables; 1 fails the first write
	failWith  error
	writes    int
	openErr   error
	opened    bool
	closed    int
}

func (f *fakeSink) Open() error {
	if f.openErr != nil {
		return f.openErr
	}
	f.opened = true
	return nil
}

func (f *fakeSink) Write(p []byte) (int, error) {
	f.writes++
	if f.failAt > 0 && f.writes >= f.failAt {
		return 0, f.failWith
	}
	return f.buf.Write(p)
}

func (f *fakeSink) Close() error {
	f.closed++
	return nil
}

func (f *fakeSink) Kind() sink.Kind {
	return f.kind
}

var errBoom = errors.New("boom")
