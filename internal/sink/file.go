package sink

import (
	"fmt"
	"os"
)

// ErrExists is returned by Open when the target file is present and
// overwriting was not forced.
var ErrExists = fmt.Errorf("sink: output file already exists")

// FileSink writes the stream to a regular file or an already-open
// descriptor such as stdout.
type FileSink struct {
	path  string
	force bool
	fd    *os.File
	owned bool // whether Close should close fd
}

// NewFileSink writes to path, refusing to clobber an existing file unless
// force is set.
func NewFileSink(path string, force bool) *FileSink {
	return &FileSink{path: path, force: force}
}

// NewFDSink wraps an already-open descriptor, typically os.Stdout. The
// descriptor is not closed by Close.
func NewFDSink(fd *os.File) *FileSink {
	return &FileSink{fd: fd}
}

func (f *FileSink) Open() error {
	if f.fd != nil {
		return nil
	}
	if !f.force {
		if _, err := os.Stat(f.path); err == nil {
			return fmt.Errorf("%w: %s", ErrExists, f.path)
		}
	}
	fd, err := os.Create(f.path)
	if err != nil {
		return fmt.Errorf("sink: open %s: %w", f.path, err)
	}
	f.fd = fd
	f.owned = true
	return nil
}

func (f *FileSink) Write(p []byte) (int, error) {
	return f.fd.Write(p)
}

func (f *FileSink) Close() error {
	if !f.owned || f.fd == nil {
		return nil
	}
	fd := f.fd
	f.fd = nil
	f.owned = false
	return fd.Close()
}

func (f *FileSink) Kind() Kind {
	return KindFile
}

// ShowProgress reports whether byte-count progress should be displayed for
// this sink: only plain files qualify, never stdout.
func (f *FileSink) ShowProgress() bool {
	return f.path != ""
}
