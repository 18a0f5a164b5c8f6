//go:build unix

package sink

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// namedPipe is a FIFO the player reads the stream from. Creating and
// removing it is owned by the sink; opening the write end blocks until the
// player opens the read end.
type namedPipe struct {
	path string
	w    *os.File
}

func newNamedPipe(name string) (*namedPipe, error) {
	path := filepath.Join(os.TempDir(), name)
	if err := syscall.Mkfifo(path, 0o600); err != nil {
		return nil, fmt.Errorf("sink: create pipe %s: %w", path, err)
	}
	return &namedPipe{path: path}, nil
}

func (p *namedPipe) open() error {
	w, err := os.OpenFile(p.path, os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("sink: open pipe %s: %w", p.path, err)
	}
	p.w = w
	return nil
}

func (p *namedPipe) write(b []byte) (int, error) {
	return p.w.Write(b)
}

func (p *namedPipe) close() error {
	var err error
	if p.w != nil {
		err = p.w.Close()
		p.w = nil
	}
	_ = os.Remove(p.path)
	return err
}
