package sink

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pipecast/pipecast/internal/procgroup"
)

// Delivery selects how stream bytes reach the player.
type Delivery int

const (
	// DeliverStdin pipes bytes into the player's standard input.
	DeliverStdin Delivery = iota
	// DeliverFIFO feeds the player through a named pipe.
	DeliverFIFO
	// DeliverURL hands the player a URL instead of bytes (passthrough and
	// relay modes); Write is not usable.
	DeliverURL
)

// ErrNoByteDelivery is returned by Write on a URL-delivery player.
var ErrNoByteDelivery = errors.New("sink: player receives a URL, not bytes")

const (
	killGrace   = 3 * time.Second
	killTimeout = time.Second
)

// PlayerConfig describes how to launch the player process.
type PlayerConfig struct {
	Command  string
	Args     []string
	Delivery Delivery
	URL      string // final argument in DeliverURL mode
	Quiet    bool   // discard player stdout/stderr
	NoClose  bool   // leave the player running when the sink closes
	Logger   zerolog.Logger
}

// PlayerSink launches a player process and delivers the stream to it.
type PlayerSink struct {
	cfg  PlayerConfig
	cmd  *exec.Cmd
	in   io.WriteCloser
	pipe *namedPipe

	waitCh  chan struct{}
	waitErr error

	closeOnce sync.Once
	closeErr  error
}

func NewPlayerSink(cfg PlayerConfig) *PlayerSink {
	return &PlayerSink{cfg: cfg, waitCh: make(chan struct{})}
}

func (p *PlayerSink) Kind() Kind {
	return KindPlayer
}

// Open spawns the player. In FIFO mode the pipe is created before the
// player starts and the write end is opened after, since opening it blocks
// until the player opens the read end.
func (p *PlayerSink) Open() error {
	args := append([]string(nil), p.cfg.Args...)

	switch p.cfg.Delivery {
	case DeliverFIFO:
		pipe, err := newNamedPipe(fmt.Sprintf("pipecast-%d", os.Getpid()))
		if err != nil {
			return err
		}
		p.pipe = pipe
		args = append(args, pipe.path)
	case DeliverURL:
		args = append(args, p.cfg.URL)
	default:
		args = append(args, "-")
	}

	cmd := exec.Command(p.cfg.Command, args...)
	if p.cfg.Quiet {
		cmd.Stdout = io.Discard
		cmd.Stderr = io.Discard
	} else {
		cmd.Stdout = os.Stderr
		cmd.Stderr = os.Stderr
	}
	if p.cfg.Delivery == DeliverStdin {
		in, err := cmd.StdinPipe()
		if err != nil {
			return fmt.Errorf("sink: player stdin: %w", err)
		}
		p.in = in
	}
	procgroup.Set(cmd)

	if err := cmd.Start(); err != nil {
		if p.pipe != nil {
			_ = p.pipe.close()
		}
		return fmt.Errorf("sink: start player %s: %w", p.cfg.Command, err)
	}
	p.cmd = cmd

	go func() {
		p.waitErr = cmd.Wait()
		close(p.waitCh)
	}()

	if p.pipe != nil {
		if err := p.pipe.open(); err != nil {
			_ = p.Close()
			return err
		}
	}
	return nil
}

func (p *PlayerSink) Write(b []byte) (int, error) {
	switch {
	case p.pipe != nil:
		return p.pipe.write(b)
	case p.in != nil:
		return p.in.Write(b)
	default:
		return 0, ErrNoByteDelivery
	}
}

// Running reports whether the player process is still alive.
func (p *PlayerSink) Running() bool {
	if p.cmd == nil {
		return false
	}
	select {
	case <-p.waitCh:
		return false
	default:
		return true
	}
}

// Done is closed when the player process exits.
func (p *PlayerSink) Done() <-chan struct{} {
	return p.waitCh
}

// Wait blocks until the player exits. Used for passthrough invocations
// where the player fetches the stream itself.
func (p *PlayerSink) Wait() error {
	if p.cmd == nil {
		return errors.New("sink: player not started")
	}
	<-p.waitCh
	return p.waitErr
}

// PipeFed reports whether delivery goes through a named pipe. Pipe-fed
// players need an explicit liveness poll in the copy loop because the pipe
// does not signal closure promptly everywhere.
func (p *PlayerSink) PipeFed() bool {
	return p.cfg.Delivery == DeliverFIFO
}

// Close shuts byte delivery down and, unless NoClose is set, terminates the
// player's whole process group. Idempotent.
func (p *PlayerSink) Close() error {
	p.closeOnce.Do(func() {
		if p.in != nil {
			p.closeErr = p.in.Close()
		}
		if p.pipe != nil {
			if err := p.pipe.close(); err != nil && p.closeErr == nil {
				p.closeErr = err
			}
		}
		if p.cmd == nil || p.cfg.NoClose {
			return
		}
		if !p.Running() {
			return
		}

		pid := p.cmd.Process.Pid
		p.cfg.Logger.Debug().Int("pid", pid).Msg("terminating player process group")
		_ = procgroup.Terminate(pid)
		select {
		case <-p.waitCh:
			return
		case <-time.After(killGrace):
		}

		p.cfg.Logger.Warn().Int("pid", pid).Msg("player ignored termination, killing process group")
		_ = procgroup.Kill(pid)
		select {
		case <-p.waitCh:
		case <-time.After(killTimeout):
			if p.closeErr == nil {
				p.closeErr = errors.New("sink: player process did not exit")
			}
		}
	})
	return p.closeErr
}
