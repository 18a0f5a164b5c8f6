package engine

import (
	"errors"
	"io"

	"github.com/rs/zerolog"

	"github.com/pipecast/pipecast/internal/console"
	"github.com/pipecast/pipecast/internal/metrics"
	"github.com/pipecast/pipecast/internal/sink"
)

// CopyConfig tunes one copy-loop run.
type CopyConfig struct {
	// FirstChunk is replayed before any read, so the probe's bytes are
	// never lost or reordered.
	FirstChunk []byte
	ChunkSize  int

	// ShowProgress enables the in-place byte counter. Only the dispatch
	// policy sets it, and only for plain-file sinks.
	ShowProgress bool
	Console      *console.Console

	// PlayerAlive, when non-nil, is polled before every write. Pipe-fed
	// players need this because a named pipe does not reliably signal
	// that its reader has gone.
	PlayerAlive func() bool

	Logger zerolog.Logger
}

// Copy drains src into out until end-of-stream or the first fault, and
// returns the number of payload bytes written. Faults terminate the loop
// but never panic or escalate; the source is closed on every exit path.
func Copy(src io.ReadCloser, out sink.Sink, cfg CopyConfig) int64 {
	defer func() {
		_ = src.Close()
	}()

	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 8192
	}

	var written int64
	cause := metrics.CauseEOF
	buf := make([]byte, cfg.ChunkSize)
	pending := cfg.FirstChunk

	for {
		var data []byte
		var readErr error
		if len(pending) > 0 {
			data = pending
			pending = nil
		} else {
			var n int
			n, readErr = src.Read(buf)
			if n == 0 {
				if readErr != nil && !errors.Is(readErr, io.EOF) {
					cfg.Logger.Error().Err(readErr).Msg("error when reading from stream")
					cause = metrics.CauseReadError
				}
				break
			}
			data = buf[:n]
		}

		if cfg.PlayerAlive != nil && !cfg.PlayerAlive() {
			cfg.Logger.Info().Msg("player closed")
			cause = metrics.CausePlayerClosed
			break
		}

		if _, err := out.Write(data); err != nil {
			if sink.ExpectedDisconnect(out.Kind(), err) {
				if out.Kind() == sink.KindHTTP {
					cfg.Logger.Info().Msg("http connection closed")
				} else {
					cfg.Logger.Info().Msg("player closed")
				}
				cause = metrics.CauseConsumerClosed
			} else {
				cfg.Logger.Error().Err(err).Msg("error when writing to output")
				cause = metrics.CauseWriteError
			}
			break
		}

		written += int64(len(data))
		metrics.BytesRelayed.WithLabelValues(out.Kind().String()).Add(float64(len(data)))

		if cfg.ShowProgress && cfg.Console != nil {
			cfg.Console.MsgInplace("Written %d bytes", written)
		}

		// A read may hand back data together with its terminal error;
		// the data was delivered above, the error ends the loop here.
		if readErr != nil {
			if !errors.Is(readErr, io.EOF) {
				cfg.Logger.Error().Err(readErr).Msg("error when reading from stream")
				cause = metrics.CauseReadError
			}
			break
		}
	}

	if cfg.ShowProgress && cfg.Console != nil && written > 0 {
		cfg.Console.MsgInplaceEnd()
	}

	metrics.CopySessions.WithLabelValues(cause).Inc()
	cfg.Logger.Info().Int64("bytes", written).Msg("stream ended")
	return written
}
