// Package engine implements the output dispatch core: the prebuffer probe,
// the byte copy loop, and the policy that picks a candidate variant and a
// sink for it.
package engine

import (
	"context"
	"errors"
	"io"

	"github.com/pipecast/pipecast/internal/metrics"
	"github.com/pipecast/pipecast/internal/stream"
)

// Probe opens src and reads up to bufSize bytes once, proving the source is
// live before any sink is committed to. On success the caller receives the
// opened reader plus the chunk already consumed, to be replayed as the
// first write. On failure nothing stays open.
func Probe(ctx context.Context, src stream.Source, variant string, bufSize int) (io.ReadCloser, []byte, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		metrics.ProbeAttempts.WithLabelValues(metrics.ProbeOpenError).Inc()
		if errors.Is(err, stream.ErrOpen) {
			return nil, nil, err
		}
		return nil, nil, stream.OpenError(variant, err)
	}

	buf := make([]byte, bufSize)
	n, err := rc.Read(buf)
	if n > 0 {
		metrics.ProbeAttempts.WithLabelValues(metrics.ProbeOK).Inc()
		return rc, buf[:n], nil
	}
	_ = rc.Close()
	if err == nil || errors.Is(err, io.EOF) {
		metrics.ProbeAttempts.WithLabelValues(metrics.ProbeEmpty).Inc()
		return nil, nil, stream.EmptyError(variant)
	}
	metrics.ProbeAttempts.WithLabelValues(metrics.ProbeReadError).Inc()
	return nil, nil, stream.ReadError(variant, err)
}
