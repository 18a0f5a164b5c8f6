// Package resolver defines how a target identifier becomes a set of named
// stream sources. The real variant discovery lives outside this module;
// the engine only consumes the interface.
package resolver

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/pipecast/pipecast/internal/stream"
)

var (
	// ErrNoSource means no resolver can handle the target at all. Fatal;
	// retrying cannot help.
	ErrNoSource = errors.New("resolver: no source can handle target")
	// ErrNoVariants means the target resolved but currently offers no
	// streams. Retryable: the broadcast may simply not have started.
	ErrNoVariants = errors.New("resolver: no streams found on target")
)

// Resolver maps a target identifier to its current stream variant set.
type Resolver interface {
	Resolve(ctx context.Context, target string) (*stream.Variants, error)
}

// Func adapts a plain function to the Resolver interface.
type Func func(ctx context.Context, target string) (*stream.Variants, error)

func (f Func) Resolve(ctx context.Context, target string) (*stream.Variants, error) {
	return f(ctx, target)
}

// WaitResolve retries resolution every interval until the target yields a
// non-empty variant set, the error is unrecoverable, or ctx is cancelled.
func WaitResolve(ctx context.Context, r Resolver, target string, interval time.Duration, logger zerolog.Logger) (*stream.Variants, error) {
	for {
		variants, err := r.Resolve(ctx, target)
		switch {
		case err == nil && variants.Len() > 0:
			return variants, nil
		case errors.Is(err, ErrNoSource):
			return nil, err
		case err != nil:
			logger.Error().Err(err).Str("target", target).Msg("unable to fetch streams")
		default:
			logger.Info().Str("target", target).Dur("interval", interval).
				Msg("waiting for streams to appear")
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}
