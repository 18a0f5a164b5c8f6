package resolver

import (
	"context"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipecast/pipecast/internal/stream"
)

func TestWaitResolveRetriesUntilAvailable(t *testing.T) {
	var calls int32
	res := Func(func(context.Context, string) (*stream.Variants, error) {
		if atomic.AddInt32(&calls, 1) < 3 {
			return stream.NewVariants(), nil // resolved but empty
		}
		v := stream.NewVariants()
		v.Put("live", &stubSource{})
		return v, nil
	})

	variants, err := WaitResolve(context.Background(), res, "target", 5*time.Millisecond, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 1, variants.Len())
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestWaitResolveGivesUpOnNoSource(t *testing.T) {
	res := Func(func(context.Context, string) (*stream.Variants, error) {
		return nil, ErrNoSource
	})

	_, err := WaitResolve(context.Background(), res, "target", time.Millisecond, zerolog.Nop())
	assert.ErrorIs(t, err, ErrNoSource)
}

func TestWaitResolveHonoursCancellation(t *testing.T) {
	res := Func(func(context.Context, string) (*stream.Variants, error) {
		return stream.NewVariants(), nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := WaitResolve(ctx, res, "target", time.Hour, zerolog.Nop())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type stubSource struct{}

func (stubSource) Open(context.Context) (io.ReadCloser, error) { return nil, nil }
func (stubSource) TransportKind() string                       { return "stub" }
