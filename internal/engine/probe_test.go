package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipecast/pipecast/internal/stream"
)

func TestProbeReturnsFirstChunk(t *testing.T) {
	reader := &fakeReader{chunks: [][]byte{[]byte("first"), []byte("second")}}
	src := &fakeSource{reader: reader}

	rc, first, err := Probe(context.Background(), src, "720p", 8192)
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), first)
	assert.Equal(t, 0, reader.closeCount(), "a successful probe leaves the source open")
	require.NoError(t, rc.Close())
}

func TestProbeOpenFailure(t *testing.T) {
	src := &fakeSource{openErr: errBoom}

	_, _, err := Probe(context.Background(), src, "720p", 8192)
	require.Error(t, err)
	assert.ErrorIs(t, err, stream.ErrOpen)
	assert.Contains(t, err.Error(), "boom", "the underlying cause is wrapped")
}

func TestProbeEmptyStream(t *testing.T) {
	reader := &fakeReader{} // immediate EOF
	src := &fakeSource{reader: reader}

	_, _, err := Probe(context.Background(), src, "720p", 8192)
	assert.ErrorIs(t, err, stream.ErrEmpty)
	assert.Equal(t, 1, reader.closeCount(), "a failed probe must close the source")
}

func TestProbeReadFault(t *testing.T) {
	reader := &fakeReader{readErr: errBoom}
	src := &fakeSource{reader: reader}

	_, _, err := Probe(context.Background(), src, "720p", 8192)
	assert.ErrorIs(t, err, stream.ErrRead)
	assert.Equal(t, 1, reader.closeCount())
}
