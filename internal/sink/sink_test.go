package sink

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpectedDisconnect(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		err  error
		want bool
	}{
		{"broken pipe on player", KindPlayer, fmt.Errorf("write: %w", syscall.EPIPE), true},
		{"broken pipe on http", KindHTTP, syscall.EPIPE, true},
		{"broken pipe on file is a hard error", KindFile, syscall.EPIPE, false},
		{"connection reset on http", KindHTTP, syscall.ECONNRESET, true},
		{"invalid handle on player", KindPlayer, syscall.EINVAL, true},
		{"unrelated error on player", KindPlayer, errors.New("disk full"), false},
		{"nil-ish error on file", KindFile, errors.New("short write"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpectedDisconnect(tt.kind, tt.err))
		})
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "file", KindFile.String())
	assert.Equal(t, "player", KindPlayer.String())
	assert.Equal(t, "http", KindHTTP.String())
}

func TestFileSinkRefusesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.ts")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o600))

	f := NewFileSink(path, false)
	err := f.Open()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExists))

	forced := NewFileSink(path, true)
	require.NoError(t, forced.Open())
	defer func() {
		_ = forced.Close()
	}()
	_, err = forced.Write([]byte("new"))
	require.NoError(t, err)
}

func TestFileSinkCloseIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.ts")
	f := NewFileSink(path, false)
	require.NoError(t, f.Open())

	_, err := f.Write([]byte("data"))
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.NoError(t, f.Close(), "second close must not fail")

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "data", string(got))
}

func TestFDSinkNeverClosesDescriptor(t *testing.T) {
	tmp, err := os.CreateTemp(t.TempDir(), "fd")
	require.NoError(t, err)
	defer func() {
		_ = tmp.Close()
	}()

	f := NewFDSink(tmp)
	require.NoError(t, f.Open())
	_, err = f.Write([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	// The descriptor must still be usable after the sink closed.
	_, err = tmp.Write([]byte("y"))
	require.NoError(t, err)

	assert.False(t, f.ShowProgress(), "descriptor sinks never show progress")
	assert.True(t, NewFileSink("some.ts", false).ShowProgress())
}
