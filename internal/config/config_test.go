package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	opts := Default()
	assert.Equal(t, DefaultChunkSize, opts.ChunkSize)
	assert.Equal(t, DefaultRetryOpen, opts.RetryOpen)
	assert.Equal(t, DefaultAcceptPoll, opts.AcceptPoll)
	assert.Equal(t, DefaultResolveWait, opts.ResolveWait)
	assert.True(t, opts.ShowProgress)
}

func TestNormalizeClampsTunables(t *testing.T) {
	opts := Options{RetryOpen: -1, ChunkSize: 0, AcceptPoll: -time.Second}.Normalize()
	assert.Equal(t, DefaultRetryOpen, opts.RetryOpen)
	assert.Equal(t, DefaultChunkSize, opts.ChunkSize)
	assert.Equal(t, DefaultAcceptPoll, opts.AcceptPoll)
	assert.Equal(t, DefaultResolveWait, opts.ResolveWait)
}

func TestFileOutputPriority(t *testing.T) {
	assert.False(t, Options{}.FileOutput())
	assert.True(t, Options{FilePath: "out.ts"}.FileOutput())
	assert.True(t, Options{Stdout: true}.FileOutput())
}

func TestFromEnv(t *testing.T) {
	t.Setenv("PIPECAST_OUTPUT", "/tmp/rec.ts")
	t.Setenv("PIPECAST_RETRY_OPEN", "4")
	t.Setenv("PIPECAST_RESOLVE_WAIT", "3s")
	t.Setenv("PIPECAST_STDOUT", "true")

	opts := FromEnv(Default())
	assert.Equal(t, "/tmp/rec.ts", opts.FilePath)
	assert.Equal(t, 4, opts.RetryOpen)
	assert.Equal(t, 3*time.Second, opts.ResolveWait)
	assert.True(t, opts.Stdout)
}

func TestFromEnvIgnoresGarbage(t *testing.T) {
	t.Setenv("PIPECAST_RETRY_OPEN", "many")
	t.Setenv("PIPECAST_RESOLVE_WAIT", "soon")

	opts := FromEnv(Default())
	assert.Equal(t, DefaultRetryOpen, opts.RetryOpen)
	assert.Equal(t, DefaultResolveWait, opts.ResolveWait)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("player: mpv\nretry_open: 5\nchunk_size: 4096\nplayer_passthrough: [hls, http]\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	opts, err := LoadFile(path, Default(), true)
	require.NoError(t, err)
	assert.Equal(t, "mpv", opts.PlayerCommand)
	assert.Equal(t, 5, opts.RetryOpen)
	assert.Equal(t, 4096, opts.ChunkSize)
	assert.Equal(t, []string{"hls", "http"}, opts.Passthrough)
	assert.True(t, opts.ShowProgress, "absent keys keep their defaults")
}

func TestLoadFileMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.yaml")

	_, err := LoadFile(path, Default(), true)
	require.Error(t, err, "an explicitly named config file must exist")

	opts, err := LoadFile(path, Default(), false)
	require.NoError(t, err, "auto-discovered paths may be absent")
	assert.Equal(t, Default(), opts)
}

func TestLoadFileRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("player: [unclosed"), 0o600))

	_, err := LoadFile(path, Default(), true)
	assert.Error(t, err)
}
