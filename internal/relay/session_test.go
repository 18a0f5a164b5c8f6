package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryLifecycle(t *testing.T) {
	r := NewRegistry()

	sess := r.Register("127.0.0.1:54321", "vlc/3.0", "720p")
	require.NotEmpty(t, sess.ID)
	assert.Len(t, r.List(), 1)

	sess.AddBytes(1024)
	sess.AddBytes(512)
	assert.Equal(t, int64(1536), sess.BytesSent())
	assert.False(t, sess.LastActivity().Before(sess.StartedAt))

	snap := r.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, sess.ID, snap[0].ID)
	assert.Equal(t, int64(1536), snap[0].BytesSent)
	assert.Equal(t, "720p", snap[0].Variant)

	r.Unregister(sess.ID)
	assert.Empty(t, r.List())
	r.Unregister(sess.ID) // unknown IDs are a no-op
}
