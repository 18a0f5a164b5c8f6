//go:build unix

package sink

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayerSinkStdinDelivery(t *testing.T) {
	p := NewPlayerSink(PlayerConfig{
		Command:  "cat",
		Delivery: DeliverStdin,
		Quiet:    true,
		Logger:   zerolog.Nop(),
	})
	require.NoError(t, p.Open())
	assert.True(t, p.Running())
	assert.Equal(t, KindPlayer, p.Kind())
	assert.False(t, p.PipeFed())

	_, err := p.Write([]byte("payload"))
	require.NoError(t, err)

	require.NoError(t, p.Close())
	require.NoError(t, p.Close(), "close must be idempotent")

	select {
	case <-p.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("player did not exit after close")
	}
	assert.False(t, p.Running())
}

func TestPlayerSinkFailsToStart(t *testing.T) {
	p := NewPlayerSink(PlayerConfig{
		Command:  "pipecast-no-such-player",
		Delivery: DeliverStdin,
		Quiet:    true,
		Logger:   zerolog.Nop(),
	})
	err := p.Open()
	require.Error(t, err)
	assert.False(t, p.Running())
}

func TestPlayerSinkURLDeliveryRejectsWrites(t *testing.T) {
	p := NewPlayerSink(PlayerConfig{
		Command:  "true",
		Delivery: DeliverURL,
		URL:      "http://127.0.0.1:0/",
		Quiet:    true,
		Logger:   zerolog.Nop(),
	})
	require.NoError(t, p.Open())
	defer func() {
		_ = p.Close()
	}()

	_, err := p.Write([]byte("x"))
	assert.ErrorIs(t, err, ErrNoByteDelivery)
	require.NoError(t, p.Wait())
}
