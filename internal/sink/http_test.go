//go:build unix

package sink

import (
	"fmt"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPPlayerSinkServesOneClient(t *testing.T) {
	h := NewHTTPPlayerSink(PlayerConfig{
		Command: "sleep",
		Args:    []string{"60"},
		Quiet:   true,
		Logger:  zerolog.Nop(),
	}, 25*time.Millisecond)
	assert.Equal(t, KindHTTP, h.Kind())

	openErr := make(chan error, 1)
	go func() { openErr <- h.Open() }()

	var url string
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if url = h.URL(); url != "" {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	require.NotEmpty(t, url, "listener never came up")

	addr := strings.TrimSuffix(strings.TrimPrefix(url, "http://"), "/")
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer func() {
		_ = conn.Close()
	}()
	_, err = fmt.Fprintf(conn, "GET / HTTP/1.0\r\nUser-Agent: http-sink-test\r\n\r\n")
	require.NoError(t, err)

	require.NoError(t, <-openErr)
	_, err = h.Write([]byte("payload"))
	require.NoError(t, err)
	require.NoError(t, h.Close())
	require.NoError(t, h.Close(), "close must be idempotent")

	data, err := io.ReadAll(conn)
	require.NoError(t, err)
	assert.Contains(t, string(data), "200 OK")
	assert.True(t, strings.HasSuffix(string(data), "payload"), "got: %q", data)
}

func TestHTTPPlayerSinkPlayerExitsBeforeConnect(t *testing.T) {
	h := NewHTTPPlayerSink(PlayerConfig{
		Command: "true", // exits immediately, never connects
		Quiet:   true,
		Logger:  zerolog.Nop(),
	}, 25*time.Millisecond)

	err := h.Open()
	require.Error(t, err)
	assert.False(t, h.Running())
	_ = h.Close()
}
