package sink

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// HTTPPlayerSink serves the stream to a player over a one-shot local HTTP
// connection: bind a loopback listener, start the player against its URL,
// accept a single client and stream to it until one side goes away. Unlike
// the continuous relay it never re-accepts.
type HTTPPlayerSink struct {
	cfg        PlayerConfig
	acceptPoll time.Duration

	ln     net.Listener
	player *PlayerSink
	conn   *ConnSink

	addr atomic.Value // string URL, set once the listener is bound

	closeOnce sync.Once
	closeErr  error
}

// NewHTTPPlayerSink builds a one-shot HTTP delivery sink. The configured
// delivery mode and URL are overridden; the player always receives the
// listener's URL.
func NewHTTPPlayerSink(cfg PlayerConfig, acceptPoll time.Duration) *HTTPPlayerSink {
	if acceptPoll <= 0 {
		acceptPoll = 2500 * time.Millisecond
	}
	return &HTTPPlayerSink{cfg: cfg, acceptPoll: acceptPoll}
}

func (h *HTTPPlayerSink) Kind() Kind {
	return KindHTTP
}

// URL returns the local endpoint handed to the player, or "" before Open has
// bound the listener.
func (h *HTTPPlayerSink) URL() string {
	if v, ok := h.addr.Load().(string); ok {
		return v
	}
	return ""
}

// Running reports whether the player process is still alive.
func (h *HTTPPlayerSink) Running() bool {
	return h.player != nil && h.player.Running()
}

// Open binds the listener, starts the player and blocks until a client
// connects and sends its request. A player that exits without ever
// connecting fails the open.
func (h *HTTPPlayerSink) Open() error {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("sink: http listen: %w", err)
	}
	h.ln = ln
	url := fmt.Sprintf("http://%s/", ln.Addr())
	h.addr.Store(url)

	cfg := h.cfg
	cfg.Delivery = DeliverURL
	cfg.URL = url
	player := NewPlayerSink(cfg)
	if err := player.Open(); err != nil {
		_ = ln.Close()
		return err
	}
	h.player = player

	conn, err := h.accept()
	if err != nil {
		_ = h.Close()
		return err
	}
	h.conn = NewConnSink(conn)
	if err := h.conn.Open(); err != nil {
		_ = h.Close()
		return fmt.Errorf("sink: http response: %w", err)
	}
	return nil
}

// accept polls for the player's connection with a bounded deadline so a
// player that dies before connecting is noticed. The request itself is read
// and discarded; everything after the response header is raw stream bytes.
func (h *HTTPPlayerSink) accept() (net.Conn, error) {
	tcpLn := h.ln.(*net.TCPListener)
	for {
		if !h.player.Running() {
			return nil, errors.New("sink: player exited before connecting")
		}
		_ = tcpLn.SetDeadline(time.Now().Add(h.acceptPoll))
		conn, err := tcpLn.Accept()
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return nil, fmt.Errorf("sink: http accept: %w", err)
		}
		_ = conn.SetReadDeadline(time.Now().Add(h.acceptPoll))
		if _, err := http.ReadRequest(bufio.NewReader(conn)); err != nil {
			_ = conn.Close()
			continue
		}
		_ = conn.SetReadDeadline(time.Time{})
		return conn, nil
	}
}

func (h *HTTPPlayerSink) Write(b []byte) (int, error) {
	return h.conn.Write(b)
}

func (h *HTTPPlayerSink) Close() error {
	h.closeOnce.Do(func() {
		if h.conn != nil {
			h.closeErr = h.conn.Close()
		}
		if h.ln != nil {
			_ = h.ln.Close()
		}
		if h.player != nil {
			if err := h.player.Close(); err != nil && h.closeErr == nil {
				h.closeErr = err
			}
		}
	})
	return h.closeErr
}
