// Package relay implements the continuous HTTP output mode: a loopback
// listener the player connects to, fed by whichever stream source is
// currently alive. The player sees one stable endpoint while the source
// behind it may die and be re-acquired any number of times.
package relay

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/pipecast/pipecast/internal/config"
	"github.com/pipecast/pipecast/internal/engine"
	"github.com/pipecast/pipecast/internal/metrics"
	"github.com/pipecast/pipecast/internal/resolver"
	"github.com/pipecast/pipecast/internal/sink"
	"github.com/pipecast/pipecast/internal/stream"
)

// Config wires a relay server.
type Config struct {
	Opts     config.Options
	Resolver resolver.Resolver
	Target   string
	Logger   zerolog.Logger
}

// Server is the continuous relay. One instance serves one player for its
// whole lifetime; sessions come and go as the player reconnects.
type Server struct {
	opts     config.Options
	res      resolver.Resolver
	target   string
	logger   zerolog.Logger
	sessions *Registry

	// variants is the cached result of the last successful resolve. Only
	// the accept loop's goroutine touches it, so no locking is needed.
	variants *stream.Variants
	total    int64

	addr atomic.Value // string, set once the listener is up
}

func New(cfg Config) *Server {
	return &Server{
		opts:     cfg.Opts.Normalize(),
		res:      cfg.Resolver,
		target:   cfg.Target,
		logger:   cfg.Logger,
		sessions: NewRegistry(),
	}
}

// Sessions exposes the live session registry, e.g. for a status endpoint.
func (s *Server) Sessions() *Registry {
	return s.sessions
}

// Addr returns the relay's listen address once Serve is up, else "".
func (s *Server) Addr() string {
	if v, ok := s.addr.Load().(string); ok {
		return v
	}
	return ""
}

// Serve starts the player against a loopback listener and feeds it until
// the player exits or ctx is cancelled. It returns the total bytes relayed
// across all sessions. Implements engine.RelayRunner.
func (s *Server) Serve(ctx context.Context, variants *stream.Variants, names []string) (int64, error) {
	if s.opts.PlayerCommand == "" {
		return 0, errors.New("relay: no player configured")
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("relay: listen: %w", err)
	}
	defer func() {
		_ = ln.Close()
	}()
	tcpLn := ln.(*net.TCPListener)
	s.addr.Store(ln.Addr().String())
	url := fmt.Sprintf("http://%s/", ln.Addr())

	player := sink.NewPlayerSink(sink.PlayerConfig{
		Command:  s.opts.PlayerCommand,
		Args:     s.opts.PlayerArgs,
		Delivery: sink.DeliverURL,
		URL:      url,
		Quiet:    !s.opts.VerbosePlayer,
		NoClose:  s.opts.PlayerNoClose,
		Logger:   s.logger,
	})
	s.logger.Info().Str("player", s.opts.PlayerCommand).Str("url", url).Msg("starting player")
	if err := player.Open(); err != nil {
		return 0, fmt.Errorf("failed to start player %s: %w", s.opts.PlayerCommand, err)
	}
	defer func() {
		_ = player.Close()
	}()

	s.variants = variants

	for {
		if err := ctx.Err(); err != nil {
			return s.total, err
		}
		if !player.Running() {
			s.logger.Info().Msg("player closed, shutting relay down")
			return s.total, nil
		}

		// Bounded accept so player liveness is observed between clients.
		_ = tcpLn.SetDeadline(time.Now().Add(s.opts.AcceptPoll))
		conn, err := tcpLn.Accept()
		if err != nil {
			// Timeouts and transient socket errors both just mean
			// "try again"; the loop exit conditions are above.
			continue
		}
		s.handleConn(ctx, conn, player, names)
	}
}

// handleConn serves one accepted player connection: acquire a live source,
// acknowledge the request, copy until something ends, force-close.
func (s *Server) handleConn(ctx context.Context, conn net.Conn, player *sink.PlayerSink, names []string) {
	out := sink.NewConnSink(conn)
	defer func() {
		_ = out.Close()
	}()

	// A silent client must not stall the accept loop past one poll interval.
	_ = conn.SetReadDeadline(time.Now().Add(s.opts.AcceptPoll))
	req, err := http.ReadRequest(bufio.NewReader(conn))
	if err != nil {
		s.logger.Debug().Err(err).Msg("dropping connection with unreadable request")
		return
	}
	_ = conn.SetReadDeadline(time.Time{})
	userAgent := req.Header.Get("User-Agent")
	if userAgent == "" {
		userAgent = "unknown player"
	}
	s.logger.Info().Str("user_agent", userAgent).Msg("got http request")

	rc, first, variant := s.acquireSource(ctx, player, names)
	if rc == nil {
		return
	}

	if err := out.Open(); err != nil {
		s.logger.Debug().Err(err).Msg("client went away before the response header")
		_ = rc.Close()
		return
	}

	sess := s.sessions.Register(conn.RemoteAddr().String(), userAgent, variant)
	metrics.RelaySessionsActive.Inc()
	defer func() {
		metrics.RelaySessionsActive.Dec()
		s.sessions.Unregister(sess.ID)
	}()

	s.logger.Debug().Str("variant", variant).Msg("writing stream to player")
	n := engine.Copy(rc, &sessionSink{Sink: out, sess: sess}, engine.CopyConfig{
		FirstChunk: first,
		ChunkSize:  s.opts.ChunkSize,
		Logger:     s.logger,
	})
	s.total += n
}

// acquireSource loops until a requested variant resolves and probes live,
// the player goes away, or ctx is cancelled. A failed probe discards the
// cached variant set so the next attempt re-resolves from scratch.
func (s *Server) acquireSource(ctx context.Context, player *sink.PlayerSink, names []string) (io.ReadCloser, []byte, string) {
	for {
		if ctx.Err() != nil || !player.Running() {
			return nil, nil, ""
		}

		if s.variants == nil {
			variants, err := s.res.Resolve(ctx, s.target)
			if err != nil {
				metrics.RelayResolves.WithLabelValues("error").Inc()
				s.logger.Error().Err(err).Str("target", s.target).Msg("unable to fetch new streams")
			} else {
				metrics.RelayResolves.WithLabelValues("ok").Inc()
				s.variants = variants
			}
		}

		var (
			src     stream.Source
			variant string
		)
		if s.variants != nil {
			for _, name := range names {
				if got, ok := s.variants.Get(name); ok {
					src = got
					variant = s.variants.Canonical(name)
					break
				}
			}
		}
		if src == nil {
			s.logger.Info().Dur("wait", s.opts.ResolveWait).
				Msg("stream not available, will re-fetch streams")
			s.variants = nil
			if !s.wait(ctx, player) {
				return nil, nil, ""
			}
			continue
		}

		s.logger.Info().Str("variant", variant).Str("transport", src.TransportKind()).
			Msg("opening stream")
		rc, first, err := engine.Probe(ctx, src, variant, s.opts.ChunkSize)
		if err != nil {
			s.logger.Error().Err(err).Msg("failed to open stream")
			s.variants = nil
			continue
		}
		return rc, first, variant
	}
}

// wait sleeps for the resolve interval, returning early (false) when the
// player exits or ctx is cancelled.
func (s *Server) wait(ctx context.Context, player *sink.PlayerSink) bool {
	timer := time.NewTimer(s.opts.ResolveWait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-player.Done():
		return false
	case <-timer.C:
		return true
	}
}

// sessionSink decorates a sink with per-session byte accounting.
type sessionSink struct {
	sink.Sink
	sess *Session
}

func (w *sessionSink) Write(b []byte) (int, error) {
	n, err := w.Sink.Write(b)
	if n > 0 {
		w.sess.AddBytes(n)
	}
	return n, err
}
