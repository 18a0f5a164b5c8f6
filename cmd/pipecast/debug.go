package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	pclog "github.com/pipecast/pipecast/internal/log"
	"github.com/pipecast/pipecast/internal/relay"
)

// debugServer exposes Prometheus metrics and the relay's live sessions on a
// separate listener. Optional; enabled with --debug-addr.
type debugServer struct {
	srv *http.Server
}

func newDebugServer(addr string, sessions *relay.Registry) *debugServer {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/sessions", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(sessions.Snapshot())
	})

	return &debugServer{
		srv: &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

func (d *debugServer) run(ctx context.Context) error {
	logger := pclog.WithComponent("debug")
	errCh := make(chan error, 1)
	go func() {
		errCh <- d.srv.ListenAndServe()
	}()
	logger.Info().Str("addr", d.srv.Addr).Msg("debug endpoint listening")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = d.srv.Shutdown(shutdownCtx)
		return nil
	}
}
