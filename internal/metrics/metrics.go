// Package metrics provides Prometheus metrics for the dispatch and relay
// engine. Label cardinality is kept low on purpose: no variant names, no
// session IDs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BytesRelayed counts payload bytes written to sinks, by sink kind.
	BytesRelayed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pipecast_bytes_relayed_total",
		Help: "Total number of stream bytes written to output sinks, by sink kind.",
	}, []string{"sink"})

	// ProbeAttempts counts prebuffer probe attempts by result
	// (ok/open_error/read_error/empty).
	ProbeAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pipecast_probe_attempts_total",
		Help: "Total number of prebuffer probe attempts, by result.",
	}, []string{"result"})

	// CopySessions counts finished copy-loop runs by termination cause
	// (eof/read_error/write_error/consumer_closed/player_closed).
	CopySessions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pipecast_copy_sessions_total",
		Help: "Total number of completed copy-loop sessions, by termination cause.",
	}, []string{"cause"})

	// RelaySessionsActive tracks currently streaming relay sessions.
	RelaySessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pipecast_relay_sessions_active",
		Help: "Number of relay client connections currently being fed.",
	})

	// RelayResolves counts source (re-)resolutions performed by the relay,
	// by result.
	RelayResolves = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pipecast_relay_resolves_total",
		Help: "Total number of variant set resolutions performed by the relay, by result.",
	}, []string{"result"})
)

const (
	ProbeOK        = "ok"
	ProbeOpenError = "open_error"
	ProbeReadError = "read_error"
	ProbeEmpty     = "empty"

	CauseEOF            = "eof"
	CauseReadError      = "read_error"
	CauseWriteError     = "write_error"
	CauseConsumerClosed = "consumer_closed"
	CausePlayerClosed   = "player_closed"
)
