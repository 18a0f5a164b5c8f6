// Package config builds the explicit Options value consumed by the dispatch
// policy and the relay server. There is no ambient global configuration;
// callers construct Options once and pass it down.
package config

import "time"

// Defaults for tunables that are rarely overridden.
const (
	DefaultChunkSize   = 8192
	DefaultRetryOpen   = 1
	DefaultAcceptPoll  = 2500 * time.Millisecond
	DefaultResolveWait = 10 * time.Second
)

// Options is the full output configuration for one dispatch invocation.
type Options struct {
	// Output selection. FilePath takes priority over player output;
	// "-" means stdout, as does Stdout.
	FilePath string `yaml:"file_path"`
	Stdout   bool   `yaml:"stdout"`
	Force    bool   `yaml:"force"` // overwrite an existing output file

	// Player invocation.
	PlayerCommand string   `yaml:"player"`
	PlayerArgs    []string `yaml:"player_args"`
	PlayerFIFO    bool     `yaml:"player_fifo"`     // feed via named pipe instead of stdin
	PlayerNoClose bool     `yaml:"player_no_close"` // leave the player running on exit
	VerbosePlayer bool     `yaml:"verbose_player"`

	// Dispatch behaviour.
	ContinuousHTTP bool     `yaml:"player_continuous_http"`
	PlayerHTTP     bool     `yaml:"player_http"`        // one-shot local HTTP delivery to the player
	Passthrough    []string `yaml:"player_passthrough"` // transport kinds handed to the player by reference
	PrintCmdline   bool     `yaml:"subprocess_cmdline"` // print the source's fetch command instead of streaming

	// Retry tuning.
	RetryOpen    int           `yaml:"retry_open"`    // probe attempts per candidate
	RetryStreams time.Duration `yaml:"retry_streams"` // resolve-until-available interval, 0 disables

	// Copy loop.
	ChunkSize    int  `yaml:"chunk_size"`
	ShowProgress bool `yaml:"progress"`

	// Relay timings.
	AcceptPoll  time.Duration `yaml:"accept_poll"`
	ResolveWait time.Duration `yaml:"resolve_wait"`
}

// Default returns Options with every tunable at its reference value.
func Default() Options {
	return Options{
		RetryOpen:    DefaultRetryOpen,
		ChunkSize:    DefaultChunkSize,
		ShowProgress: true,
		AcceptPoll:   DefaultAcceptPoll,
		ResolveWait:  DefaultResolveWait,
	}
}

// FileOutput reports whether a file (or stdout) destination was requested.
// File output takes priority over any player-based delivery.
func (o Options) FileOutput() bool {
	return o.FilePath != "" || o.Stdout
}

// Normalize clamps zero or negative tunables back to their defaults.
func (o Options) Normalize() Options {
	if o.RetryOpen <= 0 {
		o.RetryOpen = DefaultRetryOpen
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.AcceptPoll <= 0 {
		o.AcceptPoll = DefaultAcceptPoll
	}
	if o.ResolveWait <= 0 {
		o.ResolveWait = DefaultResolveWait
	}
	return o
}
