package config

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/pipecast/pipecast/internal/log"
)

// ParseString reads a string from an environment variable or returns the
// default value. The source is logged at debug level for observability.
func ParseString(key, defaultValue string) string {
	return parseString(log.WithComponent("config"), key, defaultValue)
}

func parseString(logger zerolog.Logger, key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		logger.Debug().Str("key", key).Str("value", value).
			Str("source", "environment").Msg("using environment variable")
		return value
	}
	logger.Debug().Str("key", key).Str("default", defaultValue).
		Str("source", "default").Msg("using default value")
	return defaultValue
}

// ParseInt reads an integer from an environment variable or returns the
// default value. Unparseable values fall back to the default with a warning.
func ParseInt(key string, defaultValue int) int {
	logger := log.WithComponent("config")
	raw, exists := os.LookupEnv(key)
	if !exists || raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		logger.Warn().Str("key", key).Str("value", raw).Int("default", defaultValue).
			Msg("invalid integer in environment variable, using default")
		return defaultValue
	}
	return value
}

// ParseBool reads a boolean from an environment variable or returns the
// default value.
func ParseBool(key string, defaultValue bool) bool {
	logger := log.WithComponent("config")
	raw, exists := os.LookupEnv(key)
	if !exists || raw == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		logger.Warn().Str("key", key).Str("value", raw).Bool("default", defaultValue).
			Msg("invalid boolean in environment variable, using default")
		return defaultValue
	}
	return value
}

// ParseDuration reads a duration ("10s", "2500ms") from an environment
// variable or returns the default value.
func ParseDuration(key string, defaultValue time.Duration) time.Duration {
	logger := log.WithComponent("config")
	raw, exists := os.LookupEnv(key)
	if !exists || raw == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		logger.Warn().Str("key", key).Str("value", raw).Dur("default", defaultValue).
			Msg("invalid duration in environment variable, using default")
		return defaultValue
	}
	return value
}

// FromEnv overlays PIPECAST_* environment variables onto opts.
func FromEnv(opts Options) Options {
	opts.FilePath = ParseString("PIPECAST_OUTPUT", opts.FilePath)
	opts.Stdout = ParseBool("PIPECAST_STDOUT", opts.Stdout)
	opts.PlayerCommand = ParseString("PIPECAST_PLAYER", opts.PlayerCommand)
	opts.RetryOpen = ParseInt("PIPECAST_RETRY_OPEN", opts.RetryOpen)
	opts.RetryStreams = ParseDuration("PIPECAST_RETRY_STREAMS", opts.RetryStreams)
	opts.ChunkSize = ParseInt("PIPECAST_CHUNK_SIZE", opts.ChunkSize)
	opts.AcceptPoll = ParseDuration("PIPECAST_ACCEPT_POLL", opts.AcceptPoll)
	opts.ResolveWait = ParseDuration("PIPECAST_RESOLVE_WAIT", opts.ResolveWait)
	return opts
}
