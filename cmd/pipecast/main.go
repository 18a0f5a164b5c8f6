// Command pipecast delivers a live stream to a file, a player process, or a
// local HTTP relay, with failover across alternate stream variants.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/pipecast/pipecast/internal/config"
	"github.com/pipecast/pipecast/internal/console"
	"github.com/pipecast/pipecast/internal/engine"
	pclog "github.com/pipecast/pipecast/internal/log"
	"github.com/pipecast/pipecast/internal/relay"
	"github.com/pipecast/pipecast/internal/resolver"
	"github.com/pipecast/pipecast/internal/stream"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("pipecast", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: pipecast [flags] URL [STREAM...]\n\n")
		fs.PrintDefaults()
	}

	var (
		showVersion = fs.Bool("version", false, "print version and exit")
		configPath  = fs.String("config", "", "path to config file (YAML)")
		logLevel    = fs.String("loglevel", "info", "log level (debug, info, warn, error)")
		debugAddr   = fs.String("debug-addr", "", "serve metrics and session status on this address")

		output       = fs.String("output", "", "write stream to this file, \"-\" for stdout")
		stdout       = fs.Bool("stdout", false, "write stream to stdout")
		force        = fs.Bool("force", false, "overwrite an existing output file")
		player       = fs.String("player", "", "player command to launch")
		playerArgs   = fs.String("player-args", "", "extra player arguments, space separated")
		playerFIFO   = fs.Bool("player-fifo", false, "feed the player through a named pipe")
		playerNoCl   = fs.Bool("player-no-close", false, "leave the player running on exit")
		verbosePl    = fs.Bool("verbose-player", false, "show player output")
		playerHTTP   = fs.Bool("player-http", false, "serve the stream to the player over a one-shot local HTTP connection")
		continuous   = fs.Bool("player-continuous-http", false, "serve the stream to the player over a local HTTP relay")
		jsonOut      = fs.Bool("json", false, "print stream information as JSON instead of streaming")
		passthrough  = fs.String("player-passthrough", "", "transport kinds handed to the player by URL, comma separated")
		printCmdline = fs.Bool("subprocess-cmdline", false, "print the stream's fetch command instead of streaming")
		retryOpen    = fs.Int("retry-open", config.DefaultRetryOpen, "probe attempts per stream candidate")
		retryStreams = fs.Duration("retry-streams", 0, "retry resolving until streams appear, at this interval")
		chunkSize    = fs.Int("chunk-size", config.DefaultChunkSize, "copy chunk size in bytes")
		noProgress   = fs.Bool("no-progress", false, "disable the written-bytes progress display")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *showVersion {
		fmt.Printf("pipecast %s (commit %s)\n", version, commit)
		return 0
	}

	pclog.Configure(pclog.Config{Level: *logLevel, Service: "pipecast"})
	logger := pclog.WithComponent("cli")
	con := console.New(os.Stderr)

	opts := config.Default()
	if *configPath != "" {
		var err error
		opts, err = config.LoadFile(*configPath, opts, true)
		if err != nil {
			con.Msg("error: %v", err)
			return 1
		}
	}
	opts = config.FromEnv(opts)

	// Flags set on the command line win over file and environment.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "output":
			opts.FilePath = *output
		case "stdout":
			opts.Stdout = *stdout
		case "force":
			opts.Force = *force
		case "player":
			opts.PlayerCommand = *player
		case "player-args":
			opts.PlayerArgs = strings.Fields(*playerArgs)
		case "player-fifo":
			opts.PlayerFIFO = *playerFIFO
		case "player-no-close":
			opts.PlayerNoClose = *playerNoCl
		case "verbose-player":
			opts.VerbosePlayer = *verbosePl
		case "player-http":
			opts.PlayerHTTP = *playerHTTP
		case "player-continuous-http":
			opts.ContinuousHTTP = *continuous
		case "player-passthrough":
			opts.Passthrough = splitList(*passthrough)
		case "subprocess-cmdline":
			opts.PrintCmdline = *printCmdline
		case "retry-open":
			opts.RetryOpen = *retryOpen
		case "retry-streams":
			opts.RetryStreams = *retryStreams
		case "chunk-size":
			opts.ChunkSize = *chunkSize
		case "no-progress":
			opts.ShowProgress = !*noProgress
		}
	})
	opts = opts.Normalize()

	if fs.NArg() < 1 {
		fs.Usage()
		return 2
	}
	target := fs.Arg(0)
	names := make([]string, 0, fs.NArg()-1)
	for _, name := range fs.Args()[1:] {
		names = append(names, strings.ToLower(name))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res := resolver.Direct{}
	rly := relay.New(relay.Config{
		Opts:     opts,
		Resolver: res,
		Target:   target,
		Logger:   pclog.WithComponent("relay"),
	})

	g, ctx := errgroup.WithContext(ctx)
	if *debugAddr != "" {
		srv := newDebugServer(*debugAddr, rly.Sessions())
		g.Go(func() error { return srv.run(ctx) })
	}

	code := 0
	g.Go(func() error {
		defer stop()
		code = dispatch(ctx, res, rly, target, names, opts, con, logger, *jsonOut)
		return nil
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("shutdown error")
		if code == 0 {
			code = 1
		}
	}
	return code
}

func dispatch(ctx context.Context, res resolver.Resolver, rly *relay.Server, target string, names []string, opts config.Options, con *console.Console, logger zerolog.Logger, jsonOut bool) int {
	variants, err := resolveTarget(ctx, res, target, opts, logger)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			con.Msg("Interrupted")
			return 0
		}
		con.Msg("error: %v", err)
		return 1
	}

	if jsonOut {
		return printJSON(con, variants, names)
	}
	if len(names) == 0 {
		con.Msg("Available streams: %s", variants.Format())
		return 0
	}

	d := engine.NewDispatcher(opts, con, rly, pclog.WithComponent("dispatch"))
	result := d.Dispatch(ctx, variants, names)
	switch result.Outcome {
	case engine.OutcomeDelivered, engine.OutcomeCommandLine:
		return 0
	case engine.OutcomeInterrupted:
		con.Msg("Interrupted")
		return 0
	default:
		if result.Err != nil {
			con.Msg("error: %v", result.Err)
		} else {
			con.Msg("error: %s", result.Outcome)
		}
		return 1
	}
}

// printJSON renders stream information for machine consumption: the variant
// listing when no names were requested, or the chosen stream's details.
// Nothing is streamed in this mode.
func printJSON(con *console.Console, variants *stream.Variants, names []string) int {
	if len(names) == 0 {
		data, err := json.Marshal(variants)
		if err != nil {
			con.Msg("error: %v", err)
			return 1
		}
		con.Msg("%s", data)
		return 0
	}

	for _, name := range names {
		src, ok := variants.Get(name)
		if !ok {
			continue
		}
		info := map[string]string{
			"name":      variants.Canonical(name),
			"transport": src.TransportKind(),
		}
		if ref, ok := src.(stream.Referencer); ok && ref.URL() != "" {
			info["url"] = ref.URL()
		}
		data, _ := json.Marshal(info)
		con.Msg("%s", data)
		return 0
	}

	data, _ := json.Marshal(map[string]string{
		"error": fmt.Sprintf("the specified stream(s) %s could not be found", strings.Join(names, ", ")),
	})
	con.Msg("%s", data)
	return 1
}

func resolveTarget(ctx context.Context, res resolver.Resolver, target string, opts config.Options, logger zerolog.Logger) (*stream.Variants, error) {
	if opts.RetryStreams > 0 {
		return resolver.WaitResolve(ctx, res, target, opts.RetryStreams, logger)
	}
	variants, err := res.Resolve(ctx, target)
	if err != nil {
		return nil, err
	}
	if variants.Len() == 0 {
		return nil, fmt.Errorf("%w: %s", resolver.ErrNoVariants, target)
	}
	return variants, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
