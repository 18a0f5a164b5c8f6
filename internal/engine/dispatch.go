package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pipecast/pipecast/internal/config"
	"github.com/pipecast/pipecast/internal/console"
	"github.com/pipecast/pipecast/internal/sink"
	"github.com/pipecast/pipecast/internal/stream"
)

// Outcome is the terminal result of one dispatch invocation.
type Outcome int

const (
	// OutcomeDelivered means output proceeded; Bytes holds the count.
	OutcomeDelivered Outcome = iota
	// OutcomeNoMatchingVariant means none of the requested names exist in
	// the variant set.
	OutcomeNoMatchingVariant
	// OutcomeAllCandidatesFailed means every candidate (primary plus
	// alternates) failed its probe.
	OutcomeAllCandidatesFailed
	// OutcomeFatalSink means the sink could not be opened; this aborts
	// the whole dispatch, not just one candidate.
	OutcomeFatalSink
	// OutcomeCommandLine means the source's fetch command was printed
	// instead of streaming.
	OutcomeCommandLine
	// OutcomeInterrupted means the user cancelled a running delivery; the
	// bytes relayed so far are still reported.
	OutcomeInterrupted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDelivered:
		return "delivered"
	case OutcomeNoMatchingVariant:
		return "no matching variant"
	case OutcomeAllCandidatesFailed:
		return "all candidates failed"
	case OutcomeFatalSink:
		return "fatal sink error"
	case OutcomeCommandLine:
		return "command line printed"
	case OutcomeInterrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}

// Result carries the outcome plus whatever context the caller needs to
// report it.
type Result struct {
	Outcome Outcome
	Bytes   int64
	Tried   []string // candidates attempted before giving up
	Err     error
}

// RelayRunner runs the continuous HTTP relay. The caller wires the relay
// server in so the engine stays free of listener and process concerns.
type RelayRunner interface {
	Serve(ctx context.Context, variants *stream.Variants, names []string) (int64, error)
}

// Dispatcher decides, per invocation, which sink to build and which
// candidate variant feeds it.
type Dispatcher struct {
	opts   config.Options
	con    *console.Console
	relay  RelayRunner
	logger zerolog.Logger
}

// NewDispatcher builds a dispatcher for one output configuration. relay may
// be nil when continuous HTTP output is not configured.
func NewDispatcher(opts config.Options, con *console.Console, relay RelayRunner, logger zerolog.Logger) *Dispatcher {
	if con == nil {
		con = console.New(nil)
	}
	return &Dispatcher{opts: opts.Normalize(), con: con, relay: relay, logger: logger}
}

// Dispatch delivers one of the requested variants to the configured output.
// Candidates are tried in order: the canonical name of the first requested
// name that exists, followed by its alternates.
func (d *Dispatcher) Dispatch(ctx context.Context, variants *stream.Variants, requested []string) Result {
	var chosen string
	for _, name := range requested {
		if _, ok := variants.Get(name); ok {
			chosen = name
			break
		}
	}
	if chosen == "" {
		return Result{
			Outcome: OutcomeNoMatchingVariant,
			Err: fmt.Errorf("the specified stream(s) %q could not be found; available streams: %s",
				strings.Join(requested, ", "), variants.Format()),
		}
	}

	d.logger.Info().Str("streams", variants.Format()).Msg("available streams")

	canonical := variants.Canonical(chosen)
	if d.opts.PrintCmdline {
		src, _ := variants.Get(canonical)
		return d.printCommandLine(src)
	}

	var tried []string
	for _, candidate := range variants.Candidates(chosen) {
		src, ok := variants.Get(candidate)
		if !ok {
			continue
		}
		transport := src.TransportKind()

		if d.passthroughEligible(src) {
			d.logger.Info().Str("variant", candidate).Str("transport", transport).Msg("opening stream")
			return d.passthrough(src)
		}

		if d.opts.ContinuousHTTP && !d.opts.FileOutput() {
			return d.runRelay(ctx, variants, requested)
		}

		d.logger.Info().Str("variant", candidate).Str("transport", transport).Msg("opening stream")
		res, done := d.outputOnce(ctx, candidate, src)
		if done {
			return res
		}
		tried = append(tried, candidate)
	}

	return Result{
		Outcome: OutcomeAllCandidatesFailed,
		Tried:   tried,
		Err:     fmt.Errorf("no candidate could be opened, tried: %s", strings.Join(tried, ", ")),
	}
}

// passthroughEligible reports whether the source should be handed to the
// player by reference instead of being byte-copied. File output always wins
// over passthrough.
func (d *Dispatcher) passthroughEligible(src stream.Source) bool {
	if d.opts.FileOutput() {
		return false
	}
	ref, ok := src.(stream.Referencer)
	if !ok || ref.URL() == "" {
		return false
	}
	transport := strings.ToLower(src.TransportKind())
	for _, allowed := range d.opts.Passthrough {
		if strings.ToLower(allowed) == transport {
			return true
		}
	}
	return false
}

// passthrough starts the player with the stream URL and waits for it to
// exit. A player that fails to start is fatal for the whole dispatch.
func (d *Dispatcher) passthrough(src stream.Source) Result {
	if d.opts.PlayerCommand == "" {
		return Result{Outcome: OutcomeFatalSink, Err: errNoPlayer}
	}
	url := src.(stream.Referencer).URL()

	player := sink.NewPlayerSink(sink.PlayerConfig{
		Command:  d.opts.PlayerCommand,
		Args:     d.opts.PlayerArgs,
		Delivery: sink.DeliverURL,
		URL:      url,
		Quiet:    !d.opts.VerbosePlayer,
		NoClose:  true, // the player owns its own lifetime here
		Logger:   d.logger,
	})

	d.logger.Info().Str("player", d.opts.PlayerCommand).Msg("starting player")
	if err := player.Open(); err != nil {
		return Result{
			Outcome: OutcomeFatalSink,
			Err:     fmt.Errorf("failed to start player %s: %w", d.opts.PlayerCommand, err),
		}
	}
	_ = player.Wait()
	return Result{Outcome: OutcomeDelivered}
}

func (d *Dispatcher) printCommandLine(src stream.Source) Result {
	cl, ok := src.(stream.CommandLiner)
	if !ok {
		return Result{Outcome: OutcomeFatalSink, Err: stream.ErrNoCommandLine}
	}
	cmdline, err := cl.CommandLine()
	if err != nil {
		return Result{Outcome: OutcomeFatalSink, Err: err}
	}
	d.con.Msg("%s", cmdline)
	return Result{Outcome: OutcomeCommandLine}
}

func (d *Dispatcher) runRelay(ctx context.Context, variants *stream.Variants, requested []string) Result {
	if d.relay == nil {
		return Result{
			Outcome: OutcomeFatalSink,
			Err:     errors.New("continuous HTTP output requested but no relay server is wired"),
		}
	}
	n, err := d.relay.Serve(ctx, variants, requested)
	switch {
	case errors.Is(err, context.Canceled):
		// A cancelled relay is the user hitting interrupt, not a fault.
		return Result{Outcome: OutcomeInterrupted, Bytes: n}
	case err != nil:
		return Result{Outcome: OutcomeFatalSink, Bytes: n, Err: err}
	}
	return Result{Outcome: OutcomeDelivered, Bytes: n}
}

var errNoPlayer = errors.New("no player configured; use --player or select a file output")

// outputOnce probes one candidate with retries, builds the sink, and runs
// the copy loop. The second return value is true when the dispatch is over,
// either delivered or fatally failed; false sends the policy to the next
// candidate.
func (d *Dispatcher) outputOnce(ctx context.Context, variant string, src stream.Source) (Result, bool) {
	var (
		rc    io.ReadCloser
		first []byte
	)
	for attempt := 0; attempt < d.opts.RetryOpen; attempt++ {
		var err error
		rc, first, err = Probe(ctx, src, variant, d.opts.ChunkSize)
		if err == nil {
			break
		}
		rc = nil
		d.logger.Error().Err(err).Str("variant", variant).Int("attempt", attempt+1).
			Msg("could not open stream")
	}
	if rc == nil {
		return Result{}, false
	}

	out, copyCfg, err := d.createSink()
	if err != nil {
		_ = rc.Close()
		return Result{Outcome: OutcomeFatalSink, Err: err}, true
	}
	defer func() {
		_ = out.Close()
	}()

	if err := out.Open(); err != nil {
		_ = rc.Close()
		if out.Kind() == sink.KindPlayer {
			err = fmt.Errorf("failed to start player %s: %w", d.opts.PlayerCommand, err)
		} else {
			err = fmt.Errorf("failed to open output: %w", err)
		}
		return Result{Outcome: OutcomeFatalSink, Err: err}, true
	}

	copyCfg.FirstChunk = first
	d.logger.Debug().Str("variant", variant).Msg("writing stream to output")
	n := Copy(rc, out, copyCfg)
	return Result{Outcome: OutcomeDelivered, Bytes: n}, true
}

// createSink builds the sink the options ask for: stdout, a file, or a
// player process (byte-fed or behind a one-shot local HTTP listener). It
// also prepares the matching copy-loop config so
// progress display and liveness polling stay keyed to the sink that was
// actually built.
func (d *Dispatcher) createSink() (sink.Sink, CopyConfig, error) {
	cfg := CopyConfig{ChunkSize: d.opts.ChunkSize, Console: d.con, Logger: d.logger}

	switch {
	case d.opts.FilePath == "-" || (d.opts.FilePath == "" && d.opts.Stdout):
		return sink.NewFDSink(os.Stdout), cfg, nil

	case d.opts.FilePath != "":
		fs := sink.NewFileSink(d.opts.FilePath, d.opts.Force)
		cfg.ShowProgress = d.opts.ShowProgress && fs.ShowProgress()
		return fs, cfg, nil

	default:
		if d.opts.PlayerCommand == "" {
			return nil, cfg, errNoPlayer
		}
		pc := sink.PlayerConfig{
			Command: d.opts.PlayerCommand,
			Args:    d.opts.PlayerArgs,
			Quiet:   !d.opts.VerbosePlayer,
			NoClose: d.opts.PlayerNoClose,
			Logger:  d.logger,
		}
		d.logger.Info().Str("player", d.opts.PlayerCommand).Msg("starting player")

		if d.opts.PlayerHTTP {
			return sink.NewHTTPPlayerSink(pc, d.opts.AcceptPoll), cfg, nil
		}

		pc.Delivery = sink.DeliverStdin
		if d.opts.PlayerFIFO {
			pc.Delivery = sink.DeliverFIFO
		}
		ps := sink.NewPlayerSink(pc)
		if ps.PipeFed() {
			cfg.PlayerAlive = ps.Running
		}
		return ps, cfg, nil
	}
}
