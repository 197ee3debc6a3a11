// Command ttyplay replays a ttyrec transcript with pause, seek,
// variable-speed, and search controls.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/tty-session/ttyrec/internal/coalesce"
	"github.com/tty-session/ttyrec/internal/display"
	"github.com/tty-session/ttyrec/internal/event"
	"github.com/tty-session/ttyrec/internal/frames"
	"github.com/tty-session/ttyrec/internal/ingest"
	"github.com/tty-session/ttyrec/internal/input"
	"github.com/tty-session/ttyrec/internal/playback"
	"github.com/tty-session/ttyrec/pkg/config"
	"github.com/tty-session/ttyrec/pkg/logging"
	"github.com/tty-session/ttyrec/pkg/metrics"
	"github.com/tty-session/ttyrec/pkg/ttyrec"
)

var version = "dev"

// defaultSpeedExponent is the -s default: ratio = 2^4 = 16, real-time.
const defaultSpeedExponent = 4

// ratioFromExponent maps the CLI's -s <0..8> exponent onto the
// scheduler's integer ratio space (ratio = 2^s), clamping s to [0, 8]
// the way spec.md's CLI table describes.
func ratioFromExponent(s int) int {
	if s < 0 {
		s = 0
	}
	if s > 8 {
		s = 8
	}
	return 1 << uint(s)
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "ttyplay: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		file        = flag.String("f", "", "path to the transcript to replay (default: ttyrec)")
		clamp       = flag.String("clamp", "", "cap inter-frame delay growth, e.g. \"2s\" (0 disables)")
		paused      = flag.Bool("p", false, "start paused on the first frame")
		speed       = flag.Int("s", defaultSpeedExponent, "initial playback exponent 0..8; ratio = 2^s, 4 = real-time")
		metricsPort = flag.Int("metrics-port", 0, "serve Prometheus metrics on this port (0 disables)")
		configFile  = flag.String("config", config.DefaultConfigPath(), "path to an optional YAML config file")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println("ttyplay", version)
		return nil
	}

	cfg, err := config.LoadPlayerConfig(*configFile)
	if err != nil {
		return err
	}

	path := *file
	if path == "" {
		path = cfg.File
	}
	if path == "" {
		path = "ttyrec"
	}

	clampStr := *clamp
	if clampStr == "" {
		clampStr = cfg.Clamp
	}
	clampDur := config.ParseDuration(clampStr, 0)

	speedExp := *speed
	if !flagPassed("s") && cfg.Speed != 0 {
		speedExp = cfg.Speed
	}
	ratio := ratioFromExponent(speedExp)
	startPaused := *paused || cfg.Paused

	port := *metricsPort
	if port == 0 && cfg.Monitoring != nil && cfg.Monitoring.Enabled {
		port = cfg.Monitoring.Port
	}

	logCfg := logging.FromEnv()
	if cfg.Logging != nil {
		logCfg.Level = cfg.Logging.Level
		logCfg.Format = cfg.Logging.Format
		logCfg.Output = cfg.Logging.Output
	}
	logger := logging.NewLogger("ttyplay", logCfg)

	in, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open transcript %s: %w", path, err)
	}
	defer in.Close()

	var reg *metrics.Registry
	if port != 0 {
		reg = metrics.NewRegistry("ttyplay", version, logger)
		go func() {
			if err := reg.Serve(port); err != nil {
				logger.Warn("metrics server stopped", "error", err)
			}
		}()
	}

	rows, cols := 24, 80
	if w, h, err := term.GetSize(int(os.Stdin.Fd())); err == nil {
		rows, cols = h, w
	}

	state, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err == nil {
		defer term.Restore(int(os.Stdin.Fd()), state)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store := frames.New()
	events := make(chan event.Event, 64)
	actions := make(chan event.Action, 16)
	c := coalesce.New()

	reader := ttyrec.NewReader(in)
	var ingestObserver ingest.Observer
	var playbackObserver playback.Observer
	if reg != nil {
		ingestObserver = reg
		playbackObserver = reg
	}

	ing := newIngestor(reader, store, rows, cols, events, clampDur, logger, ingestObserver)
	sched := newScheduler(store, actions, events, ratio, startPaused, logger, playbackObserver)
	translator := input.New(os.Stdin, events)
	presenter := display.NewPresenter(os.Stdout, actions, display.WithLogger(logger), display.WithInitial(ratio, startPaused))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ing.Run(gctx) })
	g.Go(func() error { return sched.Run(gctx) })
	g.Go(func() error { return translator.Run(gctx) })
	g.Go(func() error { return forwardEvents(gctx, events, c) })
	if reg != nil {
		g.Go(func() error { return pollStoreDepth(gctx, store, reg) })
	}

	presentErr := presenter.Run(ctx, c)
	cancel()
	_ = g.Wait()

	if reg != nil {
		_ = reg.Shutdown(context.Background())
	}

	return presentErr
}

func newIngestor(r ingest.Reader, store *frames.Store, rows, cols int, events chan<- event.Event, clamp time.Duration, logger *slog.Logger, obs ingest.Observer) *ingest.Ingestor {
	opts := []ingest.Option{ingest.WithLogger(logger)}
	if clamp > 0 {
		opts = append(opts, ingest.WithClamp(clamp))
	}
	if obs != nil {
		opts = append(opts, ingest.WithObserver(obs))
	}
	return ingest.New(r, store, rows, cols, events, opts...)
}

func newScheduler(store *frames.Store, actions <-chan event.Action, events chan<- event.Event, ratio int, paused bool, logger *slog.Logger, obs playback.Observer) *playback.Scheduler {
	opts := []playback.Option{playback.WithLogger(logger)}
	if obs != nil {
		opts = append(opts, playback.WithObserver(obs))
	}
	return playback.New(store, actions, events, ratio, paused, opts...)
}

// forwardEvents drains the shared events channel into the coalescer
// until ctx is cancelled; it is the only goroutine that calls Push.
func forwardEvents(ctx context.Context, events <-chan event.Event, c *coalesce.Coalescer) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case e := <-events:
			c.Push(e)
		}
	}
}

// pollStoreDepth reports the frame store's depth to reg every time it
// grows, using WaitFor(count) as a blocking wait for the next append
// instead of a timed poll loop.
func pollStoreDepth(ctx context.Context, store *frames.Store, reg *metrics.Registry) error {
	for {
		count := store.Count()
		reg.SetStoreDepth(count)
		if !store.WaitFor(ctx, count) {
			return nil
		}
	}
}

func flagPassed(name string) bool {
	found := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}
