// Package ingest drives a ttyrec codec reader into a frame store,
// applying the clamp rule and announcing progress as it goes.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/tty-session/ttyrec/internal/event"
	"github.com/tty-session/ttyrec/internal/frames"
	"github.com/tty-session/ttyrec/internal/vt"
	"github.com/tty-session/ttyrec/pkg/ttyrec"
)

// Reader is the subset of *ttyrec.Reader the ingestor depends on. The
// per-frame delay is computed from the incremental delta between
// consecutive records (see the clamp rule below), so Offset has no
// caller here and is deliberately left off this narrower interface.
type Reader interface {
	ReadFrame() (ttyrec.Frame, error)
}

// Observer receives ingest progress notifications. It is used to feed
// an optional metrics registry without coupling this package to any
// particular metrics library.
type Observer interface {
	FrameIngested()
	FrameClamped(amount time.Duration)
	IngestDone()
}

type noopObserver struct{}

func (noopObserver) FrameIngested()             {}
func (noopObserver) FrameClamped(time.Duration) {}
func (noopObserver) IngestDone()                {}

// Ingestor reads codec frames, drives a VT parser, and appends parsed
// frames to a Store, clamping large inter-frame gaps along the way.
type Ingestor struct {
	reader   Reader
	store    *frames.Store
	parser   *vt.Parser
	events   chan<- event.Event
	logger   *slog.Logger
	observer Observer

	clamp time.Duration
}

// Option configures an Ingestor at construction time.
type Option func(*Ingestor)

// WithClamp caps the effective inter-frame delay at prevDelay+clamp.
// A zero clamp disables the rule.
func WithClamp(clamp time.Duration) Option {
	return func(i *Ingestor) { i.clamp = clamp }
}

// WithLogger overrides the ingestor's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Ingestor) { i.logger = logger }
}

// WithObserver registers o to receive ingest progress notifications.
func WithObserver(o Observer) Option {
	return func(i *Ingestor) { i.observer = o }
}

// New builds an Ingestor reading codec frames via r, parsing them with
// a terminal of the given size, appending to store and publishing
// progress on events.
func New(r Reader, store *frames.Store, rows, cols int, events chan<- event.Event, opts ...Option) *Ingestor {
	ing := &Ingestor{
		reader:   r,
		store:    store,
		parser:   vt.NewParser(rows, cols),
		events:   events,
		logger:   slog.Default(),
		observer: noopObserver{},
	}
	for _, opt := range opts {
		opt(ing)
	}
	return ing
}

// Run reads until EOF or ctx is cancelled, appending every parsed frame
// to the store and emitting a FrameLoaded event after each one. On
// clean end of stream it finalizes the store and emits the final
// FrameLoaded(done) event. It returns a non-nil error for I/O or codec
// failures distinct from end of stream, and ctx.Err() when ctx is
// cancelled; in both cases the store is finalized first.
func (ing *Ingestor) Run(ctx context.Context) error {
	var (
		prevTime      time.Duration
		havePrevTime  bool
		prevEffective time.Duration
		clampedAmount time.Duration
		count         int
	)

	for {
		select {
		case <-ctx.Done():
			ing.store.Finish()
			return ctx.Err()
		default:
		}

		f, err := ing.reader.ReadFrame()
		if err != nil {
			if errors.Is(err, io.EOF) {
				ing.store.Finish()
				ing.observer.IngestDone()
				ing.emit(ctx, event.FrameLoaded(count, true))
				ing.logger.Info("ingest complete", "frames", count, "clamped", clampedAmount)
				return nil
			}
			ing.store.Finish()
			return fmt.Errorf("ingest: read frame: %w", err)
		}

		var raw time.Duration
		if havePrevTime {
			raw = f.Time - prevTime
		}
		prevTime = f.Time
		havePrevTime = true

		effective := raw
		if ing.clamp > 0 && count > 0 {
			ceiling := prevEffective + ing.clamp
			if effective > ceiling {
				removed := effective - ceiling
				clampedAmount += removed
				effective = ceiling
				ing.observer.FrameClamped(removed)
			}
		}
		prevEffective = effective

		ing.parser.Process(f.Data)
		screen := ing.parser.Screen()
		ing.store.Append(frames.Frame{Screen: screen, Delay: effective})
		count++
		ing.observer.FrameIngested()
		ing.emit(ctx, event.FrameLoaded(count, false))
	}
}

// emit sends e to the coalescer, or returns early if ctx is cancelled
// first; the coalescer is the steady-state's only consumer and is
// expected to outlive every producer until quit.
func (ing *Ingestor) emit(ctx context.Context, e event.Event) {
	select {
	case ing.events <- e:
	case <-ctx.Done():
	}
}
