// Package playback implements the time-driven frame advancement state
// machine: pause/resume, seeks, variable speed, and search-seek, all
// serialized against arrival of new frames in the shared frame store.
package playback

import (
	"context"
	"log/slog"
	"time"

	"github.com/tty-session/ttyrec/internal/event"
	"github.com/tty-session/ttyrec/internal/frames"
)

// Ratios is the full set of valid playback ratios; 16 is real-time.
var Ratios = []int{1, 2, 4, 8, 16, 32, 64, 128, 256}

const (
	minRatio        = 1
	maxRatio        = 256
	defaultRatio    = 16
	forceUpdateBias = 200 * time.Millisecond
)

// Observer receives playback progress notifications, used to feed an
// optional metrics registry without coupling this package to it.
type Observer interface {
	FrameIndex(idx int)
	Ratio(ratio int)
	Paused(paused bool)
	Search(found bool)
}

type noopObserver struct{}

func (noopObserver) FrameIndex(int)  {}
func (noopObserver) Ratio(int)       {}
func (noopObserver) Paused(bool)     {}
func (noopObserver) Search(bool)     {}

// Scheduler owns the PlaybackState and drives frame transitions off a
// clock, racing the wait for a scheduled emission against the arrival
// of a new action on every iteration.
type Scheduler struct {
	store    *frames.Store
	actions  <-chan event.Action
	events   chan<- event.Event
	logger   *slog.Logger
	observer Observer

	now   func() time.Time
	after func(time.Duration) <-chan time.Time

	// state, owned solely by Run's goroutine.
	idx         int
	startTime   time.Time
	pausedTime  *time.Time
	forceUpdate bool
	ratio       int

	runCtx context.Context
}

// Option configures a Scheduler at construction time.
type Option func(*Scheduler)

// WithLogger overrides the scheduler's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = logger }
}

// WithClock overrides the scheduler's notion of "now" and its timer
// constructor, for deterministic tests.
func WithClock(now func() time.Time, after func(time.Duration) <-chan time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
		s.after = after
	}
}

// WithObserver registers o to receive playback progress notifications.
func WithObserver(o Observer) Option {
	return func(s *Scheduler) { s.observer = o }
}

// New builds a Scheduler over store, consuming actions and producing
// events, starting at frame 0 with the given initial ratio (clamped to
// [1,256]) and pause state.
func New(store *frames.Store, actions <-chan event.Action, events chan<- event.Event, initialRatio int, startPaused bool, opts ...Option) *Scheduler {
	if initialRatio < minRatio {
		initialRatio = minRatio
	}
	if initialRatio > maxRatio {
		initialRatio = maxRatio
	}

	s := &Scheduler{
		store:    store,
		actions:  actions,
		events:   events,
		logger:   slog.Default(),
		observer: noopObserver{},
		now:      time.Now,
		after:    time.After,
		ratio:    initialRatio,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.startTime = s.now()
	if startPaused {
		t := s.startTime
		s.pausedTime = &t
	}
	return s
}

// Run drives the scheduler until ctx is cancelled or a Quit action is
// received. It returns nil in both cases.
func (s *Scheduler) Run(ctx context.Context) error {
	s.runCtx = ctx
	for {
		readyCh, cancelWait := s.awaitFrame(ctx)

		select {
		case <-ctx.Done():
			cancelWait()
			return nil
		case ready := <-readyCh:
			if !ready {
				s.handleEndOfStream()
				continue
			}
			if quit := s.handleFrameReady(ctx); quit {
				return nil
			}
		case act, ok := <-s.actions:
			cancelWait()
			if !ok {
				return nil
			}
			if s.applyAction(act) {
				return nil
			}
		}
	}
}

// awaitFrame starts a background wait for the current idx and returns a
// channel that receives the result, plus a cancel func to abandon it
// early when an action preempts the wait.
func (s *Scheduler) awaitFrame(ctx context.Context) (<-chan bool, context.CancelFunc) {
	waitCtx, cancel := context.WithCancel(ctx)
	ch := make(chan bool, 1)
	idx := s.idx
	go func() {
		ch <- s.store.WaitFor(waitCtx, idx)
	}()
	return ch, cancel
}

// handleEndOfStream implements the wait_for=false branch: the store is
// finished and will never reach idx. The user is parked on the final
// frame, paused.
func (s *Scheduler) handleEndOfStream() {
	count := s.store.Count()
	if count == 0 {
		return
	}
	s.idx = count - 1
	now := s.now()
	s.pausedTime = &now
	s.emit(event.Paused(true))
}

// handleFrameReady implements the wait_for=true branch: the frame at
// idx exists. Depending on force_update/paused/normal state this either
// emits immediately, suspends until an action arrives, or sleeps until
// the scheduled instant — racing that sleep against the action channel
// exactly as it races the initial frame wait. It returns true if a Quit
// action was processed.
func (s *Scheduler) handleFrameReady(ctx context.Context) bool {
	frame, ok := s.store.Get(s.idx)
	if !ok {
		// Count shrank is impossible, but idx may have raced ahead of a
		// concurrently shrinking view; treat as not-yet-ready.
		return false
	}

	switch {
	case s.forceUpdate:
		now := s.now()
		s.startTime = now.Add(-scaledDelay(frame.Delay, s.ratio)).Add(forceUpdateBias)
		if s.pausedTime != nil {
			s.pausedTime = &now
		}
		s.forceUpdate = false
		s.emitTransition(frame)
		return false

	case s.pausedTime != nil:
		select {
		case <-ctx.Done():
			return false
		case act, ok := <-s.actions:
			if !ok {
				return false
			}
			return s.applyAction(act)
		}

	default:
		deadline := s.startTime.Add(scaledDelay(frame.Delay, s.ratio))
		d := deadline.Sub(s.now())
		select {
		case <-ctx.Done():
			return false
		case <-s.after(d):
			s.emitTransition(frame)
			return false
		case act, ok := <-s.actions:
			if !ok {
				return false
			}
			return s.applyAction(act)
		}
	}
}

// emitTransition presents frame and advances idx. A frame's Delay is
// the gap after the previous frame, so startTime moves forward to this
// frame's scheduled instant and the next frame is timed from there.
func (s *Scheduler) emitTransition(frame frames.Frame) {
	s.emit(event.FrameTransition(s.idx, frame.Screen))
	s.observer.FrameIndex(s.idx)
	s.startTime = s.startTime.Add(scaledDelay(frame.Delay, s.ratio))
	s.idx++
}

// scaledDelay applies the integer playback ratio: 16 is real-time, so
// a frame is due delay*ratio/16 after startTime.
func scaledDelay(delay time.Duration, ratio int) time.Duration {
	return delay * time.Duration(ratio) / defaultRatio
}

// applyAction handles one Action per the table in the component design;
// it returns true iff the action was Quit.
func (s *Scheduler) applyAction(act event.Action) bool {
	now := s.now()
	switch act.Kind {
	case event.ActionPause:
		if s.pausedTime != nil {
			s.startTime = s.startTime.Add(now.Sub(*s.pausedTime))
			s.pausedTime = nil
		} else {
			s.pausedTime = &now
		}
		s.observer.Paused(s.pausedTime != nil)
		s.emit(event.Paused(s.pausedTime != nil))

	case event.ActionFirstFrame:
		s.idx = 0
		s.forceUpdate = true

	case event.ActionLastFrame:
		s.idx = saturatingSub(s.store.Count(), 1)
		s.forceUpdate = true

	case event.ActionNextFrame:
		s.forceUpdate = true

	case event.ActionPreviousFrame:
		s.idx = saturatingSub(s.idx, 2)
		s.forceUpdate = true

	case event.ActionSpeedUp:
		if s.ratio > minRatio {
			elapsed := now.Sub(s.startTime)
			s.ratio /= 2
			s.startTime = now.Add(-elapsed / 2)
			s.observer.Ratio(s.ratio)
			s.emit(event.Speed(s.ratio))
		}

	case event.ActionSlowDown:
		if s.ratio < maxRatio {
			elapsed := now.Sub(s.startTime)
			s.ratio *= 2
			s.startTime = now.Add(-elapsed * 2)
			s.observer.Ratio(s.ratio)
			s.emit(event.Speed(s.ratio))
		}

	case event.ActionDefaultSpeed:
		elapsed := now.Sub(s.startTime)
		s.startTime = now.Add(-elapsed * defaultRatio / time.Duration(s.ratio))
		s.ratio = defaultRatio
		s.observer.Ratio(s.ratio)
		s.emit(event.Speed(s.ratio))

	case event.ActionSearch:
		result, ok := s.store.Search(s.idx, act.SearchQuery, act.SearchBackwards)
		s.observer.Search(ok)
		if ok {
			s.idx = result
			s.forceUpdate = true
		}

	case event.ActionQuit:
		return true
	}
	return false
}

func saturatingSub(a, b int) int {
	if a-b < 0 {
		return 0
	}
	return a - b
}

// emit sends e to the coalescer, yielding to context cancellation so
// Run can still shut down if the coalescer has already exited.
func (s *Scheduler) emit(e event.Event) {
	select {
	case s.events <- e:
	case <-s.runCtx.Done():
	}
}
