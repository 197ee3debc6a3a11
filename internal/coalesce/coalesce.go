// Package coalesce merges the events produced by the ingestor,
// scheduler, and input translator into a single ordered stream for a
// presenter, collapsing redundant updates between consumer wakeups.
package coalesce

import (
	"context"
	"sync"

	"github.com/tty-session/ttyrec/internal/event"
)

// Coalescer is a single-consumer merge point. Producers call Push from
// any number of goroutines; exactly one consumer should call Next in a
// loop. Concurrent Next callers are not supported — see the design
// note on lock discipline.
type Coalescer struct {
	mu sync.Mutex

	frameTransition *event.Event
	frameLoaded     *event.Event
	paused          *bool
	speed           *int
	activeSearch    *string
	runSearch       *event.Event
	err             error
	quit            bool
	timerQueue      []event.Action
	uiPending       bool
	helpPending     bool
	cancelPending   bool

	waitCh chan struct{}
}

// New creates an empty Coalescer.
func New() *Coalescer {
	return &Coalescer{waitCh: make(chan struct{})}
}

// Push enqueues e, applying the latest-wins, one-shot-toggle, and
// search-entry merge rules before waking a blocked Next.
func (c *Coalescer) Push(e event.Event) {
	c.mu.Lock()
	switch e.Kind {
	case event.KindFrameTransition:
		ev := e
		c.frameTransition = &ev
	case event.KindFrameLoaded:
		ev := e
		c.frameLoaded = &ev
	case event.KindPaused:
		v := e.Paused
		c.paused = &v
	case event.KindSpeed:
		v := e.Ratio
		c.speed = &v
	case event.KindActiveSearch:
		v := e.SearchBuffer
		c.activeSearch = &v
		c.cancelPending = false
		c.runSearch = nil
	case event.KindCancelSearch:
		c.activeSearch = nil
		c.runSearch = nil
		c.cancelPending = true
	case event.KindRunSearch:
		c.activeSearch = nil
		c.cancelPending = false
		ev := e
		c.runSearch = &ev
	case event.KindToggleUI:
		c.uiPending = !c.uiPending
	case event.KindToggleHelp:
		c.helpPending = !c.helpPending
	case event.KindError:
		c.err = e.Err
	case event.KindQuit:
		c.quit = true
	case event.KindTimerAction:
		c.timerQueue = append(c.timerQueue, e.Action)
	}
	c.publishLocked()
	c.mu.Unlock()
}

func (c *Coalescer) publishLocked() {
	close(c.waitCh)
	c.waitCh = make(chan struct{})
}

// Next blocks until an event is available and returns it, or returns
// false if ctx is cancelled first. Per call it surfaces exactly one
// event, chosen by the deterministic drain priority: error, quit,
// queued timer-actions (FIFO), active-search, cancel-search,
// run-search, UI toggle, help toggle, paused, speed, frame-loaded,
// frame-transition.
func (c *Coalescer) Next(ctx context.Context) (event.Event, bool) {
	for {
		c.mu.Lock()
		if ev, ok := c.drainLocked(); ok {
			c.mu.Unlock()
			return ev, true
		}
		ch := c.waitCh
		c.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return event.Event{}, false
		}
	}
}

func (c *Coalescer) drainLocked() (event.Event, bool) {
	if c.err != nil {
		err := c.err
		c.err = nil
		return event.Error(err), true
	}
	if c.quit {
		c.quit = false
		return event.Quit(), true
	}
	if len(c.timerQueue) > 0 {
		act := c.timerQueue[0]
		c.timerQueue = c.timerQueue[1:]
		return event.TimerAction(act), true
	}
	if c.activeSearch != nil {
		buf := *c.activeSearch
		c.activeSearch = nil
		return event.ActiveSearch(buf), true
	}
	if c.cancelPending {
		c.cancelPending = false
		return event.CancelSearch(), true
	}
	if c.runSearch != nil {
		ev := *c.runSearch
		c.runSearch = nil
		return ev, true
	}
	if c.uiPending {
		c.uiPending = false
		return event.ToggleUI(), true
	}
	if c.helpPending {
		c.helpPending = false
		return event.ToggleHelp(), true
	}
	if c.paused != nil {
		v := *c.paused
		c.paused = nil
		return event.Paused(v), true
	}
	if c.speed != nil {
		v := *c.speed
		c.speed = nil
		return event.Speed(v), true
	}
	if c.frameLoaded != nil {
		ev := *c.frameLoaded
		c.frameLoaded = nil
		return ev, true
	}
	if c.frameTransition != nil {
		ev := *c.frameTransition
		c.frameTransition = nil
		return ev, true
	}
	return event.Event{}, false
}
