// Package event defines the single event vocabulary that flows between
// the ingestor, the playback scheduler, the input translator, the
// coalescer, and the presenter. Every producer writes Events onto one
// shared channel; the coalescer is the sole consumer and decides, per
// spec, which slot each Event lands in before handing a merged stream
// to the presenter.
package event

import "github.com/tty-session/ttyrec/internal/vt"

// Kind discriminates the payload carried by an Event.
type Kind int

const (
	// KindFrameTransition carries the newly-current frame.
	KindFrameTransition Kind = iota
	// KindFrameLoaded carries ingest progress (count, or done).
	KindFrameLoaded
	// KindPaused carries the new paused state.
	KindPaused
	// KindSpeed carries the new playback ratio.
	KindSpeed
	// KindActiveSearch carries the in-progress search buffer contents.
	KindActiveSearch
	// KindCancelSearch signals the user aborted search entry.
	KindCancelSearch
	// KindRunSearch carries a completed search request.
	KindRunSearch
	// KindToggleUI toggles chrome visibility.
	KindToggleUI
	// KindToggleHelp toggles the help panel.
	KindToggleHelp
	// KindError carries a fatal error.
	KindError
	// KindQuit requests shutdown.
	KindQuit
	// KindTimerAction wraps an Action destined for the scheduler.
	KindTimerAction
)

// Action is a request submitted to the playback scheduler. The input
// translator produces them wrapped in TimerAction events, and the
// presenter forwards them (and builds ActionSearch from a RunSearch).
type Action struct {
	Kind            ActionKind
	SearchQuery     string
	SearchBackwards bool
}

// ActionKind discriminates an Action's meaning.
type ActionKind int

const (
	ActionPause ActionKind = iota
	ActionFirstFrame
	ActionLastFrame
	ActionNextFrame
	ActionPreviousFrame
	ActionSpeedUp
	ActionSlowDown
	ActionDefaultSpeed
	ActionSearch
	ActionQuit
)

// Event is the single message type produced by the ingestor, scheduler,
// and input translator, and consumed by the coalescer.
type Event struct {
	Kind Kind

	// KindFrameTransition
	FrameIndex int
	Screen     vt.Screen

	// KindFrameLoaded
	Count int
	Done  bool

	// KindPaused
	Paused bool

	// KindSpeed
	Ratio int

	// KindActiveSearch / KindRunSearch
	SearchBuffer    string
	SearchBackwards bool

	// KindError
	Err error

	// KindTimerAction
	Action Action
}

// FrameTransition builds a KindFrameTransition event.
func FrameTransition(idx int, screen vt.Screen) Event {
	return Event{Kind: KindFrameTransition, FrameIndex: idx, Screen: screen}
}

// FrameLoaded builds a KindFrameLoaded event. done is true once the
// ingestor has finished reading the underlying file.
func FrameLoaded(count int, done bool) Event {
	return Event{Kind: KindFrameLoaded, Count: count, Done: done}
}

// Paused builds a KindPaused event.
func Paused(paused bool) Event {
	return Event{Kind: KindPaused, Paused: paused}
}

// Speed builds a KindSpeed event.
func Speed(ratio int) Event {
	return Event{Kind: KindSpeed, Ratio: ratio}
}

// ActiveSearch builds a KindActiveSearch event.
func ActiveSearch(buf string) Event {
	return Event{Kind: KindActiveSearch, SearchBuffer: buf}
}

// CancelSearch builds a KindCancelSearch event.
func CancelSearch() Event {
	return Event{Kind: KindCancelSearch}
}

// RunSearch builds a KindRunSearch event.
func RunSearch(query string, backwards bool) Event {
	return Event{Kind: KindRunSearch, SearchBuffer: query, SearchBackwards: backwards}
}

// ToggleUI builds a KindToggleUI event.
func ToggleUI() Event {
	return Event{Kind: KindToggleUI}
}

// ToggleHelp builds a KindToggleHelp event.
func ToggleHelp() Event {
	return Event{Kind: KindToggleHelp}
}

// Error builds a KindError event.
func Error(err error) Event {
	return Event{Kind: KindError, Err: err}
}

// Quit builds a KindQuit event.
func Quit() Event {
	return Event{Kind: KindQuit}
}

// TimerAction builds a KindTimerAction event wrapping action.
func TimerAction(action Action) Event {
	return Event{Kind: KindTimerAction, Action: action}
}
