// Package display owns the presenter's pure view state and renders it,
// plus the terminal screen it is overlaid on, to an output device.
package display

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/tty-session/ttyrec/internal/coalesce"
	"github.com/tty-session/ttyrec/internal/event"
	"github.com/tty-session/ttyrec/internal/vt"
)

const (
	blackOnRed  = "\033[30;41m"
	blackOnCyan = "\033[30;46m"
	reset       = "\033[0m"
	realTime    = 16
)

var helpPanel = []string{
	" q quit   space pause   tab toggle ui   ? toggle help ",
	" 0 first  $ last        h prev          l next         ",
	" + faster - slower      = real-time                    ",
	" / search n next-match  p prev-match                   ",
}

// DisplayState is the presenter's pure view data: everything needed to
// render the current frame with chrome, independent of how it got
// there.
type DisplayState struct {
	FrameIndex   int
	Total        int
	DoneLoading  bool
	Paused       bool
	Ratio        int
	UIVisible    bool
	HelpVisible  bool
	SearchBuffer *string
}

// Presenter owns the DisplayState, applies incoming events to it, and
// renders to out after each one. TimerAction events carry no view
// change; the presenter forwards their wrapped Action to the scheduler
// so that a single consumer preserves the submission order the
// scheduler requires.
type Presenter struct {
	out      io.Writer
	actions  chan<- event.Action
	logger   *slog.Logger
	state    DisplayState
	screen   vt.Screen
	haveShot bool
}

// NewPresenter builds a Presenter writing to out and forwarding
// TimerAction events to actions.
func NewPresenter(out io.Writer, actions chan<- event.Action, opts ...Option) *Presenter {
	p := &Presenter{
		out:     out,
		actions: actions,
		logger:  slog.Default(),
		state:   DisplayState{UIVisible: true, Ratio: realTime},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Option configures a Presenter at construction time.
type Option func(*Presenter)

// WithLogger overrides the presenter's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Presenter) { p.logger = logger }
}

// WithInitial seeds the initial ratio and paused flag, matching CLI
// flags given at startup.
func WithInitial(ratio int, paused bool) Option {
	return func(p *Presenter) {
		p.state.Ratio = ratio
		p.state.Paused = paused
	}
}

// State returns a copy of the current display state, for tests and
// diagnostics.
func (p *Presenter) State() DisplayState { return p.state }

// Run drains c until ctx is cancelled or a quit/error event is
// processed, rendering after every event. It returns the error carried
// by a KindError event, if any, or nil on a clean Quit or context
// cancellation.
func (p *Presenter) Run(ctx context.Context, c *coalesce.Coalescer) error {
	for {
		e, ok := c.Next(ctx)
		if !ok {
			return nil
		}

		quit, err := p.apply(ctx, e)
		if err != nil {
			return err
		}
		if renderErr := p.render(); renderErr != nil {
			return renderErr
		}
		if quit {
			return nil
		}
	}
}

func (p *Presenter) apply(ctx context.Context, e event.Event) (quit bool, err error) {
	switch e.Kind {
	case event.KindFrameTransition:
		p.state.FrameIndex = e.FrameIndex
		p.screen = e.Screen
		p.haveShot = true
	case event.KindFrameLoaded:
		p.state.Total = e.Count
		p.state.DoneLoading = e.Done
	case event.KindPaused:
		p.state.Paused = e.Paused
	case event.KindSpeed:
		p.state.Ratio = e.Ratio
	case event.KindActiveSearch:
		buf := e.SearchBuffer
		p.state.SearchBuffer = &buf
	case event.KindCancelSearch:
		p.state.SearchBuffer = nil
	case event.KindRunSearch:
		p.state.SearchBuffer = nil
		act := event.Action{Kind: event.ActionSearch, SearchQuery: e.SearchBuffer, SearchBackwards: e.SearchBackwards}
		select {
		case p.actions <- act:
		case <-ctx.Done():
		}
	case event.KindToggleUI:
		p.state.UIVisible = !p.state.UIVisible
	case event.KindToggleHelp:
		p.state.HelpVisible = !p.state.HelpVisible
	case event.KindError:
		return true, e.Err
	case event.KindQuit:
		return true, nil
	case event.KindTimerAction:
		select {
		case p.actions <- e.Action:
		case <-ctx.Done():
		}
	}
	return false, nil
}

func (p *Presenter) render() error {
	if !p.haveShot {
		return nil
	}

	var b strings.Builder
	b.Write(p.screen.ContentsFormatted())

	if p.state.Paused && p.state.UIVisible {
		b.WriteString("\r\n")
		b.WriteString(p.counterChrome())
		if p.state.Ratio != realTime {
			fmt.Fprintf(&b, " %dx ", realTime/p.state.Ratio)
		}
		b.WriteString(" ⏸ ") // pause glyph
	}

	if p.state.HelpVisible {
		b.WriteString("\r\n")
		for _, line := range helpPanel {
			b.WriteString(line)
			b.WriteString("\r\n")
		}
	}

	if p.state.SearchBuffer != nil {
		b.WriteString("\r\n/")
		b.WriteString(*p.state.SearchBuffer)
	}

	_, err := io.WriteString(p.out, b.String())
	return err
}

func (p *Presenter) counterChrome() string {
	color := blackOnRed
	if p.state.DoneLoading {
		color = blackOnCyan
	}
	return fmt.Sprintf("%s %d/%d %s", color, p.state.FrameIndex+1, p.state.Total, reset)
}
