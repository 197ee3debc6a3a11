// Package input turns raw keystrokes read from a terminal into events,
// running its blocking read loop on a dedicated goroutine so it never
// shares state with the rest of the player beyond the event channel.
package input

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/tty-session/ttyrec/internal/event"
)

const (
	keyTab     = 0x09
	keyEnter   = 0x0d
	keyEscape  = 0x1b
	keyBackDel = 0x7f
	keyBackErs = 0x08
)

// Translator converts bytes read from r into Events, dispatching normal
// playback keys directly and switching into a search-entry sub-mode
// after '/'.
type Translator struct {
	r      *bufio.Reader
	events chan<- event.Event
	logger *slog.Logger

	searching  bool
	buf        []rune
	prevSearch string
}

// New builds a Translator reading keystrokes from r and emitting events
// onto events.
func New(r io.Reader, events chan<- event.Event) *Translator {
	return &Translator{r: bufio.NewReader(r), events: events, logger: slog.Default()}
}

// Run reads until ctx is cancelled or r reaches EOF, translating every
// keystroke into zero or one Event. It returns nil on clean EOF. ctx is
// checked between keystrokes; a read already blocked on r is not
// interrupted by cancellation.
func (t *Translator) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		r, _, err := t.r.ReadRune()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		var e event.Event
		var ok bool
		if t.searching {
			e, ok = t.handleSearchEntry(r)
		} else {
			e, ok = t.handleNormal(r)
		}
		if !ok {
			continue
		}

		select {
		case t.events <- e:
		case <-ctx.Done():
			return nil
		}
	}
}

func (t *Translator) handleNormal(r rune) (event.Event, bool) {
	switch r {
	case 'q':
		return event.Quit(), true
	case ' ':
		return event.TimerAction(event.Action{Kind: event.ActionPause}), true
	case keyTab:
		return event.ToggleUI(), true
	case '?':
		return event.ToggleHelp(), true
	case '0':
		return event.TimerAction(event.Action{Kind: event.ActionFirstFrame}), true
	case '$':
		return event.TimerAction(event.Action{Kind: event.ActionLastFrame}), true
	case 'l':
		return event.TimerAction(event.Action{Kind: event.ActionNextFrame}), true
	case 'h':
		return event.TimerAction(event.Action{Kind: event.ActionPreviousFrame}), true
	case '+':
		return event.TimerAction(event.Action{Kind: event.ActionSpeedUp}), true
	case '-':
		return event.TimerAction(event.Action{Kind: event.ActionSlowDown}), true
	case '=':
		return event.TimerAction(event.Action{Kind: event.ActionDefaultSpeed}), true
	case '/':
		t.searching = true
		t.buf = t.buf[:0]
		return event.ActiveSearch(""), true
	case 'n':
		return event.TimerAction(event.Action{Kind: event.ActionSearch, SearchQuery: t.prevSearch, SearchBackwards: false}), true
	case 'p':
		return event.TimerAction(event.Action{Kind: event.ActionSearch, SearchQuery: t.prevSearch, SearchBackwards: true}), true
	default:
		return event.Event{}, false
	}
}

func (t *Translator) handleSearchEntry(r rune) (event.Event, bool) {
	switch r {
	case keyEnter:
		query := string(t.buf)
		t.prevSearch = query
		t.searching = false
		return event.RunSearch(query, false), true
	case keyEscape:
		t.searching = false
		return event.CancelSearch(), true
	case keyBackDel, keyBackErs:
		if len(t.buf) > 0 {
			t.buf = t.buf[:len(t.buf)-1]
		}
		return event.ActiveSearch(string(t.buf)), true
	default:
		t.buf = append(t.buf, r)
		return event.ActiveSearch(string(t.buf)), true
	}
}
