package display

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tty-session/ttyrec/internal/coalesce"
	"github.com/tty-session/ttyrec/internal/event"
	"github.com/tty-session/ttyrec/internal/vt"
)

func TestPresenterForwardsTimerActionsInOrder(t *testing.T) {
	var out bytes.Buffer
	actions := make(chan event.Action, 4)
	p := NewPresenter(&out, actions)

	c := coalesce.New()
	c.Push(event.TimerAction(event.Action{Kind: event.ActionNextFrame}))
	c.Push(event.TimerAction(event.Action{Kind: event.ActionPreviousFrame}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx, c) }()

	assert.Equal(t, event.ActionNextFrame, (<-actions).Kind)
	assert.Equal(t, event.ActionPreviousFrame, (<-actions).Kind)

	cancel()
	require.NoError(t, <-done)
}

func TestPresenterQuitPreemptsQueuedTimerActions(t *testing.T) {
	var out bytes.Buffer
	actions := make(chan event.Action, 4)
	p := NewPresenter(&out, actions)

	c := coalesce.New()
	c.Push(event.TimerAction(event.Action{Kind: event.ActionNextFrame}))
	c.Push(event.Quit())

	require.NoError(t, p.Run(context.Background(), c))

	select {
	case a := <-actions:
		t.Fatalf("quit should preempt the queued action, got %+v", a)
	default:
	}
}

func TestPresenterStopsOnError(t *testing.T) {
	var out bytes.Buffer
	actions := make(chan event.Action, 1)
	p := NewPresenter(&out, actions)

	c := coalesce.New()
	c.Push(event.Error(errors.New("boom")))

	err := p.Run(context.Background(), c)
	require.Error(t, err)
	assert.Equal(t, "boom", err.Error())
}

func TestPresenterAppliesFrameTransitionAndRenders(t *testing.T) {
	var out bytes.Buffer
	actions := make(chan event.Action, 1)
	p := NewPresenter(&out, actions)

	c := coalesce.New()
	c.Push(event.FrameTransition(2, vt.NewScreen([]string{"hello"})))

	// A pending Quit would drain ahead of the transition, so the run is
	// ended by a short timeout instead.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.NoError(t, p.Run(ctx, c))

	assert.Equal(t, 2, p.State().FrameIndex)
	assert.Contains(t, out.String(), "hello")
}

func TestPresenterRunSearchForwardsActionSearch(t *testing.T) {
	var out bytes.Buffer
	actions := make(chan event.Action, 4)
	p := NewPresenter(&out, actions)

	c := coalesce.New()
	c.Push(event.RunSearch("hello", true))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx, c) }()

	act := <-actions
	assert.Equal(t, event.ActionSearch, act.Kind)
	assert.Equal(t, "hello", act.SearchQuery)
	assert.True(t, act.SearchBackwards)
	assert.Nil(t, p.State().SearchBuffer)

	cancel()
	require.NoError(t, <-done)
}

func TestPresenterSearchOverlay(t *testing.T) {
	var out bytes.Buffer
	actions := make(chan event.Action, 1)
	p := NewPresenter(&out, actions)

	c := coalesce.New()
	c.Push(event.FrameTransition(0, vt.NewScreen([]string{"x"})))
	c.Push(event.ActiveSearch("al"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.NoError(t, p.Run(ctx, c))
	assert.Contains(t, out.String(), "/al")
}
