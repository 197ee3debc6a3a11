package coalesce

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tty-session/ttyrec/internal/event"
	"github.com/tty-session/ttyrec/internal/vt"
)

func TestToggleUITwiceCancels(t *testing.T) {
	c := New()
	c.Push(event.ToggleUI())
	c.Push(event.ToggleUI())
	c.Push(event.Paused(true))
	screen := vt.NewScreen([]string{"S"})
	c.Push(event.FrameTransition(3, screen))
	c.Push(event.Paused(false))

	ctx := context.Background()

	e1, ok := c.Next(ctx)
	require.True(t, ok)
	require.Equal(t, event.KindPaused, e1.Kind)
	assert.False(t, e1.Paused)

	e2, ok := c.Next(ctx)
	require.True(t, ok)
	require.Equal(t, event.KindFrameTransition, e2.Kind)
	assert.Equal(t, 3, e2.FrameIndex)
}

func TestErrorAndQuitPreemptEverything(t *testing.T) {
	c := New()
	c.Push(event.FrameTransition(1, vt.NewScreen([]string{"x"})))
	c.Push(event.Quit())
	c.Push(event.Error(errors.New("boom")))

	ctx := context.Background()

	e1, ok := c.Next(ctx)
	require.True(t, ok)
	assert.Equal(t, event.KindError, e1.Kind)

	e2, ok := c.Next(ctx)
	require.True(t, ok)
	assert.Equal(t, event.KindQuit, e2.Kind)

	e3, ok := c.Next(ctx)
	require.True(t, ok)
	assert.Equal(t, event.KindFrameTransition, e3.Kind)
}

func TestTimerActionsAreFIFO(t *testing.T) {
	c := New()
	c.Push(event.TimerAction(event.Action{Kind: event.ActionNextFrame}))
	c.Push(event.TimerAction(event.Action{Kind: event.ActionPreviousFrame}))

	ctx := context.Background()
	e1, _ := c.Next(ctx)
	e2, _ := c.Next(ctx)

	assert.Equal(t, event.ActionNextFrame, e1.Action.Kind)
	assert.Equal(t, event.ActionPreviousFrame, e2.Action.Kind)
}

func TestSearchEntrySemantics(t *testing.T) {
	c := New()
	c.Push(event.ActiveSearch("al"))
	c.Push(event.CancelSearch())

	ctx := context.Background()
	e, ok := c.Next(ctx)
	require.True(t, ok)
	// CancelSearch clears any pending ActiveSearch and wins; only one
	// event should be observable afterward.
	assert.Equal(t, event.KindCancelSearch, e.Kind)

	select {
	case <-c.waitCh:
		t.Fatal("unexpected extra publication")
	default:
	}
}

func TestRunSearchClearsActiveAndCancel(t *testing.T) {
	c := New()
	c.Push(event.ActiveSearch("al"))
	c.Push(event.RunSearch("alpha", true))

	ctx := context.Background()
	e, ok := c.Next(ctx)
	require.True(t, ok)
	assert.Equal(t, event.KindRunSearch, e.Kind)
	assert.Equal(t, "alpha", e.SearchBuffer)
	assert.True(t, e.SearchBackwards)
}

func TestNextBlocksUntilPush(t *testing.T) {
	c := New()
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	result := make(chan event.Event, 1)
	go func() {
		e, ok := c.Next(ctx)
		if ok {
			result <- e
		}
	}()

	time.Sleep(20 * time.Millisecond)
	c.Push(event.Speed(8))

	select {
	case e := <-result:
		assert.Equal(t, event.KindSpeed, e.Kind)
		assert.Equal(t, 8, e.Ratio)
	case <-time.After(time.Second):
		t.Fatal("Next did not unblock after Push")
	}
}
