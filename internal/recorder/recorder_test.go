package recorder

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTranscript records every frame written to it, for assertions.
type fakeTranscript struct {
	frames [][]byte
}

func (f *fakeTranscript) WriteFrame(_ time.Time, data []byte) error {
	f.frames = append(f.frames, append([]byte(nil), data...))
	return nil
}

func TestCopyOutputTeesToStdoutAndTranscript(t *testing.T) {
	var stdout bytes.Buffer
	transcript := &fakeTranscript{}
	r := New("", strings.NewReader(""), &stdout, transcript)

	err := r.copyOutputFrom(strings.NewReader("hello"))
	require.NoError(t, err)

	assert.Equal(t, "hello", stdout.String())
	require.Len(t, transcript.frames, 1)
	assert.Equal(t, []byte("hello"), transcript.frames[0])
}

func TestCopyInputForwardsUntilEOF(t *testing.T) {
	r := New("", strings.NewReader("keys"), &bytes.Buffer{}, &fakeTranscript{})

	var dst bytes.Buffer
	err := r.copyInputTo(context.Background(), &dst)
	require.NoError(t, err)
	assert.Equal(t, "keys", dst.String())
}

func TestCopyInputStopsOnCancelledContext(t *testing.T) {
	r := New("", strings.NewReader(strings.Repeat("x", 1<<20)), &bytes.Buffer{}, &fakeTranscript{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var dst bytes.Buffer
	err := r.copyInputTo(ctx, &dst)
	assert.NoError(t, err)
}
