package ttyrec

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, w.WriteFrame(base, []byte("hello")))
	require.NoError(t, w.WriteFrame(base.Add(250*time.Millisecond), []byte("world")))
	require.NoError(t, w.WriteFrame(base.Add(500*time.Millisecond), nil))

	r := NewReader(&buf)

	f1, err := r.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), f1.Data)

	offset, ok := r.Offset()
	require.True(t, ok)
	assert.Equal(t, f1.Time, offset)

	f2, err := r.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, []byte("world"), f2.Data)
	assert.Equal(t, 250*time.Millisecond, f2.Time-f1.Time)

	f3, err := r.ReadFrame()
	require.NoError(t, err)
	assert.Empty(t, f3.Data)

	_, err = r.ReadFrame()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadFrameTruncatedPayload(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteFrame(time.Now(), []byte("0123456789")))

	truncated := buf.Bytes()[:len(buf.Bytes())-3]
	r := NewReader(bytes.NewReader(truncated))
	_, err := r.ReadFrame()
	assert.Error(t, err)
}

func TestOffsetBeforeAnyFrame(t *testing.T) {
	r := NewReader(bytes.NewReader(nil))
	_, ok := r.Offset()
	assert.False(t, ok)
}
