package metrics

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewRegistrySetsBuildInfo(t *testing.T) {
	r := NewRegistry("ttyplay_test_build", "v1.2.3", discardLogger())
	require.NotNil(t, r)
	assert.Equal(t, float64(1), testutil.ToFloat64(r.BuildInfo.WithLabelValues("v1.2.3")))
}

func TestObserverMethodsUpdateGauges(t *testing.T) {
	r := NewRegistry("ttyplay_test_observe", "v1", discardLogger())

	r.FrameIngested()
	r.FrameIngested()
	assert.Equal(t, float64(2), testutil.ToFloat64(r.FramesIngested))

	r.FrameClamped(250 * time.Millisecond)
	assert.Equal(t, float64(1), testutil.ToFloat64(r.FramesClamped))
	assert.Equal(t, 0.25, testutil.ToFloat64(r.ClampedDuration))

	r.IngestDone()
	assert.Equal(t, float64(1), testutil.ToFloat64(r.IngestDoneGauge))

	r.FrameIndex(42)
	assert.Equal(t, float64(42), testutil.ToFloat64(r.PlaybackIndex))

	r.Ratio(64)
	assert.Equal(t, float64(64), testutil.ToFloat64(r.PlaybackRatio))

	r.Paused(true)
	assert.Equal(t, float64(1), testutil.ToFloat64(r.PlaybackPaused))
	r.Paused(false)
	assert.Equal(t, float64(0), testutil.ToFloat64(r.PlaybackPaused))

	r.Search(true)
	r.Search(false)
	assert.Equal(t, float64(1), testutil.ToFloat64(r.SearchesTotal.WithLabelValues("true")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.SearchesTotal.WithLabelValues("false")))

	r.SetStoreDepth(10)
	assert.Equal(t, float64(10), testutil.ToFloat64(r.StoreDepth))
}
