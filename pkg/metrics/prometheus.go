// Package metrics exposes an optional Prometheus registry for ttyplay,
// tracking frame-store depth, ingest throughput, and playback speed.
package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the playback metrics for a single ttyplay session.
type Registry struct {
	logger *slog.Logger
	server *http.Server

	BuildInfo *prometheus.GaugeVec
	StartTime prometheus.Gauge

	FramesIngested  prometheus.Counter
	FramesClamped   prometheus.Counter
	ClampedDuration prometheus.Counter
	StoreDepth      prometheus.Gauge
	IngestDoneGauge prometheus.Gauge

	PlaybackIndex  prometheus.Gauge
	PlaybackRatio  prometheus.Gauge
	PlaybackPaused prometheus.Gauge

	SearchesTotal *prometheus.CounterVec
}

// NewRegistry creates and registers the ttyplay metrics under namespace.
func NewRegistry(namespace, version string, logger *slog.Logger) *Registry {
	r := &Registry{
		logger: logger,

		BuildInfo: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "build_info",
			Help:      "Build information",
		}, []string{"version"}),
		StartTime: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "start_time_seconds",
			Help:      "Unix timestamp of session start time",
		}),

		FramesIngested: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "frames_total",
			Help:      "Total number of frames decoded from the transcript",
		}),
		FramesClamped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "frames_clamped_total",
			Help:      "Total number of frames whose delay was clamped",
		}),
		ClampedDuration: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "clamped_duration_seconds_total",
			Help:      "Total delay time removed by clamping",
		}),
		StoreDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "depth",
			Help:      "Number of frames currently buffered in the frame store",
		}),
		IngestDoneGauge: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "done",
			Help:      "1 once the transcript has been fully ingested",
		}),

		PlaybackIndex: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "playback",
			Name:      "frame_index",
			Help:      "Index of the frame currently presented",
		}),
		PlaybackRatio: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "playback",
			Name:      "ratio",
			Help:      "Current playback speed ratio (16 = real-time)",
		}),
		PlaybackPaused: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "playback",
			Name:      "paused",
			Help:      "1 when playback is paused, 0 otherwise",
		}),

		SearchesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "total",
			Help:      "Total number of searches run, by outcome",
		}, []string{"found"}),
	}

	r.BuildInfo.WithLabelValues(version).Set(1)
	r.StartTime.SetToCurrentTime()
	return r
}

// Serve starts the HTTP server exposing /metrics and /healthz on port.
func (r *Registry) Serve(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	r.logger.Info("starting metrics server", "port", port)
	return r.server.ListenAndServe()
}

// Shutdown stops the metrics HTTP server.
func (r *Registry) Shutdown(ctx context.Context) error {
	if r.server == nil {
		return nil
	}
	r.logger.Info("stopping metrics server")
	return r.server.Shutdown(ctx)
}

// The methods below let Registry satisfy the ingest.Observer and
// playback.Observer interfaces without either package importing this
// one.

// FrameIngested implements ingest.Observer.
func (r *Registry) FrameIngested() { r.FramesIngested.Inc() }

// FrameClamped implements ingest.Observer.
func (r *Registry) FrameClamped(amount time.Duration) {
	r.FramesClamped.Inc()
	r.ClampedDuration.Add(amount.Seconds())
}

// IngestDone implements ingest.Observer.
func (r *Registry) IngestDone() { r.IngestDoneGauge.Set(1) }

// FrameIndex implements playback.Observer.
func (r *Registry) FrameIndex(idx int) { r.PlaybackIndex.Set(float64(idx)) }

// Ratio implements playback.Observer.
func (r *Registry) Ratio(ratio int) { r.PlaybackRatio.Set(float64(ratio)) }

// Paused implements playback.Observer.
func (r *Registry) Paused(paused bool) {
	if paused {
		r.PlaybackPaused.Set(1)
	} else {
		r.PlaybackPaused.Set(0)
	}
}

// Search implements playback.Observer.
func (r *Registry) Search(found bool) {
	label := "false"
	if found {
		label = "true"
	}
	r.SearchesTotal.WithLabelValues(label).Inc()
}

// SetStoreDepth reports the current frame-store depth. The caller, not
// the store, pushes it; ttyplay does so after every append.
func (r *Registry) SetStoreDepth(n int) { r.StoreDepth.Set(float64(n)) }
