// Package metrics exposes Prometheus instrumentation for the recorder.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contains all Prometheus metrics for the diagnostic recorder.
// Each instance carries its own registry, so New can be called freely
// (tests included) without duplicate-registration panics.
type Metrics struct {
	registry *prometheus.Registry

	// Capture session metrics
	SessionsStarted   prometheus.Counter
	SessionsCompleted prometheus.Counter
	SessionsFailed    *prometheus.CounterVec
	SessionActive     prometheus.Gauge

	// Sample buffer metrics
	FramesCaptured prometheus.Counter
	FramesEvicted  prometheus.Counter
	FramesDropped  prometheus.Counter

	// Encoder metrics
	EncodeDuration prometheus.Histogram
	ArtifactBytes  prometheus.Histogram

	// Upload metrics
	ClassifyRequests  prometheus.Counter
	ClassifySuccesses prometheus.Counter
	ClassifyFailures  prometheus.Counter
	ClassifyDuration  prometheus.Histogram
}

// New creates all Prometheus metrics on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		SessionsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "auscult_sessions_started_total",
			Help: "Total number of capture sessions started",
		}),
		SessionsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "auscult_sessions_completed_total",
			Help: "Total number of capture sessions that produced an artifact",
		}),
		SessionsFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "auscult_sessions_failed_total",
			Help: "Total number of capture sessions that ended in error",
		}, []string{"reason"}),
		SessionActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "auscult_session_active",
			Help: "Whether a capture session is currently active (0 or 1)",
		}),

		FramesCaptured: factory.NewCounter(prometheus.CounterOpts{
			Name: "auscult_frames_captured_total",
			Help: "Total number of audio frames appended to the sample buffer",
		}),
		FramesEvicted: factory.NewCounter(prometheus.CounterOpts{
			Name: "auscult_frames_evicted_total",
			Help: "Total number of frames evicted from the sample buffer at capacity",
		}),
		FramesDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "auscult_frames_dropped_total",
			Help: "Total number of frames dropped on the capture path (overruns)",
		}),

		EncodeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "auscult_encode_duration_seconds",
			Help:    "Time spent encoding captured samples to the WAV artifact",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10), // 1ms to ~1s
		}),
		ArtifactBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "auscult_artifact_bytes",
			Help:    "Size of produced WAV artifacts in bytes",
			Buckets: prometheus.ExponentialBuckets(64*1024, 2, 8), // 64KB to ~8MB
		}),

		ClassifyRequests: factory.NewCounter(prometheus.CounterOpts{
			Name: "auscult_classify_requests_total",
			Help: "Total number of classification uploads",
		}),
		ClassifySuccesses: factory.NewCounter(prometheus.CounterOpts{
			Name: "auscult_classify_successes_total",
			Help: "Total number of successful classification uploads",
		}),
		ClassifyFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "auscult_classify_failures_total",
			Help: "Total number of failed classification uploads",
		}),
		ClassifyDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "auscult_classify_duration_seconds",
			Help:    "Duration of classification uploads",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~2 minutes
		}),
	}
}

// RecordSessionFailed increments the failure counter for the given reason.
func (m *Metrics) RecordSessionFailed(reason string) {
	m.SessionsFailed.WithLabelValues(reason).Inc()
}

// RecordEncode records a completed encode.
func (m *Metrics) RecordEncode(d time.Duration, artifactBytes int) {
	m.EncodeDuration.Observe(d.Seconds())
	m.ArtifactBytes.Observe(float64(artifactBytes))
}

// Serve starts a dedicated HTTP listener exposing this instance's
// registry on /metrics. It blocks; run it in a goroutine.
func (m *Metrics) Serve(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	return http.ListenAndServe(fmt.Sprintf(":%d", port), mux)
}
