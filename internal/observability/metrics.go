package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce     sync.Once
	canvasCallsTotal *prometheus.CounterVec
	postsTotal       *prometheus.CounterVec
	submitSeconds    *prometheus.HistogramVec
	uploadBytesTotal prometheus.Counter
	warningsTotal    *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the tool.
func RegisterMetrics() {
	registerOnce.Do(func() {
		canvasCallsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "canvas_calls_total",
			Help: "Total number of Canvas API calls issued, by operation and outcome.",
		}, []string{"operation", "outcome"})

		postsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "announcement_posts_total",
			Help: "Total number of announcement post attempts, by outcome.",
		}, []string{"outcome"})

		submitSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "announcement_submit_seconds",
			Help:    "Latency distribution of the submission workflow.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		}, []string{"outcome"})

		uploadBytesTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "attachment_upload_bytes_total",
			Help: "Total attachment bytes uploaded to the course file store.",
		})

		warningsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "submission_warnings_total",
			Help: "Total recoverable validation warnings returned, by kind.",
		}, []string{"kind"})

		prometheus.MustRegister(canvasCallsTotal, postsTotal, submitSeconds, uploadBytesTotal, warningsTotal)
	})
}

// CanvasCalls exposes the counter for outbound Canvas API calls.
func CanvasCalls() *prometheus.CounterVec {
	RegisterMetrics()
	return canvasCallsTotal
}

// Posts exposes the counter for announcement post attempts.
func Posts() *prometheus.CounterVec {
	RegisterMetrics()
	return postsTotal
}

// SubmitLatency exposes the latency histogram for the submission workflow.
func SubmitLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return submitSeconds
}

// UploadBytes exposes the counter for uploaded attachment bytes.
func UploadBytes() prometheus.Counter {
	RegisterMetrics()
	return uploadBytesTotal
}

// Warnings exposes the counter for validation warnings.
func Warnings() *prometheus.CounterVec {
	RegisterMetrics()
	return warningsTotal
}
