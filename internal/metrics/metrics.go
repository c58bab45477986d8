// Package metrics holds the Prometheus collectors for the gallery
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Auth event outcomes
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Metrics manages the Prometheus metrics.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry        *prometheus.Registry
	AuthEvents      *prometheus.CounterVec
	PhotoOperations *prometheus.CounterVec
	UploadLatency   prometheus.Histogram
	UploadBytes     prometheus.Histogram
}

// New creates the metrics on a private registry, along with the Go runtime
// and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		AuthEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gallery_auth_events_total",
				Help: "Login flow events by step, result and error kind.",
			},
			[]string{"event", "result", "kind"},
		),
		PhotoOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gallery_photo_operations_total",
				Help: "Photo list, upload and delete operations by result.",
			},
			[]string{"operation", "result"},
		),
		UploadLatency: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "gallery_photo_upload_duration_seconds",
				Help:    "Time to resize, store and record an uploaded photo.",
				Buckets: prometheus.DefBuckets,
			},
		),
		UploadBytes: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "gallery_photo_upload_bytes",
				Help:    "Size of uploaded photos before resizing.",
				Buckets: prometheus.ExponentialBuckets(16*1024, 4, 7),
			},
		),
	}
}

// RecordAuthEvent counts a login, callback or logout. kind is the
// authentication error kind, empty on success.
func (m *Metrics) RecordAuthEvent(event, result, kind string) {
	if m == nil {
		return
	}
	m.AuthEvents.WithLabelValues(event, result, kind).Inc()
}

// RecordPhotoOperation counts a photo operation
func (m *Metrics) RecordPhotoOperation(operation string, err error) {
	if m == nil {
		return
	}
	result := ResultSuccess
	if err != nil {
		result = ResultFailure
	}
	m.PhotoOperations.WithLabelValues(operation, result).Inc()
}

// RecordUpload observes an upload's input size and duration
func (m *Metrics) RecordUpload(size int, duration time.Duration) {
	if m == nil {
		return
	}
	m.UploadBytes.Observe(float64(size))
	m.UploadLatency.Observe(duration.Seconds())
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
