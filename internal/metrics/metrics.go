// Package metrics provides Prometheus metrics for the board service
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contains the Prometheus collectors exported on /metrics
type Metrics struct {
	registry *prometheus.Registry

	// HTTP request metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Event sink metrics
	eventsEmitted *prometheus.CounterVec
	eventErrors   *prometheus.CounterVec

	// Media upload metrics
	mediaUploadBytes prometheus.Histogram
}

// New creates the collectors and registers them on a fresh registry
func New() (*Metrics, error) {
	m := &Metrics{registry: prometheus.NewRegistry()}
	m.initMetrics()

	if err := m.registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) initMetrics() {
	m.httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mosaic_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status_code"}, // route: mux path template, e.g. /api/cards/{cardid}
	)

	m.httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mosaic_http_request_duration_seconds",
			Help:    "Time taken for HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	m.eventsEmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mosaic_events_emitted_total",
			Help: "Total number of events handed to the event sink",
		},
		[]string{"event"},
	)

	m.eventErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mosaic_event_errors_total",
			Help: "Total number of events the sink failed to deliver",
		},
		[]string{"event"},
	)

	m.mediaUploadBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mosaic_media_upload_bytes",
			Help:    "Size of uploaded card media in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8), // 1KB to 16MB
		},
	)
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.eventsEmitted,
		m.eventErrors,
		m.mediaUploadBytes,
	}
}

// Describe implements the Collector interface
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.collectors() {
		collector.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.collectors() {
		collector.Collect(ch)
	}
}

func (m *Metrics) RecordHTTPRequest(method, route string, statusCode int, duration float64) {
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(duration)
}

func (m *Metrics) RecordEvent(name string, err error) {
	m.eventsEmitted.WithLabelValues(name).Inc()
	if err != nil {
		m.eventErrors.WithLabelValues(name).Inc()
	}
}

func (m *Metrics) RecordMediaUpload(sizeBytes int64) {
	m.mediaUploadBytes.Observe(float64(sizeBytes))
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
