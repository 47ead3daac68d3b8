package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns the service's Prometheus collectors and their registry.
type Metrics struct {
	registry            *prometheus.Registry
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	generationsTotal    *prometheus.CounterVec
	generationDuration  prometheus.Histogram
	imageFallbacksTotal *prometheus.CounterVec
	publishesTotal      *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shopgen_http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "route", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shopgen_http_request_duration_seconds",
				Help:    "Histogram of HTTP request durations.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"method", "route", "status"},
		),
		generationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shopgen_generations_total",
				Help: "Product generations by outcome.",
			},
			[]string{"outcome"},
		),
		generationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "shopgen_generation_duration_seconds",
			Help:    "End-to-end duration of product generation.",
			Buckets: []float64{1, 5, 10, 20, 40, 80, 160},
		}),
		imageFallbacksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shopgen_image_placeholders_total",
				Help: "Placeholder images substituted, by reason.",
			},
			[]string{"reason"},
		),
		publishesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shopgen_publishes_total",
				Help: "Catalog publish attempts by result.",
			},
			[]string{"result"},
		),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.generationsTotal,
		m.generationDuration,
		m.imageFallbacksTotal,
		m.publishesTotal,
	)
	return m
}

// RecordRequest records one served HTTP request.
func (m *Metrics) RecordRequest(method, route string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	status := classifyStatus(statusCode)
	m.httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	m.httpRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

func (m *Metrics) ObserveGeneration(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.generationsTotal.WithLabelValues(outcome).Inc()
	m.generationDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) ImageFallback(reason string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.imageFallbacksTotal.WithLabelValues(reason).Add(float64(count))
}

func (m *Metrics) ObservePublish(ok bool) {
	if m == nil {
		return
	}
	result := "success"
	if !ok {
		result = "failure"
	}
	m.publishesTotal.WithLabelValues(result).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func classifyStatus(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "2xx"
	case statusCode >= 300 && statusCode < 400:
		return "3xx"
	case statusCode >= 400 && statusCode < 500:
		return "4xx"
	case statusCode >= 500 && statusCode < 600:
		return "5xx"
	}
	return "unknown"
}
