// Package metrics exports service operation metrics to Prometheus.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "inventory"

// Recorder implements the service MetricsRecorder and the HTTP request
// observer on a private registry.
type Recorder struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	requests   *prometheus.CounterVec
}

// NewRecorder builds a recorder whose registry also carries the Go runtime
// and process collectors.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "service_operations_total",
			Help:      "Service operations by name and outcome.",
		}, []string{"operation", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "service_operation_duration_seconds",
			Help:      "Service operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
	}
	r.registry.MustRegister(
		r.operations,
		r.latency,
		r.requests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Observe records one service operation.
func (r *Recorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	outcome := "success"
	if !success {
		outcome = "error"
	}
	r.operations.WithLabelValues(operation, outcome).Inc()
	r.latency.WithLabelValues(operation).Observe(duration.Seconds())
}

// ObserveRequest records one served HTTP request.
func (r *Recorder) ObserveRequest(route, method string, status int) {
	r.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
