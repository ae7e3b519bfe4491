package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "djsetlist"

// Recorder owns the Prometheus registry and the collectors exported on /metrics.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry
	handler  http.Handler

	httpRequests    *prometheus.CounterVec
	httpLatency     *prometheus.HistogramVec
	recognitions    *prometheus.CounterVec
	upstreamLatency *prometheus.HistogramVec
	uploadBytes     prometheus.Histogram
}

// NewRecorder registers the application collectors on a private registry.
func NewRecorder() (*Recorder, error) {
	registry := prometheus.NewRegistry()
	latencyBuckets := []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30}

	r := &Recorder{
		registry: registry,
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed.",
			},
			[]string{"method", "route", "status"},
		),
		httpLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds.",
				Buckets:   latencyBuckets,
			},
			[]string{"method", "route", "status"},
		),
		recognitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "recognitions_total",
				Help:      "Recognition attempts by provider and outcome.",
			},
			[]string{"provider", "outcome"},
		),
		upstreamLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "upstream_request_duration_seconds",
				Help:      "Duration of calls to the recognition provider.",
				Buckets:   latencyBuckets,
			},
			[]string{"provider", "outcome"},
		),
		uploadBytes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "upload_size_bytes",
				Help:      "Size of audio clips submitted for recognition.",
				Buckets:   prometheus.ExponentialBuckets(64*1024, 2, 10),
			},
		),
	}

	for _, c := range []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.httpRequests,
		r.httpLatency,
		r.recognitions,
		r.upstreamLatency,
		r.uploadBytes,
	} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	r.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
	return r, nil
}

// Handler exposes the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return nil
	}
	return r.handler
}

// Registry is exposed for tests and for callers registering extra collectors.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

func (r *Recorder) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if r == nil {
		return
	}
	statusLabel := strconv.Itoa(status)
	r.httpRequests.WithLabelValues(method, route, statusLabel).Inc()
	r.httpLatency.WithLabelValues(method, route, statusLabel).Observe(duration.Seconds())
}

// RecordRecognition counts one finished recognition. outcome is the outcome
// kind name or "fault" for transport failures.
func (r *Recorder) RecordRecognition(provider, outcome string, sizeBytes int64, duration time.Duration) {
	if r == nil {
		return
	}
	r.recognitions.WithLabelValues(provider, outcome).Inc()
	r.upstreamLatency.WithLabelValues(provider, outcome).Observe(duration.Seconds())
	r.uploadBytes.Observe(float64(sizeBytes))
}
