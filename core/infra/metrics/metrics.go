package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ConversionMetrics defines counters for the conversion pipeline.
type ConversionMetrics interface {
	IncConversionsStarted(source string)
	IncConversionsCompleted(source, status string)
	IncCacheHit(source string)
	IncCacheMiss(source string)
	ObserveConversionDuration(source string, durationSeconds float64)
}

// ServiceMetrics captures request metrics for the HTTP surface.
type ServiceMetrics interface {
	ObserveRequest(method, route, status string, durationSeconds float64)
}

// Noop implements ConversionMetrics without emitting anything.
type Noop struct{}

func (Noop) IncConversionsStarted(string)              {}
func (Noop) IncConversionsCompleted(string, string)    {}
func (Noop) IncCacheHit(string)                        {}
func (Noop) IncCacheMiss(string)                       {}
func (Noop) ObserveConversionDuration(string, float64) {}

// Prom implements ConversionMetrics backed by Prometheus collectors.
type Prom struct {
	started   *prometheus.CounterVec
	completed *prometheus.CounterVec
	cacheHit  *prometheus.CounterVec
	cacheMiss *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	once      sync.Once
}

func NewProm(namespace string) *Prom {
	p := &Prom{
		started: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversions_started_total",
			Help:      "Conversion requests started by source",
		}, []string{"source"}),
		completed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversions_completed_total",
			Help:      "Conversion requests completed by source and status",
		}, []string{"source", "status"}),
		cacheHit: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Conversion cache hits by source",
		}, []string{"source"}),
		cacheMiss: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Conversion cache misses by source",
		}, []string{"source"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "conversion_duration_seconds",
			Help:      "End-to-end conversion duration by source",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"source"}),
	}
	p.register()
	return p
}

func (p *Prom) register() {
	p.once.Do(func() {
		prometheus.MustRegister(p.started, p.completed, p.cacheHit, p.cacheMiss, p.duration)
	})
}

func (p *Prom) IncConversionsStarted(source string) {
	p.started.WithLabelValues(source).Inc()
}

func (p *Prom) IncConversionsCompleted(source, status string) {
	p.completed.WithLabelValues(source, status).Inc()
}

func (p *Prom) IncCacheHit(source string) {
	p.cacheHit.WithLabelValues(source).Inc()
}

func (p *Prom) IncCacheMiss(source string) {
	p.cacheMiss.WithLabelValues(source).Inc()
}

func (p *Prom) ObserveConversionDuration(source string, durationSeconds float64) {
	p.duration.WithLabelValues(source).Observe(durationSeconds)
}

// Handler returns an HTTP handler for /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// --- Service metrics ---

type serviceProm struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	once     sync.Once
}

// NewServiceProm constructs a ServiceMetrics with counters/histograms.
func NewServiceProm(namespace string) ServiceMetrics {
	s := &serviceProm{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method/route/status",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method/route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	s.once.Do(func() {
		prometheus.MustRegister(s.requests, s.latency)
	})
	return s
}

func (s *serviceProm) ObserveRequest(method, route, status string, durationSeconds float64) {
	s.requests.WithLabelValues(method, route, status).Inc()
	s.latency.WithLabelValues(method, route).Observe(durationSeconds)
}
