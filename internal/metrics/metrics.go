package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the RED collectors shared by the transport and the use cases.
type Metrics struct {
	UseCaseRequests *prometheus.CounterVec   // usecase_requests_total{use_case,outcome}
	UseCaseDuration *prometheus.HistogramVec // usecase_duration_seconds{use_case}

	ExternalRequests *prometheus.CounterVec   // external_requests_total{peer,endpoint,outcome}
	ExternalDuration *prometheus.HistogramVec // external_request_duration_seconds{peer,endpoint}

	HTTPRequests *prometheus.CounterVec   // http_requests_total{method,route,status}
	HTTPDuration *prometheus.HistogramVec // http_request_duration_seconds{method,route,status}

	StockRejections prometheus.Counter
}

// New registers every collector on reg. Use a fresh prometheus.NewRegistry() per test.
func New(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		UseCaseRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "usecase_requests_total",
			Help:      "Use case invocations by outcome.",
		}, []string{"use_case", "outcome"}),
		UseCaseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "usecase_duration_seconds",
			Help:      "Use case latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"use_case"}),
		ExternalRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "external_requests_total",
			Help:      "Calls to external peers by outcome.",
		}, []string{"peer", "endpoint", "outcome"}),
		ExternalDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "external_request_duration_seconds",
			Help:      "Latency of calls to external peers.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"peer", "endpoint"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		StockRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inventory_insufficient_stock_total",
			Help:      "Orders rejected because a product was short.",
		}),
	}

	collectors := []prometheus.Collector{
		m.UseCaseRequests,
		m.UseCaseDuration,
		m.ExternalRequests,
		m.ExternalDuration,
		m.HTTPRequests,
		m.HTTPDuration,
		m.StockRejections,
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// NewNop returns collectors registered on a private registry, for callers that do not export metrics.
func NewNop() *Metrics {
	m, err := New("", prometheus.NewRegistry())
	if err != nil {
		panic(err)
	}
	return m
}
