// Package metrics collects and exposes Prometheus metrics for the
// marketplace core and its HTTP surface.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the metrics interface consumed by the service and dispatcher
// layers.
type Recorder interface {
	RecordBidAccepted()
	RecordBidRejected(reason string)
	RecordStatusTransition(to string)
	RecordNotificationCreated(kind string)
	RecordHTTPStatus(statusCode int)
	RecordHTTPLatency(duration time.Duration)
}

// Collector is the Prometheus-backed Recorder implementation.
type Collector struct {
	bidsAccepted         prometheus.Counter
	bidsRejected         *prometheus.CounterVec
	statusTransitions    *prometheus.CounterVec
	notificationsCreated *prometheus.CounterVec
	httpStatus           *prometheus.CounterVec
	httpLatency          prometheus.Histogram
}

// NewCollector creates a Collector and registers its metrics on the given
// registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		bidsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auction_bids_accepted_total",
			Help: "Total number of accepted bids",
		}),
		bidsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auction_bids_rejected_total",
			Help: "Total number of rejected bids by rejection reason",
		}, []string{"reason"}),
		statusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auction_status_transitions_total",
			Help: "Total number of auction status transitions by target status",
		}, []string{"to"}),
		notificationsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auction_notifications_created_total",
			Help: "Total number of notifications created by kind",
		}, []string{"kind"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auction_http_status_total",
			Help: "HTTP responses by status code",
		}, []string{"status_code"}),
		httpLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "auction_http_latency_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.bidsAccepted,
		c.bidsRejected,
		c.statusTransitions,
		c.notificationsCreated,
		c.httpStatus,
		c.httpLatency,
	)

	return c
}

// RecordBidAccepted counts an accepted bid.
func (c *Collector) RecordBidAccepted() {
	c.bidsAccepted.Inc()
}

// RecordBidRejected counts a rejected bid under its rejection reason.
func (c *Collector) RecordBidRejected(reason string) {
	c.bidsRejected.WithLabelValues(reason).Inc()
}

// RecordStatusTransition counts a lifecycle transition into the given status.
func (c *Collector) RecordStatusTransition(to string) {
	c.statusTransitions.WithLabelValues(to).Inc()
}

// RecordNotificationCreated counts a created notification under its kind.
func (c *Collector) RecordNotificationCreated(kind string) {
	c.notificationsCreated.WithLabelValues(kind).Inc()
}

// RecordHTTPStatus counts a response by status code.
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordHTTPLatency records a request duration.
func (c *Collector) RecordHTTPLatency(duration time.Duration) {
	c.httpLatency.Observe(duration.Seconds())
}

// nopRecorder discards every measurement. Used where metrics are not wired,
// e.g. benchmarks.
type nopRecorder struct{}

func (nopRecorder) RecordBidAccepted()               {}
func (nopRecorder) RecordBidRejected(string)         {}
func (nopRecorder) RecordStatusTransition(string)    {}
func (nopRecorder) RecordNotificationCreated(string) {}
func (nopRecorder) RecordHTTPStatus(int)             {}
func (nopRecorder) RecordHTTPLatency(time.Duration)  {}

// NewNop returns a Recorder that records nothing.
func NewNop() Recorder {
	return nopRecorder{}
}

// Handler returns the HTTP handler serving the given registry.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
