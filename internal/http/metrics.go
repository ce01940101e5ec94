package http

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the service's prometheus collectors.
type Metrics struct {
	ResolvesTotal   *prometheus.CounterVec
	TracklistsTotal *prometheus.CounterVec
	PublishesTotal  *prometheus.CounterVec
	UpstreamErrors  *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	LinksServed     prometheus.Counter
}

// NewMetrics builds and registers the collectors on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	metrics := &Metrics{
		ResolvesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fanlink_resolves_total",
				Help: "Total number of link resolution requests",
			},
			[]string{"status"},
		),
		TracklistsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fanlink_tracklists_total",
				Help: "Total number of tracklist assembly requests",
			},
			[]string{"status"},
		),
		PublishesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fanlink_publishes_total",
				Help: "Total number of smart link publish requests",
			},
			[]string{"status"},
		),
		UpstreamErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fanlink_upstream_errors_total",
				Help: "Total number of upstream API failures",
			},
			[]string{"service"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fanlink_request_duration_seconds",
				Help:    "Time spent handling API requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		LinksServed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "fanlink_links_served_total",
				Help: "Total number of smart link pages served",
			},
		),
	}

	reg.MustRegister(
		metrics.ResolvesTotal,
		metrics.TracklistsTotal,
		metrics.PublishesTotal,
		metrics.UpstreamErrors,
		metrics.RequestDuration,
		metrics.LinksServed,
	)

	return metrics
}

func (m *Metrics) observe(endpoint string, start time.Time) {
	m.RequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}
