package sync

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	syncCount   *prometheus.CounterVec
	lastSuccess *prometheus.GaugeVec
	syncLatency *prometheus.HistogramVec
}

func newMetrics(registerer prometheus.Registerer) *metrics {
	factory := promauto.With(registerer)

	return &metrics{
		syncCount: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mirror_sync_total",
			Help: "Sync attempts by repository and outcome.",
		}, []string{"repository", "success"}),

		lastSuccess: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mirror_last_sync_success_timestamp",
			Help: "Unix timestamp of the last successful sync per repository.",
		}, []string{"repository"}),

		syncLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mirror_sync_duration_seconds",
			Help:    "Wall-clock duration of sync attempts.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}, []string{"repository"}),
	}
}

func (m *metrics) observe(repository string, success bool, duration time.Duration) {
	m.syncCount.WithLabelValues(repository, strconv.FormatBool(success)).Inc()
	m.syncLatency.WithLabelValues(repository).Observe(duration.Seconds())

	if success {
		m.lastSuccess.WithLabelValues(repository).SetToCurrentTime()
	}
}
