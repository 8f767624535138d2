package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Fleet counts readings handed to a sink. A nil *Fleet is a no-op.
type Fleet struct {
	sent     *prometheus.CounterVec
	failed   *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewFleet(reg prometheus.Registerer) *Fleet {
	m := &Fleet{
		sent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fleetsim_readings_sent_total",
			Help: "Readings accepted by the sink, by sink and device.",
		}, []string{"sink", "device_id"}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fleetsim_readings_failed_total",
			Help: "Readings the sink rejected or could not deliver, by sink and device.",
		}, []string{"sink", "device_id"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fleetsim_send_duration_seconds",
			Help:    "Histogram of sink send durations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"sink"}),
	}

	reg.MustRegister(m.sent, m.failed, m.duration)
	return m
}

func (m *Fleet) ObserveSend(sink, deviceID string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(sink).Observe(elapsed.Seconds())
	if err != nil {
		m.failed.WithLabelValues(sink, deviceID).Inc()
		return
	}
	m.sent.WithLabelValues(sink, deviceID).Inc()
}

func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
