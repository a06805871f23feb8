package notify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for outgoing notifications.
type Metrics struct {
	SentTotal    *prometheus.CounterVec
	QueueSize    prometheus.Gauge
	SendDuration prometheus.Histogram
	Retries      prometheus.Counter
}

// NewMetrics creates notification metrics registered on reg.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SentTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_sent_total",
				Help:      "Total number of notifications by outcome",
			},
			[]string{"status"},
		),
		QueueSize: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "notifications_queue_size",
				Help:      "Current number of queued notifications",
			},
		),
		SendDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "notification_send_duration_seconds",
				Help:      "Time to deliver one notification to all chats",
				Buckets:   []float64{.01, .05, .1, .5, 1, 2, 5},
			},
		),
		Retries: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notification_retries_total",
				Help:      "Total number of retry attempts",
			},
		),
	}
}

func (m *Metrics) incSent(status string) {
	if m != nil {
		m.SentTotal.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) setQueueSize(n int) {
	if m != nil {
		m.QueueSize.Set(float64(n))
	}
}

func (m *Metrics) observe(seconds float64) {
	if m != nil {
		m.SendDuration.Observe(seconds)
	}
}

func (m *Metrics) incRetries() {
	if m != nil {
		m.Retries.Inc()
	}
}
