package notify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics — счётчики рассылки. Нулевой указатель допустим и ничего не считает.
type Metrics struct {
	delivered *prometheus.CounterVec
	failed    *prometheus.CounterVec
	skipped   *prometheus.CounterVec
	dropped   prometheus.Counter
	processed *prometheus.CounterVec
}

// NewMetrics регистрирует счётчики в reg. reg == nil — счётчики не регистрируются (тесты).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		delivered: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "discussions",
			Name:      "notifications_delivered_total",
			Help:      "Notifications handed to the delivery layer.",
		}, []string{"type"}),
		failed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "discussions",
			Name:      "notifications_failed_total",
			Help:      "Notifications the delivery layer rejected.",
		}, []string{"type"}),
		skipped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "discussions",
			Name:      "notifications_duplicate_total",
			Help:      "Notifications suppressed because the recipient already got this event.",
		}, []string{"type"}),
		dropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: "discussions",
			Name:      "fanout_jobs_dropped_total",
			Help:      "Fan-out jobs rejected because the queue was full or closed.",
		}),
		processed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "discussions",
			Name:      "fanout_jobs_processed_total",
			Help:      "Fan-out jobs handled by workers.",
		}, []string{"kind"}),
	}
}

func (m *Metrics) incDelivered(typ string) {
	if m != nil {
		m.delivered.WithLabelValues(typ).Inc()
	}
}

func (m *Metrics) incFailed(typ string) {
	if m != nil {
		m.failed.WithLabelValues(typ).Inc()
	}
}

func (m *Metrics) incDuplicate(typ string) {
	if m != nil {
		m.skipped.WithLabelValues(typ).Inc()
	}
}

func (m *Metrics) incDropped() {
	if m != nil {
		m.dropped.Inc()
	}
}

func (m *Metrics) incProcessed(kind string) {
	if m != nil {
		m.processed.WithLabelValues(kind).Inc()
	}
}
