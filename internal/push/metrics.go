package push

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts push connection activity. A nil *Metrics records nothing.
type Metrics struct {
	connects  prometheus.Counter
	errors    prometheus.Counter
	events    *prometheus.CounterVec
	dropped   *prometheus.CounterVec
	connected prometheus.Gauge
}

// NewMetrics creates the push metrics and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		connects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "confab_push_connects_total",
			Help: "Push connections established.",
		}),
		errors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "confab_push_errors_total",
			Help: "Push connections that ended in a transport error.",
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "confab_push_events_total",
			Help: "Push events received, by type.",
		}, []string{"type"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "confab_push_dropped_total",
			Help: "Push events or connection attempts discarded, by reason.",
		}, []string{"reason"}),
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "confab_push_connected",
			Help: "1 while a push connection is live.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.connects, m.errors, m.events, m.dropped, m.connected)
	}
	return m
}

func (m *Metrics) connect() {
	if m == nil {
		return
	}
	m.connects.Inc()
	m.connected.Set(1)
}

func (m *Metrics) disconnect() {
	if m == nil {
		return
	}
	m.connected.Set(0)
}

func (m *Metrics) failure() {
	if m == nil {
		return
	}
	m.errors.Inc()
}

func (m *Metrics) event(kind string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(kind).Inc()
}

func (m *Metrics) drop(reason string) {
	if m == nil {
		return
	}
	m.dropped.WithLabelValues(reason).Inc()
}
