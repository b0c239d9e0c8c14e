package realtime

import "github.com/prometheus/client_golang/prometheus"

// Metrics 连接与投递计数，nil 时不记录
type Metrics struct {
	connections prometheus.Gauge
	delivered   prometheus.Counter
	dropped     prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		connections: prometheus.NewGauge(prometheus.GaugeOpts{Name: "realtime_connections", Help: "Open realtime connections."}),
		delivered:   prometheus.NewCounter(prometheus.CounterOpts{Name: "realtime_events_delivered_total", Help: "Events written to a connection buffer."}),
		dropped:     prometheus.NewCounter(prometheus.CounterOpts{Name: "realtime_events_dropped_total", Help: "Events dropped on a full connection buffer."}),
	}
	if reg != nil {
		reg.MustRegister(m.connections, m.delivered, m.dropped)
	}
	return m
}

func (m *Metrics) setConnections(n int) {
	if m != nil {
		m.connections.Set(float64(n))
	}
}

func (m *Metrics) incDelivered() {
	if m != nil {
		m.delivered.Inc()
	}
}

func (m *Metrics) incDropped() {
	if m != nil {
		m.dropped.Inc()
	}
}
