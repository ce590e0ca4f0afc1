package websocket

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kochabx/yogaclub/transport/http/metrics"
)

type gatewayMetrics struct {
	connections prometheus.Gauge
	frames      *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *gatewayMetrics {
	if reg == nil {
		return nil
	}
	return &gatewayMetrics{
		connections: metrics.Register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "yogaclub_realtime_connections",
			Help: "Open realtime websocket connections.",
		})),
		frames: metrics.Register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "yogaclub_realtime_frames_total",
			Help: "Frames pushed to realtime clients by type.",
		}, []string{"type"})),
	}
}

func (m *gatewayMetrics) connected(delta float64) {
	if m != nil {
		m.connections.Add(delta)
	}
}

func (m *gatewayMetrics) frame(typ string) {
	if m != nil {
		m.frames.WithLabelValues(typ).Inc()
	}
}
