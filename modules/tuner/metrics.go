package tuner

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "tunego"

type tunerMetrics struct {
	resolutions *prometheus.CounterVec
	reconnects  prometheus.Counter
	failures    prometheus.Counter
	state       *prometheus.GaugeVec
}

func newMetrics(reg prometheus.Registerer) *tunerMetrics {
	factory := promauto.With(reg)

	return &tunerMetrics{
		resolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "playlist_resolutions_total",
			Help:      "Playlist resolutions by result.",
		}, []string{"result"}),
		reconnects: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "reconnects_scheduled_total",
			Help:      "Reconnect attempts scheduled after stream drops.",
		}),
		failures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "connection_failures_total",
			Help:      "Sessions that ended in a failed state.",
		}),
		state: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "connection_state",
			Help:      "Current connection state (1 for the active state).",
		}, []string{"state"}),
	}
}

func (m *tunerMetrics) setState(st State) {
	m.state.Reset()
	m.state.WithLabelValues(stateLabel(st)).Set(1)
}

func stateLabel(st State) string {
	switch st.(type) {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Reconnecting:
		return "reconnecting"
	case Failed:
		return "failed"
	default:
		return "disconnected"
	}
}
