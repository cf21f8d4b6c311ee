package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes the pipeline's health counters. A sustained decode or
// validation failure rate must be visible operationally, not swallowed.
type Metrics struct {
	FramesTotal      *prometheus.CounterVec
	DecodeErrors     *prometheus.CounterVec
	ValidationErrors *prometheus.CounterVec
	RiskTransitions  *prometheus.CounterVec
	Reconnects       prometheus.Counter
	StillAlerts      prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		FramesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "roommonitor_frames_total",
			Help: "Raw transport lines read, per room.",
		}, []string{"room"}),
		DecodeErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "roommonitor_decode_errors_total",
			Help: "Malformed transport lines dropped, by kind.",
		}, []string{"room", "kind"}),
		ValidationErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "roommonitor_validation_errors_total",
			Help: "Out-of-range readings dropped, by field.",
		}, []string{"room", "field"}),
		RiskTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "roommonitor_risk_transitions_total",
			Help: "Published risk level changes, by level.",
		}, []string{"room", "level"}),
		Reconnects: f.NewCounter(prometheus.CounterOpts{
			Name: "roommonitor_transport_reconnects_total",
			Help: "Transport reconnection attempts after stream loss.",
		}),
		StillAlerts: f.NewCounter(prometheus.CounterOpts{
			Name: "roommonitor_prolonged_stillness_total",
			Help: "Readings observed past the prolonged-stillness alert bound.",
		}),
	}
}
