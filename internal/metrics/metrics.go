// Package metrics exports dispatch events as Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors fed by Hooks.
type Metrics struct {
	Events   *prometheus.CounterVec
	Duration *prometheus.HistogramVec
	Running  prometheus.GaugeFunc
}

// New creates the collectors and registers them with reg. running reports the
// number of in-flight handlers (e.g. engine.Scope().Running); it may be nil.
func New(reg prometheus.Registerer, running func() int) *Metrics {
	m := &Metrics{
		Events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arbor_command_events_total",
				Help: "Dispatch events by command and type.",
			},
			[]string{"command", "event"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "arbor_handler_duration_seconds",
				Help:    "Handler run time by command and outcome.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"command", "outcome"},
		),
	}
	if running == nil {
		running = func() int { return 0 }
	}
	m.Running = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "arbor_handlers_running",
			Help: "Handlers currently executing.",
		},
		func() float64 { return float64(running()) },
	)
	reg.MustRegister(m.Events, m.Duration, m.Running)
	return m
}

// Hooks returns dispatch hooks recording into m.
func (m *Metrics) Hooks() domain.Hooks {
	count := func(e *domain.CommandEvent) {
		m.Events.WithLabelValues(e.Command, string(e.Type)).Inc()
	}
	finish := func(e *domain.CommandEvent) {
		count(e)
		m.Duration.WithLabelValues(e.Command, string(e.Type)).Observe(e.Duration.Seconds())
	}
	return domain.Hooks{
		OnDispatch: count,
		OnDenied:   count,
		OnRejected: count,
		OnComplete: finish,
		OnFailure:  finish,
		OnError:    finish,
		OnCanceled: finish,
	}
}

// Handler serves the collectors registered with g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
