// Package metrics exposes Prometheus instrumentation for the relay and the
// workflow stages. Metric names are prefixed "farehop_".
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/farehop/farehop/pkg/domain"
)

// Relay implements relay.Observer on Prometheus counters.
type Relay struct {
	staged   *prometheus.CounterVec
	resolved *prometheus.CounterVec
}

// NewRelay creates and registers the relay metrics.
func NewRelay(reg prometheus.Registerer) *Relay {
	staged := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "farehop",
			Subsystem: "relay",
			Name:      "staged_total",
			Help:      "Staged records by workflow stage and outcome",
		},
		[]string{"stage", "outcome"},
	)

	resolved := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "farehop",
			Subsystem: "relay",
			Name:      "resolved_total",
			Help:      "Token resolutions by workflow stage and outcome",
		},
		[]string{"stage", "outcome"},
	)

	reg.MustRegister(staged, resolved)
	return &Relay{staged: staged, resolved: resolved}
}

// RecordStage counts one staging attempt.
func (r *Relay) RecordStage(stage string, err error) {
	r.staged.WithLabelValues(stage, outcome(err)).Inc()
}

// RecordResolve counts one resolution attempt.
func (r *Relay) RecordResolve(stage string, err error) {
	r.resolved.WithLabelValues(stage, outcome(err)).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrExpired):
		return "expired"
	case errors.Is(err, domain.ErrInvalidReference):
		return "invalid_reference"
	case errors.Is(err, domain.ErrCorruptRecord):
		return "corrupt"
	default:
		return "error"
	}
}
