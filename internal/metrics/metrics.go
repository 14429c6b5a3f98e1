// Package metrics exposes state machine activity as Prometheus metrics.
package metrics

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/fuersten/statemachine"
)

const namespace = "statemachine"

// Observer is a statemachine.Observer that counts starts, transitions, idle ticks, terminations and errors.
type Observer struct {
	starts       *prometheus.CounterVec
	transitions  *prometheus.CounterVec
	idleTicks    *prometheus.CounterVec
	terminations *prometheus.CounterVec
	errors       *prometheus.CounterVec

	registry *prometheus.Registry
}

var _ statemachine.Observer = (*Observer)(nil)

// NewObserver creates an Observer with its own registry.
func NewObserver() *Observer {
	o := &Observer{
		registry: prometheus.NewRegistry(),

		starts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "starts_total",
				Help:      "Total number of machine starts",
			},
			[]string{"machine", "state"},
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transitions_total",
				Help:      "Total number of transitions taken, self-loops included",
			},
			[]string{"machine", "from", "to", "event"},
		),
		idleTicks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "idle_ticks_total",
				Help:      "Total number of ProcessEvent calls that only ran the current state",
			},
			[]string{"machine", "state"},
		),
		terminations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "terminations_total",
				Help:      "Total number of runs that reached an exit state",
			},
			[]string{"machine", "state"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total number of errors returned by Start and ProcessEvent",
			},
			[]string{"machine", "kind"},
		),
	}

	o.registry.MustRegister(
		o.starts,
		o.transitions,
		o.idleTicks,
		o.terminations,
		o.errors,
	)

	return o
}

// Registry returns the registry the counters are registered with.
func (o *Observer) Registry() *prometheus.Registry {
	return o.registry
}

func (o *Observer) OnStart(_ context.Context, machine, _, state string) {
	o.starts.WithLabelValues(machine, state).Inc()
}

func (o *Observer) OnStep(_ context.Context, step statemachine.Step) {
	if step.Idle {
		o.idleTicks.WithLabelValues(step.Machine, step.From).Inc()
		return
	}
	o.transitions.WithLabelValues(step.Machine, step.From, step.To, step.Event).Inc()
}

func (o *Observer) OnTerminate(_ context.Context, machine, _, state string) {
	o.terminations.WithLabelValues(machine, state).Inc()
}

func (o *Observer) OnError(_ context.Context, machine, _ string, err error) {
	o.errors.WithLabelValues(machine, errorKind(err)).Inc()
}

func errorKind(err error) string {
	switch {
	case statemachine.IsNoTransitionFoundError(err):
		return "no_transition"
	case statemachine.IsAmbiguousTransitionError(err),
		errors.Is(err, statemachine.ErrInvalidTransition),
		errors.Is(err, statemachine.ErrIncompleteTransition),
		errors.Is(err, statemachine.ErrTerminalSource):
		return "registration"
	default:
		return "callback"
	}
}
