/*
Package metrics exposes board health as Prometheus series.

PURPOSE:
  Four gauges describe the board at a glance (scheduled, assigned, present,
  unassigned) and two counters track churn (rebuilds, audited mutations).
  The api package refreshes the gauges from the session KPI after every
  state change and serves them on /metrics.
*/
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Sink records board-level series.
type Sink struct {
	scheduled  prometheus.Gauge
	assigned   prometheus.Gauge
	present    prometheus.Gauge
	unassigned prometheus.Gauge
	rebuilds   prometheus.Counter
	mutations  *prometheus.CounterVec
}

// NewSink registers the board series on the default Prometheus registerer.
func NewSink() (*Sink, error) {
	return NewSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewSinkWithRegistry registers the board series on the provided registerer.
// A nil registerer defaults to the global one. Registering twice reuses the
// existing collectors, so tests can build sinks freely.
func NewSinkWithRegistry(reg prometheus.Registerer) (*Sink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &Sink{
		scheduled: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "board_scheduled_total",
			Help: "Employees in the derived scheduled population",
		}),
		assigned: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "board_assigned_total",
			Help: "Badges currently placed in a lane or station",
		}),
		present: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "board_present_total",
			Help: "Badges flipped present by an operator",
		}),
		unassigned: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "board_unassigned_total",
			Help: "Planned badges not yet placed",
		}),
		rebuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "board_rebuilds_total",
			Help: "Full board derivations triggered by input changes",
		}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "board_mutations_total",
			Help: "Audited operator mutations by kind",
		}, []string{"kind"}),
	}

	if err := reg.Register(s.scheduled); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			s.scheduled = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(s.assigned); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			s.assigned = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(s.present); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			s.present = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(s.unassigned); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			s.unassigned = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(s.rebuilds); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			s.rebuilds = are.ExistingCollector.(prometheus.Counter)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(s.mutations); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			s.mutations = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	return s, nil
}

// SetBoardCounts refreshes the four population gauges.
func (s *Sink) SetBoardCounts(scheduled, assigned, present, unassigned int) {
	s.scheduled.Set(float64(scheduled))
	s.assigned.Set(float64(assigned))
	s.present.Set(float64(present))
	s.unassigned.Set(float64(unassigned))
}

// RecordRebuild counts one full derivation.
func (s *Sink) RecordRebuild() {
	s.rebuilds.Inc()
}

// RecordMutation counts one audited operator action.
func (s *Sink) RecordMutation(kind string) {
	s.mutations.WithLabelValues(kind).Inc()
}
