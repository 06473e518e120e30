package metrics

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	coremetrics "github.com/ejosa-pasquale/HoreCa/core/metrics"
)

// PromSink records simulation events in Prometheus metrics. When created with
// a push gateway the metrics are pushed on Flush, since a planning run is too
// short to be scraped.
type PromSink struct {
	simulations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	runs        *prometheus.CounterVec
	fraction    prometheus.Gauge
	power       prometheus.Gauge
	candidates  prometheus.Gauge
	pusher      *push.Pusher
}

// NewPromSink registers the metrics on the default Prometheus registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		simulations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chargeplan_simulations_total",
			Help: "Candidate configurations simulated, by outcome",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "chargeplan_simulation_duration_seconds",
			Help:    "Time spent allocating one candidate configuration",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"outcome"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chargeplan_optimizations_total",
			Help: "Completed searches, by whether a configuration was found",
		}, []string{"solved"}),
		fraction: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chargeplan_best_internal_fraction",
			Help: "Share of demand served by the best configuration of the last search",
		}),
		power: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chargeplan_best_installed_power_kw",
			Help: "Installed power of the best configuration of the last search",
		}),
		candidates: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chargeplan_candidates",
			Help: "Candidate configurations of the last search",
		}),
	}

	var err error
	if s.simulations, err = register(reg, s.simulations); err != nil {
		return nil, err
	}
	if s.duration, err = register(reg, s.duration); err != nil {
		return nil, err
	}
	if s.runs, err = register(reg, s.runs); err != nil {
		return nil, err
	}
	if s.fraction, err = register(reg, s.fraction); err != nil {
		return nil, err
	}
	if s.power, err = register(reg, s.power); err != nil {
		return nil, err
	}
	if s.candidates, err = register(reg, s.candidates); err != nil {
		return nil, err
	}
	return s, nil
}

// NewPushPromSink registers the metrics on a private registry pushed to the
// gateway at url under the given job on every Flush.
func NewPushPromSink(url, job string, grouping map[string]string) (*PromSink, error) {
	if url == "" {
		return nil, errors.New("push gateway url is required")
	}
	reg := prometheus.NewRegistry()
	s, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		return nil, err
	}
	p := push.New(url, job).Gatherer(reg)
	for k, v := range grouping {
		p = p.Grouping(k, v)
	}
	s.pusher = p
	return s, nil
}

// register reuses an already registered collector of the same description.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordSimulation counts the candidate and observes its duration.
func (s *PromSink) RecordSimulation(ev coremetrics.SimulationEvent) error {
	s.simulations.WithLabelValues(ev.Outcome).Inc()
	s.duration.WithLabelValues(ev.Outcome).Observe(ev.Duration.Seconds())
	return nil
}

// RecordOptimization updates the gauges describing the last search.
func (s *PromSink) RecordOptimization(ev coremetrics.OptimizationEvent) error {
	s.runs.WithLabelValues(strconv.FormatBool(ev.Solved)).Inc()
	s.candidates.Set(float64(ev.Candidates))
	if ev.Solved {
		s.fraction.Set(ev.BestFraction)
		s.power.Set(ev.BestPowerKW)
	}
	return nil
}

// Flush pushes the metrics when a gateway is configured.
func (s *PromSink) Flush() error {
	if s.pusher == nil {
		return nil
	}
	if err := s.pusher.Push(); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
