package metrics

import "time"

// Simulation outcomes.
const (
	OutcomeOK         = "ok"
	OutcomeInfeasible = "infeasible"
	OutcomeError      = "error"
)

// SimulationEvent describes the allocation run of one candidate configuration.
type SimulationEvent struct {
	RunID              string
	Configuration      string
	Stations           int
	InstalledPowerKW   float64
	CapitalCost        float64
	RequestedKWh       float64
	DeliveredKWh       float64
	ExternalKWh        float64
	InternalFraction   float64
	CombinedEfficiency float64
	FullyServed        int
	Sessions           int
	Passes             int
	Outcome            string
	Duration           time.Duration
	Time               time.Time
}

// MetricsSink records simulation events for observability purposes.
type MetricsSink interface {
	RecordSimulation(ev SimulationEvent) error
}

// OptimizationEvent summarises a complete search.
type OptimizationEvent struct {
	RunID          string        `json:"run_id"`
	Vehicles       int           `json:"vehicles"`
	RequestedKWh   float64       `json:"requested_kwh"`
	Candidates     int           `json:"candidates"`
	Feasible       int           `json:"feasible"`
	Failed         int           `json:"failed"`
	Best           string        `json:"best,omitempty"`
	BestFraction   float64       `json:"best_fraction"`
	BestPowerKW    float64       `json:"best_power_kw"`
	BestCost       float64       `json:"best_cost"`
	BestEfficiency float64       `json:"best_efficiency"`
	UpperBoundKWh  float64       `json:"upper_bound_kwh"`
	Ranking        []string      `json:"ranking,omitempty"`
	Solved         bool          `json:"solved"`
	Duration       time.Duration `json:"duration_ns"`
	Time           time.Time     `json:"time"`
}

// OptimizationRecorder records the summary of a search.
type OptimizationRecorder interface {
	RecordOptimization(ev OptimizationEvent) error
}

// Flusher is implemented by sinks buffering data until the end of a run.
type Flusher interface {
	Flush() error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordSimulation(SimulationEvent) error     { return nil }
func (NopSink) RecordOptimization(OptimizationEvent) error { return nil }
func (NopSink) Flush() error                               { return nil }
