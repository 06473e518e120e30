package metrics

import (
	"sort"
	"sync"
)

// MemorySink keeps events in memory, for tests or for reporting after a run.
type MemorySink struct {
	mu            sync.Mutex
	simulations   []SimulationEvent
	optimizations []OptimizationEvent
}

// NewMemorySink returns an empty MemorySink.
func NewMemorySink() *MemorySink { return &MemorySink{} }

// RecordSimulation stores the event.
func (s *MemorySink) RecordSimulation(ev SimulationEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.simulations = append(s.simulations, ev)
	return nil
}

// RecordOptimization stores the summary.
func (s *MemorySink) RecordOptimization(ev OptimizationEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.optimizations = append(s.optimizations, ev)
	return nil
}

// Simulations returns the events of a run ordered by configuration.
// An empty run id returns every event.
func (s *MemorySink) Simulations(runID string) []SimulationEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []SimulationEvent
	for _, ev := range s.simulations {
		if runID == "" || ev.RunID == runID {
			out = append(out, ev)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Configuration < out[j].Configuration })
	return out
}

// Optimizations returns the recorded summaries in arrival order.
func (s *MemorySink) Optimizations() []OptimizationEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]OptimizationEvent(nil), s.optimizations...)
}

// Count returns the number of simulations per outcome.
func (s *MemorySink) Count() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int)
	for _, ev := range s.simulations {
		out[ev.Outcome]++
	}
	return out
}
