package metrics

import "errors"

// MultiSink fans events out to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordSimulation forwards the event to all sinks, returning the first error encountered.
func (m *MultiSink) RecordSimulation(ev SimulationEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordSimulation(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordOptimization forwards the summary to the sinks supporting it.
func (m *MultiSink) RecordOptimization(ev OptimizationEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(OptimizationRecorder); ok {
			if err := rec.RecordOptimization(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// Flush flushes every sink and joins the errors.
func (m *MultiSink) Flush() error {
	var errs []error
	for _, s := range m.Sinks {
		if f, ok := s.(Flusher); ok {
			errs = append(errs, f.Flush())
		}
	}
	return errors.Join(errs...)
}
