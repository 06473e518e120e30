// Package factory provides a small generic registry used to instantiate
// modules, such as metrics sinks, from configuration. A module is selected by
// a type string and configured by a map of raw settings that the factory
// decodes into its own typed struct.
//
// Example usage:
//
//	reg := factory.NewRegistry[metrics.MetricsSink]()
//	reg.Register("nop", func(map[string]any) (metrics.MetricsSink, error) {
//	    return metrics.NopSink{}, nil
//	})
//	s, err := reg.Create(factory.ModuleConfig{Type: "nop"})
package factory
