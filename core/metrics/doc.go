// Package metrics defines the events emitted while searching for a station
// configuration and the sinks recording them. Sinks such as PromSink and
// InfluxSink live in infra/metrics and register themselves in the factory
// so that NewMetricsSink can build them from configuration. Several sinks
// are combined with NewMultiSink.
package metrics
