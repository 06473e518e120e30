// Package infra contains technical adapters: metrics sinks (Prometheus,
// InfluxDB, MQTT, SQLite run history), the zerolog logger and the Sentry
// reporter. These packages depend only on the interfaces defined in the core
// packages.
package infra
