// Package otel publishes authflow metrics through OpenTelemetry.
//
// [NewExporter] registers an Int64ObservableCounter for each outcome counter
// and one Int64ObservableGauge per latency bucket, plus count and sum gauges.
// A single callback reads [authflow.Client.MetricsSnapshot] on each
// collection cycle.
//
// # What this package must NOT do
//
//   - Own the MeterProvider. Callers supply the Meter.
//   - Mutate client state.
package otel
