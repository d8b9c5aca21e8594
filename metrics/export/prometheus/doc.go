// Package prometheus exposes authflow metrics to Prometheus.
//
// [Exporter] implements prometheus.Collector. Each scrape reads
// [authflow.Client.MetricsSnapshot] and emits const metrics: one
// authflow_*_total counter per outcome, the authflow_remote_latency_seconds
// histogram and authflow_audit_dropped_total.
//
// # What this package must NOT do
//
//   - Register in the global Prometheus registry. Callers register the
//     Exporter themselves or mount [Exporter.Handler].
//   - Mutate client state.
package prometheus
