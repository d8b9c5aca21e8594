package internaldefs

import (
	"github.com/chatline/authflow"
	internalmetrics "github.com/chatline/authflow/internal/metrics"
)

// CounterDef names one exported counter.
type CounterDef struct {
	ID   authflow.MetricID
	Name string
	Help string
}

// HistogramDef names one exported histogram.
type HistogramDef struct {
	ID   authflow.MetricID
	Name string
	Help string
}

// Namespace prefixes every exported metric name.
const Namespace = "authflow"

// AuditDroppedName is the counter of audit events lost to backpressure.
const AuditDroppedName = Namespace + "_audit_dropped_total"

// CounterDefs lists every exported counter in MetricID order.
var CounterDefs = []CounterDef{
	{ID: authflow.MetricLoginSuccess, Name: "authflow_login_success_total", Help: "Logins that persisted a session."},
	{ID: authflow.MetricLoginRejected, Name: "authflow_login_rejected_total", Help: "Logins rejected by the identity service."},
	{ID: authflow.MetricLoginUnreachable, Name: "authflow_login_unreachable_total", Help: "Logins that could not reach the identity service."},
	{ID: authflow.MetricLoginContractViolation, Name: "authflow_login_contract_violation_total", Help: "2xx login responses without a complete token pair."},
	{ID: authflow.MetricLoginPersistFailed, Name: "authflow_login_persist_failed_total", Help: "Logins whose session could not be stored."},
	{ID: authflow.MetricRegisterSuccess, Name: "authflow_register_success_total", Help: "Successful registrations."},
	{ID: authflow.MetricRegisterRejected, Name: "authflow_register_rejected_total", Help: "Registrations rejected by the identity service."},
	{ID: authflow.MetricRegisterUnreachable, Name: "authflow_register_unreachable_total", Help: "Registrations that could not reach the identity service."},
	{ID: authflow.MetricSubmitRejected, Name: "authflow_submit_rejected_total", Help: "Submissions refused while another was in flight."},
	{ID: authflow.MetricStaleResultDiscarded, Name: "authflow_stale_result_discarded_total", Help: "Results discarded because their flow was closed."},
	{ID: authflow.MetricSessionSaved, Name: "authflow_session_saved_total", Help: "Session records written."},
	{ID: authflow.MetricSessionCleared, Name: "authflow_session_cleared_total", Help: "Session records cleared."},
	{ID: authflow.MetricLogout, Name: "authflow_logout_total", Help: "Logout operations."},
}

// HistogramDefs lists the exported histograms.
var HistogramDefs = []HistogramDef{
	{ID: authflow.MetricRemoteLatency, Name: "authflow_remote_latency_seconds", Help: "Identity service round-trip latency."},
}

// HistogramBounds are the upper bounds in seconds of the finite buckets.
var HistogramBounds = func() []float64 {
	out := make([]float64, len(internalmetrics.HistogramBounds))
	for i, d := range internalmetrics.HistogramBounds {
		out[i] = d.Seconds()
	}
	return out
}()

// HistogramBoundSuffix names each bucket, including +Inf, for exporters
// that publish one gauge per bucket.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed-size array, zero-filling missing buckets.
func NormalizeBuckets(raw []uint64) [internalmetrics.HistBucketCount]uint64 {
	var out [internalmetrics.HistBucketCount]uint64
	copy(out[:], raw)
	return out
}

// CumulativeBuckets converts per-bucket counts into running totals.
func CumulativeBuckets(raw [internalmetrics.HistBucketCount]uint64) [internalmetrics.HistBucketCount]uint64 {
	var out [internalmetrics.HistBucketCount]uint64
	var running uint64
	for i, v := range raw {
		running += v
		out[i] = running
	}
	return out
}
