package authflow

import internalmetrics "github.com/chatline/authflow/internal/metrics"

// MetricID identifies a counter or the remote latency histogram.
type MetricID = internalmetrics.MetricID

// MetricsSnapshot is a point-in-time copy of every metric, returned by
// [Client.MetricsSnapshot].
type MetricsSnapshot = internalmetrics.Snapshot

const (
	// MetricLoginSuccess counts logins that persisted a session.
	MetricLoginSuccess = internalmetrics.MetricLoginSuccess
	// MetricLoginRejected counts non-2xx login responses.
	MetricLoginRejected = internalmetrics.MetricLoginRejected
	// MetricLoginUnreachable counts login transport failures.
	MetricLoginUnreachable = internalmetrics.MetricLoginUnreachable
	// MetricLoginContractViolation counts 2xx login responses without a full token pair.
	MetricLoginContractViolation = internalmetrics.MetricLoginContractViolation
	// MetricLoginPersistFailed counts session store failures after a successful login.
	MetricLoginPersistFailed = internalmetrics.MetricLoginPersistFailed
	MetricRegisterSuccess    = internalmetrics.MetricRegisterSuccess
	MetricRegisterRejected   = internalmetrics.MetricRegisterRejected
	// MetricRegisterUnreachable counts registration transport failures.
	MetricRegisterUnreachable = internalmetrics.MetricRegisterUnreachable
	// MetricSubmitRejected counts Submit calls refused because one was in flight.
	MetricSubmitRejected = internalmetrics.MetricSubmitRejected
	// MetricStaleResultDiscarded counts results dropped because the flow was closed.
	MetricStaleResultDiscarded = internalmetrics.MetricStaleResultDiscarded
	MetricSessionSaved         = internalmetrics.MetricSessionSaved
	MetricSessionCleared       = internalmetrics.MetricSessionCleared
	MetricLogout               = internalmetrics.MetricLogout
	// MetricRemoteLatency is the identity service round-trip histogram.
	MetricRemoteLatency = internalmetrics.MetricRemoteLatency
)
