package metrics

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one counter slot.
type MetricID uint16

const (
	MetricLoginSuccess MetricID = iota
	MetricLoginRejected
	MetricLoginUnreachable
	MetricLoginContractViolation
	MetricLoginPersistFailed
	MetricRegisterSuccess
	MetricRegisterRejected
	MetricRegisterUnreachable
	MetricSubmitRejected
	MetricStaleResultDiscarded
	MetricSessionSaved
	MetricSessionCleared
	MetricLogout
	MetricRemoteLatency
	MetricIDCount
)

var metricNames = [MetricIDCount]string{
	MetricLoginSuccess:           "login_success",
	MetricLoginRejected:          "login_rejected",
	MetricLoginUnreachable:       "login_unreachable",
	MetricLoginContractViolation: "login_contract_violation",
	MetricLoginPersistFailed:     "login_persist_failed",
	MetricRegisterSuccess:        "register_success",
	MetricRegisterRejected:       "register_rejected",
	MetricRegisterUnreachable:    "register_unreachable",
	MetricSubmitRejected:         "submit_rejected",
	MetricStaleResultDiscarded:   "stale_result_discarded",
	MetricSessionSaved:           "session_saved",
	MetricSessionCleared:         "session_cleared",
	MetricLogout:                 "logout",
	MetricRemoteLatency:          "remote_latency",
}

// Name returns the snake_case name used by exporters.
func (id MetricID) Name() string {
	if id >= MetricIDCount {
		return ""
	}
	return metricNames[id]
}

const (
	HistBucketCount = 8
	cacheLineSize   = 64
)

// HistogramBounds are the inclusive upper bounds of the first seven buckets.
// The last bucket is +Inf.
var HistogramBounds = [HistBucketCount - 1]time.Duration{
	5 * time.Millisecond,
	10 * time.Millisecond,
	25 * time.Millisecond,
	50 * time.Millisecond,
	100 * time.Millisecond,
	250 * time.Millisecond,
	500 * time.Millisecond,
}

type histogram struct {
	buckets [HistBucketCount]uint64
	sumNs   uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Config toggles collection.
type Config struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// Metrics holds every counter and the remote latency histogram.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [MetricIDCount]paddedCounter
	latency       histogram
}

// Snapshot is a point-in-time copy of all metric values. Histograms hold
// non-cumulative bucket counts; Sums hold the total observed duration.
type Snapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
	Sums       map[MetricID]time.Duration
}

// New returns a Metrics honoring cfg.
func New(cfg Config) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether the latency histogram is recorded.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to the counter id. It is a no-op on a nil or disabled Metrics.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= MetricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d in the remote latency histogram. Other ids are ignored.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enableLatency || id != MetricRemoteLatency {
		return
	}
	atomic.AddUint64(&m.latency.buckets[BucketIndex(d)], 1)
	if d > 0 {
		atomic.AddUint64(&m.latency.sumNs, uint64(d))
	}
}

// Value returns the current count of id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= MetricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every value. It is empty when metrics are disabled.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil || !m.enabled {
		return Snapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
			Sums:       map[MetricID]time.Duration{},
		}
	}

	s := Snapshot{
		Counters:   make(map[MetricID]uint64, int(MetricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
		Sums:       make(map[MetricID]time.Duration, 1),
	}
	for id := MetricID(0); id < MetricIDCount; id++ {
		if id == MetricRemoteLatency {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, HistBucketCount)
		for i := range buckets {
			buckets[i] = atomic.LoadUint64(&m.latency.buckets[i])
		}
		s.Histograms[MetricRemoteLatency] = buckets
		s.Sums[MetricRemoteLatency] = time.Duration(atomic.LoadUint64(&m.latency.sumNs))
	}
	return s
}

// BucketIndex maps d onto a histogram bucket.
func BucketIndex(d time.Duration) int {
	for i, bound := range HistogramBounds {
		if d <= bound {
			return i
		}
	}
	return HistBucketCount - 1
}
