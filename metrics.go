package authtrail

import "sync/atomic"

// MetricID identifies one in-process counter.
type MetricID uint16

const (
	// MetricProfileSynced counts successful application-user syncs.
	MetricProfileSynced MetricID = iota
	// MetricProfileSyncFailed counts update triggers whose sync threw.
	MetricProfileSyncFailed
	// MetricAuditRecorded counts audit documents written to storage or
	// routed through the mutation runner.
	MetricAuditRecorded
	// MetricAuditWriteFailed counts failed audit writes, including
	// suppressed secondary failures.
	MetricAuditWriteFailed
	// MetricAccountsDeleted counts completed deletion runs.
	MetricAccountsDeleted
	// MetricCounterMutations counts authenticated counter mutations.
	MetricCounterMutations

	metricIDCount
)

// Metrics holds lock-free counters. When disabled, all operations are
// no-ops.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]atomic.Uint64
}

// NewMetrics creates a Metrics instance per cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Inc increments one counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	m.counters[id].Add(1)
}

// Snapshot returns a point-in-time copy of every counter.
func (m *Metrics) Snapshot() map[MetricID]uint64 {
	out := make(map[MetricID]uint64, metricIDCount)
	if m == nil {
		return out
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		out[id] = m.counters[id].Load()
	}
	return out
}
