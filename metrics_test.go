package authtrail

import "testing"

func TestMetricsDisabledIsNoOp(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	m.Inc(MetricProfileSynced)
	if got := m.Snapshot()[MetricProfileSynced]; got != 0 {
		t.Fatalf("disabled metrics must not count, got %d", got)
	}
}

func TestMetricsCountAndSnapshot(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Inc(MetricAuditRecorded)
	m.Inc(MetricAuditRecorded)
	m.Inc(MetricAccountsDeleted)
	m.Inc(metricIDCount + 1) // out of range, ignored

	snap := m.Snapshot()
	if snap[MetricAuditRecorded] != 2 {
		t.Fatalf("audit recorded = %d", snap[MetricAuditRecorded])
	}
	if snap[MetricAccountsDeleted] != 1 {
		t.Fatalf("accounts deleted = %d", snap[MetricAccountsDeleted])
	}
	if len(snap) != int(metricIDCount) {
		t.Fatalf("snapshot size = %d", len(snap))
	}
}

func TestNilMetricsSafe(t *testing.T) {
	var m *Metrics
	m.Inc(MetricProfileSynced)
	if snap := m.Snapshot(); len(snap) != 0 {
		t.Fatalf("nil metrics snapshot = %v", snap)
	}
}
