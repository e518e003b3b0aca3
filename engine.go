package authtrail

import (
	"log"

	"github.com/halcyon-dev/authtrail/internal/audit"
)

// Engine coordinates account projection, audit logging and user-data
// deletion. Construct one through the Builder; the zero value is not
// usable.
type Engine struct {
	config Config

	appUsers  AppUserStore
	auditLogs AuditLogStore
	counters  CounterStore
	usernames UsernameIndex
	runner    MutationRunner

	registry  *deletionRegistry
	mirror    *audit.Dispatcher
	metrics   *Metrics
	diag      *log.Logger
	syncLocks *keyedMutex
}

// Config returns a copy of the engine's effective configuration.
func (e *Engine) Config() Config {
	return cloneConfig(e.config)
}

// Metrics exposes the engine's counter set. Never nil after Build.
func (e *Engine) Metrics() *Metrics {
	return e.metrics
}

// MetricsSnapshot returns current counter values.
func (e *Engine) MetricsSnapshot() map[MetricID]uint64 {
	return e.metrics.Snapshot()
}

// AuditMirrorDropped reports how many mirror documents were dropped
// because the mirror buffer was full. Zero when the mirror is disabled.
func (e *Engine) AuditMirrorDropped() uint64 {
	if e.mirror == nil {
		return 0
	}
	return e.mirror.Dropped()
}

// Close flushes and stops the audit mirror. Safe to call more than
// once.
func (e *Engine) Close() {
	if e.mirror != nil {
		e.mirror.Close()
	}
}

func (e *Engine) metricInc(id MetricID) {
	e.metrics.Inc(id)
}

func (e *Engine) logf(format string, args ...any) {
	if e.diag != nil {
		e.diag.Printf(format, args...)
	}
}
