package authtrail

import (
	"context"
	"errors"
	"log"

	"github.com/halcyon-dev/authtrail/internal/audit"
)

// Builder assembles an [Engine]. Configure it during initialization,
// call Build once, then discard it.
type Builder struct {
	config Config

	appUsers  AppUserStore
	auditLogs AuditLogStore
	counters  CounterStore
	usernames UsernameIndex
	runner    MutationRunner

	mirrorSink AuditSink
	diag       *log.Logger

	purgeDomains  []string
	purgeHandlers map[string]PurgeHandler

	built bool
}

// New returns a Builder seeded with the default configuration.
func New() *Builder {
	return &Builder{
		config:        defaultConfig(),
		purgeHandlers: make(map[string]PurgeHandler),
	}
}

// WithConfig replaces the builder's configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithAppUserStore sets the application-user projection store. Required.
func (b *Builder) WithAppUserStore(store AppUserStore) *Builder {
	b.appUsers = store
	return b
}

// WithAuditLogStore sets the audit log store. Required unless a mutation
// runner handles audit writes.
func (b *Builder) WithAuditLogStore(store AuditLogStore) *Builder {
	b.auditLogs = store
	return b
}

// WithCounterStore sets the per-user counter store. Optional.
func (b *Builder) WithCounterStore(store CounterStore) *Builder {
	b.counters = store
	return b
}

// WithUsernameIndex sets the username existence index consulted during
// unique username assignment. Optional; without it every candidate is
// treated as free.
func (b *Builder) WithUsernameIndex(index UsernameIndex) *Builder {
	b.usernames = index
	return b
}

// WithMutationRunner routes audit writes through the named record
// mutation instead of the local audit store.
func (b *Builder) WithMutationRunner(runner MutationRunner) *Builder {
	b.runner = runner
	return b
}

// WithAuditSink attaches a sink to the audit mirror dispatcher and
// enables the mirror.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.mirrorSink = sink
	b.config.Audit.Mirror.Enabled = sink != nil
	return b
}

// WithDiagnostics sets the logger for non-fatal internal warnings.
func (b *Builder) WithDiagnostics(logger *log.Logger) *Builder {
	b.diag = logger
	return b
}

// WithPurger registers a custom deletion domain. Handlers run after the
// built-in domains, in registration order.
func (b *Builder) WithPurger(domain string, handler PurgeHandler) *Builder {
	b.purgeDomains = append(b.purgeDomains, domain)
	b.purgeHandlers[domain] = handler
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration and wiring and returns the engine.
// The builder cannot be reused afterwards.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	b.built = true

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.appUsers == nil {
		return nil, ErrAppUserStoreRequired
	}
	if b.auditLogs == nil && b.runner == nil {
		return nil, ErrAuditBackendRequired
	}

	engine := &Engine{
		config:    cfg,
		appUsers:  b.appUsers,
		auditLogs: b.auditLogs,
		counters:  b.counters,
		usernames: b.usernames,
		runner:    b.runner,
		registry:  newDeletionRegistry(),
		metrics:   NewMetrics(cfg.Metrics),
		diag:      b.diag,
		syncLocks: newKeyedMutex(),
	}

	// Built-in domains purge in dependency order: the counter and log
	// documents reference the user, the projection goes last.
	if b.counters != nil {
		if err := engine.registry.register("counter", func(ctx context.Context, userID string) (*PurgeResult, error) {
			n, err := b.counters.DeleteByUser(ctx, userID)
			if err != nil {
				return nil, err
			}
			return &PurgeResult{DeletedRecords: n}, nil
		}); err != nil {
			return nil, err
		}
	}
	if b.auditLogs != nil {
		if err := engine.registry.register("auditLogs", func(ctx context.Context, userID string) (*PurgeResult, error) {
			n, err := b.auditLogs.DeleteByUser(ctx, userID)
			if err != nil {
				return nil, err
			}
			return &PurgeResult{DeletedRecords: n}, nil
		}); err != nil {
			return nil, err
		}
	}
	if err := engine.registry.register("appUsers", func(ctx context.Context, userID string) (*PurgeResult, error) {
		n, err := b.appUsers.DeleteByAuthUserID(ctx, userID)
		if err != nil {
			return nil, err
		}
		return &PurgeResult{DeletedRecords: n}, nil
	}); err != nil {
		return nil, err
	}
	for _, domain := range b.purgeDomains {
		if err := engine.registry.register(domain, b.purgeHandlers[domain]); err != nil {
			return nil, err
		}
	}

	if cfg.Audit.Mirror.Enabled {
		sink := b.mirrorSink
		if sink == nil {
			sink = NoOpSink{}
		}
		engine.mirror = audit.NewDispatcher(audit.Config{
			Enabled:    true,
			BufferSize: cfg.Audit.Mirror.BufferSize,
			DropIfFull: cfg.Audit.Mirror.DropIfFull,
		}, sink)
	}

	return engine, nil
}
