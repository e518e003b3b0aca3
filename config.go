package authtrail

import (
	"errors"
	"fmt"
)

// Config carries engine configuration. Configure during initialization
// and treat as immutable afterwards.
type Config struct {
	Audit   AuditConfig
	Metrics MetricsConfig
}

// AuditConfig controls the audit recording path.
type AuditConfig struct {
	// RecordMutation names the audit-write mutation invoked through the
	// mutation runner when the engine has no direct audit store.
	RecordMutation string
	// Mirror configures the optional async observer sink fed a copy of
	// every directly written audit document.
	Mirror MirrorConfig
}

// MirrorConfig controls observer-sink buffering.
type MirrorConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig toggles the in-process counters.
type MetricsConfig struct {
	Enabled bool
}

// DefaultAuditMutation is the conventional name of the audit-write
// mutation on the RPC side.
const DefaultAuditMutation = "logs:recordAudit"

func defaultConfig() Config {
	return Config{
		Audit: AuditConfig{
			RecordMutation: DefaultAuditMutation,
			Mirror: MirrorConfig{
				Enabled:    false,
				BufferSize: 64,
				DropIfFull: true,
			},
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	// All fields are value types; a copy is a deep copy.
	return cfg
}

// Validate reports configuration that cannot be built.
func (c Config) Validate() error {
	if c.Audit.RecordMutation == "" {
		return errors.New("Audit.RecordMutation must not be empty")
	}
	if c.Audit.Mirror.BufferSize < 0 {
		return fmt.Errorf("Audit.Mirror.BufferSize must be >= 0, got %d", c.Audit.Mirror.BufferSize)
	}
	return nil
}
