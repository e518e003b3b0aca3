package authtrail

import (
	"errors"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()
	if cfg.Audit.RecordMutation != DefaultAuditMutation {
		t.Fatalf("default record mutation = %q", cfg.Audit.RecordMutation)
	}
	if cfg.Audit.Mirror.Enabled {
		t.Fatal("mirror must be disabled by default")
	}
	if cfg.Audit.Mirror.BufferSize != 64 || !cfg.Audit.Mirror.DropIfFull {
		t.Fatalf("mirror defaults = %+v", cfg.Audit.Mirror)
	}
	if !cfg.Metrics.Enabled {
		t.Fatal("metrics must be enabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestConfigValidateRejections(t *testing.T) {
	cfg := defaultConfig()
	cfg.Audit.RecordMutation = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty record mutation must be rejected")
	}

	cfg = defaultConfig()
	cfg.Audit.Mirror.BufferSize = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("negative mirror buffer must be rejected")
	}
}

func TestBuildValidatesWiring(t *testing.T) {
	if _, err := New().WithAuditLogStore(newMemoryAuditLogStore()).Build(); !errors.Is(err, ErrAppUserStoreRequired) {
		t.Fatalf("expected ErrAppUserStoreRequired, got %v", err)
	}
	if _, err := New().WithAppUserStore(newMemoryAppUserStore()).Build(); !errors.Is(err, ErrAuditBackendRequired) {
		t.Fatalf("expected ErrAuditBackendRequired, got %v", err)
	}

	builder := New().
		WithAppUserStore(newMemoryAppUserStore()).
		WithAuditLogStore(newMemoryAuditLogStore())
	engine, err := builder.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()

	if _, err := builder.Build(); err == nil {
		t.Fatal("builder reuse must fail")
	}
}

func TestEngineConfigReturnsCopy(t *testing.T) {
	cfg := defaultConfig()
	cfg.Audit.RecordMutation = "custom:auditWrite"
	engine, err := New().
		WithConfig(cfg).
		WithAppUserStore(newMemoryAppUserStore()).
		WithAuditLogStore(newMemoryAuditLogStore()).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()

	got := engine.Config()
	if got.Audit.RecordMutation != "custom:auditWrite" {
		t.Fatalf("config lost custom mutation: %q", got.Audit.RecordMutation)
	}
	got.Audit.RecordMutation = "mutated"
	if engine.Config().Audit.RecordMutation != "custom:auditWrite" {
		t.Fatal("Config must return a copy")
	}
}
