package authtrail

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// AuditDescriptor describes one audit entry to record. ActorID defaults
// to UserID and IPAddress falls back to the client IP carried on the
// context via [WithClientIP].
type AuditDescriptor struct {
	Event     AuditEvent
	UserID    string
	ActorID   string
	IPAddress string
	Details   AuditDetails
}

// ProviderError is an operation failure carrying a provider status code
// alongside the human-readable message. [ExtractErrorDetails] maps it
// onto audit failure payloads.
type ProviderError struct {
	Status  string
	Message string
}

func (e *ProviderError) Error() string {
	if e.Status == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Status, e.Message)
}

// ExtractErrorDetails derives the (errorCode, message) pair recorded on
// failure audit entries. Errors that carry a code expose it; anything
// else yields an empty code and the error text.
func ExtractErrorDetails(err error) (errorCode, message string) {
	if err == nil {
		return "", ""
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Status, pe.Message
	}
	var coded interface{ ErrorCode() string }
	if errors.As(err, &coded) {
		return coded.ErrorCode(), err.Error()
	}
	return "", err.Error()
}

// RecordAuditLog validates and records one audit entry. When a mutation
// runner is configured the entry is routed through the configured
// mutation name so the write happens in its own transaction; otherwise
// it is written to the audit store directly.
func (e *Engine) RecordAuditLog(ctx context.Context, desc AuditDescriptor) error {
	ip := desc.IPAddress
	if ip == "" {
		ip = clientIPFromContext(ctx)
	}
	in, err := NewAuditInput(desc.Event, desc.UserID, desc.ActorID, ip, desc.Details)
	if err != nil {
		return err
	}
	if e.runner != nil {
		if _, err := e.runner.RunMutation(ctx, e.config.Audit.RecordMutation, in); err != nil {
			e.metricInc(MetricAuditWriteFailed)
			return fmt.Errorf("audit mutation %q: %w", e.config.Audit.RecordMutation, err)
		}
		e.metricInc(MetricAuditRecorded)
		return nil
	}
	return e.writeAuditDocument(ctx, in)
}

// RecordAudit is the storage-side handler for audit entries arriving
// through a mutation runner. The input is re-validated before the write;
// transport is never trusted to have done so.
func (e *Engine) RecordAudit(ctx context.Context, in AuditInput) error {
	if e.auditLogs == nil {
		return ErrAuditBackendRequired
	}
	if err := in.Validate(); err != nil {
		return err
	}
	return e.writeAuditDocument(ctx, in)
}

func (e *Engine) writeAuditDocument(ctx context.Context, in AuditInput) error {
	if e.auditLogs == nil {
		return ErrAuditBackendRequired
	}
	doc, err := NewAuditDocument(in, time.Now().UnixMilli())
	if err != nil {
		return err
	}
	if err := e.auditLogs.Insert(ctx, doc); err != nil {
		e.metricInc(MetricAuditWriteFailed)
		return fmt.Errorf("insert audit log: %w", err)
	}
	e.metricInc(MetricAuditRecorded)
	if e.mirror != nil {
		e.mirror.Emit(ctx, doc)
	}
	return nil
}

// RecordAccountDeletionLog writes the account.deleted entry summarizing
// a completed deletion run.
func (e *Engine) RecordAccountDeletionLog(ctx context.Context, userID, actorID string, results []DeletionDetails) error {
	details := AccountDeletedDetails{
		DeletedDomains: NormalizeDeletedDomains(results),
	}
	return e.RecordAuditLog(ctx, AuditDescriptor{
		Event:   AuditEventAccountDeleted,
		UserID:  userID,
		ActorID: actorID,
		Details: details,
	})
}

// AuditLogsForUser returns the user's audit entries, newest first, up to
// limit (all entries when limit <= 0).
func (e *Engine) AuditLogsForUser(ctx context.Context, userID string, limit int) ([]AuditDocument, error) {
	if e.auditLogs == nil {
		return nil, ErrAuditBackendRequired
	}
	if userID == "" {
		return nil, fmt.Errorf("%w: userId is required", ErrInvalidAuditInput)
	}
	return e.auditLogs.ListByUser(ctx, userID, limit)
}
