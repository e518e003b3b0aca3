package authtrail

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

type triggerTestFixture struct {
	engine    *Engine
	appUsers  *memoryAppUserStore
	auditLogs *memoryAuditLogStore
}

func newTriggerTestFixture(t *testing.T) *triggerTestFixture {
	t.Helper()
	appUsers := newMemoryAppUserStore()
	auditLogs := newMemoryAuditLogStore()
	engine, err := New().
		WithAppUserStore(appUsers).
		WithAuditLogStore(auditLogs).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return &triggerTestFixture{engine: engine, appUsers: appUsers, auditLogs: auditLogs}
}

func TestOnUserCreatedSyncsWithoutAudit(t *testing.T) {
	f := newTriggerTestFixture(t)

	res, err := f.engine.OnUserCreated(context.Background(), AuthUser{ID: "auth-1", Email: "a@example.com"})
	if err != nil {
		t.Fatalf("OnUserCreated failed: %v", err)
	}
	if res.Doc.AuthUserID != "auth-1" {
		t.Fatalf("unexpected projection %+v", res.Doc)
	}
	if logs := f.auditLogs.snapshot(); len(logs) != 0 {
		t.Fatalf("creation must not write audit entries, got %d", len(logs))
	}
}

func TestOnUserUpdatedRecordsChangedFields(t *testing.T) {
	f := newTriggerTestFixture(t)
	ctx := context.Background()

	prev := AuthUser{ID: "auth-1", Email: "a@example.com", Name: "Alice"}
	if _, err := f.engine.OnUserCreated(ctx, prev); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	next := prev
	next.Email = "b@example.com"
	res, err := f.engine.OnUserUpdated(ctx, &prev, next)
	if err != nil {
		t.Fatalf("OnUserUpdated failed: %v", err)
	}
	if !reflect.DeepEqual(res.ChangedFields, []string{"email"}) {
		t.Fatalf("changed fields = %v", res.ChangedFields)
	}

	logs := f.auditLogs.snapshot()
	if len(logs) != 1 {
		t.Fatalf("expected one audit entry, got %d", len(logs))
	}
	entry := logs[0]
	if entry.Event != AuditEventProfileUpdated {
		t.Fatalf("event = %q", entry.Event)
	}
	if entry.UserID != "auth-1" || entry.ActorID != "auth-1" {
		t.Fatalf("identity fields = %q/%q", entry.UserID, entry.ActorID)
	}
	details, ok := entry.Details.(ProfileUpdatedDetails)
	if !ok {
		t.Fatalf("details type %T", entry.Details)
	}
	if !reflect.DeepEqual(details.ChangedFields, []string{"email"}) {
		t.Fatalf("audited fields = %v", details.ChangedFields)
	}
	if entry.CreatedAt <= 0 {
		t.Fatal("entry must carry a write-time stamp")
	}
}

func TestOnUserUpdatedNoChangesNoEntry(t *testing.T) {
	f := newTriggerTestFixture(t)
	ctx := context.Background()

	user := AuthUser{ID: "auth-1", Email: "a@example.com"}
	if _, err := f.engine.OnUserCreated(ctx, user); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	res, err := f.engine.OnUserUpdated(ctx, &user, user)
	if err != nil {
		t.Fatalf("OnUserUpdated failed: %v", err)
	}
	if len(res.ChangedFields) != 0 {
		t.Fatalf("expected no changes, got %v", res.ChangedFields)
	}
	if logs := f.auditLogs.snapshot(); len(logs) != 0 {
		t.Fatalf("no-op update must not audit, got %d entries", len(logs))
	}
}

func TestOnUserUpdatedUsesContextActor(t *testing.T) {
	f := newTriggerTestFixture(t)
	ctx := WithActorID(context.Background(), "admin-7")

	prev := AuthUser{ID: "auth-1", Email: "a@example.com"}
	if _, err := f.engine.OnUserCreated(ctx, prev); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	next := prev
	next.Name = "Renamed"
	if _, err := f.engine.OnUserUpdated(ctx, &prev, next); err != nil {
		t.Fatalf("OnUserUpdated failed: %v", err)
	}

	logs := f.auditLogs.snapshot()
	if len(logs) != 1 || logs[0].ActorID != "admin-7" {
		t.Fatalf("expected admin actor on entry, got %+v", logs)
	}
}

func TestOnUserUpdatedSyncFailureRecordsFailureEntry(t *testing.T) {
	f := newTriggerTestFixture(t)
	ctx := context.Background()

	prev := AuthUser{ID: "auth-1", Email: "a@example.com"}
	if _, err := f.engine.OnUserCreated(ctx, prev); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	boom := &ProviderError{Status: "STORAGE_DOWN", Message: "patch rejected"}
	f.appUsers.failPatch = boom

	next := prev
	next.Email = "b@example.com"
	_, err := f.engine.OnUserUpdated(ctx, &prev, next)
	if !errors.Is(err, boom) {
		t.Fatalf("expected original sync error, got %v", err)
	}

	logs := f.auditLogs.snapshot()
	if len(logs) != 1 {
		t.Fatalf("expected one failure entry, got %d", len(logs))
	}
	details, ok := logs[0].Details.(ProfileUpdateFailedDetails)
	if !ok {
		t.Fatalf("details type %T", logs[0].Details)
	}
	if !reflect.DeepEqual(details.ChangedFields, []string{"email"}) {
		t.Fatalf("anticipated fields = %v", details.ChangedFields)
	}
	if details.ErrorCode != "STORAGE_DOWN" || details.Message != "patch rejected" {
		t.Fatalf("error shape = %q/%q", details.ErrorCode, details.Message)
	}
}

func TestOnUserUpdatedAuditFailureLeavesFailureEntry(t *testing.T) {
	f := newTriggerTestFixture(t)
	ctx := context.Background()

	prev := AuthUser{ID: "auth-1", Email: "a@example.com"}
	if _, err := f.engine.OnUserCreated(ctx, prev); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	// The success entry write fails; the follow-up failure entry goes
	// through.
	auditErr := errors.New("audit store hiccup")
	f.auditLogs.failInsert = auditErr
	f.auditLogs.failInsertAt = 1

	next := prev
	next.Email = "b@example.com"
	res, err := f.engine.OnUserUpdated(ctx, &prev, next)
	if !errors.Is(err, auditErr) {
		t.Fatalf("expected surfaced audit error, got %v", err)
	}
	// The sync itself committed even though the audit write failed.
	if res.Doc.Email != "b@example.com" {
		t.Fatalf("sync result lost: %+v", res.Doc)
	}

	logs := f.auditLogs.snapshot()
	if len(logs) != 1 {
		t.Fatalf("expected the fallback failure entry, got %d", len(logs))
	}
	if logs[0].Event != AuditEventProfileUpdateFailed {
		t.Fatalf("event = %q", logs[0].Event)
	}
	details := logs[0].Details.(ProfileUpdateFailedDetails)
	if !reflect.DeepEqual(details.ChangedFields, []string{"email"}) {
		t.Fatalf("failure entry fields = %v", details.ChangedFields)
	}
}

func TestAfterUserDeletedPurgesThenAudits(t *testing.T) {
	appUsers := newMemoryAppUserStore()
	auditLogs := newMemoryAuditLogStore()
	counters := newMemoryCounterStore()
	engine, err := New().
		WithAppUserStore(appUsers).
		WithAuditLogStore(auditLogs).
		WithCounterStore(counters).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()

	ctx := context.Background()
	if _, err := engine.OnUserCreated(ctx, AuthUser{ID: "victim", Email: "v@example.com"}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	counters.counters["victim"] = Counter{UserID: "victim", Value: 2}

	results, err := engine.AfterUserDeleted(WithActorID(ctx, "admin-1"), "victim")
	if err != nil {
		t.Fatalf("AfterUserDeleted failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 purge results, got %d", len(results))
	}

	logs := auditLogs.snapshot()
	if len(logs) != 1 {
		t.Fatalf("expected the deletion entry, got %d", len(logs))
	}
	entry := logs[0]
	if entry.Event != AuditEventAccountDeleted {
		t.Fatalf("event = %q", entry.Event)
	}
	if entry.UserID != "victim" || entry.ActorID != "admin-1" {
		t.Fatalf("identity fields = %q/%q", entry.UserID, entry.ActorID)
	}
	details := entry.Details.(AccountDeletedDetails)
	if len(details.DeletedDomains) != 3 {
		t.Fatalf("expected 3 domains in entry, got %d", len(details.DeletedDomains))
	}
	if details.DeletedDomains[0].Domain != "counter" ||
		details.DeletedDomains[0].DeletedRecords == nil ||
		*details.DeletedDomains[0].DeletedRecords != 1 {
		t.Fatalf("counter domain result wrong: %+v", details.DeletedDomains[0])
	}

	if doc, _ := appUsers.GetByAuthUserID(ctx, "victim"); doc != nil {
		t.Fatal("projection survived deletion")
	}
}

func TestAfterUserDeletedAbortsBeforeAuditOnPurgeFailure(t *testing.T) {
	auditLogs := newMemoryAuditLogStore()
	boom := errors.New("uploads down")
	engine, err := New().
		WithAppUserStore(newMemoryAppUserStore()).
		WithAuditLogStore(auditLogs).
		WithPurger("uploads", func(context.Context, string) (*PurgeResult, error) {
			return nil, boom
		}).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()

	_, err = engine.AfterUserDeleted(context.Background(), "victim")
	if !errors.Is(err, boom) {
		t.Fatalf("expected purge error, got %v", err)
	}
	if logs := auditLogs.snapshot(); len(logs) != 0 {
		t.Fatal("no deletion entry may be written when a purge fails")
	}
}
