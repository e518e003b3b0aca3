package test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/halcyon-dev/authtrail"
	"github.com/halcyon-dev/authtrail/redistore"
)

type redisFixture struct {
	engine    *authtrail.Engine
	usernames *redistore.UsernameIndex
	appUsers  *redistore.AppUserStore
	counters  *redistore.CounterStore
}

func newRedisFixture(t *testing.T) *redisFixture {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	appUsers := redistore.NewAppUserStore(rdb, "e2e")
	counters := redistore.NewCounterStore(rdb, "e2e")
	usernames := redistore.NewUsernameIndex(rdb, "e2e")

	engine, err := authtrail.New().
		WithAppUserStore(appUsers).
		WithAuditLogStore(redistore.NewAuditLogStore(rdb, "e2e")).
		WithCounterStore(counters).
		WithUsernameIndex(usernames).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return &redisFixture{engine: engine, usernames: usernames, appUsers: appUsers, counters: counters}
}

// TestAccountLifecycleEndToEnd walks one user through the full account
// lifecycle against Redis-backed stores: creation with a derived
// username, a profile update with its audit entry, counter activity, and
// finally deletion with the summarizing audit trail wiped.
func TestAccountLifecycleEndToEnd(t *testing.T) {
	f := newRedisFixture(t)
	ctx := context.Background()

	// Creation: a username is derived from the email and reserved.
	user, err := f.engine.EnsureUsernameOnCreate(ctx, authtrail.AuthUser{
		ID:    "auth-1",
		Email: "jane.doe@example.com",
	})
	if err != nil {
		t.Fatalf("EnsureUsernameOnCreate failed: %v", err)
	}
	if user.Username != "jane.doe" {
		t.Fatalf("derived username = %q", user.Username)
	}
	if err := f.usernames.Add(ctx, user.Username); err != nil {
		t.Fatalf("reserve username failed: %v", err)
	}

	if _, err := f.engine.OnUserCreated(ctx, user); err != nil {
		t.Fatalf("OnUserCreated failed: %v", err)
	}
	doc, err := f.appUsers.GetByAuthUserID(ctx, "auth-1")
	if err != nil || doc == nil {
		t.Fatalf("projection lookup = %+v, %v", doc, err)
	}
	if doc.Username != "jane.doe" || doc.Email != "jane.doe@example.com" {
		t.Fatalf("projection fields = %+v", doc)
	}

	// A second user with the same email local part gets a suffixed name.
	other, err := f.engine.EnsureUsernameOnCreate(ctx, authtrail.AuthUser{
		ID:    "auth-2",
		Email: "jane.doe@other.example",
	})
	if err != nil {
		t.Fatalf("second EnsureUsernameOnCreate failed: %v", err)
	}
	if other.Username != "jane.doe1" {
		t.Fatalf("collision suffix missing: %q", other.Username)
	}

	// Update: the changed field lands in the audit trail.
	prev := user
	updated := user
	updated.Name = "Jane D."
	if _, err := f.engine.OnUserUpdated(ctx, &prev, updated); err != nil {
		t.Fatalf("OnUserUpdated failed: %v", err)
	}
	logs, err := f.engine.AuditLogsForUser(ctx, "auth-1", 0)
	if err != nil {
		t.Fatalf("AuditLogsForUser failed: %v", err)
	}
	if len(logs) != 1 || logs[0].Event != authtrail.AuditEventProfileUpdated {
		t.Fatalf("audit trail after update = %+v", logs)
	}

	// Counter activity for the deletion summary.
	actorCtx := authtrail.WithActorID(ctx, "auth-1")
	if _, err := f.engine.IncrementCounter(actorCtx); err != nil {
		t.Fatalf("IncrementCounter failed: %v", err)
	}

	// Deletion: every domain purged, the summary entry recorded.
	results, err := f.engine.AfterUserDeleted(actorCtx, "auth-1")
	if err != nil {
		t.Fatalf("AfterUserDeleted failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 purge domains, got %d", len(results))
	}
	for i, want := range []string{"counter", "auditLogs", "appUsers"} {
		if results[i].Domain != want {
			t.Fatalf("purge order %d = %q, want %q", i, results[i].Domain, want)
		}
	}
	if results[0].DeletedRecords == nil || *results[0].DeletedRecords != 1 {
		t.Fatalf("counter purge = %+v", results[0])
	}
	if results[1].DeletedRecords == nil || *results[1].DeletedRecords != 1 {
		t.Fatalf("audit purge = %+v", results[1])
	}

	if doc, _ := f.appUsers.GetByAuthUserID(ctx, "auth-1"); doc != nil {
		t.Fatal("projection survived deletion")
	}
	if counter, _ := f.counters.Get(ctx, "auth-1"); counter != nil {
		t.Fatal("counter survived deletion")
	}

	// The deletion entry itself lands after the purge of older entries.
	logs, err = f.engine.AuditLogsForUser(ctx, "auth-1", 0)
	if err != nil {
		t.Fatalf("AuditLogsForUser failed: %v", err)
	}
	if len(logs) != 1 || logs[0].Event != authtrail.AuditEventAccountDeleted {
		t.Fatalf("final trail = %+v", logs)
	}
	details := logs[0].Details.(authtrail.AccountDeletedDetails)
	if len(details.DeletedDomains) != 3 {
		t.Fatalf("deletion summary = %+v", details)
	}
	if logs[0].ActorID != "auth-1" {
		t.Fatalf("deletion actor = %q", logs[0].ActorID)
	}

	// Repeated deletion is safe: nothing left, zero counts.
	results, err = f.engine.AfterUserDeleted(actorCtx, "auth-1")
	if err != nil {
		t.Fatalf("repeat AfterUserDeleted failed: %v", err)
	}
	if results[2].DeletedRecords == nil || *results[2].DeletedRecords != 0 {
		t.Fatalf("repeat appUsers purge = %+v", results[2])
	}
}

// TestIdempotentSyncAgainstRedis re-runs the same provider snapshot and
// verifies the projection converges instead of duplicating.
func TestIdempotentSyncAgainstRedis(t *testing.T) {
	f := newRedisFixture(t)
	ctx := context.Background()

	snapshot := authtrail.AuthUser{ID: "auth-1", Email: "a@example.com", CreatedAt: 1000, UpdatedAt: 1000}
	first, err := f.engine.SyncFromAuthUser(ctx, snapshot)
	if err != nil {
		t.Fatalf("first sync failed: %v", err)
	}
	second, err := f.engine.SyncFromAuthUser(ctx, snapshot)
	if err != nil {
		t.Fatalf("second sync failed: %v", err)
	}
	if first.Doc.ID != second.Doc.ID {
		t.Fatal("sync must reuse the existing document")
	}
	if second.Doc.CreatedAt != first.Doc.CreatedAt {
		t.Fatal("CreatedAt drifted across syncs")
	}
	if len(second.ChangedFields) != 0 {
		t.Fatalf("repeat sync changes = %v", second.ChangedFields)
	}
}
