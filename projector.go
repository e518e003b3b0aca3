package authtrail

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// unknownUserID is the sentinel AuthUserID when the provider record
// carries no usable identifier at all.
const unknownUserID = "unknown-user"

// trackedFields is the subset of application-user attributes monitored
// for change detection, in the order changes are reported.
var trackedFields = []struct {
	name string
	get  func(*AppUser) string
}{
	{"email", func(u *AppUser) string { return u.Email }},
	{"name", func(u *AppUser) string { return u.Name }},
	{"displayUsername", func(u *AppUser) string { return u.DisplayUsername }},
	{"username", func(u *AppUser) string { return u.Username }},
	{"image", func(u *AppUser) string { return u.Image }},
}

// MapAuthUser projects a provider user record into an application-user
// document. The auth user id resolves from ID then UserID with the
// "unknown-user" sentinel as last resort; blank strings normalize to
// unset; timestamps accept either form and default to now (createdAt)
// and to createdAt (updatedAt). The result is validated before return.
func MapAuthUser(user AuthUser) (AppUser, error) {
	createdAt := resolveTimestamp(user.CreatedAt, user.CreatedTime, time.Now().UnixMilli())
	updatedAt := resolveTimestamp(user.UpdatedAt, user.UpdatedTime, createdAt)

	doc := AppUser{
		AuthUserID:      resolveAuthUserID(user),
		Email:           normalizeOptionalString(user.Email),
		Name:            normalizeOptionalString(user.Name),
		DisplayUsername: normalizeOptionalString(user.DisplayUsername),
		Username:        normalizeOptionalString(user.Username),
		Image:           normalizeOptionalString(user.Image),
		CreatedAt:       createdAt,
		UpdatedAt:       updatedAt,
	}

	if err := validateAppUser(doc); err != nil {
		return AppUser{}, err
	}
	return doc, nil
}

func resolveAuthUserID(user AuthUser) string {
	if id := strings.TrimSpace(user.ID); id != "" {
		return id
	}
	if id := strings.TrimSpace(user.UserID); id != "" {
		return id
	}
	return unknownUserID
}

func resolveTimestamp(millis int64, instant time.Time, fallback int64) int64 {
	if !instant.IsZero() {
		return instant.UnixMilli()
	}
	if millis > 0 {
		return millis
	}
	return fallback
}

func normalizeOptionalString(value string) string {
	return strings.TrimSpace(value)
}

// validateAppUser enforces the application-user document schema. The
// sentinel fallback should make an empty AuthUserID impossible; the check
// stays because the storage key depends on it.
func validateAppUser(doc AppUser) error {
	if doc.AuthUserID == "" {
		return fmt.Errorf("%w: authUserId is required", ErrInvalidAppUser)
	}
	if doc.CreatedAt < 0 || doc.UpdatedAt < 0 {
		return fmt.Errorf("%w: timestamps must be non-negative", ErrInvalidAppUser)
	}
	if doc.Email != "" {
		if _, err := mail.ParseAddress(doc.Email); err != nil {
			return fmt.Errorf("%w: email is not a valid address", ErrInvalidAppUser)
		}
	}
	if doc.Username != "" && !ValidUsername(doc.Username) {
		return fmt.Errorf("%w: username %q is not a normalized username", ErrInvalidAppUser, doc.Username)
	}
	return nil
}

// ChangedFields compares the tracked subset of fields between two
// application-user snapshots, treating blank values as absent. With a nil
// previous snapshot (first-ever sync) every field present on next is
// reported, seeding the audit trail with a complete picture.
func ChangedFields(previous *AppUser, next AppUser) []string {
	changed := []string{}
	for _, field := range trackedFields {
		after := field.get(&next)
		if previous == nil {
			if after != "" {
				changed = append(changed, field.name)
			}
			continue
		}
		if field.get(previous) != after {
			changed = append(changed, field.name)
		}
	}
	return changed
}

// PreviewChangedFields diffs two provider-user snapshots by projecting
// both and comparing the tracked fields. Used before a sync is attempted
// so a failure entry can still name what was being changed.
func PreviewChangedFields(previous *AuthUser, next AuthUser) ([]string, error) {
	nextDoc, err := MapAuthUser(next)
	if err != nil {
		return nil, err
	}
	if previous == nil {
		return ChangedFields(nil, nextDoc), nil
	}
	prevDoc, err := MapAuthUser(*previous)
	if err != nil {
		return nil, err
	}
	return ChangedFields(&prevDoc, nextDoc), nil
}

// SyncFromAuthUser upserts the application-user document for a provider
// user record. The upsert is keyed by the resolved auth user id and is
// idempotent: repeated syncs with the same snapshot leave exactly one
// document, with CreatedAt preserved from the first creation. The
// persisted form is re-read after every write; an empty re-read is a
// storage invariant violation.
//
// Invocations for the same auth user id are serialized in-process, so two
// near-simultaneous triggers cannot interleave their read-modify-write
// cycles against a stale prior snapshot.
func (e *Engine) SyncFromAuthUser(ctx context.Context, user AuthUser) (SyncResult, error) {
	if e == nil || e.appUsers == nil {
		return SyncResult{}, ErrEngineNotReady
	}

	normalized, err := MapAuthUser(user)
	if err != nil {
		return SyncResult{}, err
	}

	unlock := e.syncLocks.lock(normalized.AuthUserID)
	defer unlock()

	existing, err := e.appUsers.GetByAuthUserID(ctx, normalized.AuthUserID)
	if err != nil {
		return SyncResult{}, err
	}

	changedFields := ChangedFields(existing, normalized)

	if existing == nil {
		id, err := e.appUsers.Insert(ctx, normalized)
		if err != nil {
			return SyncResult{}, err
		}
		created, err := e.appUsers.Get(ctx, id)
		if err != nil {
			return SyncResult{}, err
		}
		if created == nil {
			return SyncResult{}, fmt.Errorf("%w: insert for %q", ErrProjectionNotPersisted, normalized.AuthUserID)
		}
		e.metricInc(MetricProfileSynced)
		return SyncResult{Doc: *created, Prior: nil, ChangedFields: changedFields}, nil
	}

	patched := normalized
	patched.ID = existing.ID
	// CreatedAt is immutable after first creation; later syncs only
	// advance UpdatedAt.
	patched.CreatedAt = existing.CreatedAt

	if err := e.appUsers.Patch(ctx, existing.ID, patched); err != nil {
		return SyncResult{}, err
	}
	updated, err := e.appUsers.Get(ctx, existing.ID)
	if err != nil {
		return SyncResult{}, err
	}
	if updated == nil {
		return SyncResult{}, fmt.Errorf("%w: patch for %q", ErrProjectionNotPersisted, normalized.AuthUserID)
	}

	e.metricInc(MetricProfileSynced)
	return SyncResult{Doc: *updated, Prior: existing, ChangedFields: changedFields}, nil
}
