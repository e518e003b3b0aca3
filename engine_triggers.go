package authtrail

import (
	"context"
	"fmt"
)

// OnUserCreated is the creation trigger: it projects the new provider
// user into the application-user store. No audit entry is written for
// creation; the provider's own records cover it.
func (e *Engine) OnUserCreated(ctx context.Context, user AuthUser) (SyncResult, error) {
	return e.SyncFromAuthUser(ctx, user)
}

// OnUserUpdated is the update trigger. It syncs the projection and, when
// tracked fields changed, records a user.profile.updated entry naming
// them. Failures are recorded as user.profile.update_failed before the
// original error is returned, so the audit trail never silently skips a
// failed sync.
//
// previous is the provider document before the update, nil when unknown;
// it is only consulted to anticipate the change set after a failed sync.
func (e *Engine) OnUserUpdated(ctx context.Context, previous *AuthUser, user AuthUser) (SyncResult, error) {
	userID := resolveAuthUserID(user)
	actorID := actorOrSelf(ctx, userID)

	res, syncErr := e.SyncFromAuthUser(ctx, user)
	if syncErr != nil {
		e.metricInc(MetricProfileSyncFailed)
		anticipated, _ := PreviewChangedFields(previous, user)
		code, msg := ExtractErrorDetails(syncErr)
		failure := AuditDescriptor{
			Event:   AuditEventProfileUpdateFailed,
			UserID:  userID,
			ActorID: actorID,
			Details: ProfileUpdateFailedDetails{
				ChangedFields: anticipated,
				ErrorCode:     code,
				Message:       msg,
			},
		}
		// Best effort: the sync error is what the caller must see.
		if auditErr := e.RecordAuditLog(ctx, failure); auditErr != nil {
			e.logf("authtrail: record profile sync failure for %q: %v", userID, auditErr)
		}
		return SyncResult{}, syncErr
	}

	if len(res.ChangedFields) == 0 {
		return res, nil
	}

	updated := AuditDescriptor{
		Event:   AuditEventProfileUpdated,
		UserID:  userID,
		ActorID: actorID,
		Details: ProfileUpdatedDetails{ChangedFields: res.ChangedFields},
	}
	if auditErr := e.RecordAuditLog(ctx, updated); auditErr != nil {
		// The sync itself committed. Leave a failure entry behind so the
		// gap in the trail is visible, then surface the audit error.
		code, msg := ExtractErrorDetails(auditErr)
		failure := AuditDescriptor{
			Event:   AuditEventProfileUpdateFailed,
			UserID:  userID,
			ActorID: actorID,
			Details: ProfileUpdateFailedDetails{
				ChangedFields: res.ChangedFields,
				ErrorCode:     code,
				Message:       msg,
			},
		}
		if fallbackErr := e.RecordAuditLog(ctx, failure); fallbackErr != nil {
			e.logf("authtrail: record profile audit failure for %q: %v", userID, fallbackErr)
		}
		return res, fmt.Errorf("record profile update audit: %w", auditErr)
	}
	return res, nil
}

// AfterUserDeleted is the deletion trigger. It purges every registered
// domain for the user and records the account.deleted entry summarizing
// what was removed. A purge failure aborts the run before any audit
// entry is written.
func (e *Engine) AfterUserDeleted(ctx context.Context, userID string) ([]DeletionDetails, error) {
	results, err := e.DeleteAllUserData(ctx, userID)
	if err != nil {
		return nil, err
	}
	actorID := actorOrSelf(ctx, userID)
	if err := e.RecordAccountDeletionLog(ctx, userID, actorID, results); err != nil {
		return results, err
	}
	e.metricInc(MetricAccountsDeleted)
	return results, nil
}

func actorOrSelf(ctx context.Context, userID string) string {
	if actor, ok := ActorIDFromContext(ctx); ok && actor != "" {
		return actor
	}
	return userID
}
