// Package authtrail keeps an application-user projection and an append-only
// audit trail consistent with an external identity provider's user records.
//
// The provider owns credentials, sessions, and the raw user rows; authtrail
// reacts to its lifecycle events. An [Engine] built through [Builder.Build]
// exposes the trigger entry points ([Engine.OnUserCreated],
// [Engine.OnUserUpdated], [Engine.AfterUserDeleted]), the audit recording
// surface used by HTTP-level hooks, and a per-domain user-data deletion
// registry invoked on account deletion.
//
// Engine methods are safe to call from multiple goroutines after
// initialization. Trigger invocations for the same external user are
// serialized on the user id; triggers for distinct users run independently.
//
// Redis-backed store implementations live in the redistore subpackage;
// HTTP hook recording lives in the middleware subpackage.
package authtrail
