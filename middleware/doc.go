// Package middleware exposes HTTP middleware that records audit trail
// entries for authentication routes served by an identity provider.
//
// # Hooks
//
//   - [AuditHook] — observes sign-in, password-change and email-change
//     responses and records the matching audit entries.
//   - [Actor] — resolves the acting user from a bearer session token and
//     attaches it to the request context.
//
// Each hook translates HTTP semantics into Engine calls. The package
// does NOT implement authentication itself and never blocks a request:
// audit recording failures are reported through the configured error
// callback, not to the client.
package middleware
