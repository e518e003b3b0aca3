package authtrail

import "errors"

var (
	// ErrEngineNotReady is returned when an Engine method is called on a
	// nil or incompletely built engine.
	ErrEngineNotReady = errors.New("engine not ready")
	// ErrNotAuthenticated is returned by counter operations when no actor
	// is attached to the context.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrDuplicatePurgeDomain is returned by Build when two purge handlers
	// are registered under the same domain name.
	ErrDuplicatePurgeDomain = errors.New("purge domain already registered")
	// ErrInvalidAppUser is returned when a mapped application-user
	// document fails schema validation.
	ErrInvalidAppUser = errors.New("invalid application user document")
	// ErrProjectionNotPersisted signals a storage invariant violation: an
	// insert or patch reported success but the re-read came back empty.
	ErrProjectionNotPersisted = errors.New("application user projection missing after write")
	// ErrAppUserStoreRequired is returned by Build when no application-user
	// store was supplied.
	ErrAppUserStoreRequired = errors.New("application user store required")
	// ErrAuditBackendRequired is returned by Build when neither an audit
	// log store nor a mutation runner was supplied.
	ErrAuditBackendRequired = errors.New("audit log store or mutation runner required")
)
