package authtrail

import (
	"context"
	"time"
)

// AuthUser is the identity provider's user record as delivered to trigger
// callbacks. It is read-only input: authtrail never writes it back.
//
// String fields use "" for absent; blank and whitespace-only values are
// treated as unset during projection. Timestamps may arrive either as
// epoch milliseconds (CreatedAt/UpdatedAt) or as instants
// (CreatedTime/UpdatedTime); the instant form wins when both are set.
type AuthUser struct {
	ID              string
	UserID          string
	Email           string
	Name            string
	DisplayUsername string
	Username        string
	Image           string
	CreatedAt       int64
	UpdatedAt       int64
	CreatedTime     time.Time
	UpdatedTime     time.Time
}

// AppUser is this system's denormalized projection of a provider user,
// used for in-app display and joins without re-querying the provider.
// Exactly one document exists per AuthUserID.
type AppUser struct {
	ID              string `json:"-"`
	AuthUserID      string `json:"authUserId"`
	Email           string `json:"email,omitempty"`
	Name            string `json:"name,omitempty"`
	DisplayUsername string `json:"displayUsername,omitempty"`
	Username        string `json:"username,omitempty"`
	Image           string `json:"image,omitempty"`
	CreatedAt       int64  `json:"createdAt"`
	UpdatedAt       int64  `json:"updatedAt"`
}

// Counter is the demo per-user counter document. It exists to exercise
// authenticated mutations and the deletion registry.
type Counter struct {
	UserID    string `json:"userId"`
	Value     int64  `json:"value"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
}

// SyncResult is returned by [Engine.SyncFromAuthUser]. Prior is the
// document snapshot before the sync (nil on first sync) so the caller can
// compute an audit diff without a second query.
type SyncResult struct {
	Doc           AppUser
	Prior         *AppUser
	ChangedFields []string
}

// AppUserStore persists application-user documents keyed by an opaque
// storage id, with a unique secondary index on AuthUserID. Lookups return
// (nil, nil) when no document exists.
type AppUserStore interface {
	GetByAuthUserID(ctx context.Context, authUserID string) (*AppUser, error)
	Get(ctx context.Context, id string) (*AppUser, error)
	Insert(ctx context.Context, doc AppUser) (string, error)
	Patch(ctx context.Context, id string, doc AppUser) error
	DeleteByAuthUserID(ctx context.Context, authUserID string) (int, error)
}

// AuditLogStore persists audit documents. Entries are immutable once
// written: no updates, no deletes except the bulk per-user purge.
type AuditLogStore interface {
	Insert(ctx context.Context, doc AuditDocument) error
	ListByUser(ctx context.Context, userID string, limit int) ([]AuditDocument, error)
	DeleteByUser(ctx context.Context, userID string) (int, error)
}

// CounterStore persists one counter document per user. Get returns
// (nil, nil) when the user has no counter yet.
type CounterStore interface {
	Get(ctx context.Context, userID string) (*Counter, error)
	Put(ctx context.Context, counter Counter) error
	DeleteByUser(ctx context.Context, userID string) (int, error)
}

// UsernameIndex answers existence queries against the provider's
// persisted usernames. It is the only external state the username
// normalizer touches.
type UsernameIndex interface {
	UsernameExists(ctx context.Context, username string) (bool, error)
}

// MutationRunner is the RPC capability used when the caller cannot write
// storage directly: the audit write is routed through the named mutation
// so it executes inside its own transaction.
type MutationRunner interface {
	RunMutation(ctx context.Context, name string, args any) (any, error)
}

// PurgeResult is the optional outcome of a purge handler. A nil result
// means the handler reported no count for its domain.
type PurgeResult struct {
	DeletedRecords int
}

// PurgeHandler removes one domain's data for a user. Handlers run
// sequentially in registration order; an error aborts the remaining
// purges for that deletion attempt.
type PurgeHandler func(ctx context.Context, userID string) (*PurgeResult, error)

// DeletionDetails is one domain's outcome from a completed deletion run.
// DeletedRecords is nil when the handler reported no count.
type DeletionDetails struct {
	Domain         string
	DeletedRecords *int
}
