package authtrail

import (
	"io"

	internalaudit "github.com/halcyon-dev/authtrail/internal/audit"
)

// AuditEvent identifies one kind of audit log entry.
//
// The set is closed: account.deleted, auth.sign_in.success/failure,
// auth.passphrase.changed/failed, auth.email.change.requested/failed,
// user.profile.updated/update_failed.
type AuditEvent = internalaudit.Event

const (
	AuditEventAccountDeleted       = internalaudit.EventAccountDeleted
	AuditEventSignInSuccess        = internalaudit.EventSignInSuccess
	AuditEventSignInFailure        = internalaudit.EventSignInFailure
	AuditEventPassphraseChanged    = internalaudit.EventPassphraseChanged
	AuditEventPassphraseFailed     = internalaudit.EventPassphraseFailed
	AuditEventEmailChangeRequested = internalaudit.EventEmailChangeRequested
	AuditEventEmailChangeFailed    = internalaudit.EventEmailChangeFailed
	AuditEventProfileUpdated       = internalaudit.EventProfileUpdated
	AuditEventProfileUpdateFailed  = internalaudit.EventProfileUpdateFailed
)

// AuditDetails is the event-determined payload of an audit entry.
type AuditDetails = internalaudit.Details

// Per-event detail payloads.
type (
	AccountDeletedDetails       = internalaudit.AccountDeletedDetails
	SignInSuccessDetails        = internalaudit.SignInSuccessDetails
	SignInFailureDetails        = internalaudit.SignInFailureDetails
	PassphraseChangedDetails    = internalaudit.PassphraseChangedDetails
	PassphraseFailedDetails     = internalaudit.PassphraseFailedDetails
	EmailChangeRequestedDetails = internalaudit.EmailChangeRequestedDetails
	EmailChangeFailedDetails    = internalaudit.EmailChangeFailedDetails
	ProfileUpdatedDetails       = internalaudit.ProfileUpdatedDetails
	ProfileUpdateFailedDetails  = internalaudit.ProfileUpdateFailedDetails
)

// AuditDeletedDomain is one purge domain's outcome inside an
// account.deleted entry.
type AuditDeletedDomain = internalaudit.DeletedDomain

// AuditInput is a validated audit entry awaiting its write-time
// CreatedAt stamp.
type AuditInput = internalaudit.Input

// AuditDocument is an immutable audit log entry as persisted.
type AuditDocument = internalaudit.Document

// ErrInvalidAuditInput is returned when an audit input does not match the
// shape required by its event.
var ErrInvalidAuditInput = internalaudit.ErrInvalidInput

// ErrUnknownAuditEvent is returned for events outside the closed set.
var ErrUnknownAuditEvent = internalaudit.ErrUnknownEvent

// NewAuditInput validates an entry against its event's detail shape.
// actorID defaults to userID; a blank ipAddress is dropped.
func NewAuditInput(event AuditEvent, userID, actorID, ipAddress string, details AuditDetails) (AuditInput, error) {
	return internalaudit.NewInput(event, userID, actorID, ipAddress, details)
}

// NewAuditDocument re-validates input and stamps createdAt. Call only at
// the storage-write boundary; createdAt is never producer-supplied.
func NewAuditDocument(in AuditInput, createdAt int64) (AuditDocument, error) {
	return internalaudit.NewDocument(in, createdAt)
}

// NormalizeDeletedDomains shapes deletion-registry results for an
// account.deleted entry: a count is carried only when the handler
// reported one and it is non-negative; otherwise the field stays absent.
func NormalizeDeletedDomains(details []DeletionDetails) []AuditDeletedDomain {
	raw := make([]internalaudit.DeletedDomain, 0, len(details))
	for _, d := range details {
		raw = append(raw, internalaudit.DeletedDomain{
			Domain:         d.Domain,
			DeletedRecords: d.DeletedRecords,
		})
	}
	return internalaudit.NormalizeDeletedDomains(raw)
}

// AuditSink receives mirrored [AuditDocument] values from the engine's
// observer dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all documents.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded documents to
// an [io.Writer], one per line.
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}
