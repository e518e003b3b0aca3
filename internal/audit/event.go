package audit

// Event identifies one kind of audit log entry. The set is closed: inputs
// carrying any other value fail validation.
type Event string

const (
	EventAccountDeleted       Event = "account.deleted"
	EventSignInSuccess        Event = "auth.sign_in.success"
	EventSignInFailure        Event = "auth.sign_in.failure"
	EventPassphraseChanged    Event = "auth.passphrase.changed"
	EventPassphraseFailed     Event = "auth.passphrase.failed"
	EventEmailChangeRequested Event = "auth.email.change.requested"
	EventEmailChangeFailed    Event = "auth.email.change.failed"
	EventProfileUpdated       Event = "user.profile.updated"
	EventProfileUpdateFailed  Event = "user.profile.update_failed"
)

// Events lists every known event kind in declaration order.
var Events = []Event{
	EventAccountDeleted,
	EventSignInSuccess,
	EventSignInFailure,
	EventPassphraseChanged,
	EventPassphraseFailed,
	EventEmailChangeRequested,
	EventEmailChangeFailed,
	EventProfileUpdated,
	EventProfileUpdateFailed,
}

// Known reports whether e is part of the closed event set.
func (e Event) Known() bool {
	_, ok := detailDecoders[e]
	return ok
}

func (e Event) String() string {
	return string(e)
}
