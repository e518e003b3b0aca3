package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
)

// ErrInvalidInput is returned when an audit input or detail payload does
// not match the shape required by its event.
var ErrInvalidInput = errors.New("invalid audit input")

// ErrUnknownEvent is returned for events outside the closed set.
var ErrUnknownEvent = errors.New("unknown audit event")

// Details is the per-event payload of an audit entry. Exactly one concrete
// type exists per event kind; [Details.Event] reports which.
type Details interface {
	Event() Event
	validate() error
}

// DeletedDomain describes one purge domain's outcome inside an
// account.deleted entry. DeletedRecords is omitted, not zeroed, when the
// purge handler reported no count.
type DeletedDomain struct {
	Domain         string `json:"domain"`
	DeletedRecords *int   `json:"deletedRecords,omitempty"`
}

// AccountDeletedDetails carries the aggregate of all per-domain purge
// results for a completed account deletion.
type AccountDeletedDetails struct {
	DeletedDomains []DeletedDomain `json:"deletedDomains"`
}

func (AccountDeletedDetails) Event() Event { return EventAccountDeleted }

func (d AccountDeletedDetails) validate() error {
	for _, dom := range d.DeletedDomains {
		if dom.Domain == "" {
			return fmt.Errorf("%w: deleted domain name is empty", ErrInvalidInput)
		}
		if dom.DeletedRecords != nil && *dom.DeletedRecords < 0 {
			return fmt.Errorf("%w: deleted record count for %q is negative", ErrInvalidInput, dom.Domain)
		}
	}
	return nil
}

// SignInSuccessDetails records which sign-in method succeeded.
type SignInSuccessDetails struct {
	Method string `json:"method"`
}

func (SignInSuccessDetails) Event() Event { return EventSignInSuccess }

func (d SignInSuccessDetails) validate() error {
	return requireMethod(d.Method)
}

// SignInFailureDetails records a failed sign-in attempt with the error
// shape extracted from the provider response.
type SignInFailureDetails struct {
	Method    string `json:"method"`
	ErrorCode string `json:"errorCode,omitempty"`
	Message   string `json:"message,omitempty"`
}

func (SignInFailureDetails) Event() Event { return EventSignInFailure }

func (d SignInFailureDetails) validate() error {
	return requireMethod(d.Method)
}

// PassphraseChangedDetails records a successful passphrase change.
type PassphraseChangedDetails struct {
	Method string `json:"method"`
}

func (PassphraseChangedDetails) Event() Event { return EventPassphraseChanged }

func (d PassphraseChangedDetails) validate() error {
	return requireMethod(d.Method)
}

// PassphraseFailedDetails records a failed passphrase change.
type PassphraseFailedDetails struct {
	Method    string `json:"method"`
	ErrorCode string `json:"errorCode,omitempty"`
	Message   string `json:"message,omitempty"`
}

func (PassphraseFailedDetails) Event() Event { return EventPassphraseFailed }

func (d PassphraseFailedDetails) validate() error {
	return requireMethod(d.Method)
}

// EmailChangeRequestedDetails records a requested email change. NewEmail
// must be a parseable address.
type EmailChangeRequestedDetails struct {
	NewEmail string `json:"newEmail"`
}

func (EmailChangeRequestedDetails) Event() Event { return EventEmailChangeRequested }

func (d EmailChangeRequestedDetails) validate() error {
	return requireEmail(d.NewEmail)
}

// EmailChangeFailedDetails records a failed email change request.
type EmailChangeFailedDetails struct {
	NewEmail  string `json:"newEmail"`
	ErrorCode string `json:"errorCode,omitempty"`
	Message   string `json:"message,omitempty"`
}

func (EmailChangeFailedDetails) Event() Event { return EventEmailChangeFailed }

func (d EmailChangeFailedDetails) validate() error {
	return requireEmail(d.NewEmail)
}

// ProfileUpdatedDetails names the tracked fields that actually changed.
// The list must be non-empty: a no-op sync never produces an entry.
type ProfileUpdatedDetails struct {
	ChangedFields []string `json:"changedFields"`
}

func (ProfileUpdatedDetails) Event() Event { return EventProfileUpdated }

func (d ProfileUpdatedDetails) validate() error {
	if len(d.ChangedFields) == 0 {
		return fmt.Errorf("%w: profile update entry requires changed fields", ErrInvalidInput)
	}
	return requireFieldNames(d.ChangedFields)
}

// ProfileUpdateFailedDetails records a sync that threw. ChangedFields is
// the anticipated change set, when one was computable before the failure.
type ProfileUpdateFailedDetails struct {
	ChangedFields []string `json:"changedFields,omitempty"`
	ErrorCode     string   `json:"errorCode,omitempty"`
	Message       string   `json:"message,omitempty"`
}

func (ProfileUpdateFailedDetails) Event() Event { return EventProfileUpdateFailed }

func (d ProfileUpdateFailedDetails) validate() error {
	return requireFieldNames(d.ChangedFields)
}

func requireMethod(method string) error {
	if method == "" {
		return fmt.Errorf("%w: method is required", ErrInvalidInput)
	}
	return nil
}

func requireEmail(address string) error {
	if address == "" {
		return fmt.Errorf("%w: newEmail is required", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(address); err != nil {
		return fmt.Errorf("%w: newEmail is not a valid address", ErrInvalidInput)
	}
	return nil
}

func requireFieldNames(fields []string) error {
	for _, field := range fields {
		if field == "" {
			return fmt.Errorf("%w: changed field name is empty", ErrInvalidInput)
		}
	}
	return nil
}

// detailDecoders is the per-event dispatch table: it both defines the
// closed event set and decodes a raw detail payload into the matching
// concrete type.
var detailDecoders = map[Event]func(json.RawMessage) (Details, error){
	EventAccountDeleted:       decodeInto[AccountDeletedDetails],
	EventSignInSuccess:        decodeInto[SignInSuccessDetails],
	EventSignInFailure:        decodeInto[SignInFailureDetails],
	EventPassphraseChanged:    decodeInto[PassphraseChangedDetails],
	EventPassphraseFailed:     decodeInto[PassphraseFailedDetails],
	EventEmailChangeRequested: decodeInto[EmailChangeRequestedDetails],
	EventEmailChangeFailed:    decodeInto[EmailChangeFailedDetails],
	EventProfileUpdated:       decodeInto[ProfileUpdatedDetails],
	EventProfileUpdateFailed:  decodeInto[ProfileUpdateFailedDetails],
}

func decodeInto[T Details](raw json.RawMessage) (Details, error) {
	var det T
	if err := json.Unmarshal(raw, &det); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return det, nil
}

// ValidateDetails checks that details carry the shape registered for
// event. A nil payload or a payload belonging to a different event is an
// error: the mismatch indicates a producer bug and must fail loud.
func ValidateDetails(event Event, details Details) error {
	if !event.Known() {
		return fmt.Errorf("%w: %q", ErrUnknownEvent, event)
	}
	if details == nil {
		return fmt.Errorf("%w: details are required for %q", ErrInvalidInput, event)
	}
	if details.Event() != event {
		return fmt.Errorf("%w: details for %q supplied to %q", ErrInvalidInput, details.Event(), event)
	}
	return details.validate()
}
