package audit

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Input is a validated audit entry awaiting its write-time CreatedAt
// stamp. Construct via [NewInput]; a zero Input fails validation.
type Input struct {
	Event     Event   `json:"event"`
	UserID    string  `json:"userId"`
	ActorID   string  `json:"actorId"`
	IPAddress string  `json:"ipAddress,omitempty"`
	Details   Details `json:"details"`
}

// NewInput validates an entry against the shape registered for its event.
// ActorID defaults to userID when empty; ipAddress is trimmed and dropped
// when blank.
func NewInput(event Event, userID, actorID, ipAddress string, details Details) (Input, error) {
	if userID == "" {
		return Input{}, fmt.Errorf("%w: userId is required", ErrInvalidInput)
	}
	if actorID == "" {
		actorID = userID
	}
	in := Input{
		Event:     event,
		UserID:    userID,
		ActorID:   actorID,
		IPAddress: sanitizeIPAddress(ipAddress),
		Details:   details,
	}
	if err := in.Validate(); err != nil {
		return Input{}, err
	}
	return in, nil
}

// Validate re-checks an Input. Used at every boundary the input crosses,
// including after transport through a mutation runner.
func (in Input) Validate() error {
	if in.UserID == "" {
		return fmt.Errorf("%w: userId is required", ErrInvalidInput)
	}
	if in.ActorID == "" {
		return fmt.Errorf("%w: actorId is required", ErrInvalidInput)
	}
	return ValidateDetails(in.Event, in.Details)
}

// UnmarshalJSON decodes an Input produced by the RPC write path, resolving
// the detail payload through the per-event dispatch table.
func (in *Input) UnmarshalJSON(data []byte) error {
	var raw struct {
		Event     Event           `json:"event"`
		UserID    string          `json:"userId"`
		ActorID   string          `json:"actorId"`
		IPAddress string          `json:"ipAddress"`
		Details   json.RawMessage `json:"details"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	decode, ok := detailDecoders[raw.Event]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownEvent, raw.Event)
	}
	details, err := decode(raw.Details)
	if err != nil {
		return err
	}
	*in = Input{
		Event:     raw.Event,
		UserID:    raw.UserID,
		ActorID:   raw.ActorID,
		IPAddress: raw.IPAddress,
		Details:   details,
	}
	return nil
}

// Document is an immutable audit log entry as persisted. CreatedAt is set
// by [NewDocument] at the storage-write boundary and is never accepted
// from the event producer, so entries cannot be back- or forward-dated.
type Document struct {
	Event     Event   `json:"event"`
	UserID    string  `json:"userId"`
	ActorID   string  `json:"actorId"`
	CreatedAt int64   `json:"createdAt"`
	IPAddress string  `json:"ipAddress,omitempty"`
	Details   Details `json:"details"`
}

// NewDocument re-validates input and stamps createdAt (epoch millis).
func NewDocument(in Input, createdAt int64) (Document, error) {
	if err := in.Validate(); err != nil {
		return Document{}, err
	}
	if createdAt < 0 {
		return Document{}, fmt.Errorf("%w: createdAt is negative", ErrInvalidInput)
	}
	return Document{
		Event:     in.Event,
		UserID:    in.UserID,
		ActorID:   in.ActorID,
		CreatedAt: createdAt,
		IPAddress: in.IPAddress,
		Details:   in.Details,
	}, nil
}

// UnmarshalJSON decodes a persisted document, resolving the detail payload
// by event through the dispatch table.
func (d *Document) UnmarshalJSON(data []byte) error {
	var raw struct {
		Event     Event           `json:"event"`
		UserID    string          `json:"userId"`
		ActorID   string          `json:"actorId"`
		CreatedAt int64           `json:"createdAt"`
		IPAddress string          `json:"ipAddress"`
		Details   json.RawMessage `json:"details"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	decode, ok := detailDecoders[raw.Event]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownEvent, raw.Event)
	}
	details, err := decode(raw.Details)
	if err != nil {
		return err
	}
	*d = Document{
		Event:     raw.Event,
		UserID:    raw.UserID,
		ActorID:   raw.ActorID,
		CreatedAt: raw.CreatedAt,
		IPAddress: raw.IPAddress,
		Details:   details,
	}
	return nil
}

func sanitizeIPAddress(value string) string {
	return strings.TrimSpace(value)
}

// NormalizeDeletedDomains shapes raw per-domain purge results for an
// account.deleted entry: the domain is always carried, the record count
// only when present and non-negative. An absent count stays absent rather
// than defaulting to zero.
func NormalizeDeletedDomains(results []DeletedDomain) []DeletedDomain {
	normalized := make([]DeletedDomain, 0, len(results))
	for _, res := range results {
		out := DeletedDomain{Domain: res.Domain}
		if res.DeletedRecords != nil && *res.DeletedRecords >= 0 {
			count := *res.DeletedRecords
			out.DeletedRecords = &count
		}
		normalized = append(normalized, out)
	}
	return normalized
}
