// Package audit defines the append-only audit log model: the closed event
// set, the per-event detail payloads, input validation, and document
// construction at the write boundary.
//
// # Design
//
// Detail payloads form a tagged union: one struct per event kind, each
// reporting its own event via [Details.Event]. Validation is dispatched by
// event at the write boundary, so a mismatch between an event and its
// details surfaces as an error before anything is persisted. CreatedAt is
// stamped by [NewDocument] and never accepted from the producer.
//
// The package also carries an async [Dispatcher] that mirrors recorded
// documents to an observer [Sink] for operational tailing. The storage
// write remains the source of truth; the mirror is best-effort.
//
// # What this package must NOT do
//
//   - Import authtrail or any sibling internal package.
//   - Persist anything; storage belongs to the caller.
package audit
