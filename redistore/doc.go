// Package redistore provides Redis-backed implementations of the
// authtrail storage interfaces: application users with a unique
// auth-user index, append-only audit logs ordered by write time,
// per-user counters, and a username existence index.
//
// Documents are stored as JSON blobs under a configurable key prefix.
// Every store is safe for concurrent use; consistency across multi-key
// writes uses pipelines and SETNX, not cross-store transactions.
package redistore
