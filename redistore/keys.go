package redistore

import "errors"

// DefaultPrefix is used when a store is constructed with an empty
// prefix.
const DefaultPrefix = "authtrail"

// ErrRedisUnavailable wraps transport-level Redis failures.
var ErrRedisUnavailable = errors.New("redis unavailable")

// ErrAppUserExists is returned on insert when the auth user already has
// a projection document.
var ErrAppUserExists = errors.New("application user already exists")

// ErrAppUserMissing is returned on patch when the target document does
// not exist.
var ErrAppUserMissing = errors.New("application user not found")

type keyBuilder struct {
	prefix string
}

func newKeyBuilder(prefix string) keyBuilder {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return keyBuilder{prefix: prefix}
}

func (k keyBuilder) appUserDoc(id string) string {
	return k.prefix + ":appuser:doc:" + id
}

func (k keyBuilder) appUserIndex(authUserID string) string {
	return k.prefix + ":appuser:auth:" + authUserID
}

func (k keyBuilder) auditDoc(id string) string {
	return k.prefix + ":audit:doc:" + id
}

func (k keyBuilder) auditUser(userID string) string {
	return k.prefix + ":audit:user:" + userID
}

func (k keyBuilder) counter(userID string) string {
	return k.prefix + ":counter:" + userID
}

func (k keyBuilder) usernameSet() string {
	return k.prefix + ":usernames"
}
