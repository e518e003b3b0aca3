package authtrail

import (
	"context"
	"strconv"
	"strings"
	"time"
)

const (
	// UsernameMinLength is the shortest username the system produces or
	// accepts.
	UsernameMinLength = 3
	// UsernameMaxLength bounds every derived and suffixed username.
	UsernameMaxLength = 30

	usernameDefaultBase    = "user"
	usernameMaxSuffixTries = 100
)

// fallbackUsername is the hard-coded result when sanitization yields
// nothing usable: the default base padded up to the minimum length.
var fallbackUsername = padUsername(usernameDefaultBase)

// defaultUsernameSeed is the last-resort seed when no source field
// survives sanitization.
var defaultUsernameSeed = SanitizeUsernameCandidate(usernameDefaultBase + "0")

// UsernameSeedSource carries the candidate fields a username may be
// derived from, in the provider's shape.
type UsernameSeedSource struct {
	Username        string
	DisplayUsername string
	Email           string
	Name            string
}

// UsernamePair is a normalized username together with its display
// variant.
type UsernamePair struct {
	Username        string
	DisplayUsername string
}

// NormalizeUsername derives the canonical form of a username. Pure and
// total: normalization is lowercasing, nothing else.
func NormalizeUsername(value string) string {
	return strings.ToLower(value)
}

// SanitizeUsernameCandidate restricts a raw candidate to the username
// charset: disallowed characters become underscores, runs of underscores
// collapse, leading and trailing underscores and dots are trimmed, and
// the result is truncated to [UsernameMaxLength] and padded with trailing
// zeros up to [UsernameMinLength]. An unusable candidate yields the
// hard-coded fallback.
func SanitizeUsernameCandidate(value string) string {
	sanitized, _ := sanitizeUsernameCandidate(value)
	return sanitized
}

func sanitizeUsernameCandidate(value string) (string, bool) {
	var b strings.Builder
	prevUnderscore := false
	for _, r := range strings.TrimSpace(value) {
		if !isUsernameRune(r) {
			r = '_'
		}
		if r == '_' {
			if prevUnderscore {
				continue
			}
			prevUnderscore = true
		} else {
			prevUnderscore = false
		}
		b.WriteRune(r)
	}

	collapsed := strings.Trim(b.String(), "_.")
	if collapsed == "" {
		return fallbackUsername, true
	}

	if len(collapsed) > UsernameMaxLength {
		collapsed = collapsed[:UsernameMaxLength]
	}
	return padUsername(collapsed), false
}

func isUsernameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '_' || r == '.':
		return true
	}
	return false
}

func padUsername(value string) string {
	for len(value) < UsernameMinLength {
		value += "0"
	}
	if len(value) > UsernameMaxLength {
		value = value[:UsernameMaxLength]
	}
	return value
}

// DeriveUsernameSeed picks the first usable candidate in priority order:
// display username, username, the local part of the email address, then
// name. Candidates whose sanitization falls back are skipped; when none
// survive, the global default seed is returned.
func DeriveUsernameSeed(source UsernameSeedSource) string {
	emailLocal := ""
	if source.Email != "" {
		emailLocal = strings.SplitN(source.Email, "@", 2)[0]
	}

	for _, candidate := range []string{
		source.DisplayUsername,
		source.Username,
		emailLocal,
		source.Name,
	} {
		if candidate == "" {
			continue
		}
		sanitized, usedFallback := sanitizeUsernameCandidate(candidate)
		if usedFallback {
			continue
		}
		return sanitized
	}

	return defaultUsernameSeed
}

// WithNumericSuffix appends the decimal digits of suffix to base,
// truncating base so the result never exceeds [UsernameMaxLength].
func WithNumericSuffix(base string, suffix int) string {
	suffixText := strconv.Itoa(suffix)
	keep := UsernameMaxLength - len(suffixText)
	if keep < 1 {
		keep = 1
	}
	if len(base) > keep {
		base = base[:keep]
	}
	return base + suffixText
}

// ValidUsername reports whether value is an acceptable normalized
// username: within length bounds, restricted to the username charset,
// and already lowercase.
func ValidUsername(value string) bool {
	if len(value) < UsernameMinLength || len(value) > UsernameMaxLength {
		return false
	}
	for _, r := range value {
		if !isUsernameRune(r) {
			return false
		}
		if r >= 'A' && r <= 'Z' {
			return false
		}
	}
	return true
}

// EnsureUniqueUsername derives a username pair from source that does not
// collide with any persisted username. The seed is checked as-is, then
// with numeric suffixes 1..100; when every attempt collides the result
// falls back to the truncated seed with a time-derived token. This is the
// only normalizer operation that touches external state.
func (e *Engine) EnsureUniqueUsername(ctx context.Context, source UsernameSeedSource) (UsernamePair, error) {
	if e == nil || e.usernames == nil {
		return UsernamePair{}, ErrEngineNotReady
	}

	seed := DeriveUsernameSeed(source)
	candidateDisplay := seed
	candidate := NormalizeUsername(candidateDisplay)

	for attempt := 0; attempt <= usernameMaxSuffixTries; attempt++ {
		exists, err := e.usernames.UsernameExists(ctx, candidate)
		if err != nil {
			return UsernamePair{}, err
		}
		if !exists {
			return UsernamePair{Username: candidate, DisplayUsername: candidateDisplay}, nil
		}
		candidateDisplay = WithNumericSuffix(seed, attempt+1)
		candidate = NormalizeUsername(candidateDisplay)
	}

	fallback := timeSuffixedUsername(seed)
	return UsernamePair{
		Username:        NormalizeUsername(fallback),
		DisplayUsername: SanitizeUsernameCandidate(fallback),
	}, nil
}

func timeSuffixedUsername(seed string) string {
	base := NormalizeUsername(seed)
	if len(base) > 20 {
		base = base[:20]
	}
	token := strconv.FormatInt(time.Now().UnixMilli(), 36)
	if len(token) > 6 {
		token = token[len(token)-6:]
	}
	return base + token
}

// EnsureUsernameOnCreate resolves username, display username, and name
// for a provider user about to be created. Incoming values are
// sanitized/normalized; when no username was supplied one is derived
// collision-free via [Engine.EnsureUniqueUsername]. The name falls back
// to the display username when blank.
func (e *Engine) EnsureUsernameOnCreate(ctx context.Context, user AuthUser) (AuthUser, error) {
	if e == nil {
		return user, ErrEngineNotReady
	}

	displayUsername := ""
	if user.DisplayUsername != "" {
		displayUsername = SanitizeUsernameCandidate(user.DisplayUsername)
	}
	username := ""
	if user.Username != "" {
		username = NormalizeUsername(user.Username)
	}
	if displayUsername == "" && username != "" {
		displayUsername = SanitizeUsernameCandidate(username)
	}

	if username == "" {
		source := UsernameSeedSource{
			Username:        user.Username,
			DisplayUsername: user.DisplayUsername,
			Email:           user.Email,
			Name:            user.Name,
		}
		if displayUsername != "" {
			// A usable display name wins over the derived seed.
			source.DisplayUsername = displayUsername
		}
		pair, err := e.EnsureUniqueUsername(ctx, source)
		if err != nil {
			return user, err
		}
		// On collision the display variant carries the same suffix as the
		// normalized username.
		username = pair.Username
		displayUsername = pair.DisplayUsername
	}

	name := strings.TrimSpace(user.Name)
	if name == "" {
		name = displayUsername
	}
	if name == "" {
		name = username
	}

	user.Username = username
	user.DisplayUsername = displayUsername
	user.Name = name
	return user, nil
}

// NormalizeUsernameUpdate keeps the username pair consistent on a
// provider-level user update: a changed display username refreshes the
// normalized username and blank name, and a changed username backfills
// the display variant. Pure.
func NormalizeUsernameUpdate(user AuthUser) AuthUser {
	if user.DisplayUsername != "" {
		sanitized := SanitizeUsernameCandidate(user.DisplayUsername)
		user.DisplayUsername = sanitized
		if user.Username == "" {
			user.Username = NormalizeUsername(sanitized)
		}
		if user.Name == "" {
			user.Name = sanitized
		}
	}

	if user.Username != "" {
		user.Username = NormalizeUsername(user.Username)
		if user.DisplayUsername == "" {
			user.DisplayUsername = SanitizeUsernameCandidate(user.Username)
		}
	}

	if user.Name != "" && user.DisplayUsername == "" {
		user.Name = SanitizeUsernameCandidate(user.Name)
	}

	return user
}
