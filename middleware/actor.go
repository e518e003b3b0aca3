package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/halcyon-dev/authtrail"
)

// Actor resolves the acting user from the request's bearer token and
// attaches it to the context via [authtrail.WithActorID]. Requests
// without a valid token pass through unchanged; downstream operations
// that require an actor fail with their own error.
func Actor(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sub, err := subjectFromRequest(r, secret); err == nil && sub != "" {
				r = r.WithContext(authtrail.WithActorID(r.Context(), sub))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func subjectFromRequest(r *http.Request, secret []byte) (string, error) {
	token, ok := bearerToken(r.Header.Get("Authorization"))
	if !ok {
		return "", fmt.Errorf("no bearer token")
	}
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return "", err
	}
	return parsed.Claims.GetSubject()
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}
	token := value[len(bearer):]
	if token == "" {
		return "", false
	}
	return token, true
}
