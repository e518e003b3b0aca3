package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/halcyon-dev/authtrail"
)

// Options configures [AuditHook].
type Options struct {
	// SessionSecret verifies the bearer session token when the response
	// body does not identify the user.
	SessionSecret []byte
	// MaxBodyCapture bounds how much of the request and response bodies
	// are buffered for inspection. Defaults to 8 KiB.
	MaxBodyCapture int
	// OnError receives audit recording failures. The client response is
	// never affected by them.
	OnError func(error)
}

const defaultBodyCapture = 8 << 10

// Entries recorded for a user the hook could not identify carry this
// sentinel, matching the projection fallback for absent ids.
const unknownUser = "unknown-user"

// AuditHook observes authentication routes and records the matching
// audit entries after the response is written: sign-in success and
// failure, passphrase changes, and email change requests. Routes it
// does not recognize pass through untouched.
func AuditHook(engine *authtrail.Engine, opts Options) func(http.Handler) http.Handler {
	capture := opts.MaxBodyCapture
	if capture <= 0 {
		capture = defaultBodyCapture
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, ok := classifyRoute(r.URL.Path)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			reqBody := captureRequestBody(r, capture)
			rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK, limit: capture}
			next.ServeHTTP(rec, r)

			if err := recordRouteAudit(engine, r, route, reqBody, rec, opts.SessionSecret); err != nil && opts.OnError != nil {
				opts.OnError(err)
			}
		})
	}
}

type routeKind int

const (
	routeSignIn routeKind = iota
	routePassphrase
	routeEmailChange
)

type route struct {
	kind   routeKind
	method string
}

// classifyRoute maps an auth route path onto the audit entry it feeds.
// Sign-in method names come from the final path segment with dashes
// folded to underscores, so "/sign-in/magic-link" becomes "magic_link".
func classifyRoute(path string) (route, bool) {
	path = strings.TrimSuffix(path, "/")
	segments := strings.Split(path, "/")
	last := segments[len(segments)-1]

	switch last {
	case "change-password":
		return route{kind: routePassphrase, method: "password"}, true
	case "change-email":
		return route{kind: routeEmailChange}, true
	case "sign-in":
		return route{kind: routeSignIn, method: "email"}, true
	}
	if len(segments) >= 2 && segments[len(segments)-2] == "sign-in" {
		return route{kind: routeSignIn, method: strings.ReplaceAll(last, "-", "_")}, true
	}
	return route{}, false
}

func recordRouteAudit(engine *authtrail.Engine, r *http.Request, rt route, reqBody []byte, rec *responseRecorder, secret []byte) error {
	success := rec.status >= 200 && rec.status < 300
	userID := resolveUserID(r, rec.body.Bytes(), secret)
	code, message := responseError(rec)

	var details authtrail.AuditDetails
	var event authtrail.AuditEvent
	switch rt.kind {
	case routeSignIn:
		if success {
			event = authtrail.AuditEventSignInSuccess
			details = authtrail.SignInSuccessDetails{Method: rt.method}
		} else {
			event = authtrail.AuditEventSignInFailure
			details = authtrail.SignInFailureDetails{Method: rt.method, ErrorCode: code, Message: message}
		}
	case routePassphrase:
		if success {
			event = authtrail.AuditEventPassphraseChanged
			details = authtrail.PassphraseChangedDetails{Method: rt.method}
		} else {
			event = authtrail.AuditEventPassphraseFailed
			details = authtrail.PassphraseFailedDetails{Method: rt.method, ErrorCode: code, Message: message}
		}
	case routeEmailChange:
		newEmail := strings.ToLower(requestField(reqBody, "newEmail"))
		if success {
			event = authtrail.AuditEventEmailChangeRequested
			details = authtrail.EmailChangeRequestedDetails{NewEmail: newEmail}
		} else {
			event = authtrail.AuditEventEmailChangeFailed
			details = authtrail.EmailChangeFailedDetails{NewEmail: newEmail, ErrorCode: code, Message: message}
		}
	}

	ctx := authtrail.WithClientIP(r.Context(), clientIP(r))
	if err := engine.RecordAuditLog(ctx, authtrail.AuditDescriptor{
		Event:   event,
		UserID:  userID,
		Details: details,
	}); err != nil {
		return fmt.Errorf("record %s audit: %w", event, err)
	}
	return nil
}

// resolveUserID identifies the affected user: the response user or
// session payload wins, then the bearer token subject, then the
// unknown-user sentinel.
func resolveUserID(r *http.Request, respBody, secret []byte) string {
	var payload struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
		Session struct {
			UserID string `json:"userId"`
		} `json:"session"`
	}
	if err := json.Unmarshal(respBody, &payload); err == nil {
		if payload.User.ID != "" {
			return payload.User.ID
		}
		if payload.Session.UserID != "" {
			return payload.Session.UserID
		}
	}
	if len(secret) > 0 {
		if sub, err := subjectFromRequest(r, secret); err == nil && sub != "" {
			return sub
		}
	}
	return unknownUser
}

func responseError(rec *responseRecorder) (code, message string) {
	if rec.status >= 200 && rec.status < 300 {
		return "", ""
	}
	var payload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rec.body.Bytes(), &payload); err == nil && (payload.Code != "" || payload.Message != "") {
		return payload.Code, payload.Message
	}
	return "", http.StatusText(rec.status)
}

func requestField(body []byte, field string) string {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	var value string
	if raw, ok := payload[field]; ok {
		_ = json.Unmarshal(raw, &value)
	}
	return value
}

// captureRequestBody buffers up to limit bytes of the body and restores
// the reader so the downstream handler sees the full stream.
func captureRequestBody(r *http.Request, limit int) []byte {
	if r.Body == nil {
		return nil
	}
	buffered, err := io.ReadAll(io.LimitReader(r.Body, int64(limit)))
	if err != nil {
		r.Body = io.NopCloser(bytes.NewReader(nil))
		return nil
	}
	rest := r.Body
	r.Body = &replayBody{reader: io.MultiReader(bytes.NewReader(buffered), rest), closer: rest}
	return buffered
}

type replayBody struct {
	reader io.Reader
	closer io.Closer
}

func (b *replayBody) Read(p []byte) (int, error) { return b.reader.Read(p) }
func (b *replayBody) Close() error               { return b.closer.Close() }

// clientIP extracts the originating address: first X-Forwarded-For hop,
// then CF-Connecting-IP, then the socket peer.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("CF-Connecting-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// responseRecorder passes writes through while keeping the status and a
// bounded copy of the body for post-response inspection.
type responseRecorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
	limit  int
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *responseRecorder) Write(p []byte) (int, error) {
	if remaining := r.limit - r.body.Len(); remaining > 0 {
		if len(p) <= remaining {
			r.body.Write(p)
		} else {
			r.body.Write(p[:remaining])
		}
	}
	return r.ResponseWriter.Write(p)
}
