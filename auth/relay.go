package auth

import (
	"net/http"
	"strings"

	"github.com/dmitrymomot/flowpilot/core/cookie"
)

const (
	// NextPathCookie carries the sanitized post-login return path across
	// the external consent round-trip.
	NextPathCookie = "fp_auth_next"

	// nextPathMaxAge bounds how long a stashed return path stays valid.
	// Anything longer than a consent round-trip is stale.
	nextPathMaxAge = 600
)

// Relay stashes the caller's intended return path in a signed, short-lived
// cookie before redirecting out to the identity provider, and hands it back
// exactly once when the browser returns.
type Relay struct {
	cookies *cookie.Manager
}

// NewRelay builds a relay on top of the given cookie manager.
func NewRelay(cookies *cookie.Manager) *Relay {
	return &Relay{cookies: cookies}
}

// Stash sanitizes and stores the return path. Paths that fail sanitization
// are dropped silently; the caller falls back to the default landing page.
func (rl *Relay) Stash(w http.ResponseWriter, r *http.Request, rawPath string) {
	path := SanitizeReturnPath(rawPath)
	if path == "" {
		return
	}
	_ = rl.cookies.SetSigned(w, NextPathCookie, path,
		cookie.WithMaxAge(nextPathMaxAge),
		cookie.WithSecure(requestIsTLS(r)),
	)
}

// TakeAndClear returns the stashed path and expires the cookie, making the
// stash single-use. The value is re-sanitized on the way out: the cookie is
// signed, but re-checking costs nothing and keeps the invariant local.
// Returns "" when nothing usable was stashed.
func (rl *Relay) TakeAndClear(w http.ResponseWriter, r *http.Request) string {
	path, err := rl.cookies.GetSigned(r, NextPathCookie)
	rl.cookies.Delete(w, NextPathCookie)
	if err != nil {
		return ""
	}
	return SanitizeReturnPath(path)
}

// requestIsTLS reports whether the request arrived over HTTPS, directly or
// via a terminating proxy.
func requestIsTLS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
