package auth

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/dmitrymomot/flowpilot/core/logger"
)

// VerifierClient is the slice of the provider client the validator needs.
// Tests substitute a fake to assert call counts.
type VerifierClient interface {
	CachedSession() *Session
	VerifyUser(ctx context.Context, accessToken string) (*User, error)
}

// Validator re-derives a trustworthy (session, user) pair for the current
// request. One validator is built per request; its result is memoized so
// repeated calls within the request resolve identity exactly once.
type Validator struct {
	client VerifierClient
	log    *slog.Logger

	once sync.Once
	sess *Session
	user *User
}

// NewValidator builds a request-scoped validator around the given client.
func NewValidator(client VerifierClient, log *slog.Logger) *Validator {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Validator{client: client, log: log}
}

// SafeGetSession returns the request's session and user, both nil when the
// request is anonymous or the session does not verify. It never returns an
// error: absence of a valid session is a normal outcome, not a fault.
//
// The check is deliberately two-step. The cached session from the cookie
// is a cheap local presence test that keeps anonymous requests off the
// network; it is never trusted on its own, because a cookie-sourced
// session can be forged or reflect a revoked token. Only a round-trip to
// the issuing authority is authoritative, so the user is always resolved
// by re-verification and only then paired with the original session.
func (v *Validator) SafeGetSession(ctx context.Context) (*Session, *User) {
	v.once.Do(func() {
		v.sess, v.user = v.resolve(ctx)
	})
	return v.sess, v.user
}

func (v *Validator) resolve(ctx context.Context) (*Session, *User) {
	cached := v.client.CachedSession()
	if cached == nil {
		return nil, nil
	}

	user, err := v.client.VerifyUser(ctx, cached.AccessToken)
	if err != nil || user == nil {
		// Invalid sessions are expected traffic, not faults.
		v.log.DebugContext(ctx, "session re-verification failed",
			logger.Component("auth"),
			logger.Error(err),
		)
		return nil, nil
	}

	return cached, user
}
