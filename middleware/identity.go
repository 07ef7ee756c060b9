package middleware

import (
	"github.com/dmitrymomot/flowpilot/auth"
	"github.com/dmitrymomot/flowpilot/core/handler"
	"github.com/dmitrymomot/flowpilot/core/response"
)

// ResolveIdentity resolves the request's session and user through the
// bound validator and attaches both to the context. Anonymous requests
// pass through with nil identity; this middleware never rejects.
//
// Must run after ProviderBinding. Resolution happens here, once, so that
// handlers reading the identity never trigger their own verification
// round-trips.
func ResolveIdentity[C handler.Context]() handler.Middleware[C] {
	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			v := auth.ValidatorFromContext(ctx)
			if v == nil {
				return response.Error(auth.ErrNoClient)
			}

			sess, user := v.SafeGetSession(ctx)
			auth.BindIdentity(ctx, sess, user)

			return next(ctx)
		}
	}
}

// RequireUser rejects requests without a verified user with 401. It
// assumes ResolveIdentity already ran; a missing identity and an
// anonymous request are treated the same.
func RequireUser[C handler.Context]() handler.Middleware[C] {
	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if auth.UserFromContext(ctx) == nil {
				return response.Error(response.ErrUnauthorized)
			}
			return next(ctx)
		}
	}
}
