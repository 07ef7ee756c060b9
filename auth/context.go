package auth

import "context"

type ctxKey int

const (
	clientKey ctxKey = iota
	validatorKey
	sessionKey
	userKey
)

// valueSetter is the slice of the framework context used to attach
// request-scoped values.
type valueSetter interface {
	SetValue(key, val any)
}

// BindClient attaches the request-scoped provider client to the framework
// context so downstream middleware and handlers can reach it.
func BindClient(ctx valueSetter, c *Client) {
	ctx.SetValue(clientKey, c)
}

// BindValidator attaches the request-scoped session validator.
func BindValidator(ctx valueSetter, v *Validator) {
	ctx.SetValue(validatorKey, v)
}

// BindIdentity attaches the resolved session and user. Either value may
// be nil for anonymous requests; binding nils marks resolution as done.
func BindIdentity(ctx valueSetter, sess *Session, user *User) {
	ctx.SetValue(sessionKey, sess)
	ctx.SetValue(userKey, user)
}

// WithClient stores the request-scoped provider client in a plain context.
func WithClient(ctx context.Context, c *Client) context.Context {
	return context.WithValue(ctx, clientKey, c)
}

// ClientFromContext returns the provider client bound earlier in the
// request chain, or nil when no binding middleware ran.
func ClientFromContext(ctx context.Context) *Client {
	c, _ := ctx.Value(clientKey).(*Client)
	return c
}

// WithValidator stores the request-scoped session validator in a plain
// context.
func WithValidator(ctx context.Context, v *Validator) context.Context {
	return context.WithValue(ctx, validatorKey, v)
}

// ValidatorFromContext returns the session validator bound earlier in the
// request chain, or nil when no binding middleware ran.
func ValidatorFromContext(ctx context.Context) *Validator {
	v, _ := ctx.Value(validatorKey).(*Validator)
	return v
}

// WithIdentity stores the resolved session and user in the context. Either
// value may be nil for anonymous requests.
func WithIdentity(ctx context.Context, sess *Session, user *User) context.Context {
	ctx = context.WithValue(ctx, sessionKey, sess)
	return context.WithValue(ctx, userKey, user)
}

// SessionFromContext returns the resolved session, or nil for anonymous
// requests or when identity resolution did not run.
func SessionFromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionKey).(*Session)
	return s
}

// UserFromContext returns the verified user, or nil for anonymous requests
// or when identity resolution did not run.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userKey).(*User)
	return u
}
