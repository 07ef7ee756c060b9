// Package middleware provides the request-processing chain for the
// service: request identification, logging, identity-provider binding,
// and session resolution.
//
// The auth-related middlewares split the work into two stages that must
// run in order. ProviderBinding constructs the request-scoped provider
// client and validator and filters upstream response headers through an
// allow-list. ResolveIdentity then uses the validator to resolve the
// request's session and user exactly once, so every downstream handler
// reads the same answer.
package middleware
