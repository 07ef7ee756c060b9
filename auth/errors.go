package auth

import "errors"

var (
	// ErrProviderUnreachable indicates the identity provider did not answer
	// a verification or token request.
	ErrProviderUnreachable = errors.New("identity provider unreachable")

	// ErrVerificationFailed indicates the identity provider rejected the
	// presented credentials.
	ErrVerificationFailed = errors.New("identity verification failed")

	// ErrUnsupportedProvider indicates an OAuth provider name outside the
	// configured allow-list.
	ErrUnsupportedProvider = errors.New("unsupported oauth provider")

	// ErrNoClient indicates a handler ran without the provider-binding
	// middleware attaching a client first.
	ErrNoClient = errors.New("no identity client bound to request context")
)
