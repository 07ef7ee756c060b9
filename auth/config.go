package auth

import "time"

// Config provides environment-based configuration for the identity
// provider integration and the OAuth login flow.
type Config struct {
	// IssuerURL is the base URL of the external identity provider
	// (authorize, token, and user endpoints hang off it).
	IssuerURL string `env:"AUTH_ISSUER_URL,required"`

	// APIKey is the provider's public API key sent with every call.
	APIKey string `env:"AUTH_API_KEY,required"`

	ClientID     string `env:"AUTH_CLIENT_ID,required"`
	ClientSecret string `env:"AUTH_CLIENT_SECRET,required"`

	// RedirectURL is the absolute URL of this service's /auth/callback.
	RedirectURL string `env:"AUTH_REDIRECT_URL,required"`

	// Providers is the allow-list of OAuth provider names usable with the
	// login endpoint.
	Providers []string `env:"AUTH_PROVIDERS" envDefault:"github"`

	// Scopes requested from the upstream OAuth provider.
	Scopes []string `env:"AUTH_SCOPES" envDefault:"repo"`

	// VerifyTimeout bounds the authoritative user re-verification call.
	VerifyTimeout time.Duration `env:"AUTH_VERIFY_TIMEOUT" envDefault:"5s"`

	// GitHubAppSlug identifies the GitHub App whose installation URL the
	// app-install endpoint redirects to. Empty means not configured.
	GitHubAppSlug string `env:"GITHUB_APP_SLUG"`
}
