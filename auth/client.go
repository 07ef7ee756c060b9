package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"

	"golang.org/x/oauth2"
)

// Cookie names for the browser session. Both cookies are HTTP-only and
// set by the callback handler; the access token doubles as the local
// cached-session source.
const (
	AccessTokenCookie  = "fp_access_token"
	RefreshTokenCookie = "fp_refresh_token"
)

// passthroughHeaders is the allow-list of upstream provider response
// headers that may reach the browser. Everything else is dropped:
// default-deny, so a new provider header never leaks by accident.
var passthroughHeaders = []string{
	"Content-Range",
	"X-Auth-Api-Version",
}

// Client is a request-scoped handle for the external identity provider.
// One is constructed per request by the provider-binding middleware and
// never shared across requests; cookie reads are bound to the request it
// was created for.
type Client struct {
	cfg      Config
	oauth    *oauth2.Config
	http     *http.Client
	r        *http.Request
	upstream http.Header
}

// NewClient builds a Client bound to the given request.
func NewClient(cfg Config, r *http.Request) *Client {
	return &Client{
		cfg: cfg,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.IssuerURL + "/authorize",
				TokenURL: cfg.IssuerURL + "/token",
			},
		},
		http: &http.Client{},
		r:    r,
	}
}

// CachedSession rebuilds the session from the request's cookies without
// any network call. It returns nil for anonymous requests and for cookies
// that do not decode; absence is not an error. The result is a local
// claim only and must be re-verified before anything trusts it.
func (c *Client) CachedSession() *Session {
	access, err := c.r.Cookie(AccessTokenCookie)
	if err != nil || access.Value == "" {
		return nil
	}

	refresh := ""
	if rc, err := c.r.Cookie(RefreshTokenCookie); err == nil {
		refresh = rc.Value
	}

	sess, err := sessionFromToken(access.Value, refresh)
	if err != nil {
		return nil
	}
	return sess
}

// VerifyUser asks the identity provider's authority to resolve the user
// behind the access token. This is the authoritative check: a revoked or
// tampered token fails here regardless of what its claims say locally.
func (c *Client) VerifyUser(ctx context.Context, accessToken string) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.VerifyTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.IssuerURL+"/user", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("apikey", c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProviderUnreachable, err)
	}
	defer resp.Body.Close()

	c.recordUpstream(resp.Header)

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return nil, ErrVerificationFailed
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: unexpected status %d", ErrVerificationFailed, resp.StatusCode)
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("%w: decoding user: %w", ErrVerificationFailed, err)
	}

	return &user, nil
}

// SignInWithOAuth returns the provider-hosted consent URL to redirect the
// browser to. The provider name must be on the configured allow-list.
func (c *Client) SignInWithOAuth(provider, state string) (string, error) {
	if !slices.Contains(c.cfg.Providers, provider) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedProvider, provider)
	}

	return c.oauth.AuthCodeURL(state,
		oauth2.SetAuthURLParam("provider", provider),
	), nil
}

// ExchangeCode swaps the callback authorization code for a session.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*Session, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.http)

	tok, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: token exchange: %w", ErrProviderUnreachable, err)
	}

	sess, err := sessionFromToken(tok.AccessToken, tok.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed access token: %w", ErrVerificationFailed, err)
	}
	return sess, nil
}

// UpstreamHeaders returns provider response headers that passed the
// allow-list, for the binding middleware to copy onto the response.
func (c *Client) UpstreamHeaders() http.Header {
	return c.upstream
}

func (c *Client) recordUpstream(h http.Header) {
	for _, name := range passthroughHeaders {
		if v := h.Get(name); v != "" {
			if c.upstream == nil {
				c.upstream = http.Header{}
			}
			c.upstream.Set(name, v)
		}
	}
}
