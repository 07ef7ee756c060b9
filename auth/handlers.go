package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"net/url"

	"github.com/dmitrymomot/flowpilot/core/cookie"
	"github.com/dmitrymomot/flowpilot/core/handler"
	"github.com/dmitrymomot/flowpilot/core/response"
)

const (
	// StateCookie holds the anti-CSRF state nonce across the consent
	// round-trip.
	StateCookie = "fp_oauth_state"

	stateMaxAge = 300

	// defaultLandingPath is where the browser goes after sign-in when no
	// usable return path was stashed.
	defaultLandingPath = "/"

	// loginPath is the sign-in page; failed flows bounce back here with
	// an error query parameter instead of surfacing a bare status page.
	loginPath = "/login"
)

// Handlers bundles the dependencies of the auth HTTP surface. The
// endpoints themselves are generic over the router's context type.
type Handlers struct {
	cfg     Config
	cookies *cookie.Manager
	relay   *Relay
}

// NewHandlers wires the auth endpoints' shared dependencies.
func NewHandlers(cfg Config, cookies *cookie.Manager) *Handlers {
	return &Handlers{cfg: cfg, cookies: cookies, relay: NewRelay(cookies)}
}

// Login starts the sign-in flow for the provider named in the URL. It
// stashes the sanitized return path, issues a state nonce, and bounces
// the browser to the provider-hosted consent page. Any failure sends the
// browser back to the login page with an error tag rather than a raw
// error response: this endpoint is navigated to, not fetched.
func Login[C handler.Context](h *Handlers) handler.HandlerFunc[C] {
	return func(ctx C) handler.Response {
		r := ctx.Request()
		w := ctx.ResponseWriter()

		client := ClientFromContext(ctx)
		if client == nil {
			return response.Error(ErrNoClient)
		}

		h.relay.Stash(w, r, r.URL.Query().Get("next"))

		state, err := generateState()
		if err != nil {
			return response.Error(err)
		}
		if err := h.cookies.SetSigned(w, StateCookie, state,
			cookie.WithMaxAge(stateMaxAge),
			cookie.WithSecure(requestIsTLS(r)),
		); err != nil {
			return response.Error(err)
		}

		consentURL, err := client.SignInWithOAuth(ctx.Param("provider"), state)
		if err != nil {
			return response.RedirectSeeOther(loginPath + "?error=provider_not_supported")
		}

		return response.RedirectSeeOther(consentURL)
	}
}

// Callback completes the sign-in flow: it checks the state nonce, swaps
// the authorization code for a session, sets the session cookies, and
// sends the browser to the stashed return path.
func Callback[C handler.Context](h *Handlers) handler.HandlerFunc[C] {
	return func(ctx C) handler.Response {
		r := ctx.Request()
		w := ctx.ResponseWriter()

		client := ClientFromContext(ctx)
		if client == nil {
			return response.Error(ErrNoClient)
		}

		stored, err := h.cookies.GetSigned(r, StateCookie)
		h.cookies.Delete(w, StateCookie)
		if err != nil || !stateMatches(stored, r.URL.Query().Get("state")) {
			return response.RedirectSeeOther(loginPath + "?error=invalid_state")
		}

		code := r.URL.Query().Get("code")
		if code == "" {
			return response.RedirectSeeOther(loginPath + "?error=missing_code")
		}

		sess, err := client.ExchangeCode(ctx, code)
		if err != nil {
			return response.RedirectSeeOther(loginPath + "?error=exchange_failed")
		}

		h.setSessionCookies(w, r, sess)

		next := h.relay.TakeAndClear(w, r)
		if next == "" {
			next = defaultLandingPath
		}
		return response.RedirectSeeOther(next)
	}
}

// Logout clears the session cookies and sends the browser to the login
// page. It works the same for anonymous requests; clearing nothing is
// not a failure.
func Logout[C handler.Context](h *Handlers) handler.HandlerFunc[C] {
	return func(ctx C) handler.Response {
		w := ctx.ResponseWriter()
		h.cookies.Delete(w, AccessTokenCookie)
		h.cookies.Delete(w, RefreshTokenCookie)
		return response.RedirectSeeOther(loginPath)
	}
}

// AppInstall sends a signed-in user to the source-control platform's
// app installation page, where they grant the app access to their
// repositories. Anonymous users go to the login page first.
func AppInstall[C handler.Context](h *Handlers) handler.HandlerFunc[C] {
	return func(ctx C) handler.Response {
		if UserFromContext(ctx) == nil {
			return response.RedirectSeeOther(loginPath)
		}

		if h.cfg.GitHubAppSlug == "" {
			return response.Error(response.ErrInternalServerError.
				WithMessage("app installation is not configured"))
		}

		installURL := "https://github.com/apps/" + url.PathEscape(h.cfg.GitHubAppSlug) + "/installations/new"
		return response.Redirect(installURL)
	}
}

func (h *Handlers) setSessionCookies(w http.ResponseWriter, r *http.Request, sess *Session) {
	opts := []cookie.Option{cookie.WithSecure(requestIsTLS(r))}
	if maxAge := sess.CookieMaxAge(); maxAge > 0 {
		opts = append(opts, cookie.WithMaxAge(maxAge))
	}

	// Tokens are opaque to us and verified upstream on every use, so they
	// are stored unsigned; signing would only inflate the cookie.
	_ = h.cookies.Set(w, AccessTokenCookie, sess.AccessToken, opts...)
	if sess.RefreshToken != "" {
		_ = h.cookies.Set(w, RefreshTokenCookie, sess.RefreshToken, opts...)
	}
}

func generateState() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func stateMatches(stored, received string) bool {
	if stored == "" || received == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(received)) == 1
}
