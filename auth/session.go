package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Session is the provider-issued proof of an authenticated browser,
// reconstructed from the session cookies. The core never mutates it; it is
// re-validated against the identity provider once per request.
type Session struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	UserID       uuid.UUID
	ExpiresAt    time.Time
}

// Expired reports whether the session's access token is past its validity
// window. An expired cached session is still re-verified rather than
// rejected locally, since only the provider knows about revocation.
func (s Session) Expired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}

// CookieMaxAge returns the remaining token lifetime in whole seconds for
// use as the session cookie's Max-Age, or 0 when the token carries no
// expiry and the cookie should be session-scoped.
func (s Session) CookieMaxAge() int {
	if s.ExpiresAt.IsZero() {
		return 0
	}
	remaining := int(time.Until(s.ExpiresAt).Seconds())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// User is the authenticated principal resolved by the identity provider.
// It is only ever derived from re-verification, never from a
// client-supplied cookie alone.
type User struct {
	ID       uuid.UUID      `json:"id"`
	Email    string         `json:"email"`
	Metadata map[string]any `json:"user_metadata,omitempty"`
}

// sessionFromToken rebuilds a Session from a raw access token by decoding
// its claims without signature verification. The decode is a local
// presence check only; nothing read here is trusted until the provider
// re-verifies the token.
func sessionFromToken(accessToken, refreshToken string) (*Session, error) {
	claims := jwt.RegisteredClaims{}
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	if _, _, err := parser.ParseUnverified(accessToken, &claims); err != nil {
		return nil, err
	}

	sess := &Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
	}

	if claims.Subject != "" {
		if id, err := uuid.Parse(claims.Subject); err == nil {
			sess.UserID = id
		}
	}
	if claims.ExpiresAt != nil {
		sess.ExpiresAt = claims.ExpiresAt.Time
	}

	return sess, nil
}
