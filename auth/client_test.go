package auth_test

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/flowpilot/auth"
)

func makeToken(t *testing.T, sub string, exp time.Time) string {
	t.Helper()
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	claims, err := json.Marshal(map[string]any{"sub": sub, "exp": exp.Unix()})
	require.NoError(t, err)
	return header + "." + base64.RawURLEncoding.EncodeToString(claims) + ".sig"
}

func testAuthConfig(issuerURL string) auth.Config {
	return auth.Config{
		IssuerURL:     issuerURL,
		APIKey:        "anon-key",
		ClientID:      "client-id",
		ClientSecret:  "client-secret",
		RedirectURL:   "http://localhost:8080/auth/callback",
		Providers:     []string{"github"},
		Scopes:        []string{"repo"},
		VerifyTimeout: 5 * time.Second,
	}
}

func TestClient_CachedSession(t *testing.T) {
	t.Parallel()

	t.Run("decodes session from cookie", func(t *testing.T) {
		t.Parallel()
		userID := uuid.New()
		exp := time.Now().Add(time.Hour).Truncate(time.Second)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: auth.AccessTokenCookie, Value: makeToken(t, userID.String(), exp)})
		req.AddCookie(&http.Cookie{Name: auth.RefreshTokenCookie, Value: "refresh-abc"})

		sess := auth.NewClient(testAuthConfig("http://auth.local"), req).CachedSession()
		require.NotNil(t, sess)
		assert.Equal(t, userID, sess.UserID)
		assert.Equal(t, "refresh-abc", sess.RefreshToken)
		assert.WithinDuration(t, exp, sess.ExpiresAt, time.Second)
		assert.False(t, sess.Expired())
	})

	t.Run("no cookie yields nil", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		assert.Nil(t, auth.NewClient(testAuthConfig("http://auth.local"), req).CachedSession())
	})

	t.Run("malformed token yields nil", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: auth.AccessTokenCookie, Value: "not-a-jwt"})
		assert.Nil(t, auth.NewClient(testAuthConfig("http://auth.local"), req).CachedSession())
	})
}

func TestClient_VerifyUser(t *testing.T) {
	t.Parallel()

	t.Run("resolves user and filters upstream headers", func(t *testing.T) {
		t.Parallel()
		userID := uuid.New()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/user", r.URL.Path)
			assert.Equal(t, "Bearer token-abc", r.Header.Get("Authorization"))
			assert.Equal(t, "anon-key", r.Header.Get("apikey"))

			w.Header().Set("Content-Range", "items 0-9/10")
			w.Header().Set("X-Auth-Api-Version", "2026-01-01")
			w.Header().Set("X-Internal-Debug", "do-not-forward")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id":    userID.String(),
				"email": "dev@example.com",
			})
		}))
		defer srv.Close()

		client := auth.NewClient(testAuthConfig(srv.URL), httptest.NewRequest(http.MethodGet, "/", nil))
		user, err := client.VerifyUser(t.Context(), "token-abc")
		require.NoError(t, err)
		assert.Equal(t, userID, user.ID)
		assert.Equal(t, "dev@example.com", user.Email)

		headers := client.UpstreamHeaders()
		assert.Equal(t, "items 0-9/10", headers.Get("Content-Range"))
		assert.Equal(t, "2026-01-01", headers.Get("X-Auth-Api-Version"))
		assert.Empty(t, headers.Get("X-Internal-Debug"), "headers outside the allow-list are dropped")
	})

	t.Run("rejected token fails verification", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		client := auth.NewClient(testAuthConfig(srv.URL), httptest.NewRequest(http.MethodGet, "/", nil))
		user, err := client.VerifyUser(t.Context(), "revoked")
		assert.Nil(t, user)
		assert.ErrorIs(t, err, auth.ErrVerificationFailed)
	})

	t.Run("unreachable provider", func(t *testing.T) {
		t.Parallel()
		client := auth.NewClient(testAuthConfig("http://127.0.0.1:1"), httptest.NewRequest(http.MethodGet, "/", nil))
		user, err := client.VerifyUser(t.Context(), "token")
		assert.Nil(t, user)
		assert.ErrorIs(t, err, auth.ErrProviderUnreachable)
	})
}

func TestClient_SignInWithOAuth(t *testing.T) {
	t.Parallel()

	t.Run("builds consent url", func(t *testing.T) {
		t.Parallel()
		client := auth.NewClient(testAuthConfig("http://auth.local"), httptest.NewRequest(http.MethodGet, "/", nil))

		consentURL, err := client.SignInWithOAuth("github", "state-nonce")
		require.NoError(t, err)

		parsed, err := url.Parse(consentURL)
		require.NoError(t, err)
		assert.Equal(t, "/authorize", parsed.Path)
		assert.Equal(t, "github", parsed.Query().Get("provider"))
		assert.Equal(t, "state-nonce", parsed.Query().Get("state"))
		assert.Equal(t, "client-id", parsed.Query().Get("client_id"))
	})

	t.Run("provider outside allow-list is rejected", func(t *testing.T) {
		t.Parallel()
		client := auth.NewClient(testAuthConfig("http://auth.local"), httptest.NewRequest(http.MethodGet, "/", nil))

		_, err := client.SignInWithOAuth("gitlab", "state")
		assert.ErrorIs(t, err, auth.ErrUnsupportedProvider)
	})
}

func TestClient_ExchangeCode(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	accessToken := makeToken(t, userID.String(), time.Now().Add(time.Hour))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/token", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "auth-code-1", r.FormValue("code"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  accessToken,
			"refresh_token": "refresh-1",
			"token_type":    "bearer",
			"expires_in":    3600,
		})
	}))
	defer srv.Close()

	client := auth.NewClient(testAuthConfig(srv.URL), httptest.NewRequest(http.MethodGet, "/", nil))
	sess, err := client.ExchangeCode(t.Context(), "auth-code-1")
	require.NoError(t, err)
	assert.Equal(t, accessToken, sess.AccessToken)
	assert.Equal(t, "refresh-1", sess.RefreshToken)
	assert.Equal(t, userID, sess.UserID)
}
