package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/flowpilot/auth"
	"github.com/dmitrymomot/flowpilot/core/cookie"
)

func testCookieManager(t *testing.T) *cookie.Manager {
	t.Helper()
	m, err := cookie.New([]string{"test-secret-key-with-enough-length!!"})
	require.NoError(t, err)
	return m
}

func stashCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.NextPathCookie {
			return c
		}
	}
	return nil
}

func TestRelay_Stash(t *testing.T) {
	t.Parallel()

	t.Run("sets short-lived http-only lax cookie", func(t *testing.T) {
		t.Parallel()
		relay := auth.NewRelay(testCookieManager(t))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/auth/login/github?next=/dashboard", nil)
		relay.Stash(rec, req, "/dashboard")

		c := stashCookie(t, rec)
		require.NotNil(t, c)
		assert.Equal(t, 600, c.MaxAge)
		assert.True(t, c.HttpOnly)
		assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
		assert.False(t, c.Secure, "plain http request gets no secure flag")
	})

	t.Run("secure flag follows forwarded proto", func(t *testing.T) {
		t.Parallel()
		relay := auth.NewRelay(testCookieManager(t))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/auth/login/github", nil)
		req.Header.Set("X-Forwarded-Proto", "https")
		relay.Stash(rec, req, "/dashboard")

		c := stashCookie(t, rec)
		require.NotNil(t, c)
		assert.True(t, c.Secure)
	})

	t.Run("unsafe path is not stashed", func(t *testing.T) {
		t.Parallel()
		relay := auth.NewRelay(testCookieManager(t))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/auth/login/github", nil)
		relay.Stash(rec, req, "https://evil.com/phish")

		assert.Nil(t, stashCookie(t, rec))
	})
}

func TestRelay_TakeAndClear(t *testing.T) {
	t.Parallel()

	t.Run("round trip and single use", func(t *testing.T) {
		t.Parallel()
		relay := auth.NewRelay(testCookieManager(t))

		stashRec := httptest.NewRecorder()
		relay.Stash(stashRec, httptest.NewRequest(http.MethodGet, "/", nil), "/repos?tab=all")
		stashed := stashCookie(t, stashRec)
		require.NotNil(t, stashed)

		takeRec := httptest.NewRecorder()
		takeReq := httptest.NewRequest(http.MethodGet, "/auth/callback", nil)
		takeReq.AddCookie(stashed)

		assert.Equal(t, "/repos?tab=all", relay.TakeAndClear(takeRec, takeReq))

		// The cookie is expired on the way out.
		cleared := stashCookie(t, takeRec)
		require.NotNil(t, cleared)
		assert.Less(t, cleared.MaxAge, 0)
		assert.Empty(t, cleared.Value)
	})

	t.Run("missing cookie yields empty path", func(t *testing.T) {
		t.Parallel()
		relay := auth.NewRelay(testCookieManager(t))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/auth/callback", nil)
		assert.Empty(t, relay.TakeAndClear(rec, req))
	})

	t.Run("tampered cookie yields empty path", func(t *testing.T) {
		t.Parallel()
		relay := auth.NewRelay(testCookieManager(t))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/auth/callback", nil)
		req.AddCookie(&http.Cookie{Name: auth.NextPathCookie, Value: "forged-value"})
		assert.Empty(t, relay.TakeAndClear(rec, req))
	})
}
