package optimize_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/flowpilot/optimize"
)

// sseServer streams the given deltas as chat completion chunks.
func sseServer(t *testing.T, deltas []string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer sk-user", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, delta := range deltas {
			fmt.Fprintf(w,
				"data: {\"id\":\"c1\",\"object\":\"chat.completion.chunk\",\"choices\":[{\"index\":0,\"delta\":{\"content\":%q}}]}\n\n",
				delta)
			flusher.Flush()
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewOpenAI(t *testing.T) {
	t.Parallel()

	t.Run("rejects empty api key", func(t *testing.T) {
		t.Parallel()
		_, err := optimize.NewOpenAI("", "gpt-4o-mini")
		assert.ErrorIs(t, err, optimize.ErrInvalidAPIKey)
	})
}

func TestOpenAIOptimize(t *testing.T) {
	t.Parallel()

	t.Run("streams deltas in order", func(t *testing.T) {
		t.Parallel()
		srv := sseServer(t, []string{"name: ci\n", "on:\n", "  push:\n"})

		gen, err := optimize.NewOpenAI("sk-user", "gpt-4o-mini",
			optimize.WithOpenAIBaseURL(srv.URL))
		require.NoError(t, err)

		var out strings.Builder
		err = gen.Optimize(t.Context(), optimize.Prompt{
			WorkflowPath: ".github/workflows/ci.yml",
			Content:      "name: ci\n",
		}, &out)
		require.NoError(t, err)
		assert.Equal(t, "name: ci\non:\n  push:\n", out.String())
	})

	t.Run("empty stream reports no content", func(t *testing.T) {
		t.Parallel()
		srv := sseServer(t, nil)

		gen, err := optimize.NewOpenAI("sk-user", "gpt-4o-mini",
			optimize.WithOpenAIBaseURL(srv.URL))
		require.NoError(t, err)

		var out strings.Builder
		err = gen.Optimize(t.Context(), optimize.Prompt{WorkflowPath: "ci.yml"}, &out)
		assert.ErrorIs(t, err, optimize.ErrNoContentReturned)
	})

	t.Run("api error surfaces as generation failure", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":{"message":"invalid key"}}`, http.StatusUnauthorized)
		}))
		t.Cleanup(srv.Close)

		gen, err := optimize.NewOpenAI("sk-bad", "gpt-4o-mini",
			optimize.WithOpenAIBaseURL(srv.URL))
		require.NoError(t, err)

		var out strings.Builder
		err = gen.Optimize(t.Context(), optimize.Prompt{WorkflowPath: "ci.yml"}, &out)
		assert.ErrorIs(t, err, optimize.ErrGenerationFailed)
	})
}
