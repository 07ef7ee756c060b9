package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/flowpilot/auth"
)

func TestSanitizeReturnPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"relative path", "/dashboard", "/dashboard"},
		{"relative path with query", "/repos?tab=all", "/repos?tab=all"},
		{"root", "/", "/"},
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
		{"leading whitespace trimmed", "  /dashboard", "/dashboard"},
		{"absolute url", "https://evil.com/phish", ""},
		{"protocol relative", "//evil.com", ""},
		{"backslash protocol relative", "/\\evil.com", ""},
		{"no leading slash", "dashboard", ""},
		{"scheme without slashes", "javascript:alert(1)", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, auth.SanitizeReturnPath(tt.raw))
		})
	}
}
