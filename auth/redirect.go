package auth

import "strings"

// SanitizeReturnPath validates a caller-supplied "return to" path and
// returns it unchanged when safe, or "" when it must not be used as a
// redirect target.
//
// Only same-origin, path-only targets pass: the value must start with a
// single "/" and not with "//", since several URL parsers treat
// "//host/path" as protocol-relative and will navigate off-site. Absolute
// URLs and scheme-relative URLs fail the leading-slash check outright.
// This is the single boundary preventing an open redirect via the login
// flow; it is pure and has no side effects.
func SanitizeReturnPath(raw string) string {
	path := strings.TrimSpace(raw)
	if path == "" {
		return ""
	}
	if path[0] != '/' {
		return ""
	}
	if len(path) > 1 && (path[1] == '/' || path[1] == '\\') {
		return ""
	}
	return path
}
