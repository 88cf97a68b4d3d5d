// Package redact strips obvious secret-bearing substrings from error and
// log strings before they are persisted or logged.
package redact

import (
	"regexp"
	"strings"
)

var (
	// Matches "Bearer <token>" (JWTs and opaque tokens).
	bearerTokenRe = regexp.MustCompile(`(?i)\bBearer\s+[^\s"']+`)

	// Common key=value formats that sometimes leak in provider error strings.
	apiKeyKVRe = regexp.MustCompile(`(?i)\b(api[_-]?key|gemini[_-]?api[_-]?key|key)\b\s*[:=]\s*[^\s"']+`)

	// Google API keys have a recognizable prefix.
	googleKeyRe = regexp.MustCompile(`\bAIza[0-9A-Za-z_-]{30,}\b`)
)

// Secrets removes secret-bearing substrings from s.
func Secrets(s string) string {
	if s == "" {
		return ""
	}
	out := s
	out = bearerTokenRe.ReplaceAllString(out, "Bearer <redacted>")
	out = apiKeyKVRe.ReplaceAllString(out, "<redacted_kv>")
	out = googleKeyRe.ReplaceAllString(out, "<redacted_key>")
	return strings.TrimSpace(out)
}
