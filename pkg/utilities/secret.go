package utilities

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// ConstantTimeCompare reports whether a and b are equal without leaking timing.
// An empty expected value never matches.
func ConstantTimeCompare(a, expected string) bool {
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(expected)) == 1
}

// BearerToken returns the token of an "Authorization: Bearer <token>" header, or "".
func BearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if len(auth) < len("bearer ") || !strings.EqualFold(auth[:len("bearer ")], "bearer ") {
		return ""
	}
	return strings.TrimSpace(auth[len("bearer "):])
}

// MatchesSecret checks the named header and then the bearer token against secret.
func MatchesSecret(r *http.Request, header, secret string) bool {
	if v := r.Header.Get(header); v != "" && ConstantTimeCompare(v, secret) {
		return true
	}
	return ConstantTimeCompare(BearerToken(r), secret)
}
