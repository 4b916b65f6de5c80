// Package bearer checks "Authorization: Bearer <token>" credentials shared by
// the HTTP and gRPC transports.
package bearer

import (
	"crypto/subtle"
	"strings"
)

const scheme = "bearer "

// Token extracts the credential from an Authorization header value. The scheme
// is matched case-insensitively.
func Token(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if len(header) < len(scheme) || !strings.EqualFold(header[:len(scheme)], scheme) {
		return "", false
	}
	tok := strings.TrimSpace(header[len(scheme):])
	return tok, tok != ""
}

// Match reports whether header carries want. An empty want disables the check.
func Match(header, want string) bool {
	if want == "" {
		return true
	}
	got, ok := Token(header)
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
