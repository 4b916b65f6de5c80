package httpapi

import (
	"net/http"

	"nllbd/internal/common/bearer"
)

// requireAPIKey rejects requests without the configured bearer token before
// the handler reads the body.
func requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !bearer.Match(r.Header.Get("Authorization"), apiKey) {
			authFailuresTotal.Inc()
			w.Header().Set("WWW-Authenticate", `Bearer realm="nllbd"`)
			writeJSONError(w, http.StatusUnauthorized, "missing or invalid bearer token")
			return
		}
		next.ServeHTTP(w, r)
	})
}
