package httpapi

import "strings"

// maxBodyBytes controls the maximum allowed request body size for JSON endpoints.
// Default is 1 MiB.
var maxBodyBytes int64 = 1 << 20

// SetMaxBodyBytes allows configuring the maximum request body size.
func SetMaxBodyBytes(n int64) {
	if n <= 0 {
		maxBodyBytes = 1 << 20
		return
	}
	maxBodyBytes = n
}

// translateTimeout bounds how long a /translate request may wait for admission
// and the engine. Zero means no additional timeout beyond server/connection timeouts.
var translateTimeout = int64(0) // seconds

// SetTranslateTimeoutSeconds sets the translate timeout in seconds (0 disables).
func SetTranslateTimeoutSeconds(sec int64) {
	if sec < 0 {
		sec = 0
	}
	translateTimeout = sec
}

// apiKey is the bearer token protected routes require. Empty disables auth.
var apiKey string

// SetAPIKey configures bearer authentication for /translate, /status and
// /languages. Health and metrics stay open.
func SetAPIKey(token string) { apiKey = strings.TrimSpace(token) }

// CORS configuration (opt-in). If disabled, no CORS middleware is added.
var (
	corsEnabled        bool
	corsAllowedOrigins []string
	corsAllowedMethods []string
	corsAllowedHeaders []string
)

// SetCORSOptions configures CORS behavior for the HTTP server.
func SetCORSOptions(enabled bool, origins, methods, headers []string) {
	corsEnabled = enabled
	corsAllowedOrigins = append([]string(nil), origins...)
	corsAllowedMethods = append([]string(nil), methods...)
	corsAllowedHeaders = append([]string(nil), headers...)
}
