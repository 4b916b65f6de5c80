package types

// TranslateRequest represents a translation request payload.
type TranslateRequest struct {
	// Ordered source texts. An empty list yields an empty result.
	// example: ["Hello","World"]
	Sources []string `json:"sources" example:"[\"Hello\",\"World\"]"`
	// Source language tag (FLORES-200 or ISO 639-1 alias). Defaults to eng_Latn.
	// example: eng_Latn
	SrcLang string `json:"src_lang,omitempty" example:"eng_Latn"`
	// Target language tag (FLORES-200 or ISO 639-1 alias). Defaults to eng_Latn.
	// example: fra_Latn
	TgtLang string `json:"tgt_lang,omitempty" example:"fra_Latn"`
}

// TranslateResponse carries translations in the same order as the request sources.
type TranslateResponse struct {
	// Translated texts; position i corresponds to source i.
	// example: ["Bonjour","Monde"]
	Translations []string `json:"translations" example:"[\"Bonjour\",\"Monde\"]"`
	// Same slice under the key used by older clients.
	Translation []string `json:"translation,omitempty"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	// example: SERVING
	Status HealthStatus `json:"status" example:"SERVING"`
}

// LanguagesResponse lists the ISO aliases the server normalises.
type LanguagesResponse struct {
	Languages []Language `json:"languages"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Lifecycle state (starting, serving, draining, stopped).
	// example: serving
	State LifecycleState `json:"state" example:"serving"`
	// Health as reported by /health.
	// example: SERVING
	Health HealthStatus `json:"health" example:"SERVING"`
	// Model identifier the artifact was converted from.
	// example: facebook/nllb-200-distilled-600M
	ModelID string `json:"model_id" example:"facebook/nllb-200-distilled-600M"`
	// Directory holding the optimized artifact.
	// example: /var/cache/nllbd/nllb-200-distilled-600M-ct2
	ArtifactDir string `json:"artifact_dir" example:"/var/cache/nllbd/nllb-200-distilled-600M-ct2"`
	// Engine backend name.
	// example: remote
	Engine string `json:"engine" example:"remote"`
	// Requests waiting for an in-flight slot.
	// example: 0
	QueueLen int `json:"queue_len" example:"0"`
	// Requests currently running against the engine.
	// example: 1
	Inflight int `json:"inflight" example:"1"`
	// Maximum queued requests before backpressure triggers.
	// example: 32
	MaxQueueDepth int `json:"max_queue_depth" example:"32"`
	// Total translate requests that completed successfully.
	// example: 120
	TranslationsTotal uint64 `json:"translations_total" example:"120"`
	// Total translate requests that failed in the engine.
	// example: 0
	EngineErrorsTotal uint64 `json:"engine_errors_total" example:"0"`
	// Last engine error observed (if any).
	LastError string `json:"last_error,omitempty"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}
