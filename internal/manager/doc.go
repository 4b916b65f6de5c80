// Package manager validates translation requests, admits them against the
// shared engine, and reports serving state. It is structured into small files
// by concern:
//
//   - manager.go: core Manager type, state transitions, simple getters.
//   - config.go: ManagerConfig and package defaults; NewWithConfig applies defaults.
//   - types.go: collaborator interfaces (Translator, LanguageNormalizer).
//   - errors.go: error types and helpers (IsValidation, IsEngine, IsTooBusy, IsUnavailable).
//   - request.go: DecodeRequest shape validation and legacy field aliases.
//   - queue_admission.go: bounded queue and in-flight slot admission.
//   - translate.go: Translate/Handle entry points.
//   - drain.go: BeginDrain and WaitIdle used during graceful shutdown.
//   - status_report.go: Status reporting for /status.
//   - events.go, eventpub_log.go: event publishing (noop, zerolog).
//   - recorder.go: EventRecorder, an in-memory publisher for tests.
//
// Transports (HTTP, gRPC) should treat this package as the orchestration layer
// and use public methods only.
package manager
