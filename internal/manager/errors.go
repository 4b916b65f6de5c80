package manager

import (
	"errors"
	"fmt"
)

// ValidationError reports a malformed request (400 / InvalidArgument).
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid request: " + e.Reason
	}
	return fmt.Sprintf("invalid request: %s %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// EngineError wraps a tokenizer or engine failure for a single request
// (500 / Internal). The process keeps serving.
type EngineError struct{ Err error }

func (e *EngineError) Error() string { return "engine: " + e.Err.Error() }

func (e *EngineError) Unwrap() error { return e.Err }

// IsEngine reports whether err is an EngineError.
func IsEngine(err error) bool {
	var ee *EngineError
	return errors.As(err, &ee)
}

// tooBusyError signals queue timeout/overflow for 429 mapping.
type tooBusyError struct{ stage string }

func (e tooBusyError) Error() string { return "too busy: timed out waiting for " + e.stage }

// IsTooBusy reports whether err indicates backpressure (return 429).
func IsTooBusy(err error) bool {
	var tb tooBusyError
	return errors.As(err, &tb)
}

// ErrDraining rejects requests that arrive after shutdown began (503).
var ErrDraining = errors.New("server is draining")

// ErrNotServing rejects requests that arrive before the engine is loaded (503).
var ErrNotServing = errors.New("server is not serving yet")

// IsUnavailable reports whether err means the server cannot take work now.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrDraining) || errors.Is(err, ErrNotServing)
}
