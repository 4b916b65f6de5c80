package artifact

import (
	"errors"
	"fmt"
)

// ConversionError reports an unrecoverable failure while producing an
// artifact. It is fatal at startup; the supervisor is expected to restart.
type ConversionError struct {
	ModelID string
	Op      string
	Err     error
}

func (e *ConversionError) Error() string {
	if e.ModelID == "" {
		return fmt.Sprintf("artifact %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("artifact %s %q: %v", e.Op, e.ModelID, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// IsConversionError reports whether err is (or wraps) a ConversionError.
func IsConversionError(err error) bool {
	var ce *ConversionError
	return errors.As(err, &ce)
}
