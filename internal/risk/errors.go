package risk

import (
	"errors"
	"fmt"
)

var (
	// ErrNotTrained is returned when prediction or explanation is requested
	// before a model has been trained or loaded.
	ErrNotTrained = errors.New("risk model not trained")

	// ErrArtifactNotFound is returned when no persisted artifact exists for
	// the requested model version. Callers must train and persist explicitly.
	ErrArtifactNotFound = errors.New("risk model artifact not found")
)

// ValidationError rejects a malformed loan record before any computation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid loan field %q: %s", e.Field, e.Reason)
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
