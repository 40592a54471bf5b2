package files

import (
	"errors"
	"fmt"
)

// Validation failures. All are rejected before any store interaction.
var (
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrPayloadTooLarge      = errors.New("payload too large")
	ErrTooManyFiles         = errors.New("too many files")
	ErrUnknownCategory      = errors.New("unknown bucket category")
)

// ValidationError wraps one of the validation sentinels with detail about
// the offending input.
type ValidationError struct {
	Reason error
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %s", e.Reason, e.Detail)
}

func (e *ValidationError) Unwrap() error { return e.Reason }

// IsValidationError reports whether err originated in the ingestion
// validator.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
