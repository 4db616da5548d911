package engine

import (
	"errors"
	"fmt"
)

// ErrNoValuesFound is returned when an ingestion has nothing to store.
var ErrNoValuesFound = errors.New("no multiplier values found")

// ErrInvalidFormat is matched by every InvalidFormatError.
var ErrInvalidFormat = errors.New("invalid multiplier format")

// InvalidFormatError names the first token of an append batch that could not
// be normalized. Nothing from the batch was stored.
type InvalidFormatError struct {
	Token string
	Err   error
}

func (e *InvalidFormatError) Error() string {
	return fmt.Sprintf("invalid format in %q: use \"n.nn\" or \"n.nnx\"", e.Token)
}

func (e *InvalidFormatError) Is(target error) bool {
	return target == ErrInvalidFormat
}

func (e *InvalidFormatError) Unwrap() error {
	return e.Err
}
