package annotation

import (
	"errors"
	"fmt"
)

// Construction-time errors. These are the only failures that reach the caller;
// everything that affects a single visual element is logged instead.
var (
	ErrMissingCategory = errors.New("annotation: missing category")
	ErrCategoryKey     = errors.New("annotation: category does not match manifest key")
	ErrNilManifest     = errors.New("annotation: nil manifest")
	ErrNoRenderTarget  = errors.New("annotation: render target unavailable")
	ErrMissingField    = errors.New("annotation: missing required field")
)

// ConstructionError wraps a failure raised while building a record, a manifest
// or a coordinator.
type ConstructionError struct {
	Op      string
	Wrapped error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Wrapped)
}

func (e *ConstructionError) Unwrap() error {
	return e.Wrapped
}

// NewConstructionError wraps err with the operation that failed.
func NewConstructionError(op string, err error) *ConstructionError {
	return &ConstructionError{Op: op, Wrapped: err}
}

// MissingField reports a payload field a renderer needs but did not find.
func MissingField(category, field string) error {
	return fmt.Errorf("%w: %s.%s", ErrMissingField, category, field)
}
