package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrDocumentNotFound signals a missing (or redacted) document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrUnknownEntityType signals an entity type not present in the registry.
	ErrUnknownEntityType = errors.New("unknown entity type")
	// ErrValidation signals a malformed request parameter.
	ErrValidation = errors.New("invalid parameter")
)

// ParamError wraps ErrValidation with the offending parameter name.
type ParamError struct {
	Param  string
	Reason string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("%s %q: %s", ErrValidation.Error(), e.Param, e.Reason)
}

func (e *ParamError) Unwrap() error { return ErrValidation }

// Invalidf creates a ParamError with a formatted reason.
func Invalidf(param, format string, args ...any) error {
	return &ParamError{Param: param, Reason: fmt.Sprintf(format, args...)}
}
