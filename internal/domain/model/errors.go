package model

import (
	"errors"
	"fmt"
)

// Error kinds shared across components. Component sentinels wrap one of these
// so callers can branch on either the specific error or its kind.
var (
	// ErrTransientNetwork covers timeouts, non-2xx responses and undecodable bodies.
	ErrTransientNetwork = errors.New("transient network failure")
	// ErrPermissionDenied reports a refused device permission.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrNotFound reports a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrPersistence reports a failed local cache read or write.
	ErrPersistence = errors.New("persistence failure")
	// ErrValidationRejection reports input refused before any side effect.
	ErrValidationRejection = errors.New("validation rejected")
)

// OpError tags an error with the operation that produced it and its kind.
type OpError struct {
	Op   string
	Kind error
	Err  error
}

func (e *OpError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *OpError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// WrapKind wraps err with op and kind. A nil err yields nil.
func WrapKind(op string, kind, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Kind: kind, Err: err}
}

// NewKind returns an error of the given kind with no underlying cause.
func NewKind(op string, kind error) error {
	return &OpError{Op: op, Kind: kind}
}

// KindOf returns the first shared kind err matches, or nil.
func KindOf(err error) error {
	for _, k := range []error{
		ErrValidationRejection,
		ErrNotFound,
		ErrPermissionDenied,
		ErrPersistence,
		ErrTransientNetwork,
	} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
