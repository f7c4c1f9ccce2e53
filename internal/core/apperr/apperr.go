package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers and operators can react to it without string matching.
type Kind string

const (
	KindInputRejected       Kind = "input_rejected"
	KindIdentityInvalid     Kind = "identity_invalid"
	KindRecognition         Kind = "recognition_failure"
	KindRowShape            Kind = "row_shape_mismatch"
	KindEnrichmentTransient Kind = "enrichment_transient"
	KindStorageConflict     Kind = "storage_conflict"
	KindStorage             Kind = "storage"
	KindNotFound            Kind = "not_found"
	KindInternal            Kind = "internal"
)

// Error carries a Kind, the failing operation and whether an external collaborator caused it.
type Error struct {
	Kind     Kind
	Op       string
	External bool
	Err      error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Err != nil:
		return e.Err.Error()
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an error caused by bad input or program state.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// External builds an error caused by a collaborating service (recognizer, model, store).
func External(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, External: true, Err: err}
}

// Errorf is New with a formatted message.
func Errorf(kind Kind, op string, format string, args ...any) *Error {
	return New(kind, op, fmt.Errorf(format, args...))
}

// KindOf returns the outermost Kind in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) && e.Kind != "" {
		return e.Kind
	}
	return KindInternal
}

// IsExternal reports whether any Error in the chain was raised for an external collaborator.
func IsExternal(err error) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.External {
			return true
		}
		err = e.Err
	}
	return false
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
