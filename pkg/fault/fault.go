package fault

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("resource not found")
	ErrUniqueViolation     = errors.New("unique violation")
	ErrForeignKeyViolation = errors.New("restricted for deletion")
	ErrAlreadySubmitted    = errors.New("draft already submitted")
	ErrWrongType           = errors.New("wrong value type")
)

type ErrorType int

const (
	ErrClient ErrorType = iota
	ErrInternal
)

// Fault classifies an error for the caller. Field is set when one named
// input field was at fault.
type Fault struct {
	Type    ErrorType
	Message string
	Field   string
	Err     error
}

func (e *Fault) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.typeString(), e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.typeString(), e.Message)
}

func (e *Fault) Unwrap() error {
	return e.Err
}

func (e *Fault) typeString() string {
	switch e.Type {
	case ErrClient:
		return "ClientError"
	case ErrInternal:
		return "InternalError"
	default:
		return "UnknownError"
	}
}

// NewClientError wraps err as a caller mistake.
func NewClientError(msg string, err error) error {
	return &Fault{Type: ErrClient, Message: msg, Err: err}
}

// NewInternalError wraps err as a storage or encoding failure.
func NewInternalError(msg string, err error) error {
	return &Fault{Type: ErrInternal, Message: msg, Err: err}
}

// InvalidField is a client error for a value of the wrong type for field.
func InvalidField(field, want string, got any) error {
	return &Fault{
		Type:    ErrClient,
		Message: fmt.Sprintf("%s must be %s, got %v (%T)", field, want, got, got),
		Field:   field,
		Err:     ErrWrongType,
	}
}

// NotFound wraps ErrNotFound with the kind and id that missed.
func NotFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
}

func IsClientError(err error) bool {
	var f *Fault
	if errors.As(err, &f) {
		return f.Type == ErrClient
	}
	return false
}

func IsInternalError(err error) bool {
	var f *Fault
	if errors.As(err, &f) {
		return f.Type == ErrInternal
	}
	return false
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// FieldOf returns the offending field name, if any.
func FieldOf(err error) string {
	var f *Fault
	if errors.As(err, &f) {
		return f.Field
	}
	return ""
}

// Code is a stable machine-readable name for err. Not found wins over the
// client/internal split so a wrapped miss still reads as not_found.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case IsNotFound(err):
		return "not_found"
	case errors.Is(err, ErrAlreadySubmitted):
		return "already_submitted"
	case errors.Is(err, ErrUniqueViolation), errors.Is(err, ErrForeignKeyViolation):
		return "conflict"
	case IsClientError(err):
		return "bad_request"
	default:
		return "internal"
	}
}
