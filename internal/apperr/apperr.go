// Package apperr defines the error taxonomy returned by the marketplace core.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an error for callers that need to react to it.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindConflict
	KindNotFound
	KindInvalidState
	KindForbidden
	KindInfrastructure
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindInvalidState:
		return "invalid_state"
	case KindForbidden:
		return "forbidden"
	case KindInfrastructure:
		return "infrastructure"
	}
	return "unknown"
}

// Sentinels for errors.Is matching by kind.
var (
	ErrValidation     = &Error{Kind: KindValidation}
	ErrConflict       = &Error{Kind: KindConflict}
	ErrNotFound       = &Error{Kind: KindNotFound}
	ErrInvalidState   = &Error{Kind: KindInvalidState}
	ErrForbidden      = &Error{Kind: KindForbidden}
	ErrInfrastructure = &Error{Kind: KindInfrastructure}
)

// Field problems
const (
	ProblemMissing = "missing"
	ProblemInvalid = "invalid"
)

// FieldError names one bad input field.
type FieldError struct {
	Field   string `json:"field"`
	Problem string `json:"problem"`
	Detail  string `json:"detail,omitempty"`
}

// Error is a classified core error.
type Error struct {
	Kind    Kind
	Message string
	// Fields is set for validation errors.
	Fields []FieldError
	// ResourceID names the conflicting entity, if any.
	ResourceID string
	// Status is the current status for invalid-state errors.
	Status string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if len(e.Fields) > 0 {
		names := make([]string, len(e.Fields))
		for i, f := range e.Fields {
			names[i] = f.Field
		}
		msg = fmt.Sprintf("%s: %s", msg, strings.Join(names, ", "))
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// FieldNames returns the names of the offending fields with the given problem,
// or all of them when problem is empty.
func (e *Error) FieldNames(problem string) []string {
	var names []string
	for _, f := range e.Fields {
		if problem == "" || f.Problem == problem {
			names = append(names, f.Field)
		}
	}
	return names
}

// Retryable reports whether the operation may succeed if repeated.
func (e *Error) Retryable() bool {
	return e.Kind == KindInfrastructure
}

// Validation builds a validation error from field problems.
func Validation(fields []FieldError) *Error {
	return &Error{Kind: KindValidation, Message: "validation failed", Fields: fields}
}

// Invalid builds a validation error for a single invalid field.
func Invalid(field, detail string) *Error {
	return Validation([]FieldError{{Field: field, Problem: ProblemInvalid, Detail: detail}})
}

// Conflict builds a conflict error referencing the conflicting resource.
func Conflict(message, resourceID string) *Error {
	return &Error{Kind: KindConflict, Message: message, ResourceID: resourceID}
}

// NotFound builds a not-found error.
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// InvalidState builds an error for an operation that the current status forbids.
func InvalidState(message, status string) *Error {
	return &Error{Kind: KindInvalidState, Message: message, Status: status}
}

// Forbidden builds a permission error.
func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

// Infrastructure wraps a store or collaborator failure.
func Infrastructure(op string, err error) *Error {
	return &Error{Kind: KindInfrastructure, Message: op, Err: err}
}

// As extracts an *Error from err.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of err, treating unclassified errors as infrastructure.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInfrastructure
}
