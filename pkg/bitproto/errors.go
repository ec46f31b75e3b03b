// Package bitproto provides a bit-granular, fixed-layout binary codec.
package bitproto

import (
	"errors"
	"fmt"
)

// ResultCode is the primary fallible-operation return of the core codec's
// scalar, array, and layout operations, mirroring the reference
// implementation's result_code rather than Go's usual error interface:
// these operations run in tight loops (array writes, batch records) where
// an allocated error per call would be wasteful, and callers overwhelmingly
// branch on "which of four outcomes" rather than unwrap or wrap a chain.
// The tooling layers built on top of the codec (reflection, registry,
// schema) use ordinary errors, since that is how the teacher's own
// repo-level tooling is written.
type ResultCode uint8

const (
	// ResultOk indicates the operation completed successfully.
	ResultOk ResultCode = iota
	// ResultBadInput indicates malformed arguments: a buffer too small
	// for the field touched, a zero bit count, a duplicate or empty field
	// name, or a value that does not fit the requested width.
	ResultBadInput
	// ResultNotApplicable indicates the operation is not valid given the
	// Protocol's current configuration, such as reading or writing, in
	// little-endian mode, a field wider than 8 bits whose width is not a
	// whole number of bytes, or reading or writing a field wider than 64
	// bits as a single scalar.
	ResultNotApplicable
	// ResultFieldNotFound indicates the named field does not exist in the
	// layout.
	ResultFieldNotFound
)

func (r ResultCode) String() string {
	switch r {
	case ResultOk:
		return "ok"
	case ResultBadInput:
		return "bad_input"
	case ResultNotApplicable:
		return "not_applicable"
	case ResultFieldNotFound:
		return "field_not_found"
	default:
		return "unknown"
	}
}

// Ok reports whether r is ResultOk.
func (r ResultCode) Ok() bool { return r == ResultOk }

// Sentinel errors for the reflection, registry, and batch layers built on
// top of the core codec. These can be checked with errors.Is().
var (
	// ErrNotPointer indicates the target for UnmarshalStruct is not a
	// pointer.
	ErrNotPointer = errors.New("bitproto: target must be a pointer")

	// ErrNilPointer indicates the target pointer is nil.
	ErrNilPointer = errors.New("bitproto: nil pointer")

	// ErrUnregisteredProtocol indicates a name was not found in a
	// Registry.
	ErrUnregisteredProtocol = errors.New("bitproto: unregistered protocol")

	// ErrDuplicateProtocol indicates a name was registered more than
	// once.
	ErrDuplicateProtocol = errors.New("bitproto: duplicate protocol registration")

	// ErrMaxRecordsExceeded indicates a BatchReader read more records than
	// its configured maximum record count.
	ErrMaxRecordsExceeded = errors.New("bitproto: maximum record count exceeded")

	// ErrShortBuffer indicates a buffer of the wrong size: a record passed
	// to BatchWriter.WriteRecord whose length is not the record size, a
	// write to a closed BatchWriter, or a buffer given to UnmarshalStruct
	// that is shorter than the struct's layout.
	ErrShortBuffer = errors.New("bitproto: buffer too short")

	// ErrMissingTag indicates a struct field had no bitproto tag and its Go
	// type has no native width to fall back on.
	ErrMissingTag = errors.New("bitproto: struct field missing bitproto tag")

	// ErrUnsupportedFieldType indicates a struct field's Go type has no
	// corresponding VisType.
	ErrUnsupportedFieldType = errors.New("bitproto: unsupported struct field type")
)

// FieldError provides detailed context for a failure tied to a single
// named field, used by the reflection and batch layers (the core codec
// itself reports failures via ResultCode, not FieldError).
type FieldError struct {
	Struct  string
	Field   string
	Message string
	Cause   error
}

func (e *FieldError) Error() string {
	prefix := e.Field
	if e.Struct != "" {
		prefix = e.Struct + "." + e.Field
	}
	if prefix == "" {
		return fmt.Sprintf("bitproto: %s", e.Message)
	}
	return fmt.Sprintf("bitproto: field %s: %s", prefix, e.Message)
}

func (e *FieldError) Unwrap() error { return e.Cause }

// NewFieldError creates a FieldError.
func NewFieldError(structName, fieldName, message string, cause error) *FieldError {
	return &FieldError{Struct: structName, Field: fieldName, Message: message, Cause: cause}
}

// RegistrationError reports a problem registering a named protocol in a
// Registry.
type RegistrationError struct {
	Name    string
	Message string
	Cause   error
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("bitproto: register %q: %s", e.Name, e.Message)
}

func (e *RegistrationError) Unwrap() error { return e.Cause }

// NewRegistrationError creates a RegistrationError.
func NewRegistrationError(name, message string, cause error) *RegistrationError {
	return &RegistrationError{Name: name, Message: message, Cause: cause}
}

// SchemaError reports a problem encountered while lexing, parsing, or
// validating a textual .bitproto schema file.
type SchemaError struct {
	File    string
	Line    int
	Column  int
	Message string
}

func (e *SchemaError) Error() string {
	if e.File == "" {
		return e.Message
	}
	return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Message)
}

// WrapError wraps an error with additional context; nil in, nil out.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsFatal reports whether err indicates a programming error that should
// never occur in correct code (as opposed to a data-dependent failure).
func IsFatal(err error) bool {
	switch {
	case errors.Is(err, ErrNotPointer),
		errors.Is(err, ErrNilPointer),
		errors.Is(err, ErrUnregisteredProtocol),
		errors.Is(err, ErrDuplicateProtocol):
		return true
	default:
		return false
	}
}
