package csventity

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Standard error values. Use errors.Is to classify a returned error.
var (
	// errDuplicateColumnName is returned when a schema declares a column twice
	errDuplicateColumnName = errors.New("duplicate column name")

	// ErrTokenize indicates malformed quoting in a delimited line
	ErrTokenize = errors.New("csventity: malformed delimited line")

	// ErrSchemaViolation indicates a required column is missing or empty, or a
	// value cannot be converted to its declared kind
	ErrSchemaViolation = errors.New("csventity: schema violation")

	// ErrMissingRequiredResource indicates a required schema has no backing resource
	ErrMissingRequiredResource = errors.New("csventity: missing required resource")

	// ErrEntityInstantiation indicates the schema cannot construct a default entity
	ErrEntityInstantiation = errors.New("csventity: cannot instantiate entity")

	// ErrZipOrderingViolation indicates an archive entry was reopened after another
	// record type had been written
	ErrZipOrderingViolation = errors.New("csventity: archive entries must be written contiguously")

	// ErrUnknownRecordType indicates no schema is registered for a record type or entity
	ErrUnknownRecordType = errors.New("csventity: unknown record type")

	// ErrAlreadyWritten indicates a pre-scan was requested after rows of that type were emitted
	ErrAlreadyWritten = errors.New("csventity: record type already written")

	// ErrFileNotFound indicates the store or sink path does not exist
	ErrFileNotFound = errors.New("csventity: file not found")

	// ErrUnsupportedFormat indicates a path that is neither a directory nor a zip archive
	ErrUnsupportedFormat = errors.New("csventity: unsupported file format")

	// ErrClosed indicates use of a store, sink, reader or writer after Close
	ErrClosed = errors.New("csventity: already closed")
)

// EntityError is the error returned for any failure tied to a record type,
// a resource and, when known, a line number.
type EntityError struct {
	Operation  string
	RecordType string
	Resource   string
	// Line is the 1-based physical line number, or 0 when not line specific
	Line int
	Err  error
}

// Error implements error
func (e *EntityError) Error() string {
	parts := []string{fmt.Sprintf("csventity: %s failed", e.Operation)}
	if e.RecordType != "" {
		parts = append(parts, "type: "+e.RecordType)
	}
	if e.Resource != "" {
		parts = append(parts, "resource: "+e.Resource)
	}
	if e.Line > 0 {
		parts = append(parts, "line: "+strconv.Itoa(e.Line))
	}
	msg := strings.Join(parts, ", ")
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error
func (e *EntityError) Unwrap() error {
	return e.Err
}

// ErrorContext provides context for where an error occurred
type ErrorContext struct {
	Operation  string
	Resource   string
	RecordType string
	Line       int
}

// NewErrorContext creates a new error context
func NewErrorContext(operation, resource string) *ErrorContext {
	return &ErrorContext{
		Operation: operation,
		Resource:  resource,
	}
}

// WithRecordType adds record type context to the error
func (ec *ErrorContext) WithRecordType(recordType string) *ErrorContext {
	ec.RecordType = recordType
	return ec
}

// WithLine adds the line number to the error context
func (ec *ErrorContext) WithLine(line int) *ErrorContext {
	ec.Line = line
	return ec
}

// Error creates an *EntityError carrying the context and baseErr
func (ec *ErrorContext) Error(baseErr error) error {
	return &EntityError{
		Operation:  ec.Operation,
		RecordType: ec.RecordType,
		Resource:   ec.Resource,
		Line:       ec.Line,
		Err:        baseErr,
	}
}
