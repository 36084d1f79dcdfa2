// Package errors defines the typed errors returned across bizmerge.
//
// Every failure a caller may want to branch on is either one of the
// sentinels below or a struct that reports itself as one through Is, so
// errors.Is(err, ErrInvalidInput) holds for validation, schema and option
// problems alike. Structs that wrap a cause expose it through Unwrap.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-exported from the standard library so callers need one errors import.
var (
	New = errors.New
	As  = errors.As
)

var (
	// ErrInvalidInput marks bad options, configuration values and
	// source tables that fail their schema.
	ErrInvalidInput = errors.New("invalid input")

	// ErrCanceled marks work abandoned because its context was done.
	ErrCanceled = errors.New("operation canceled")
)

// IsValidationError reports whether err stems from invalid input.
func IsValidationError(err error) bool { return errors.Is(err, ErrInvalidInput) }

// IsCanceled reports whether err stems from cancellation.
func IsCanceled(err error) bool { return errors.Is(err, ErrCanceled) }

// ValidationError rejects a single value.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// NewValidationError returns a ValidationError for field.
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// WrapValidation turns err into a ValidationError for field. A nil err
// yields nil.
func WrapValidation(field string, err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Field: field, Message: err.Error()}
}

// SchemaError lists the required columns a source table lacks.
type SchemaError struct {
	Source  string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s table lacks required columns [%s]", e.Source, strings.Join(e.Missing, ", "))
}

func (e *SchemaError) Is(target error) bool { return target == ErrInvalidInput }

// NewSchemaError returns a SchemaError for source.
func NewSchemaError(source string, missing []string) *SchemaError {
	return &SchemaError{Source: source, Missing: missing}
}

// ConfigError reports a configuration file or value that could not be used.
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

func (e *ConfigError) Error() string {
	msg := "config"
	if e.Component != "" {
		msg += " " + e.Component
	}
	msg += ": " + e.Message
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

// NewConfigError returns a ConfigError for component.
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{Component: component, Message: message, Err: err}
}

// LinkError reports a failed stage of the linkage cascade. Left and Right
// name the tables being joined when the stage has them.
type LinkError struct {
	Stage string
	Left  string
	Right string
	Err   error
}

func (e *LinkError) Error() string {
	switch {
	case e.Left != "" && e.Right != "":
		return fmt.Sprintf("link %s %s⋈%s: %v", e.Stage, e.Left, e.Right, e.Err)
	case e.Left != "":
		return fmt.Sprintf("link %s %s: %v", e.Stage, e.Left, e.Err)
	default:
		return fmt.Sprintf("link %s: %v", e.Stage, e.Err)
	}
}

func (e *LinkError) Unwrap() error { return e.Err }

// NewLinkError returns a LinkError for stage.
func NewLinkError(stage, left, right string, err error) *LinkError {
	return &LinkError{Stage: stage, Left: left, Right: right, Err: err}
}

// ParseError reports malformed input. Line and Column are 1-based and zero
// when unknown.
type ParseError struct {
	Format  string
	File    string
	Line    int
	Column  int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	var where string
	switch {
	case e.File != "" && e.Line > 0:
		where = fmt.Sprintf(" %s:%d:%d", e.File, e.Line, e.Column)
	case e.File != "":
		where = " " + e.File
	}
	return fmt.Sprintf("malformed %s%s: %s", e.Format, where, e.Message)
}

func (e *ParseError) Unwrap() error { return e.Err }

// NewParseError returns a ParseError without a position.
func NewParseError(format, file, message string, err error) *ParseError {
	return &ParseError{Format: format, File: file, Message: message, Err: err}
}

// WrapParse turns err into a ParseError for file. A nil err yields nil.
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return NewParseError(format, file, err.Error(), err)
}

// IOError reports a filesystem operation that failed.
type IOError struct {
	Operation string
	Path      string
	Err       error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Operation, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Operation, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// WrapIO turns err into an IOError. A nil err yields nil.
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Operation: operation, Path: path, Err: err}
}

// ResourceError reports a pipeline step that failed on a named resource,
// e.g. writing the xlsx sink.
type ResourceError struct {
	Operation string
	Resource  string
	ID        string
	Err       error
}

func (e *ResourceError) Error() string {
	target := e.Resource
	if e.ID != "" {
		target += " " + e.ID
	}
	return fmt.Sprintf("%s %s: %v", e.Operation, target, e.Err)
}

func (e *ResourceError) Unwrap() error { return e.Err }

// WrapResource turns err into a ResourceError. A nil err yields nil.
func WrapResource(operation, resource, id string, err error) error {
	if err == nil {
		return nil
	}
	return &ResourceError{Operation: operation, Resource: resource, ID: id, Err: err}
}
