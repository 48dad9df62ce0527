package query

import (
	"errors"
	"fmt"
)

// ParseError reports a syntax error in an SQL query string. Pos is the
// byte offset of the offending token; Near is its text.
type ParseError struct {
	Pos  int
	Near string
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Near != "" {
		return fmt.Sprintf("parse error at offset %d near %q: %s", e.Pos, e.Near, e.Msg)
	}
	return fmt.Sprintf("parse error at offset %d: %s", e.Pos, e.Msg)
}

// SchemaError reports a structurally invalid query: an unknown table, a
// HAVING without grouping, a selected column outside the group key.
type SchemaError struct {
	Msg string
}

func (e *SchemaError) Error() string { return e.Msg }

// TypeError reports an operation applied to values of incompatible
// kinds, such as ordering a string against an int.
type TypeError struct {
	Msg string
}

func (e *TypeError) Error() string { return e.Msg }

// IsParseError reports whether err wraps a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// IsSchemaError reports whether err wraps a SchemaError.
func IsSchemaError(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}

// IsTypeError reports whether err wraps a TypeError.
func IsTypeError(err error) bool {
	var te *TypeError
	return errors.As(err, &te)
}

func schemaErrorf(format string, args ...any) error {
	return &SchemaError{Msg: fmt.Sprintf(format, args...)}
}

func typeErrorf(format string, args ...any) error {
	return &TypeError{Msg: fmt.Sprintf(format, args...)}
}
