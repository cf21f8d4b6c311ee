package model

import "fmt"

// DecodeErrorKind classifies why a raw transport line could not be decoded.
type DecodeErrorKind string

const (
	DecodeMalformedLine      DecodeErrorKind = "malformed_line"
	DecodeNonNumericField    DecodeErrorKind = "non_numeric_field"
	DecodeFieldCountMismatch DecodeErrorKind = "field_count_mismatch"
)

// DecodeError reports a malformed transport line. Decode errors are counted
// and the line is skipped; they never affect the transport connection.
type DecodeError struct {
	Kind DecodeErrorKind
	Line string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode %s: %q: %v", e.Kind, e.Line, e.Err)
	}
	return fmt.Sprintf("decode %s: %q", e.Kind, e.Line)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ValidationError reports a reading rejected by a range check. It names the
// offending field, the legal range and the offending value for audit.
type ValidationError struct {
	Field string
	Min   float64
	Max   float64
	Value float64
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %g is outside valid range (%g-%g)", e.Field, e.Value, e.Min, e.Max)
}
