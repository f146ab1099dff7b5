package params

import (
	"errors"
	"fmt"
)

// ParseErrorCode categorizes parse errors.
type ParseErrorCode string

const (
	// ErrCodeUnknownOperator indicates an operator token outside the
	// closed operator set, e.g. filter[age][zz]=5.
	ErrCodeUnknownOperator ParseErrorCode = "UNKNOWN_OPERATOR"

	// ErrCodeMalformedParameter indicates broken bracket or dot syntax,
	// or a field the schema does not declare.
	ErrCodeMalformedParameter ParseErrorCode = "MALFORMED_PARAMETER"

	// ErrCodeTypeMismatch indicates a value that failed coercion to the
	// field's declared kind.
	ErrCodeTypeMismatch ParseErrorCode = "TYPE_MISMATCH"
)

// ParseError represents a parameter rejected at parse time.
//
// Parse errors are non-recoverable: the whole request is rejected and the
// caller's base query is never touched. Param carries the offending raw
// parameter so callers can produce an actionable message.
type ParseError struct {
	// Code identifies the error category.
	Code ParseErrorCode

	// Param is the offending raw parameter, e.g. "filter[age][zz]".
	Param string

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("%s: %s (param=%s)", e.Code, e.Message, e.Param)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsUnknownOperator reports whether err is an unknown-operator parse error.
// Uses errors.As to handle wrapped errors.
func IsUnknownOperator(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe) && pe.Code == ErrCodeUnknownOperator
}

// IsMalformedParameter reports whether err is a malformed-parameter parse
// error.
func IsMalformedParameter(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe) && pe.Code == ErrCodeMalformedParameter
}

// IsTypeMismatch reports whether err is a type-mismatch parse error.
func IsTypeMismatch(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe) && pe.Code == ErrCodeTypeMismatch
}

func unknownOperator(param, token string) *ParseError {
	return &ParseError{
		Code:    ErrCodeUnknownOperator,
		Param:   param,
		Message: fmt.Sprintf("unknown filter operator %q", token),
	}
}

func malformed(param, format string, args ...any) *ParseError {
	return &ParseError{
		Code:    ErrCodeMalformedParameter,
		Param:   param,
		Message: fmt.Sprintf(format, args...),
	}
}

func typeMismatch(param, value string, kind string) *ParseError {
	return &ParseError{
		Code:    ErrCodeTypeMismatch,
		Param:   param,
		Message: fmt.Sprintf("value %q is not a valid %s", value, kind),
	}
}
