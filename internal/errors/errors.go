package errors

import (
	"fmt"
)

// Error represents a compiler error with a Neo4j-style status code
type Error struct {
	Code     string // Status code, e.g. "Quanta.Statement.UnresolvedReference"
	Message  string // Primary error message
	Detail   string // Optional detailed error message
	Hint     string // Optional hint message
	Position int    // Character offset in query text (0 if not applicable)
	Clause   string // Clause the error was raised for, rendered as text
	Variable string // Variable name if applicable
	Pattern  string // Pattern rendered as text if applicable
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s DETAIL: %s", e.Code, e.Message, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// New creates a new Error with the given code and message
func New(code string, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new Error with a formatted message
func Newf(code string, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// WithDetail adds detail to the error
func (e *Error) WithDetail(detail string) *Error {
	e.Detail = detail
	return e
}

// WithDetailf adds formatted detail to the error
func (e *Error) WithDetailf(format string, args ...interface{}) *Error {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// WithHint adds a hint to the error
func (e *Error) WithHint(hint string) *Error {
	e.Hint = hint
	return e
}

// WithPosition sets the query position
func (e *Error) WithPosition(pos int) *Error {
	e.Position = pos
	return e
}

// WithClause records the rendered clause the error was raised for
func (e *Error) WithClause(clause string) *Error {
	e.Clause = clause
	return e
}

// WithVariable sets the variable name
func (e *Error) WithVariable(name string) *Error {
	e.Variable = name
	return e
}

// WithPattern records the rendered pattern the error was raised for
func (e *Error) WithPattern(pattern string) *Error {
	e.Pattern = pattern
	return e
}

// Is reports whether target is an *Error with the same code.
// It makes Error work with the standard errors.Is machinery.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Common error constructors

// InternalConsistencyError reports a compiler-internal invariant violation.
func InternalConsistencyError(format string, args ...interface{}) *Error {
	return Newf(InternalConsistency, format, args...)
}

// UnresolvedReferenceError reports a reference to a variable that no plan
// node binds.
func UnresolvedReferenceError(name string) *Error {
	return Newf(UnresolvedReference, "variable `%s` not defined", name).
		WithVariable(name)
}

// UnplannablePatternError reports a pattern for which no candidate scan or
// index plan could be produced.
func UnplannablePatternError(pattern string) *Error {
	return Newf(UnplannablePattern, "unable to produce an access plan for pattern %s", pattern).
		WithPattern(pattern)
}

// InvalidScenarioError reports a malformed plan scenario description.
func InvalidScenarioError(format string, args ...interface{}) *Error {
	return Newf(InvalidScenario, format, args...)
}
