package errortypes

import "github.com/pkg/errors"

// Defines numeric codes for well-known errors.
const (
	UnknownErrorCode  = 999
	BadInputErrorCode = iota
	NotFoundErrorCode
	StoreFailureErrorCode
)

// Defines numeric codes for well-known warnings.
const (
	UnknownWarningCode        = 10999
	ClampedRemainsWarningCode = iota + 10000
)

// Coder provides an error or warning code with severity.
type Coder interface {
	Code() int
	Severity() Severity
}

// ReadCode returns the error or warning code, or UnknownErrorCode if unavailable.
// Wrapped errors report the code of their cause.
func ReadCode(err error) int {
	if e, ok := errors.Cause(err).(Coder); ok {
		return e.Code()
	}
	return UnknownErrorCode
}
