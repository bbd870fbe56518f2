package errortypes

import "github.com/pkg/errors"

// Severity represents the severity level of a banner processing error.
type Severity int

const (
	// SeverityUnknown represents an unknown severity level.
	SeverityUnknown Severity = iota

	// SeverityFatal represents an error which prevents a banner from being served or saved.
	SeverityFatal

	// SeverityWarning represents a non-fatal error where the banner was still processed.
	SeverityWarning
)

// IsWarning returns true if an error, or the error it wraps, is labeled with a Severity of SeverityWarning
func IsWarning(err error) bool {
	s, ok := errors.Cause(err).(Coder)
	return ok && s.Severity() == SeverityWarning
}
