package errortypes

// BadInput should be used when returning errors which are caused by bad input.
// It should _not_ be used if the error is a server-side issue (e.g. failed to write a banner record).
//
// BadInputs will not be written to the app log, since it's not an actionable item for the server hosts.
type BadInput struct {
	Message string
}

func (err *BadInput) Error() string {
	return err.Message
}

func (err *BadInput) Code() int {
	return BadInputErrorCode
}

func (err *BadInput) Severity() Severity {
	return SeverityFatal
}

// StoreFailure should be used when a banner store could not be read or written.
type StoreFailure struct {
	Message string
}

func (err *StoreFailure) Error() string {
	return err.Message
}

func (err *StoreFailure) Code() int {
	return StoreFailureErrorCode
}

func (err *StoreFailure) Severity() Severity {
	return SeverityFatal
}

// Warning is a generic non-fatal error.
type Warning struct {
	Message     string
	WarningCode int
}

func (err *Warning) Error() string {
	return err.Message
}

func (err *Warning) Code() int {
	return err.WarningCode
}

func (err *Warning) Severity() Severity {
	return SeverityWarning
}
