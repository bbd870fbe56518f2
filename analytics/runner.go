package analytics

// Runner hands events to every enabled Module.
type Runner interface {
	LogImpressionObject(*ImpressionObject)
	LogAdminObject(*AdminObject)
	Shutdown()
}
