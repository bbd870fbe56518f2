package analytics

import (
	"time"

	"github.com/prebid/prebid-banners/banners"
)

// Module must be implemented by analytics modules to extract the required information and logging
// activities. Do not marshal the parameter objects directly as they can change over time. Use a separate
// model for each analytics module and transform as appropriate.
type Module interface {
	LogImpressionObject(*ImpressionObject)
	LogAdminObject(*AdminObject)
	Shutdown()
}

// Loggable object of a render which consumed impressions at /banners/:name
type ImpressionObject struct {
	ID        string
	Banner    string
	Requested string
	Count     int
	Remains   int
	Status    int
	Errors    []error
	StartTime time.Time
}

// Admin actions on a banner record
const (
	AdminUpdate    = "update"
	AdminReset     = "reset"
	AdminReplenish = "replenish"
)

// Loggable object of a change to a banner record, made through the admin endpoints or by the
// replenish job
type AdminObject struct {
	ID        string
	Banner    string
	Action    string
	Config    *banners.Config
	Status    int
	Errors    []error
	StartTime time.Time
}
