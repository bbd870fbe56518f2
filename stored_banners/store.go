package stored_banners

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/prebid/prebid-banners/banners"
	"github.com/prebid/prebid-banners/errortypes"
)

// Store persists banner records and templates.
//
// Fetch returns a NotFoundError when the banner has no record or no template.
// Save overwrites the record wholesale. The template is never written by Save.
type Store interface {
	Fetch(ctx context.Context, name string) (*banners.Banner, error)
	Save(ctx context.Context, b *banners.Banner) error
	// List returns the names of every stored banner, in no particular order.
	List(ctx context.Context) ([]string, error)
	Close() error
}

// NotFoundError is an error type to flag that a banner was not found.
type NotFoundError struct {
	Name string
	// What names the missing piece: "banner", "record" or "template".
	What string
}

func (e NotFoundError) Error() string {
	if e.What == "" || e.What == "banner" {
		return fmt.Sprintf("banner %s not found", e.Name)
	}
	return fmt.Sprintf("%s of banner %s not found", e.What, e.Name)
}

func (e NotFoundError) Code() int {
	return errortypes.NotFoundErrorCode
}

// Severity is a warning: a missing banner renders nothing but is not a failure.
func (e NotFoundError) Severity() errortypes.Severity {
	return errortypes.SeverityWarning
}

// IsNotFound reports whether err, or the error it wraps, is a NotFoundError.
func IsNotFound(err error) bool {
	switch errors.Cause(err).(type) {
	case NotFoundError, *NotFoundError:
		return true
	}
	return false
}
