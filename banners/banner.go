// Package banners holds the banner record, the rule which decides how many impressions a
// request consumes, and the markup each impression is wrapped in.
package banners

import (
	"fmt"
	"regexp"

	"github.com/asaskevich/govalidator"
	"github.com/prebid/prebid-banners/errortypes"
)

// Views tracks the impressions a banner has left to serve.
type Views struct {
	Remains int `json:"remains" yaml:"remains"`
	Max     int `json:"max" yaml:"max"`
}

// Config is the persisted record of a banner.
type Config struct {
	Href         string `json:"href" yaml:"href"`
	Views        Views  `json:"views" yaml:"views"`
	DefaultCount int    `json:"default_count" yaml:"default_count"`
}

// DefaultConfig is the record every stored banner is merged onto.
func DefaultConfig() Config {
	return Config{
		Href: "/копеечка_в_копилку.html",
		Views: Views{
			Remains: 50,
			Max:     50,
		},
		DefaultCount: 1,
	}
}

// Validate reports every problem with the record at once.
func (cfg Config) Validate() error {
	var errs []error
	if cfg.Href == "" || !(govalidator.IsRequestURI(cfg.Href) || govalidator.IsURL(cfg.Href)) {
		errs = append(errs, &errortypes.BadInput{Message: fmt.Sprintf("href %q must be a request URI or an absolute URL", cfg.Href)})
	}
	if cfg.Views.Remains < 0 {
		errs = append(errs, &errortypes.BadInput{Message: fmt.Sprintf("views.remains must be >= 0. Got %d", cfg.Views.Remains)})
	}
	if cfg.Views.Max < 0 {
		errs = append(errs, &errortypes.BadInput{Message: fmt.Sprintf("views.max must be >= 0. Got %d", cfg.Views.Max)})
	}
	if cfg.DefaultCount < 0 {
		errs = append(errs, &errortypes.BadInput{Message: fmt.Sprintf("default_count must be >= 0. Got %d", cfg.DefaultCount)})
	}
	return errortypes.NewAggregateErrors("invalid banner config", errs).ErrOrNil()
}

// Normalize clamps a negative remains, which older records may carry, to zero. The returned
// warning describes the clamp, and is nil when the record was already valid.
func (cfg *Config) Normalize() error {
	if cfg.Views.Remains < 0 {
		warning := &errortypes.Warning{
			Message:     fmt.Sprintf("views.remains was %d, clamped to 0", cfg.Views.Remains),
			WarningCode: errortypes.ClampedRemainsWarningCode,
		}
		cfg.Views.Remains = 0
		return warning
	}
	return nil
}

// Banner is a loaded banner: its name, its record and the source of its HTML template.
type Banner struct {
	Name     string
	Config   Config
	Template string
}

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidName reports whether name can address a banner. Names double as folder names, so
// path separators and dots are never accepted.
func ValidName(name string) bool {
	return len(name) <= 128 && namePattern.MatchString(name)
}
