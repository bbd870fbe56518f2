// Package rotator serves banners: it loads a banner, consumes its impressions, renders them and
// writes the record back, one request per banner at a time.
package rotator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	jsonpatch "github.com/evanphx/json-patch"
	"github.com/gofrs/uuid"
	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/prebid/prebid-banners/analytics"
	"github.com/prebid/prebid-banners/banners"
	"github.com/prebid/prebid-banners/errortypes"
	"github.com/prebid/prebid-banners/metrics"
	"github.com/prebid/prebid-banners/stored_banners"
)

// Rotator is safe for concurrent use. Calls for the same banner are serialized within this process.
type Rotator struct {
	store     stored_banners.Store
	renderer  banners.Renderer
	metrics   metrics.MetricsEngine
	analytics analytics.Runner
	locks     *nameLocks
}

func New(store stored_banners.Store, renderer banners.Renderer, me metrics.MetricsEngine, runner analytics.Runner) *Rotator {
	return &Rotator{
		store:     store,
		renderer:  renderer,
		metrics:   me,
		analytics: runner,
		locks:     newNameLocks(),
	}
}

// Result is the outcome of a render. An unknown or exhausted banner gives a zero Count and no HTML.
type Result struct {
	HTML    string
	Count   int
	Remains int
}

// Render consumes the impressions requested of banner name, renders them and saves the record.
// Nothing is saved when no impression is consumed.
func (r *Rotator) Render(ctx context.Context, name, requested string) (Result, error) {
	if !banners.ValidName(name) {
		return Result{}, &errortypes.BadInput{Message: fmt.Sprintf("invalid banner name %q", name)}
	}
	unlock := r.locks.lock(name)
	defer unlock()

	b, err := r.store.Fetch(ctx, name)
	if err != nil {
		if stored_banners.IsNotFound(err) {
			if glog.V(2) {
				glog.Infof("Banner %s requested but %v", name, err)
			}
			return Result{}, nil
		}
		glog.Errorf("Failed to load banner %s: %v", name, err)
		return Result{}, &errortypes.StoreFailure{Message: err.Error()}
	}

	start := time.Now()
	html, count, err := b.RenderSeveral(r.renderer, requested)
	if count == 0 && err == nil {
		return Result{Remains: b.Config.Views.Remains}, nil
	}

	event := &analytics.ImpressionObject{
		ID:        newEventID(),
		Banner:    name,
		Requested: requested,
		Count:     count,
		Remains:   b.Config.Views.Remains,
		Status:    http.StatusOK,
		StartTime: start,
	}
	defer r.analytics.LogImpressionObject(event)

	if err != nil {
		glog.Errorf("Failed to render banner %s: %v", name, err)
		event.Status = http.StatusInternalServerError
		event.Errors = []error{err}
		return Result{}, err
	}
	if err := r.store.Save(ctx, b); err != nil {
		glog.Errorf("Failed to save banner %s: %v", name, err)
		event.Status = http.StatusInternalServerError
		event.Errors = []error{err}
		return Result{}, &errortypes.StoreFailure{Message: err.Error()}
	}

	r.metrics.RecordImpressions(name, count)
	r.metrics.RecordRemains(name, b.Config.Views.Remains)
	return Result{HTML: html, Count: count, Remains: b.Config.Views.Remains}, nil
}

// Get returns the stored banner. A missing banner is reported as a stored_banners.NotFoundError.
func (r *Rotator) Get(ctx context.Context, name string) (*banners.Banner, error) {
	if !banners.ValidName(name) {
		return nil, &errortypes.BadInput{Message: fmt.Sprintf("invalid banner name %q", name)}
	}
	return r.store.Fetch(ctx, name)
}

// Update merges a JSON merge patch (RFC 7386) into the record of banner name and saves the result
// if it is still a valid record.
func (r *Rotator) Update(ctx context.Context, name string, patch []byte) (*banners.Banner, error) {
	return r.modify(ctx, name, analytics.AdminUpdate, func(b *banners.Banner) error {
		current, err := json.Marshal(b.Config)
		if err != nil {
			return errors.Wrapf(err, "failed to encode record of banner %s", name)
		}
		merged, err := jsonpatch.MergePatch(current, patch)
		if err != nil {
			return &errortypes.BadInput{Message: "invalid merge patch: " + err.Error()}
		}
		if err := validateSchema(merged); err != nil {
			return err
		}
		var cfg banners.Config
		if err := json.Unmarshal(merged, &cfg); err != nil {
			return &errortypes.BadInput{Message: "invalid banner config: " + err.Error()}
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		b.Config = cfg
		return nil
	})
}

// Reset restores the remaining impressions of banner name to its max.
func (r *Rotator) Reset(ctx context.Context, name string) (*banners.Banner, error) {
	return r.modify(ctx, name, analytics.AdminReset, func(b *banners.Banner) error {
		b.Config.Views.Remains = b.Config.Views.Max
		return nil
	})
}

func (r *Rotator) modify(ctx context.Context, name, action string, change func(b *banners.Banner) error) (*banners.Banner, error) {
	if !banners.ValidName(name) {
		return nil, &errortypes.BadInput{Message: fmt.Sprintf("invalid banner name %q", name)}
	}
	unlock := r.locks.lock(name)
	defer unlock()

	event := &analytics.AdminObject{
		ID:        newEventID(),
		Banner:    name,
		Action:    action,
		Status:    http.StatusOK,
		StartTime: time.Now(),
	}
	defer r.analytics.LogAdminObject(event)

	b, err := r.store.Fetch(ctx, name)
	if err != nil {
		event.Status = ErrorStatus(err)
		event.Errors = []error{err}
		return nil, err
	}
	if err := change(b); err != nil {
		event.Status = ErrorStatus(err)
		event.Errors = []error{err}
		return nil, err
	}
	if err := r.store.Save(ctx, b); err != nil {
		glog.Errorf("Failed to save banner %s: %v", name, err)
		event.Status = ErrorStatus(err)
		event.Errors = []error{err}
		return nil, err
	}

	glog.Infof("Banner %s: %s, %d of %d impressions remaining", name, action, b.Config.Views.Remains, b.Config.Views.Max)
	r.metrics.RecordRemains(name, b.Config.Views.Remains)
	event.Config = &b.Config
	return b, nil
}

// ReplenishAll resets every exhausted banner with a positive max back to its max. It returns the
// number of banners replenished. One failing banner does not stop the others.
func (r *Rotator) ReplenishAll(ctx context.Context) (int, error) {
	names, err := r.store.List(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to list banners")
	}

	var errs []error
	replenished := 0
	for _, name := range names {
		ok, err := r.replenish(ctx, name)
		if err != nil {
			errs = append(errs, err)
		} else if ok {
			replenished++
		}
	}
	if replenished > 0 {
		glog.Infof("Replenished %d of %d banners", replenished, len(names))
	}
	return replenished, errortypes.NewAggregateErrors("failed to replenish banners", errs).ErrOrNil()
}

func (r *Rotator) replenish(ctx context.Context, name string) (bool, error) {
	unlock := r.locks.lock(name)
	defer unlock()

	b, err := r.store.Fetch(ctx, name)
	if err != nil {
		if stored_banners.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	if b.Config.Views.Remains > 0 || b.Config.Views.Max <= 0 {
		return false, nil
	}

	b.Config.Views.Remains = b.Config.Views.Max
	if err := r.store.Save(ctx, b); err != nil {
		return false, err
	}

	r.metrics.RecordReplenish(name)
	r.metrics.RecordRemains(name, b.Config.Views.Remains)
	r.analytics.LogAdminObject(&analytics.AdminObject{
		ID:        newEventID(),
		Banner:    name,
		Action:    analytics.AdminReplenish,
		Config:    &b.Config,
		Status:    http.StatusOK,
		StartTime: time.Now(),
	})
	return true, nil
}

// ErrorStatus maps an error returned by the Rotator to the HTTP status which reports it.
func ErrorStatus(err error) int {
	switch errors.Cause(err).(type) {
	case *errortypes.BadInput, errortypes.AggregateErrors:
		return http.StatusBadRequest
	case stored_banners.NotFoundError, *stored_banners.NotFoundError:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func newEventID() string {
	id, err := uuid.NewV4()
	if err != nil {
		glog.Errorf("Failed to generate an event id: %v", err)
		return ""
	}
	return id.String()
}
