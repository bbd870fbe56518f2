package stored_banners

import (
	"context"
	"time"

	"github.com/prebid/prebid-banners/banners"
	"github.com/prebid/prebid-banners/metrics"
)

// WithMetrics returns a Store which times every call to store and reports it to me.
func WithMetrics(store Store, me metrics.MetricsEngine) Store {
	return &storeWithMetrics{
		store:   store,
		metrics: me,
	}
}

type storeWithMetrics struct {
	store   Store
	metrics metrics.MetricsEngine
}

func (s *storeWithMetrics) Fetch(ctx context.Context, name string) (*banners.Banner, error) {
	start := time.Now()
	b, err := s.store.Fetch(ctx, name)
	s.record(metrics.StoreFetch, start, err)
	return b, err
}

func (s *storeWithMetrics) Save(ctx context.Context, b *banners.Banner) error {
	start := time.Now()
	err := s.store.Save(ctx, b)
	s.record(metrics.StoreSave, start, err)
	return err
}

func (s *storeWithMetrics) List(ctx context.Context) ([]string, error) {
	start := time.Now()
	names, err := s.store.List(ctx)
	s.record(metrics.StoreList, start, err)
	return names, err
}

func (s *storeWithMetrics) Close() error {
	return s.store.Close()
}

func (s *storeWithMetrics) record(op metrics.StoreOperation, start time.Time, err error) {
	status := metrics.StoreStatusOK
	if IsNotFound(err) {
		status = metrics.StoreStatusNotFound
	} else if err != nil {
		status = metrics.StoreStatusErr
	}
	s.metrics.RecordStoreTime(metrics.StoreLabels{Operation: op, Status: status}, time.Since(start))
}
