package stored_banners

import (
	"context"
	"errors"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/prebid/prebid-banners/banners"
	"github.com/prebid/prebid-banners/errortypes"
	"github.com/prebid/prebid-banners/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type fakeStore struct {
	fetchErr error
	saveErr  error
	listErr  error
}

func (s *fakeStore) Fetch(ctx context.Context, name string) (*banners.Banner, error) {
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	return &banners.Banner{Name: name, Config: banners.DefaultConfig()}, nil
}

func (s *fakeStore) Save(ctx context.Context, b *banners.Banner) error {
	return s.saveErr
}

func (s *fakeStore) List(ctx context.Context) ([]string, error) {
	return []string{"superbanner"}, s.listErr
}

func (s *fakeStore) Close() error {
	return nil
}

func TestStoreMetricsStatuses(t *testing.T) {
	testCases := []struct {
		description string
		store       *fakeStore
		call        func(Store) error
		expected    metrics.StoreLabels
	}{
		{
			description: "Successful fetch",
			store:       &fakeStore{},
			call: func(s Store) error {
				_, err := s.Fetch(context.Background(), "superbanner")
				return err
			},
			expected: metrics.StoreLabels{Operation: metrics.StoreFetch, Status: metrics.StoreStatusOK},
		},
		{
			description: "Fetch of a missing banner",
			store:       &fakeStore{fetchErr: NotFoundError{Name: "superbanner"}},
			call: func(s Store) error {
				_, err := s.Fetch(context.Background(), "superbanner")
				return err
			},
			expected: metrics.StoreLabels{Operation: metrics.StoreFetch, Status: metrics.StoreStatusNotFound},
		},
		{
			description: "Failed save",
			store:       &fakeStore{saveErr: errors.New("disk full")},
			call: func(s Store) error {
				return s.Save(context.Background(), &banners.Banner{Name: "superbanner"})
			},
			expected: metrics.StoreLabels{Operation: metrics.StoreSave, Status: metrics.StoreStatusErr},
		},
		{
			description: "Successful list",
			store:       &fakeStore{},
			call: func(s Store) error {
				_, err := s.List(context.Background())
				return err
			},
			expected: metrics.StoreLabels{Operation: metrics.StoreList, Status: metrics.StoreStatusOK},
		},
	}

	for _, test := range testCases {
		me := &metrics.MetricsEngineMock{}
		me.On("RecordStoreTime", test.expected, mock.Anything).Return()

		err := test.call(WithMetrics(test.store, me))

		me.AssertExpectations(t)
		if test.expected.Status == metrics.StoreStatusOK {
			assert.NoError(t, err, test.description)
		} else {
			assert.Error(t, err, test.description)
		}
	}
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(NotFoundError{Name: "a"}))
	assert.True(t, IsNotFound(&NotFoundError{Name: "a"}))
	assert.True(t, IsNotFound(pkgerrors.Wrapf(NotFoundError{Name: "a"}, "loading %s", "a")))
	assert.False(t, IsNotFound(errors.New("boom")))
	assert.False(t, IsNotFound(nil))
}

func TestNotFoundErrorMessage(t *testing.T) {
	assert.Equal(t, "banner a not found", NotFoundError{Name: "a"}.Error())
	assert.Equal(t, "template of banner a not found", NotFoundError{Name: "a", What: "template"}.Error())
}

func TestNotFoundErrorCode(t *testing.T) {
	err := pkgerrors.Wrap(NotFoundError{Name: "a"}, "render")
	assert.Equal(t, errortypes.NotFoundErrorCode, errortypes.ReadCode(err))
	assert.True(t, errortypes.IsWarning(err))
}
