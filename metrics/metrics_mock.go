package metrics

import (
	"time"

	"github.com/stretchr/testify/mock"
)

// MetricsEngineMock is mock for the MetricsEngine interface
type MetricsEngineMock struct {
	mock.Mock
}

// RecordConnectionAccept mock
func (me *MetricsEngineMock) RecordConnectionAccept(success bool) {
	me.Called(success)
}

// RecordConnectionClose mock
func (me *MetricsEngineMock) RecordConnectionClose(success bool) {
	me.Called(success)
}

// RecordRequest mock
func (me *MetricsEngineMock) RecordRequest(labels Labels) {
	me.Called(labels)
}

// RecordRequestTime mock
func (me *MetricsEngineMock) RecordRequestTime(labels Labels, length time.Duration) {
	me.Called(labels, length)
}

// RecordImpressions mock
func (me *MetricsEngineMock) RecordImpressions(banner string, count int) {
	me.Called(banner, count)
}

// RecordRemains mock
func (me *MetricsEngineMock) RecordRemains(banner string, remains int) {
	me.Called(banner, remains)
}

// RecordReplenish mock
func (me *MetricsEngineMock) RecordReplenish(banner string) {
	me.Called(banner)
}

// RecordStoreTime mock
func (me *MetricsEngineMock) RecordStoreTime(labels StoreLabels, length time.Duration) {
	me.Called(labels, length)
}

// RecordTemplateCache mock
func (me *MetricsEngineMock) RecordTemplateCache(hit bool) {
	me.Called(hit)
}
