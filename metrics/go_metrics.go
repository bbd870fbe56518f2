package metrics

import (
	"fmt"
	"sync"
	"time"

	metrics "github.com/rcrowley/go-metrics"
)

// Metrics is the go-metrics implementation of the MetricsEngine interface. Per-banner metrics
// are registered lazily, the first time a banner is served.
type Metrics struct {
	MetricsRegistry            metrics.Registry
	ConnectionCounter          metrics.Counter
	ConnectionAcceptErrorMeter metrics.Meter
	ConnectionCloseErrorMeter  metrics.Meter
	SafariRequestMeter         metrics.Meter
	RequestStatuses            map[RequestType]map[RequestStatus]metrics.Meter
	RequestTimers              map[RequestType]metrics.Timer
	StoreTimers                map[StoreOperation]map[StoreStatus]metrics.Timer
	TemplateCacheHitMeter      metrics.Meter
	TemplateCacheMissMeter     metrics.Meter

	// Don't export bannerMetrics because we need helper functions here to insure its properly populated dynamically
	bannerMetrics        map[string]*bannerMetrics
	bannerMetricsRWMutex sync.RWMutex
}

type bannerMetrics struct {
	impressionsMeter metrics.Meter
	remainsGauge     metrics.Gauge
	replenishMeter   metrics.Meter
}

// NewMetrics creates a new Metrics object with every static metric registered in registry.
func NewMetrics(registry metrics.Registry) *Metrics {
	newMetrics := &Metrics{
		MetricsRegistry:            registry,
		ConnectionCounter:          metrics.GetOrRegisterCounter("active_connections", registry),
		ConnectionAcceptErrorMeter: metrics.GetOrRegisterMeter("connection_accept_errors", registry),
		ConnectionCloseErrorMeter:  metrics.GetOrRegisterMeter("connection_close_errors", registry),
		SafariRequestMeter:         metrics.GetOrRegisterMeter("safari_requests", registry),
		RequestStatuses:            make(map[RequestType]map[RequestStatus]metrics.Meter),
		RequestTimers:              make(map[RequestType]metrics.Timer),
		StoreTimers:                make(map[StoreOperation]map[StoreStatus]metrics.Timer),
		TemplateCacheHitMeter:      metrics.GetOrRegisterMeter("template_cache.hit", registry),
		TemplateCacheMissMeter:     metrics.GetOrRegisterMeter("template_cache.miss", registry),

		bannerMetrics: make(map[string]*bannerMetrics),
	}

	for _, t := range RequestTypes() {
		newMetrics.RequestStatuses[t] = make(map[RequestStatus]metrics.Meter)
		for _, s := range RequestStatuses() {
			newMetrics.RequestStatuses[t][s] = metrics.GetOrRegisterMeter("requests."+string(s)+"."+string(t), registry)
		}
		newMetrics.RequestTimers[t] = metrics.GetOrRegisterTimer("request_time."+string(t), registry)
	}

	for _, op := range StoreOperations() {
		newMetrics.StoreTimers[op] = make(map[StoreStatus]metrics.Timer)
		for _, s := range StoreStatuses() {
			newMetrics.StoreTimers[op][s] = metrics.GetOrRegisterTimer("store."+string(op)+"."+string(s), registry)
		}
	}

	return newMetrics
}

// getBannerMetrics gets or registers the metrics for banner "name".
func (me *Metrics) getBannerMetrics(name string) *bannerMetrics {
	me.bannerMetricsRWMutex.RLock()
	bm, ok := me.bannerMetrics[name]
	me.bannerMetricsRWMutex.RUnlock()

	if ok {
		return bm
	}

	me.bannerMetricsRWMutex.Lock()
	defer me.bannerMetricsRWMutex.Unlock()

	bm, ok = me.bannerMetrics[name]
	if ok {
		return bm
	}
	bm = &bannerMetrics{
		impressionsMeter: metrics.GetOrRegisterMeter(fmt.Sprintf("banner.%s.impressions", name), me.MetricsRegistry),
		remainsGauge:     metrics.GetOrRegisterGauge(fmt.Sprintf("banner.%s.remains", name), me.MetricsRegistry),
		replenishMeter:   metrics.GetOrRegisterMeter(fmt.Sprintf("banner.%s.replenished", name), me.MetricsRegistry),
	}
	me.bannerMetrics[name] = bm

	return bm
}

// Implement the MetricsEngine interface

// RecordConnectionAccept implements a part of the MetricsEngine interface
func (me *Metrics) RecordConnectionAccept(success bool) {
	if success {
		me.ConnectionCounter.Inc(1)
	} else {
		me.ConnectionAcceptErrorMeter.Mark(1)
	}
}

// RecordConnectionClose implements a part of the MetricsEngine interface
func (me *Metrics) RecordConnectionClose(success bool) {
	if success {
		me.ConnectionCounter.Dec(1)
	} else {
		me.ConnectionCloseErrorMeter.Mark(1)
	}
}

// RecordRequest implements a part of the MetricsEngine interface
func (me *Metrics) RecordRequest(labels Labels) {
	if statuses, ok := me.RequestStatuses[labels.RType]; ok {
		if meter, ok := statuses[labels.RequestStatus]; ok {
			meter.Mark(1)
		}
	}
	if labels.Browser == BrowserSafari {
		me.SafariRequestMeter.Mark(1)
	}
}

// RecordRequestTime implements a part of the MetricsEngine interface
func (me *Metrics) RecordRequestTime(labels Labels, length time.Duration) {
	if timer, ok := me.RequestTimers[labels.RType]; ok {
		timer.Update(length)
	}
}

// RecordImpressions implements a part of the MetricsEngine interface
func (me *Metrics) RecordImpressions(banner string, count int) {
	me.getBannerMetrics(banner).impressionsMeter.Mark(int64(count))
}

// RecordRemains implements a part of the MetricsEngine interface
func (me *Metrics) RecordRemains(banner string, remains int) {
	me.getBannerMetrics(banner).remainsGauge.Update(int64(remains))
}

// RecordReplenish implements a part of the MetricsEngine interface
func (me *Metrics) RecordReplenish(banner string) {
	me.getBannerMetrics(banner).replenishMeter.Mark(1)
}

// RecordStoreTime implements a part of the MetricsEngine interface
func (me *Metrics) RecordStoreTime(labels StoreLabels, length time.Duration) {
	if statuses, ok := me.StoreTimers[labels.Operation]; ok {
		if timer, ok := statuses[labels.Status]; ok {
			timer.Update(length)
		}
	}
}

// RecordTemplateCache implements a part of the MetricsEngine interface
func (me *Metrics) RecordTemplateCache(hit bool) {
	if hit {
		me.TemplateCacheHitMeter.Mark(1)
	} else {
		me.TemplateCacheMissMeter.Mark(1)
	}
}
