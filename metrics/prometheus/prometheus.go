package prometheusmetrics

import (
	"time"

	"github.com/prebid/prebid-banners/config"
	"github.com/prebid/prebid-banners/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics defines the Prometheus metrics backing the MetricsEngine interface.
type Metrics struct {
	Registry *prometheus.Registry

	connCounter   prometheus.Gauge
	connError     *prometheus.CounterVec
	requests      *prometheus.CounterVec
	reqTimer      *prometheus.HistogramVec
	impressions   *prometheus.CounterVec
	remains       *prometheus.GaugeVec
	replenished   *prometheus.CounterVec
	storeTimer    *prometheus.HistogramVec
	templateCache *prometheus.CounterVec
}

const (
	bannerLabel         = "banner"
	browserLabel        = "browser"
	connectionLabel     = "connection_error"
	requestStatusLabel  = "request_status"
	requestTypeLabel    = "request_type"
	storeOperationLabel = "operation"
	storeStatusLabel    = "status"
	cacheResultLabel    = "result"
)

// NewMetrics builds the Prometheus metrics and registers them in their own registry, so each
// engine can be served by promhttp without touching the global default registry.
func NewMetrics(cfg config.PrometheusMetrics) *Metrics {
	timerBuckets := prometheus.LinearBuckets(0.005, 0.005, 20)
	timerBuckets = append(timerBuckets, []float64{0.15, 0.25, 0.5, 1.0, 2.5, 5.0}...)

	registry := prometheus.NewRegistry()
	m := &Metrics{Registry: registry}

	m.connCounter = newGauge(cfg, registry,
		"active_connections",
		"Current number of active (open) connections.")

	m.connError = newCounter(cfg, registry,
		"connection_errors_total",
		"Errors reported on the connections coming in.",
		[]string{connectionLabel})

	m.requests = newCounter(cfg, registry,
		"requests_total",
		"Total number of requests received by endpoint type and status.",
		[]string{requestTypeLabel, requestStatusLabel, browserLabel})

	m.reqTimer = newHistogram(cfg, registry,
		"request_time_seconds",
		"Seconds to resolve each request.",
		[]string{requestTypeLabel},
		timerBuckets)

	m.impressions = newCounter(cfg, registry,
		"impressions_total",
		"Number of banner impressions served.",
		[]string{bannerLabel})

	m.remains = newGaugeVec(cfg, registry,
		"impressions_remaining",
		"Impressions a banner has left to serve.",
		[]string{bannerLabel})

	m.replenished = newCounter(cfg, registry,
		"replenished_total",
		"Number of times an exhausted banner was reset to its max impressions.",
		[]string{bannerLabel})

	m.storeTimer = newHistogram(cfg, registry,
		"store_time_seconds",
		"Seconds spent in banner store calls.",
		[]string{storeOperationLabel, storeStatusLabel},
		timerBuckets)

	m.templateCache = newCounter(cfg, registry,
		"template_cache_total",
		"Template cache lookups by result.",
		[]string{cacheResultLabel})

	return m
}

func newGauge(cfg config.PrometheusMetrics, registry *prometheus.Registry, name, help string) prometheus.Gauge {
	opts := prometheus.GaugeOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      name,
		Help:      help,
	}
	metric := prometheus.NewGauge(opts)
	registry.MustRegister(metric)
	return metric
}

func newGaugeVec(cfg config.PrometheusMetrics, registry *prometheus.Registry, name, help string, labels []string) *prometheus.GaugeVec {
	opts := prometheus.GaugeOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      name,
		Help:      help,
	}
	metric := prometheus.NewGaugeVec(opts, labels)
	registry.MustRegister(metric)
	return metric
}

func newCounter(cfg config.PrometheusMetrics, registry *prometheus.Registry, name, help string, labels []string) *prometheus.CounterVec {
	opts := prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      name,
		Help:      help,
	}
	metric := prometheus.NewCounterVec(opts, labels)
	registry.MustRegister(metric)
	return metric
}

func newHistogram(cfg config.PrometheusMetrics, registry *prometheus.Registry, name, help string, labels []string, buckets []float64) *prometheus.HistogramVec {
	opts := prometheus.HistogramOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	}
	metric := prometheus.NewHistogramVec(opts, labels)
	registry.MustRegister(metric)
	return metric
}

func (m *Metrics) RecordConnectionAccept(success bool) {
	if success {
		m.connCounter.Inc()
	} else {
		m.connError.WithLabelValues("accept_error").Inc()
	}
}

func (m *Metrics) RecordConnectionClose(success bool) {
	if success {
		m.connCounter.Dec()
	} else {
		m.connError.WithLabelValues("close_error").Inc()
	}
}

func (m *Metrics) RecordRequest(labels metrics.Labels) {
	m.requests.WithLabelValues(string(labels.RType), string(labels.RequestStatus), string(labels.Browser)).Inc()
}

func (m *Metrics) RecordRequestTime(labels metrics.Labels, length time.Duration) {
	m.reqTimer.WithLabelValues(string(labels.RType)).Observe(length.Seconds())
}

func (m *Metrics) RecordImpressions(banner string, count int) {
	m.impressions.WithLabelValues(banner).Add(float64(count))
}

func (m *Metrics) RecordRemains(banner string, remains int) {
	m.remains.WithLabelValues(banner).Set(float64(remains))
}

func (m *Metrics) RecordReplenish(banner string) {
	m.replenished.WithLabelValues(banner).Inc()
}

func (m *Metrics) RecordStoreTime(labels metrics.StoreLabels, length time.Duration) {
	m.storeTimer.WithLabelValues(string(labels.Operation), string(labels.Status)).Observe(length.Seconds())
}

func (m *Metrics) RecordTemplateCache(hit bool) {
	m.templateCache.WithLabelValues(cacheResult(hit)).Inc()
}

func cacheResult(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}

