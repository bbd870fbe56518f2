package config

import (
	"time"

	"github.com/golang/glog"
	mainConfig "github.com/prebid/prebid-banners/config"
	"github.com/prebid/prebid-banners/metrics"
	prometheusmetrics "github.com/prebid/prebid-banners/metrics/prometheus"
	gometrics "github.com/rcrowley/go-metrics"
	influxdb "github.com/vrischmann/go-metrics-influxdb"
)

// NewMetricsEngine reads the configuration and returns the appropriate metrics engine
// for this instance.
func NewMetricsEngine(cfg *mainConfig.Configuration) *DetailedMetricsEngine {
	// Create a list of metrics engines to use.
	// Capacity of 2, as unlikely to have more than 2 metrics backends, and in the case
	// of 1 we won't use the list so it will be garbage collected.
	engineList := make(MultiMetricsEngine, 0, 2)
	returnEngine := DetailedMetricsEngine{}

	if cfg.Metrics.Influxdb.Host != "" {
		// Currently use go-metrics as the metrics piece for influx
		returnEngine.GoMetrics = metrics.NewMetrics(gometrics.NewPrefixedRegistry("prebidbanners."))
		engineList = append(engineList, returnEngine.GoMetrics)
		// Set up the Influx logger
		go influxdb.InfluxDB(
			returnEngine.GoMetrics.MetricsRegistry,                             // metrics registry
			time.Second*time.Duration(cfg.Metrics.Influxdb.MetricSendInterval), // Configurable interval
			cfg.Metrics.Influxdb.Host,                                          // the InfluxDB url
			cfg.Metrics.Influxdb.Database,                                      // your InfluxDB database
			cfg.Metrics.Influxdb.Username,                                      // your InfluxDB user
			cfg.Metrics.Influxdb.Password,                                      // your InfluxDB password
		)
		glog.Infof("Reporting go-metrics to InfluxDB at %s every %ds", cfg.Metrics.Influxdb.Host, cfg.Metrics.Influxdb.MetricSendInterval)
	}
	if cfg.Metrics.Prometheus.Port != 0 {
		// Set up the Prometheus metrics.
		returnEngine.PrometheusMetrics = prometheusmetrics.NewMetrics(cfg.Metrics.Prometheus)
		engineList = append(engineList, returnEngine.PrometheusMetrics)
	}

	// Now return the proper metrics engine
	if len(engineList) > 1 {
		returnEngine.MetricsEngine = &engineList
	} else if len(engineList) == 1 {
		returnEngine.MetricsEngine = engineList[0]
	} else {
		returnEngine.MetricsEngine = &NilMetricsEngine{}
	}

	return &returnEngine
}

// DetailedMetricsEngine is a MultiMetricsEngine that preserves links to underlying metrics engines.
type DetailedMetricsEngine struct {
	metrics.MetricsEngine
	GoMetrics         *metrics.Metrics
	PrometheusMetrics *prometheusmetrics.Metrics
}

// MultiMetricsEngine logs metrics to multiple metrics databases The can be useful in transitioning
// an instance from one engine to another, you can run both in parallel to verify stats match up.
type MultiMetricsEngine []metrics.MetricsEngine

// RecordConnectionAccept across all engines
func (me *MultiMetricsEngine) RecordConnectionAccept(success bool) {
	for _, thisME := range *me {
		thisME.RecordConnectionAccept(success)
	}
}

// RecordConnectionClose across all engines
func (me *MultiMetricsEngine) RecordConnectionClose(success bool) {
	for _, thisME := range *me {
		thisME.RecordConnectionClose(success)
	}
}

// RecordRequest across all engines
func (me *MultiMetricsEngine) RecordRequest(labels metrics.Labels) {
	for _, thisME := range *me {
		thisME.RecordRequest(labels)
	}
}

// RecordRequestTime across all engines
func (me *MultiMetricsEngine) RecordRequestTime(labels metrics.Labels, length time.Duration) {
	for _, thisME := range *me {
		thisME.RecordRequestTime(labels, length)
	}
}

// RecordImpressions across all engines
func (me *MultiMetricsEngine) RecordImpressions(banner string, count int) {
	for _, thisME := range *me {
		thisME.RecordImpressions(banner, count)
	}
}

// RecordRemains across all engines
func (me *MultiMetricsEngine) RecordRemains(banner string, remains int) {
	for _, thisME := range *me {
		thisME.RecordRemains(banner, remains)
	}
}

// RecordReplenish across all engines
func (me *MultiMetricsEngine) RecordReplenish(banner string) {
	for _, thisME := range *me {
		thisME.RecordReplenish(banner)
	}
}

// RecordStoreTime across all engines
func (me *MultiMetricsEngine) RecordStoreTime(labels metrics.StoreLabels, length time.Duration) {
	for _, thisME := range *me {
		thisME.RecordStoreTime(labels, length)
	}
}

// RecordTemplateCache across all engines
func (me *MultiMetricsEngine) RecordTemplateCache(hit bool) {
	for _, thisME := range *me {
		thisME.RecordTemplateCache(hit)
	}
}

// NilMetricsEngine implements the MetricsEngine interface where no metrics are desired.
type NilMetricsEngine struct{}

// RecordConnectionAccept as a noop
func (me *NilMetricsEngine) RecordConnectionAccept(success bool) {
}

// RecordConnectionClose as a noop
func (me *NilMetricsEngine) RecordConnectionClose(success bool) {
}

// RecordRequest as a noop
func (me *NilMetricsEngine) RecordRequest(labels metrics.Labels) {
}

// RecordRequestTime as a noop
func (me *NilMetricsEngine) RecordRequestTime(labels metrics.Labels, length time.Duration) {
}

// RecordImpressions as a noop
func (me *NilMetricsEngine) RecordImpressions(banner string, count int) {
}

// RecordRemains as a noop
func (me *NilMetricsEngine) RecordRemains(banner string, remains int) {
}

// RecordReplenish as a noop
func (me *NilMetricsEngine) RecordReplenish(banner string) {
}

// RecordStoreTime as a noop
func (me *NilMetricsEngine) RecordStoreTime(labels metrics.StoreLabels, length time.Duration) {
}

// RecordTemplateCache as a noop
func (me *NilMetricsEngine) RecordTemplateCache(hit bool) {
}
