package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/prebid/prebid-banners/errortypes"
	"github.com/spf13/viper"
)

// Configuration
type Configuration struct {
	ExternalURL    string         `mapstructure:"external_url"`
	Host           string         `mapstructure:"host"`
	Port           int            `mapstructure:"port"`
	AdminPort      int            `mapstructure:"admin_port"`
	EnableGzip     bool           `mapstructure:"enable_gzip"`
	StatusResponse string         `mapstructure:"status_response"`
	Metrics        Metrics        `mapstructure:"metrics"`
	StoredBanners  StoredBanners  `mapstructure:"stored_banners"`
	BannerDefaults BannerDefaults `mapstructure:"banner_defaults"`
	TemplateCache  TemplateCache  `mapstructure:"template_cache"`
	RateLimit      RateLimit      `mapstructure:"rate_limit"`
	Replenish      Replenish      `mapstructure:"replenish"`
	Analytics      Analytics      `mapstructure:"analytics"`
}

// BannerDefaults are applied to every banner record before the stored values are merged on top.
type BannerDefaults struct {
	Href         string `mapstructure:"href"`
	Remains      int    `mapstructure:"remains"`
	Max          int    `mapstructure:"max"`
	DefaultCount int    `mapstructure:"default_count"`
}

func (cfg *BannerDefaults) validate(errs []error) []error {
	if cfg.Href == "" || !(govalidator.IsRequestURI(cfg.Href) || govalidator.IsURL(cfg.Href)) {
		errs = append(errs, fmt.Errorf("banner_defaults.href %q must be a request URI or an absolute URL", cfg.Href))
	}
	if cfg.Remains < 0 {
		errs = append(errs, fmt.Errorf("banner_defaults.remains must be >= 0. Got %d", cfg.Remains))
	}
	if cfg.Max < 0 {
		errs = append(errs, fmt.Errorf("banner_defaults.max must be >= 0. Got %d", cfg.Max))
	}
	if cfg.DefaultCount < 0 {
		errs = append(errs, fmt.Errorf("banner_defaults.default_count must be >= 0. Got %d", cfg.DefaultCount))
	}
	return errs
}

type TemplateCache struct {
	TTLSeconds int `mapstructure:"ttl_seconds"`
}

// TTL returns the expiry of a parsed template which has not been rendered.
func (cfg *TemplateCache) TTL() time.Duration {
	return time.Duration(cfg.TTLSeconds) * time.Second
}

type RateLimit struct {
	MaxRequestsPerSecond float64 `mapstructure:"max_requests_per_second"`
}

// Replenish schedules a job which resets every exhausted banner back to its max impressions.
type Replenish struct {
	IntervalSeconds int `mapstructure:"interval_seconds"`
}

func (cfg *Replenish) Interval() time.Duration {
	return time.Duration(cfg.IntervalSeconds) * time.Second
}

type Analytics struct {
	File FileLogs `mapstructure:"file"`
}

// FileLogs configures the impression file logger. An empty filename disables it.
type FileLogs struct {
	Filename string `mapstructure:"filename"`
}

type Metrics struct {
	Influxdb   InfluxMetrics     `mapstructure:"influxdb"`
	Prometheus PrometheusMetrics `mapstructure:"prometheus"`
}

type InfluxMetrics struct {
	Host               string `mapstructure:"host"`
	Database           string `mapstructure:"database"`
	Username           string `mapstructure:"username"`
	Password           string `mapstructure:"password"`
	MetricSendInterval int    `mapstructure:"metric_send_interval"`
}

func (cfg *InfluxMetrics) validate(errs []error) []error {
	if cfg.Host != "" && cfg.MetricSendInterval < 1 {
		errs = append(errs, fmt.Errorf("metrics.influxdb.metric_send_interval must be at least 1 second. Got %d", cfg.MetricSendInterval))
	}
	return errs
}

type PrometheusMetrics struct {
	Port             int    `mapstructure:"port"`
	Namespace        string `mapstructure:"namespace"`
	Subsystem        string `mapstructure:"subsystem"`
	TimeoutMillisRaw int    `mapstructure:"timeout_ms"`
}

func (cfg *PrometheusMetrics) validate(errs []error) []error {
	if cfg.Port > 0 && cfg.TimeoutMillisRaw <= 0 {
		errs = append(errs, fmt.Errorf("metrics.prometheus.timeout_ms must be positive"))
	}
	return errs
}

func (cfg *PrometheusMetrics) Timeout() time.Duration {
	return time.Duration(cfg.TimeoutMillisRaw) * time.Millisecond
}

func (cfg *Configuration) validate() []error {
	var errs []error
	if cfg.Port <= 0 || cfg.Port > 65535 {
		errs = append(errs, fmt.Errorf("port must be in the range 1-65535. Got %d", cfg.Port))
	}
	if cfg.AdminPort <= 0 || cfg.AdminPort > 65535 {
		errs = append(errs, fmt.Errorf("admin_port must be in the range 1-65535. Got %d", cfg.AdminPort))
	}
	if cfg.AdminPort == cfg.Port {
		errs = append(errs, errors.New("admin_port must differ from port"))
	}
	if cfg.Metrics.Prometheus.Port != 0 && (cfg.Metrics.Prometheus.Port == cfg.Port || cfg.Metrics.Prometheus.Port == cfg.AdminPort) {
		errs = append(errs, errors.New("metrics.prometheus.port must differ from port and admin_port"))
	}
	if cfg.TemplateCache.TTLSeconds < 0 {
		errs = append(errs, fmt.Errorf("template_cache.ttl_seconds must be >= 0. Got %d", cfg.TemplateCache.TTLSeconds))
	}
	if cfg.RateLimit.MaxRequestsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("rate_limit.max_requests_per_second must be >= 0. Got %f", cfg.RateLimit.MaxRequestsPerSecond))
	}
	if cfg.Replenish.IntervalSeconds < 0 {
		errs = append(errs, fmt.Errorf("replenish.interval_seconds must be >= 0. Got %d", cfg.Replenish.IntervalSeconds))
	}
	errs = cfg.Metrics.Influxdb.validate(errs)
	errs = cfg.Metrics.Prometheus.validate(errs)
	errs = cfg.BannerDefaults.validate(errs)
	errs = cfg.StoredBanners.validate(errs)
	return errs
}

// New uses viper to get our server configurations.
func New(v *viper.Viper) (*Configuration, error) {
	var c Configuration
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("viper failed to unmarshal app config: %v", err)
	}
	c.StoredBanners.Type = strings.ToLower(c.StoredBanners.Type)

	if errs := c.validate(); len(errs) > 0 {
		return &c, errortypes.NewAggregateErrors("validation errors", errs)
	}
	return &c, nil
}

// SetupViper registers the config file location, the defaults and the environment overrides.
// Every key needs a default for the PBS_ environment variables to reach it through Unmarshal.
func SetupViper(v *viper.Viper, filename string) {
	if filename != "" {
		v.SetConfigName(filename)
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/config")
	}

	v.SetDefault("external_url", "http://localhost:8000")
	v.SetDefault("host", "")
	v.SetDefault("port", 8000)
	v.SetDefault("admin_port", 6060)
	v.SetDefault("enable_gzip", false)
	v.SetDefault("status_response", "")

	v.SetDefault("metrics.influxdb.host", "")
	v.SetDefault("metrics.influxdb.database", "")
	v.SetDefault("metrics.influxdb.username", "")
	v.SetDefault("metrics.influxdb.password", "")
	v.SetDefault("metrics.influxdb.metric_send_interval", 20)
	v.SetDefault("metrics.prometheus.port", 0)
	v.SetDefault("metrics.prometheus.namespace", "")
	v.SetDefault("metrics.prometheus.subsystem", "")
	v.SetDefault("metrics.prometheus.timeout_ms", 10000)

	v.SetDefault("stored_banners.type", StoreFilesystem)
	v.SetDefault("stored_banners.filesystem.directory", "./static/banners")
	v.SetDefault("stored_banners.postgres.host", "")
	v.SetDefault("stored_banners.postgres.port", 0)
	v.SetDefault("stored_banners.postgres.dbname", "")
	v.SetDefault("stored_banners.postgres.user", "")
	v.SetDefault("stored_banners.postgres.password", "")
	v.SetDefault("stored_banners.postgres.cache_size_bytes", 10*1024*1024)
	v.SetDefault("stored_banners.postgres.cache_ttl_seconds", 300)
	v.SetDefault("stored_banners.redis.addr", "")
	v.SetDefault("stored_banners.redis.password", "")
	v.SetDefault("stored_banners.redis.db", 0)
	v.SetDefault("stored_banners.redis.timeout_ms", 200)

	v.SetDefault("banner_defaults.href", "/копеечка_в_копилку.html")
	v.SetDefault("banner_defaults.remains", 50)
	v.SetDefault("banner_defaults.max", 50)
	v.SetDefault("banner_defaults.default_count", 1)

	v.SetDefault("template_cache.ttl_seconds", 600)
	v.SetDefault("rate_limit.max_requests_per_second", 0)
	v.SetDefault("replenish.interval_seconds", 0)
	v.SetDefault("analytics.file.filename", "")

	v.SetEnvPrefix("PBS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.ReadInConfig()
}
