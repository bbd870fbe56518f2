package config

import (
	"fmt"
	"strconv"
	"time"
)

// Supported values of stored_banners.type.
const (
	StoreFilesystem = "filesystem"
	StorePostgres   = "postgres"
	StoreRedis      = "redis"
)

// StoredBanners configures the backend used to persist banner records and templates.
type StoredBanners struct {
	// Type picks one of the backends below.
	Type     string           `mapstructure:"type"`
	Files    FileStoreConfig  `mapstructure:"filesystem"`
	Postgres PostgresConfig   `mapstructure:"postgres"`
	Redis    RedisStoreConfig `mapstructure:"redis"`
}

// FileStoreConfig points at a directory holding one folder per banner.
type FileStoreConfig struct {
	Directory string `mapstructure:"directory"`
}

// PostgresConfig configures the Postgres connection for stored banners
type PostgresConfig struct {
	Database string `mapstructure:"dbname"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"user"`
	Password string `mapstructure:"password"`

	// CacheSizeBytes bounds the in-memory cache of banner templates.
	CacheSizeBytes  int `mapstructure:"cache_size_bytes"`
	CacheTTLSeconds int `mapstructure:"cache_ttl_seconds"`
}

// ConnString returns the libpq connection string for this config, omitting unset values.
func (cfg *PostgresConfig) ConnString() string {
	buffer := ""
	if cfg.Host != "" {
		buffer += "host=" + cfg.Host + " "
	}
	if cfg.Port > 0 {
		buffer += "port=" + strconv.Itoa(cfg.Port) + " "
	}
	if cfg.Username != "" {
		buffer += "user=" + cfg.Username + " "
	}
	if cfg.Password != "" {
		buffer += "password=" + cfg.Password + " "
	}
	if cfg.Database != "" {
		buffer += "dbname=" + cfg.Database + " "
	}
	return buffer + "sslmode=disable"
}

type RedisStoreConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	TimeoutMs int    `mapstructure:"timeout_ms"`
}

func (cfg *RedisStoreConfig) Timeout() time.Duration {
	return time.Duration(cfg.TimeoutMs) * time.Millisecond
}

func (cfg *StoredBanners) validate(errs []error) []error {
	switch cfg.Type {
	case StoreFilesystem:
		if cfg.Files.Directory == "" {
			errs = append(errs, fmt.Errorf("stored_banners.filesystem.directory must be set when stored_banners.type is %s", StoreFilesystem))
		}
	case StorePostgres:
		if cfg.Postgres.Database == "" {
			errs = append(errs, fmt.Errorf("stored_banners.postgres.dbname must be set when stored_banners.type is %s", StorePostgres))
		}
		if cfg.Postgres.CacheSizeBytes < 0 || cfg.Postgres.CacheTTLSeconds < 0 {
			errs = append(errs, fmt.Errorf("stored_banners.postgres cache size and ttl must be >= 0"))
		}
	case StoreRedis:
		if cfg.Redis.Addr == "" {
			errs = append(errs, fmt.Errorf("stored_banners.redis.addr must be set when stored_banners.type is %s", StoreRedis))
		}
		if cfg.Redis.TimeoutMs <= 0 {
			errs = append(errs, fmt.Errorf("stored_banners.redis.timeout_ms must be positive. Got %d", cfg.Redis.TimeoutMs))
		}
	default:
		errs = append(errs, fmt.Errorf("stored_banners.type must be one of %s, %s or %s. Got %q", StoreFilesystem, StorePostgres, StoreRedis, cfg.Type))
	}
	return errs
}
