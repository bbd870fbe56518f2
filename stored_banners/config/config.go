package config

import (
	"database/sql"
	"fmt"

	"github.com/coocood/freecache"
	"github.com/go-redis/redis"
	"github.com/golang/glog"
	"github.com/prebid/prebid-banners/banners"
	"github.com/prebid/prebid-banners/config"
	"github.com/prebid/prebid-banners/metrics"
	"github.com/prebid/prebid-banners/stored_banners"
	"github.com/prebid/prebid-banners/stored_banners/backends/db_store"
	"github.com/prebid/prebid-banners/stored_banners/backends/file_store"
	"github.com/prebid/prebid-banners/stored_banners/backends/redis_store"

	// Register the Postgres driver for sql.Open.
	_ "github.com/lib/pq"
)

// Defaults converts the configured banner defaults into the record stored banners are merged onto.
func Defaults(cfg config.BannerDefaults) banners.Config {
	return banners.Config{
		Href: cfg.Href,
		Views: banners.Views{
			Remains: cfg.Remains,
			Max:     cfg.Max,
		},
		DefaultCount: cfg.DefaultCount,
	}
}

// NewStore builds the Store described by cfg and wraps it so every call is timed into me.
func NewStore(cfg *config.StoredBanners, defaults banners.Config, me metrics.MetricsEngine) (stored_banners.Store, error) {
	var store stored_banners.Store
	switch cfg.Type {
	case config.StoreFilesystem:
		glog.Infof("Loading banners from %s", cfg.Files.Directory)
		store = file_store.NewFileStore(cfg.Files.Directory, defaults)
	case config.StorePostgres:
		db, err := sql.Open("postgres", cfg.Postgres.ConnString())
		if err != nil {
			return nil, fmt.Errorf("failed to open the banner database: %v", err)
		}
		if err := db.Ping(); err != nil {
			// Keep going. Fetches will fail until the database comes up.
			glog.Errorf("failed to connect to the banner database: %v", err)
		}
		glog.Infof("Loading banners from Postgres database %s", cfg.Postgres.Database)
		store = db_store.NewDBStore(db, freecache.NewCache(cfg.Postgres.CacheSizeBytes), cfg.Postgres.CacheTTLSeconds, defaults)
	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			ReadTimeout:  cfg.Redis.Timeout(),
			WriteTimeout: cfg.Redis.Timeout(),
		})
		glog.Infof("Loading banners from Redis at %s", cfg.Redis.Addr)
		store = redis_store.NewRedisStore(client, cfg.Redis.Timeout(), defaults)
	default:
		return nil, fmt.Errorf("unknown stored_banners.type %q", cfg.Type)
	}
	return stored_banners.WithMetrics(store, me), nil
}
