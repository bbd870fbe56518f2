package redis_store

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis"
	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/prebid/prebid-banners/banners"
	"github.com/prebid/prebid-banners/stored_banners"
)

const keyPrefix = "banners:"

// Hash fields of a banner.
const (
	fieldHref         = "href"
	fieldRemains      = "remains"
	fieldMax          = "max"
	fieldDefaultCount = "default_count"
	fieldHTML         = "html"
)

// NewRedisStore stores each banner as a hash at "banners:{name}". Absent fields take their
// value from defaults. Every call is bounded by timeout.
func NewRedisStore(client *redis.Client, timeout time.Duration, defaults banners.Config) stored_banners.Store {
	if timeout <= 0 {
		timeout = 200 * time.Millisecond
	}
	return &redisStore{
		client:   client,
		timeout:  timeout,
		defaults: defaults,
	}
}

type redisStore struct {
	client   *redis.Client
	timeout  time.Duration
	defaults banners.Config
}

func key(name string) string {
	return keyPrefix + name
}

func (s *redisStore) withTimeout(ctx context.Context) (*redis.Client, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	return s.client.WithContext(ctx), cancel
}

func (s *redisStore) Fetch(ctx context.Context, name string) (*banners.Banner, error) {
	client, cancel := s.withTimeout(ctx)
	defer cancel()

	fields, err := client.HGetAll(key(name)).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "redis HGETALL failed for banner %s", name)
	}
	return decodeBanner(name, fields, s.defaults)
}

// Save overwrites the record fields of an existing banner. The html field is left alone.
func (s *redisStore) Save(ctx context.Context, b *banners.Banner) error {
	client, cancel := s.withTimeout(ctx)
	defer cancel()

	exists, err := client.Exists(key(b.Name)).Result()
	if err != nil {
		return errors.Wrapf(err, "redis EXISTS failed for banner %s", b.Name)
	}
	if exists == 0 {
		return stored_banners.NotFoundError{Name: b.Name}
	}
	if err := client.HMSet(key(b.Name), encodeRecord(b.Config)).Err(); err != nil {
		return errors.Wrapf(err, "redis HMSET failed for banner %s", b.Name)
	}
	return nil
}

func (s *redisStore) List(ctx context.Context) ([]string, error) {
	client, cancel := s.withTimeout(ctx)
	defer cancel()

	var names []string
	iter := client.Scan(0, keyPrefix+"*", 100).Iterator()
	for iter.Next() {
		names = append(names, strings.TrimPrefix(iter.Val(), keyPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, errors.Wrap(err, "redis SCAN failed")
	}
	return names, nil
}

func (s *redisStore) Close() error {
	return s.client.Close()
}

func decodeBanner(name string, fields map[string]string, defaults banners.Config) (*banners.Banner, error) {
	if len(fields) == 0 {
		return nil, stored_banners.NotFoundError{Name: name}
	}
	tmpl, ok := fields[fieldHTML]
	if !ok {
		return nil, stored_banners.NotFoundError{Name: name, What: "template"}
	}

	cfg := defaults
	if href, ok := fields[fieldHref]; ok {
		cfg.Href = href
	}
	for field, dest := range map[string]*int{
		fieldRemains:      &cfg.Views.Remains,
		fieldMax:          &cfg.Views.Max,
		fieldDefaultCount: &cfg.DefaultCount,
	} {
		raw, ok := fields[field]
		if !ok {
			continue
		}
		value, err := strconv.Atoi(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "banner %s has a bad %s field", name, field)
		}
		*dest = value
	}
	if warning := cfg.Normalize(); warning != nil {
		glog.Warningf("Banner %s: %v", name, warning)
	}

	return &banners.Banner{
		Name:     name,
		Config:   cfg,
		Template: tmpl,
	}, nil
}

func encodeRecord(cfg banners.Config) map[string]interface{} {
	return map[string]interface{}{
		fieldHref:         cfg.Href,
		fieldRemains:      strconv.Itoa(cfg.Views.Remains),
		fieldMax:          strconv.Itoa(cfg.Views.Max),
		fieldDefaultCount: strconv.Itoa(cfg.DefaultCount),
	}
}
