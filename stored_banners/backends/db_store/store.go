package db_store

import (
	"context"
	"database/sql"

	"github.com/coocood/freecache"
	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/prebid/prebid-banners/banners"
	"github.com/prebid/prebid-banners/stored_banners"
)

const (
	selectRecord   = "SELECT href, remains, max_views, default_count FROM banners WHERE name = $1"
	selectTemplate = "SELECT html FROM banners WHERE name = $1"
	updateRecord   = "UPDATE banners SET href = $2, remains = $3, max_views = $4, default_count = $5 WHERE name = $1"
	selectNames    = "SELECT name FROM banners"
)

// NewDBStore stores banners in the "banners" table of db.
//
// Templates change rarely, so they are kept in templates for ttlSeconds. The record is read
// on every Fetch. NULL columns take their value from defaults.
func NewDBStore(db *sql.DB, templates *freecache.Cache, ttlSeconds int, defaults banners.Config) stored_banners.Store {
	if db == nil {
		glog.Fatalf("The Postgres banner store requires a database connection. Please report this as a bug.")
	}
	return &dbStore{
		db:         db,
		templates:  templates,
		ttlSeconds: ttlSeconds,
		defaults:   defaults,
	}
}

// dbStore reads and writes banners in a database. This should be instantiated through the NewDBStore() function.
type dbStore struct {
	db         *sql.DB
	templates  *freecache.Cache
	ttlSeconds int
	defaults   banners.Config
}

func (s *dbStore) Fetch(ctx context.Context, name string) (*banners.Banner, error) {
	var (
		href                            sql.NullString
		remains, maxViews, defaultCount sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, selectRecord, name).Scan(&href, &remains, &maxViews, &defaultCount)
	if err == sql.ErrNoRows {
		return nil, stored_banners.NotFoundError{Name: name}
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read record of banner %s", name)
	}

	cfg := s.defaults
	if href.Valid {
		cfg.Href = href.String
	}
	if remains.Valid {
		cfg.Views.Remains = int(remains.Int64)
	}
	if maxViews.Valid {
		cfg.Views.Max = int(maxViews.Int64)
	}
	if defaultCount.Valid {
		cfg.DefaultCount = int(defaultCount.Int64)
	}
	if warning := cfg.Normalize(); warning != nil {
		glog.Warningf("Banner %s: %v", name, warning)
	}

	tmpl, err := s.template(ctx, name)
	if err != nil {
		return nil, err
	}

	return &banners.Banner{
		Name:     name,
		Config:   cfg,
		Template: tmpl,
	}, nil
}

func (s *dbStore) template(ctx context.Context, name string) (string, error) {
	key := []byte(name)
	if s.templates != nil {
		if cached, err := s.templates.Get(key); err == nil {
			return string(cached), nil
		}
	}

	var html sql.NullString
	err := s.db.QueryRowContext(ctx, selectTemplate, name).Scan(&html)
	if err == sql.ErrNoRows || (err == nil && !html.Valid) {
		return "", stored_banners.NotFoundError{Name: name, What: "template"}
	}
	if err != nil {
		return "", errors.Wrapf(err, "failed to read template of banner %s", name)
	}

	if s.templates != nil {
		if err := s.templates.Set(key, []byte(html.String), s.ttlSeconds); err != nil {
			glog.Warningf("Template of banner %s is too large to cache: %v", name, err)
		}
	}
	return html.String, nil
}

// Save overwrites the record with a single UPDATE. The html column is left alone.
func (s *dbStore) Save(ctx context.Context, b *banners.Banner) error {
	cfg := b.Config
	result, err := s.db.ExecContext(ctx, updateRecord, b.Name, cfg.Href, cfg.Views.Remains, cfg.Views.Max, cfg.DefaultCount)
	if err != nil {
		return errors.Wrapf(err, "failed to save banner %s", b.Name)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrapf(err, "failed to save banner %s", b.Name)
	}
	if affected == 0 {
		return stored_banners.NotFoundError{Name: b.Name}
	}
	return nil
}

func (s *dbStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, selectNames)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list banners")
	}
	defer func() {
		if err := rows.Close(); err != nil {
			glog.Errorf("error closing DB connection: %v", err)
		}
	}()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, "failed to list banners")
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to list banners")
	}
	return names, nil
}

func (s *dbStore) Close() error {
	return s.db.Close()
}
