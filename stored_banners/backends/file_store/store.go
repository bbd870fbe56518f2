package file_store

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/prebid/prebid-banners/banners"
	"github.com/prebid/prebid-banners/stored_banners"
	yaml "gopkg.in/yaml.v2"
)

const (
	configFile   = "config.yml"
	templateFile = "html.tmpl"
)

// NewFileStore stores banners on the local filesystem.
//
// This expects each banner to be a folder in directory holding a "config.yml" record and an
// "html.tmpl" template. For example, the banner "superbanner" is read from
// "directory/superbanner/config.yml" and "directory/superbanner/html.tmpl".
//
// Records are merged onto defaults, so a record only needs the keys it overrides.
func NewFileStore(directory string, defaults banners.Config) stored_banners.Store {
	return &fileStore{
		directory: directory,
		defaults:  defaults,
	}
}

type fileStore struct {
	directory string
	defaults  banners.Config
}

func (s *fileStore) Fetch(ctx context.Context, name string) (*banners.Banner, error) {
	if !banners.ValidName(name) {
		return nil, stored_banners.NotFoundError{Name: name}
	}
	folder := filepath.Join(s.directory, name)
	if info, err := os.Stat(folder); err != nil || !info.IsDir() {
		return nil, stored_banners.NotFoundError{Name: name}
	}

	tmpl, err := ioutil.ReadFile(filepath.Join(folder, templateFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, stored_banners.NotFoundError{Name: name, What: "template"}
		}
		return nil, errors.Wrapf(err, "failed to read template of banner %s", name)
	}

	record, err := ioutil.ReadFile(filepath.Join(folder, configFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, stored_banners.NotFoundError{Name: name, What: "record"}
		}
		return nil, errors.Wrapf(err, "failed to read record of banner %s", name)
	}

	cfg := s.defaults
	if err := yaml.Unmarshal(record, &cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to parse record of banner %s", name)
	}
	if warning := cfg.Normalize(); warning != nil {
		glog.Warningf("Banner %s: %v", name, warning)
	}

	return &banners.Banner{
		Name:     name,
		Config:   cfg,
		Template: string(tmpl),
	}, nil
}

// Save writes the record to a temporary file next to the original and renames it over the
// original, so readers never see a partly written record.
func (s *fileStore) Save(ctx context.Context, b *banners.Banner) error {
	if !banners.ValidName(b.Name) {
		return stored_banners.NotFoundError{Name: b.Name}
	}
	folder := filepath.Join(s.directory, b.Name)
	if info, err := os.Stat(folder); err != nil || !info.IsDir() {
		return stored_banners.NotFoundError{Name: b.Name}
	}

	data, err := yaml.Marshal(b.Config)
	if err != nil {
		return errors.Wrapf(err, "failed to encode record of banner %s", b.Name)
	}

	tmp, err := ioutil.TempFile(folder, "."+configFile+".")
	if err != nil {
		return errors.Wrapf(err, "failed to save banner %s", b.Name)
	}
	defer func() {
		// Already renamed on success.
		if err := os.Remove(tmp.Name()); err != nil && !os.IsNotExist(err) {
			glog.Errorf("failed to remove %s: %v", tmp.Name(), err)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "failed to save banner %s", b.Name)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "failed to save banner %s", b.Name)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(folder, configFile)); err != nil {
		return errors.Wrapf(err, "failed to save banner %s", b.Name)
	}
	if glog.V(2) {
		glog.Infof("Saved banner %s with %d impressions remaining", b.Name, b.Config.Views.Remains)
	}
	return nil
}

func (s *fileStore) List(ctx context.Context) ([]string, error) {
	fileInfos, err := ioutil.ReadDir(s.directory)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list banners in %s", s.directory)
	}
	names := make([]string, 0, len(fileInfos))
	for _, fileInfo := range fileInfos {
		if fileInfo.IsDir() && banners.ValidName(fileInfo.Name()) {
			names = append(names, fileInfo.Name())
		}
	}
	return names, nil
}

func (s *fileStore) Close() error {
	return nil
}
