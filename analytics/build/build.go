package build

import (
	"github.com/golang/glog"
	"github.com/prebid/prebid-banners/analytics"
	"github.com/prebid/prebid-banners/analytics/filesystem"
	"github.com/prebid/prebid-banners/config"
)

// New builds the analytics modules enabled in cfg. Modules which fail to start are logged and skipped.
func New(cfg *config.Analytics) analytics.Runner {
	modules := make(enabledAnalytics)
	if cfg.File.Filename != "" {
		if mod, err := filesystem.NewFileLogger(cfg.File.Filename); err == nil {
			modules["filelogger"] = mod
		} else {
			glog.Errorf("Could not initialize FileLogger for file %v :%v", cfg.File.Filename, err)
		}
	}
	return modules
}

// Collection of all the correctly configured analytics modules - implements the Runner interface
type enabledAnalytics map[string]analytics.Module

func (ea enabledAnalytics) LogImpressionObject(io *analytics.ImpressionObject) {
	for _, module := range ea {
		module.LogImpressionObject(io)
	}
}

func (ea enabledAnalytics) LogAdminObject(ao *analytics.AdminObject) {
	for _, module := range ea {
		module.LogAdminObject(ao)
	}
}

func (ea enabledAnalytics) Shutdown() {
	for _, module := range ea {
		module.Shutdown()
	}
}
