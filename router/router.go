package router

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/didip/tollbooth"
	"github.com/didip/tollbooth/limiter"
	"github.com/golang/glog"
	"github.com/julienschmidt/httprouter"
	"github.com/prebid/prebid-banners/analytics"
	analyticsBuild "github.com/prebid/prebid-banners/analytics/build"
	"github.com/prebid/prebid-banners/banners/templates"
	"github.com/prebid/prebid-banners/config"
	"github.com/prebid/prebid-banners/endpoints"
	metricsConf "github.com/prebid/prebid-banners/metrics/config"
	"github.com/prebid/prebid-banners/rotator"
	"github.com/prebid/prebid-banners/stored_banners"
	storedBannersConf "github.com/prebid/prebid-banners/stored_banners/config"
	"github.com/prebid/prebid-banners/util/task"
	"github.com/rs/cors"
)

type NoCache struct {
	Handler http.Handler
}

func (m NoCache) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Add("Pragma", "no-cache")
	w.Header().Add("Expires", "0")
	m.Handler.ServeHTTP(w, r)
}

// SupportCORS lets any site embed banners. Banner requests carry no credentials which need protecting.
func SupportCORS(handler http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowCredentials: true,
		AllowOriginFunc: func(string) bool {
			return true
		},
		AllowedMethods: []string{"GET", "HEAD"},
		AllowedHeaders: []string{"Origin", "X-Requested-With", "Content-Type", "Accept"}})
	return c.Handler(handler)
}

// RateLimit rejects requests from a client once it goes over the limits of lmt.
func RateLimit(lmt *limiter.Limiter, handle httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if httpError := tollbooth.LimitByRequest(lmt, w, r); httpError != nil {
			lmt.ExecOnLimitReached(w, r)
			w.Header().Add("Content-Type", lmt.GetMessageContentType())
			w.WriteHeader(httpError.StatusCode)
			w.Write([]byte(httpError.Message))
			return
		}
		handle(w, r, ps)
	}
}

type Router struct {
	*httprouter.Router
	MetricsEngine *metricsConf.DetailedMetricsEngine
	Rotator       *rotator.Rotator
	Shutdown      func()

	store     stored_banners.Store
	analytics analytics.Runner
	replenish *task.TickerTask
}

// New wires the banner store, the template cache, metrics and analytics into a Rotator and
// registers the public endpoints on a new router.
func New(cfg *config.Configuration) (r *Router, err error) {
	r = &Router{
		Router: httprouter.New(),
	}

	r.MetricsEngine = metricsConf.NewMetricsEngine(cfg)

	r.store, err = storedBannersConf.NewStore(&cfg.StoredBanners, storedBannersConf.Defaults(cfg.BannerDefaults), r.MetricsEngine)
	if err != nil {
		return nil, fmt.Errorf("Banner server could not load the banner store: %v", err)
	}

	r.analytics = analyticsBuild.New(&cfg.Analytics)
	renderer := templates.NewCache(cfg.TemplateCache.TTL(), r.MetricsEngine)
	r.Rotator = rotator.New(r.store, renderer, r.MetricsEngine, r.analytics)

	bannerEndpoint := endpoints.NewBannerEndpoint(r.Rotator, r.MetricsEngine)
	if cfg.RateLimit.MaxRequestsPerSecond > 0 {
		lmt := tollbooth.NewLimiter(cfg.RateLimit.MaxRequestsPerSecond, nil)
		lmt.SetMessage("Too many banner requests")
		bannerEndpoint = RateLimit(lmt, bannerEndpoint)
	}
	r.GET("/banners/:name", bannerEndpoint)
	r.GET("/status", endpoints.NewStatusEndpoint(cfg.StatusResponse))

	if cfg.Replenish.IntervalSeconds > 0 {
		r.replenish = task.NewTickerTaskWithOptions(task.Options{
			Name:           "replenish",
			Interval:       cfg.Replenish.Interval(),
			Runner:         &replenisher{rotator: r.Rotator, timeout: cfg.Replenish.Interval()},
			SkipInitialRun: true,
		})
		r.replenish.Start()
	}

	r.Shutdown = r.shutdown
	return r, nil
}

func (r *Router) shutdown() {
	if r.replenish != nil {
		r.replenish.Stop()
	}
	r.analytics.Shutdown()
	if err := r.store.Close(); err != nil {
		glog.Errorf("Failed to close the banner store: %v", err)
	}
}

// Admin serves the banner records and the build version on the admin port.
func Admin(revision string, rot *rotator.Rotator, me *metricsConf.DetailedMetricsEngine) http.Handler {
	adminEndpoints := endpoints.NewAdminEndpoints(rot, me)

	r := httprouter.New()
	r.GET("/banners/:name", adminEndpoints.Get)
	r.PATCH("/banners/:name", adminEndpoints.Patch)
	r.POST("/banners/:name/reset", adminEndpoints.Reset)
	r.HandlerFunc("GET", "/version", endpoints.NewVersionEndpoint(Ver, revision))
	return r
}

type replenisher struct {
	rotator *rotator.Rotator
	timeout time.Duration
}

func (r *replenisher) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	_, err := r.rotator.ReplenishAll(ctx)
	return err
}
