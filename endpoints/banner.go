package endpoints

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/golang/glog"
	"github.com/julienschmidt/httprouter"
	"github.com/mssola/user_agent"
	"github.com/prebid/prebid-banners/metrics"
	"github.com/prebid/prebid-banners/rotator"
)

// BannerRenderer consumes and renders impressions of a banner.
type BannerRenderer interface {
	Render(ctx context.Context, name, requested string) (rotator.Result, error)
}

type bannerEndpoint struct {
	renderer BannerRenderer
	metrics  metrics.MetricsEngine
}

// NewBannerEndpoint serves GET /banners/:name?count=<n|N%>. It answers with the rendered markup,
// or 204 when the banner is unknown or has nothing left to serve.
func NewBannerEndpoint(renderer BannerRenderer, me metrics.MetricsEngine) httprouter.Handle {
	e := &bannerEndpoint{
		renderer: renderer,
		metrics:  me,
	}
	return e.Handle
}

func (e *bannerEndpoint) Handle(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	start := time.Now()
	labels := metrics.Labels{
		RType:         metrics.ReqTypeRender,
		Browser:       browserOf(r),
		RequestStatus: metrics.RequestStatusOK,
	}
	defer func() {
		e.metrics.RecordRequest(labels)
		e.metrics.RecordRequestTime(labels, time.Since(start))
	}()

	name := ps.ByName("name")
	result, err := e.renderer.Render(r.Context(), name, r.URL.Query().Get("count"))
	if err != nil {
		status := rotator.ErrorStatus(err)
		w.WriteHeader(status)
		if status == http.StatusBadRequest {
			labels.RequestStatus = metrics.RequestStatusBadInput
			if glog.V(2) {
				glog.Infof("Bad /banners request for %q: %v", name, err)
			}
			fmt.Fprintf(w, "Invalid request: %v", err)
			return
		}
		labels.RequestStatus = metrics.RequestStatusErr
		glog.Errorf("/banners/%s failed: %v", name, err)
		w.Write([]byte("Banner could not be rendered"))
		return
	}

	if result.Count == 0 {
		labels.RequestStatus = metrics.RequestStatusNoContent
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(result.HTML))
}

func browserOf(r *http.Request) metrics.Browser {
	if ua := user_agent.New(r.Header.Get("User-Agent")); ua != nil {
		if name, _ := ua.Browser(); name == "Safari" {
			return metrics.BrowserSafari
		}
	}
	return metrics.BrowserOther
}
