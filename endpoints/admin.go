package endpoints

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"time"

	"github.com/golang/glog"
	"github.com/julienschmidt/httprouter"
	"github.com/prebid/prebid-banners/banners"
	"github.com/prebid/prebid-banners/errortypes"
	"github.com/prebid/prebid-banners/metrics"
	"github.com/prebid/prebid-banners/rotator"
)

const maxPatchBytes = 64 * 1024

// BannerAdmin reads and changes banner records.
type BannerAdmin interface {
	Get(ctx context.Context, name string) (*banners.Banner, error)
	Update(ctx context.Context, name string, patch []byte) (*banners.Banner, error)
	Reset(ctx context.Context, name string) (*banners.Banner, error)
}

type bannerRecord struct {
	Name   string         `json:"name"`
	Config banners.Config `json:"config"`
}

// AdminEndpoints serves the banner records on the admin port.
type AdminEndpoints struct {
	admin   BannerAdmin
	metrics metrics.MetricsEngine
}

func NewAdminEndpoints(admin BannerAdmin, me metrics.MetricsEngine) *AdminEndpoints {
	return &AdminEndpoints{
		admin:   admin,
		metrics: me,
	}
}

// Get serves GET /banners/:name
func (a *AdminEndpoints) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	a.serve(w, func() (*banners.Banner, error) {
		return a.admin.Get(r.Context(), ps.ByName("name"))
	})
}

// Patch serves PATCH /banners/:name. The body is a JSON merge patch of the record.
func (a *AdminEndpoints) Patch(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	a.serve(w, func() (*banners.Banner, error) {
		patch, err := ioutil.ReadAll(http.MaxBytesReader(w, r.Body, maxPatchBytes))
		if err != nil {
			return nil, &errortypes.BadInput{Message: fmt.Sprintf("failed to read request body: %v", err)}
		}
		return a.admin.Update(r.Context(), ps.ByName("name"), patch)
	})
}

// Reset serves POST /banners/:name/reset
func (a *AdminEndpoints) Reset(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	a.serve(w, func() (*banners.Banner, error) {
		return a.admin.Reset(r.Context(), ps.ByName("name"))
	})
}

func (a *AdminEndpoints) serve(w http.ResponseWriter, call func() (*banners.Banner, error)) {
	start := time.Now()
	labels := metrics.Labels{
		RType:         metrics.ReqTypeAdmin,
		Browser:       metrics.BrowserOther,
		RequestStatus: metrics.RequestStatusOK,
	}
	defer func() {
		a.metrics.RecordRequest(labels)
		a.metrics.RecordRequestTime(labels, time.Since(start))
	}()

	b, err := call()
	if err != nil {
		status := rotator.ErrorStatus(err)
		switch status {
		case http.StatusBadRequest:
			labels.RequestStatus = metrics.RequestStatusBadInput
		case http.StatusNotFound:
			labels.RequestStatus = metrics.RequestStatusNoContent
		default:
			labels.RequestStatus = metrics.RequestStatusErr
		}
		w.WriteHeader(status)
		fmt.Fprintf(w, "%v", err)
		return
	}

	response, err := json.Marshal(bannerRecord{Name: b.Name, Config: b.Config})
	if err != nil {
		glog.Errorf("Failed to encode banner %s: %v", b.Name, err)
		labels.RequestStatus = metrics.RequestStatusErr
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(response)
}
