package endpoints

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/prebid/prebid-banners/errortypes"
	"github.com/prebid/prebid-banners/metrics"
	"github.com/prebid/prebid-banners/rotator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

const safariUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_13_6) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/12.0 Safari/605.1.15"

type stubBannerRenderer struct {
	result    rotator.Result
	err       error
	name      string
	requested string
}

func (s *stubBannerRenderer) Render(ctx context.Context, name, requested string) (rotator.Result, error) {
	s.name = name
	s.requested = requested
	return s.result, s.err
}

func serveBanner(renderer BannerRenderer, me metrics.MetricsEngine, name, query, ua string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/banners/"+name+query, nil)
	if ua != "" {
		req.Header.Set("User-Agent", ua)
	}
	rec := httptest.NewRecorder()
	NewBannerEndpoint(renderer, me)(rec, req, httprouter.Params{{Key: "name", Value: name}})
	return rec
}

func expectRequest(status metrics.RequestStatus, browser metrics.Browser) *metrics.MetricsEngineMock {
	labels := metrics.Labels{RType: metrics.ReqTypeRender, Browser: browser, RequestStatus: status}
	me := &metrics.MetricsEngineMock{}
	me.On("RecordRequest", labels).Return()
	me.On("RecordRequestTime", labels, mock.Anything).Return()
	return me
}

func TestBannerEndpointRenders(t *testing.T) {
	renderer := &stubBannerRenderer{result: rotator.Result{HTML: "<a>1</a><a>2</a>", Count: 2, Remains: 8}}
	me := expectRequest(metrics.RequestStatusOK, metrics.BrowserOther)

	rec := serveBanner(renderer, me, "superbanner", "?count=20%25", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<a>1</a><a>2</a>", rec.Body.String())
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "superbanner", renderer.name)
	assert.Equal(t, "20%", renderer.requested)
	me.AssertExpectations(t)
}

func TestBannerEndpointNoContent(t *testing.T) {
	me := expectRequest(metrics.RequestStatusNoContent, metrics.BrowserOther)

	rec := serveBanner(&stubBannerRenderer{}, me, "missing", "", "")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
	me.AssertExpectations(t)
}

func TestBannerEndpointBadName(t *testing.T) {
	renderer := &stubBannerRenderer{err: &errortypes.BadInput{Message: "invalid banner name"}}
	me := expectRequest(metrics.RequestStatusBadInput, metrics.BrowserOther)

	rec := serveBanner(renderer, me, "a.b", "", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request: invalid banner name", rec.Body.String())
	me.AssertExpectations(t)
}

func TestBannerEndpointStoreFailure(t *testing.T) {
	renderer := &stubBannerRenderer{err: &errortypes.StoreFailure{Message: "disk on fire"}}
	me := expectRequest(metrics.RequestStatusErr, metrics.BrowserOther)

	rec := serveBanner(renderer, me, "superbanner", "", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Banner could not be rendered", rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "disk on fire")
	me.AssertExpectations(t)
}

func TestBannerEndpointUnexpectedError(t *testing.T) {
	me := expectRequest(metrics.RequestStatusErr, metrics.BrowserOther)
	rec := serveBanner(&stubBannerRenderer{err: errors.New("open /srv/banners/superbanner/html.tmpl: permission denied")}, me, "superbanner", "", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "/srv/banners")
}

func TestBannerEndpointSafariLabel(t *testing.T) {
	renderer := &stubBannerRenderer{result: rotator.Result{HTML: "<a></a>", Count: 1}}
	me := expectRequest(metrics.RequestStatusOK, metrics.BrowserSafari)

	serveBanner(renderer, me, "superbanner", "", safariUA)
	me.AssertExpectations(t)
}
