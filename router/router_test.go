package router

import (
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/didip/tollbooth"
	"github.com/julienschmidt/httprouter"
	"github.com/prebid/prebid-banners/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Configuration {
	t.Helper()
	dir := t.TempDir()
	folder := filepath.Join(dir, "superbanner")
	require.NoError(t, os.MkdirAll(folder, 0755))
	require.NoError(t, ioutil.WriteFile(filepath.Join(folder, "config.yml"), []byte("href: /promo.html\nviews:\n  remains: 5\n  max: 5\n"), 0644))
	require.NoError(t, ioutil.WriteFile(filepath.Join(folder, "html.tmpl"), []byte("<img alt=\"{{.Name}}\">"), 0644))

	return &config.Configuration{
		Port:           8000,
		AdminPort:      6060,
		StatusResponse: "ok",
		StoredBanners: config.StoredBanners{
			Type:  config.StoreFilesystem,
			Files: config.FileStoreConfig{Directory: dir},
		},
		BannerDefaults: config.BannerDefaults{
			Href:         "/default.html",
			Remains:      50,
			Max:          50,
			DefaultCount: 1,
		},
		TemplateCache: config.TemplateCache{TTLSeconds: 60},
	}
}

func TestBannerRoute(t *testing.T) {
	r, err := New(testConfig(t))
	require.NoError(t, err)
	defer r.Shutdown()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/banners/superbanner?count=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, strings.Count(rec.Body.String(), `<img alt="superbanner">`))
	assert.Contains(t, rec.Body.String(), `id="banners-superbanner-3"`)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/banners/superbanner?count=100%25", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, strings.Count(rec.Body.String(), "<a "))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/banners/superbanner", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code, "the banner is exhausted")

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/banners/missing", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestStatusRoute(t *testing.T) {
	r, err := New(testConfig(t))
	require.NoError(t, err)
	defer r.Shutdown()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/status", nil))
	assert.Equal(t, "ok", rec.Body.String())
}

func TestAdminRoutes(t *testing.T) {
	r, err := New(testConfig(t))
	require.NoError(t, err)
	defer r.Shutdown()
	admin := Admin("abc123", r.Rotator, r.MetricsEngine)

	rec := httptest.NewRecorder()
	admin.ServeHTTP(rec, httptest.NewRequest("PATCH", "/banners/superbanner", strings.NewReader(`{"views":{"remains":1}}`)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"name":"superbanner","config":{"href":"/promo.html","views":{"remains":1,"max":5},"default_count":1}}`, rec.Body.String())

	rec = httptest.NewRecorder()
	admin.ServeHTTP(rec, httptest.NewRequest("POST", "/banners/superbanner/reset", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	admin.ServeHTTP(rec, httptest.NewRequest("GET", "/banners/superbanner", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"remains":5`)

	rec = httptest.NewRecorder()
	admin.ServeHTTP(rec, httptest.NewRequest("GET", "/banners/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	admin.ServeHTTP(rec, httptest.NewRequest("GET", "/version", nil))
	assert.Contains(t, rec.Body.String(), `"revision":"abc123"`)
}

func TestNoCache(t *testing.T) {
	handler := NoCache{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/banners/x", nil))

	assert.Equal(t, "no-cache, no-store, must-revalidate", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "no-cache", rec.Header().Get("Pragma"))
	assert.Equal(t, "0", rec.Header().Get("Expires"))
}

func TestCORSAllowsAnyOrigin(t *testing.T) {
	handler := SupportCORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req := httptest.NewRequest("GET", "/banners/x", nil)
	req.Header.Set("Origin", "https://publisher.example")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "https://publisher.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	calls := 0
	handle := RateLimit(tollbooth.NewLimiter(1, nil), func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		calls++
	})

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("GET", "/banners/x", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		handle(rec, req, nil)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, 1, calls)
}
