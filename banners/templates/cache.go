package templates

import (
	"bytes"
	"html/template"
	"time"

	"github.com/golang/glog"
	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"github.com/prebid/prebid-banners/banners"
	"github.com/prebid/prebid-banners/errortypes"
	"github.com/prebid/prebid-banners/metrics"
)

type entry struct {
	source string
	tmpl   *template.Template
}

// Cache renders banner templates, keeping the parsed form of each banner's template until it
// goes unused for the configured ttl. An entry is reparsed whenever the stored source changes.
type Cache struct {
	parsed  *cache.Cache
	metrics metrics.MetricsEngine
}

// NewCache builds a Cache. A ttl of zero keeps parsed templates until their source changes.
func NewCache(ttl time.Duration, me metrics.MetricsEngine) *Cache {
	if ttl <= 0 {
		return &Cache{
			parsed:  cache.New(cache.NoExpiration, 0),
			metrics: me,
		}
	}
	return &Cache{
		parsed:  cache.New(ttl, 2*ttl),
		metrics: me,
	}
}

// Render implements banners.Renderer.
func (c *Cache) Render(b *banners.Banner) (template.HTML, error) {
	tmpl, err := c.lookup(b)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, banners.TemplateData{
		Name:    b.Name,
		Href:    b.Config.Href,
		Remains: b.Config.Views.Remains,
	})
	if err != nil {
		return "", errors.Wrapf(err, "failed to execute template of banner %s", b.Name)
	}
	return template.HTML(buf.String()), nil
}

func (c *Cache) lookup(b *banners.Banner) (*template.Template, error) {
	if cached, ok := c.parsed.Get(b.Name); ok {
		if e := cached.(*entry); e.source == b.Template {
			c.metrics.RecordTemplateCache(true)
			// Touch the entry so a banner in steady use never expires.
			c.parsed.SetDefault(b.Name, e)
			return e.tmpl, nil
		}
	}
	c.metrics.RecordTemplateCache(false)

	tmpl, err := Parse(b.Name, b.Template)
	if err != nil {
		return nil, err
	}
	if glog.V(2) {
		glog.Infof("Parsed template of banner %s", b.Name)
	}
	c.parsed.SetDefault(b.Name, &entry{source: b.Template, tmpl: tmpl})
	return tmpl, nil
}

// Parse compiles a banner template. A template that does not parse is bad input from whoever stored it.
func Parse(name, source string) (*template.Template, error) {
	tmpl, err := template.New(name).Option("missingkey=zero").Parse(source)
	if err != nil {
		return nil, &errortypes.BadInput{Message: "template of banner " + name + " does not parse: " + err.Error()}
	}
	return tmpl, nil
}
