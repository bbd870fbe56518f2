package banners

import (
	"bytes"
	"html/template"
	"strconv"

	"github.com/pkg/errors"
)

// Renderer turns a banner's template into the body of one impression.
type Renderer interface {
	Render(b *Banner) (template.HTML, error)
}

// TemplateData is what a banner template sees when it is executed.
type TemplateData struct {
	Name    string
	Href    string
	Remains int
}

var linkTemplate = template.Must(template.New("link").Parse(
	`<a href="{{.Href}}" target="_blank" id="{{.ID}}">{{.Body}}</a>`))

type linkData struct {
	Href string
	ID   string
	Body template.HTML
}

// ElementID is the id of the link wrapping an impression: banners-<name>-<remains>.
func ElementID(name string, remains int) string {
	return "banners-" + name + "-" + strconv.Itoa(remains)
}

// RenderOne consumes one impression and returns its markup. The remaining count is
// decremented before the template runs, so the template and the element id both see
// the count left after this impression.
func (b *Banner) RenderOne(r Renderer) (string, error) {
	b.Config.Views.Remains--

	body, err := r.Render(b)
	if err != nil {
		return "", errors.Wrapf(err, "failed to render banner %s", b.Name)
	}

	var buf bytes.Buffer
	err = linkTemplate.Execute(&buf, linkData{
		Href: b.Config.Href,
		ID:   ElementID(b.Name, b.Config.Views.Remains),
		Body: body,
	})
	if err != nil {
		return "", errors.Wrapf(err, "failed to wrap banner %s", b.Name)
	}
	return buf.String(), nil
}

// RenderSeveral renders as many impressions as ResolveCount allows for requested and returns
// the concatenated markup with the number consumed. If any impression fails the remaining count
// is restored and nothing is returned.
func (b *Banner) RenderSeveral(r Renderer, requested string) (string, int, error) {
	count := ResolveCount(b.Config, requested)
	if count <= 0 {
		return "", 0, nil
	}

	before := b.Config.Views.Remains
	var buf bytes.Buffer
	for i := 0; i < count; i++ {
		html, err := b.RenderOne(r)
		if err != nil {
			b.Config.Views.Remains = before
			return "", 0, err
		}
		buf.WriteString(html)
	}
	return buf.String(), count, nil
}
