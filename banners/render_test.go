package banners

import (
	"errors"
	"fmt"
	"html/template"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRenderer struct {
	calls  int
	failOn int
}

func (r *stubRenderer) Render(b *Banner) (template.HTML, error) {
	r.calls++
	if r.failOn > 0 && r.calls == r.failOn {
		return "", errors.New("template exploded")
	}
	return template.HTML(fmt.Sprintf("<img src=\"/%s.png\" data-left=\"%d\">", b.Name, b.Config.Views.Remains)), nil
}

func newTestBanner(remains int) *Banner {
	return &Banner{
		Name: "superbanner",
		Config: Config{
			Href:         "/landing.html",
			Views:        Views{Remains: remains, Max: 50},
			DefaultCount: 1,
		},
	}
}

func TestElementID(t *testing.T) {
	assert.Equal(t, "banners-superbanner-49", ElementID("superbanner", 49))
}

func TestRenderOne(t *testing.T) {
	b := newTestBanner(3)
	html, err := b.RenderOne(&stubRenderer{})

	require.NoError(t, err)
	assert.Equal(t, `<a href="/landing.html" target="_blank" id="banners-superbanner-2"><img src="/superbanner.png" data-left="2"></a>`, html)
	assert.Equal(t, 2, b.Config.Views.Remains)
}

func TestRenderOneEscapesHref(t *testing.T) {
	b := newTestBanner(3)
	b.Config.Href = `javascript:alert("x")`
	html, err := b.RenderOne(&stubRenderer{})

	require.NoError(t, err)
	assert.NotContains(t, html, "javascript:")
}

func TestRenderSeveral(t *testing.T) {
	b := newTestBanner(3)
	r := &stubRenderer{}
	html, consumed, err := b.RenderSeveral(r, "2")

	require.NoError(t, err)
	assert.Equal(t, 2, consumed)
	assert.Equal(t, 2, r.calls)
	assert.Equal(t, 1, b.Config.Views.Remains)
	assert.Equal(t,
		`<a href="/landing.html" target="_blank" id="banners-superbanner-2"><img src="/superbanner.png" data-left="2"></a>`+
			`<a href="/landing.html" target="_blank" id="banners-superbanner-1"><img src="/superbanner.png" data-left="1"></a>`,
		html)
}

func TestRenderSeveralDrainsRemains(t *testing.T) {
	b := newTestBanner(2)
	_, consumed, err := b.RenderSeveral(&stubRenderer{}, "100%")

	require.NoError(t, err)
	assert.Equal(t, 2, consumed)
	assert.Equal(t, 0, b.Config.Views.Remains)

	html, consumed, err := b.RenderSeveral(&stubRenderer{}, "")
	require.NoError(t, err)
	assert.Equal(t, 0, consumed)
	assert.Empty(t, html)
	assert.Equal(t, 0, b.Config.Views.Remains, "an exhausted banner must not go negative")
}

func TestRenderSeveralNothingRequested(t *testing.T) {
	b := newTestBanner(10)
	r := &stubRenderer{}
	html, consumed, err := b.RenderSeveral(r, "abc")

	require.NoError(t, err)
	assert.Empty(t, html)
	assert.Equal(t, 0, consumed)
	assert.Equal(t, 0, r.calls)
	assert.Equal(t, 10, b.Config.Views.Remains)
}

func TestRenderSeveralRestoresRemainsOnError(t *testing.T) {
	b := newTestBanner(10)
	html, consumed, err := b.RenderSeveral(&stubRenderer{failOn: 2}, "3")

	assert.Error(t, err)
	assert.Empty(t, html)
	assert.Equal(t, 0, consumed)
	assert.Equal(t, 10, b.Config.Views.Remains)
}
