package templates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/ogcard/internal/config"
	"github.com/conneroisu/ogcard/internal/markup"
)

func testCanvas() Canvas {
	return CanvasFrom(config.Default())
}

func texts(n *markup.Node) []string {
	var out []string
	markup.Walk(n, func(n *markup.Node) bool {
		if n.Kind == markup.KindText {
			out = append(out, n.Text)
		}
		return true
	})
	return out
}

func samplePost() Params {
	return Params{
		Title:       "Rendering social cards",
		Description: "How the build generates preview images.",
		Identifier:  "rendering-social-cards",
		Author:      "Ada",
		Date:        time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC),
		Tags:        []string{"Go", "images", " ", "build", "web"},
		SiteName:    "Field Notes",
		SiteURL:     "https://www.example.com/",
	}
}

func TestLookup(t *testing.T) {
	assert.Equal(t, []string{VariantPost, VariantSite}, Variants())

	for _, v := range Variants() {
		tmpl, ok := Lookup(v)
		assert.True(t, ok)
		assert.NotNil(t, tmpl)
	}

	_, ok := Lookup("banner")
	assert.False(t, ok)
}

func TestCanvasFrom(t *testing.T) {
	cfg := config.Default()
	cfg.Fonts = []config.FontConfig{{Family: "Inter", Path: "inter.ttf"}}

	c := CanvasFrom(cfg)
	assert.Equal(t, 1200, c.Width)
	assert.Equal(t, 630, c.Height)
	assert.Equal(t, "Inter", c.FontFamily)
	assert.Equal(t, "#38bdf8", c.Theme.Accent)

	assert.Empty(t, testCanvas().FontFamily)
}

func TestSite(t *testing.T) {
	root := Site(Params{
		Title:       "Field Notes",
		Description: "Writing about Go.",
		Author:      "Ada",
		SiteURL:     "https://www.example.com/blog",
	}, testCanvas())

	assert.Equal(t, []string{"Field Notes", "Writing about Go.", "example.com", "Ada"}, texts(root))
	assert.Equal(t, 1200.0, root.Style.Width)
	assert.Equal(t, 630.0, root.Style.Height)
	require.NotNil(t, root.Style.Background.Gradient)
	assert.Equal(t, "#0f172a", root.Style.Background.Gradient.Stops[0].Color)
}

func TestSiteFallsBackToSiteName(t *testing.T) {
	root := Site(Params{SiteName: "Field Notes"}, testCanvas())
	assert.Equal(t, []string{"Field Notes"}, texts(root))
}

func TestPost(t *testing.T) {
	root := Post(samplePost(), testCanvas())

	assert.Equal(t, []string{
		"FIELD NOTES",
		"Rendering social cards",
		"How the build generates preview images.",
		"Ada",
		"Mar 9, 2024",
		"#go", "#images", "#build",
	}, texts(root))
}

func TestPostOptionalParts(t *testing.T) {
	root := Post(Params{Identifier: "hello-world", SiteURL: "https://example.com"}, testCanvas())
	assert.Equal(t, []string{"EXAMPLE.COM", "hello-world"}, texts(root))
}

func TestTemplatesAreDeterministic(t *testing.T) {
	c := testCanvas()
	for _, v := range Variants() {
		tmpl, _ := Lookup(v)
		assert.Equal(t, tmpl(samplePost(), c), tmpl(samplePost(), c), v)
	}
}

func TestHostLabel(t *testing.T) {
	tests := map[string]string{
		"https://www.example.com/":     "example.com",
		"http://blog.example.com:8080": "blog.example.com:8080",
		"example.com/":                 "example.com",
		"":                             "",
	}
	for in, want := range tests {
		assert.Equal(t, want, hostLabel(in), in)
	}
}
