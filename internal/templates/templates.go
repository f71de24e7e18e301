// Package templates maps template parameters to markup trees, one function
// per image variant. Templates are pure: the same Params and Canvas always
// produce the same tree.
package templates

import (
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/conneroisu/ogcard/internal/config"
	"github.com/conneroisu/ogcard/internal/markup"
)

// Variant tags.
const (
	VariantSite = "site"
	VariantPost = "post"
)

// DateLayout formats post dates in the card footer.
const DateLayout = "Jan 2, 2006"

// MaxTags is the number of tag pills a post card shows.
const MaxTags = 3

// Params is the per-request input of a template.
type Params struct {
	Title       string
	Description string
	Identifier  string
	Author      string
	Date        time.Time
	Tags        []string
	SiteName    string
	SiteURL     string
}

// Theme holds the card colors as hex strings.
type Theme struct {
	Background    string
	BackgroundEnd string
	Foreground    string
	Accent        string
	Muted         string
}

// Canvas is the configuration a template may read.
type Canvas struct {
	Width      int
	Height     int
	FontFamily string
	Theme      Theme
}

// Template builds the markup tree of one variant.
type Template func(p Params, c Canvas) *markup.Node

var registry = map[string]Template{
	VariantSite: Site,
	VariantPost: Post,
}

// Lookup returns the template registered for variant.
func Lookup(variant string) (Template, bool) {
	t, ok := registry[variant]
	return t, ok
}

// Variants lists the registered variant tags in order.
func Variants() []string {
	out := make([]string, 0, len(registry))
	for v := range registry {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// CanvasFrom derives the template canvas from configuration. The first
// configured font family becomes the default; an empty family lets layout
// pick the font set's default.
func CanvasFrom(cfg *config.Config) Canvas {
	c := Canvas{
		Width:  cfg.Canvas.Width,
		Height: cfg.Canvas.Height,
		Theme: Theme{
			Background:    cfg.Site.Theme.Background,
			BackgroundEnd: cfg.Site.Theme.BackgroundEnd,
			Foreground:    cfg.Site.Theme.Foreground,
			Accent:        cfg.Site.Theme.Accent,
			Muted:         cfg.Site.Theme.Muted,
		},
	}
	if len(cfg.Fonts) > 0 {
		c.FontFamily = cfg.Fonts[0].Family
	}
	return c
}

func frame(c Canvas, children ...*markup.Node) *markup.Node {
	end := c.Theme.BackgroundEnd
	if end == "" {
		end = c.Theme.Background
	}
	return markup.Box(markup.Style{
		Width:   float64(c.Width),
		Height:  float64(c.Height),
		Padding: markup.Symmetric(72, 80),
		Justify: markup.JustifySpaceBetween,
		Background: markup.Background{Gradient: &markup.Gradient{
			X1: 1, Y1: 1,
			Stops: []markup.Stop{
				{Offset: 0, Color: c.Theme.Background},
				{Offset: 1, Color: end},
			},
		}},
		Color:      c.Theme.Foreground,
		FontFamily: c.FontFamily,
		LineHeight: 1.2,
	}, children...)
}

func accentBar(c Canvas) *markup.Node {
	return markup.Box(markup.Style{
		Width:      96,
		Height:     8,
		Radius:     4,
		Background: markup.Background{Color: c.Theme.Accent},
	})
}

// hostLabel reduces a site URL to its host for display.
func hostLabel(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return strings.TrimSuffix(strings.TrimSpace(raw), "/")
	}
	return strings.TrimPrefix(u.Host, "www.")
}
