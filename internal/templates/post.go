package templates

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/conneroisu/ogcard/internal/markup"
)

// Post renders a post card: site kicker, title, description, then a footer
// with author, date and up to MaxTags tags.
func Post(p Params, c Canvas) *markup.Node {
	title := p.Title
	if title == "" {
		title = p.Identifier
	}

	// Casers keep internal state and are built per call.
	upper := cases.Upper(language.Und)
	lower := cases.Lower(language.Und)

	return frame(c,
		markup.Box(markup.Style{Direction: markup.Row, Align: markup.AlignCenter, Gap: 16},
			markup.Box(markup.Style{
				Width: 16, Height: 16, Radius: 8,
				Background: markup.Background{Color: c.Theme.Accent},
			}),
			markup.Text(markup.Style{FontSize: 26, FontWeight: 700, Color: c.Theme.Accent},
				upper.String(siteLabel(p))),
		),
		markup.Box(markup.Style{Gap: 24},
			markup.Text(markup.Style{FontSize: 68, FontWeight: 700, LineHeight: 1.15, MaxLines: 3}, title),
			markup.If(p.Description != "", func() *markup.Node {
				return markup.Text(markup.Style{FontSize: 32, Color: c.Theme.Muted, MaxLines: 2}, p.Description)
			}),
		),
		markup.Box(markup.Style{Direction: markup.Row, Align: markup.AlignCenter, Gap: 16},
			markup.If(p.Author != "", func() *markup.Node {
				return markup.Text(markup.Style{FontSize: 28, FontWeight: 500}, p.Author)
			}),
			markup.If(!p.Date.IsZero(), func() *markup.Node {
				return markup.Text(markup.Style{FontSize: 28, Color: c.Theme.Muted}, p.Date.UTC().Format(DateLayout))
			}),
			markup.Spacer(),
			tagRow(p.Tags, c, lower),
		),
	)
}

func siteLabel(p Params) string {
	if p.SiteName != "" {
		return p.SiteName
	}
	return hostLabel(p.SiteURL)
}

func tagRow(tags []string, c Canvas, lower cases.Caser) *markup.Node {
	var pills []*markup.Node
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if len(pills) == MaxTags {
			break
		}
		pills = append(pills, markup.Box(markup.Style{
			Padding:     markup.Symmetric(6, 16),
			Radius:      20,
			Border:      2,
			BorderColor: c.Theme.Accent,
		},
			markup.Text(markup.Style{FontSize: 22, FontWeight: 500, Color: c.Theme.Accent}, "#"+lower.String(tag)),
		))
	}
	if len(pills) == 0 {
		return nil
	}
	return markup.Box(markup.Style{Direction: markup.Row, Gap: 12}, pills...)
}
