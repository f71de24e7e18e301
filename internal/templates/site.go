package templates

import (
	"github.com/conneroisu/ogcard/internal/markup"
)

// Site renders the site-wide card: title and description over the themed
// gradient, with the site host and author in the footer.
func Site(p Params, c Canvas) *markup.Node {
	title := p.Title
	if title == "" {
		title = p.SiteName
	}
	host := hostLabel(p.SiteURL)

	return frame(c,
		accentBar(c),
		markup.Box(markup.Style{Gap: 28},
			markup.Text(markup.Style{FontSize: 84, FontWeight: 700, LineHeight: 1.1, MaxLines: 2}, title),
			markup.If(p.Description != "", func() *markup.Node {
				return markup.Text(markup.Style{FontSize: 36, Color: c.Theme.Muted, MaxLines: 3}, p.Description)
			}),
		),
		markup.Box(markup.Style{Direction: markup.Row, Align: markup.AlignCenter},
			markup.If(host != "", func() *markup.Node {
				return markup.Text(markup.Style{FontSize: 30, FontWeight: 700, Color: c.Theme.Accent}, host)
			}),
			markup.Spacer(),
			markup.If(p.Author != "", func() *markup.Node {
				return markup.Text(markup.Style{FontSize: 28, Color: c.Theme.Muted}, p.Author)
			}),
		),
	)
}
