// Package preview renders the preview index: every generated card with the
// Open Graph tags a page would carry for it.
package preview

//go:generate templ generate

// Page is the data behind the preview index.
type Page struct {
	SiteTitle string
	Format    string
	Site      Artifact
	Posts     []Artifact
}

// Artifact is one generated card.
type Artifact struct {
	ID          string
	Title       string
	Description string
	ImageURL    string
	SVGURL      string
	Draft       bool
}
