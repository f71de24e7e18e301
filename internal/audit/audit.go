// Package audit checks a built site for Open Graph image references: every
// page should declare an og:image, and every same-origin image it declares
// should exist in the build output.
package audit

import (
	"bytes"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/net/html"
)

// Severity ranks an issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue kinds.
const (
	KindMissingOGImage      = "missing_og_image"
	KindMissingTwitterImage = "missing_twitter_image"
	KindBrokenImage         = "broken_image"
	KindInvalidURL          = "invalid_url"
)

// Issue is one finding on one page.
type Issue struct {
	Page     string   `json:"page" yaml:"page"`
	Kind     string   `json:"kind" yaml:"kind"`
	Severity Severity `json:"severity" yaml:"severity"`
	URL      string   `json:"url,omitempty" yaml:"url,omitempty"`
	Message  string   `json:"message" yaml:"message"`
}

// Page holds the image tags found on one HTML file.
type Page struct {
	Path          string   `json:"path" yaml:"path"`
	OGImages      []string `json:"og_images,omitempty" yaml:"og_images,omitempty"`
	TwitterImages []string `json:"twitter_images,omitempty" yaml:"twitter_images,omitempty"`
}

// Report is the result of an audit.
type Report struct {
	Pages  []Page  `json:"pages" yaml:"pages"`
	Issues []Issue `json:"issues" yaml:"issues"`
}

// Errors counts issues of error severity.
func (r *Report) Errors() int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			n++
		}
	}
	return n
}

// Run audits every *.html file under siteDir. siteURL identifies which
// absolute image URLs belong to the site; other hosts are not checked.
func Run(siteDir, siteURL string) (*Report, error) {
	base, err := url.Parse(siteURL)
	if err != nil {
		return nil, fmt.Errorf("invalid site url %q: %w", siteURL, err)
	}

	var files []string
	err = filepath.WalkDir(siteDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(p), ".html") {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk site directory: %w", err)
	}
	sort.Strings(files)

	report := &Report{Pages: make([]Page, 0, len(files)), Issues: []Issue{}}
	for _, file := range files {
		rel, err := filepath.Rel(siteDir, file)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", file, err)
		}
		rel = filepath.ToSlash(rel)

		content, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", rel, err)
		}

		page, err := ParsePage(rel, content)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", rel, err)
		}
		report.Pages = append(report.Pages, page)
		report.Issues = append(report.Issues, checkPage(siteDir, base, page)...)
	}

	return report, nil
}

// ParsePage extracts og:image and twitter:image meta tags from an HTML
// document.
func ParsePage(pagePath string, content []byte) (Page, error) {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return Page{}, err
	}

	page := Page{Path: pagePath}
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "meta" {
			key := strings.ToLower(attr(n, "property"))
			if key == "" {
				key = strings.ToLower(attr(n, "name"))
			}
			value := strings.TrimSpace(attr(n, "content"))
			switch key {
			case "og:image", "og:image:url", "og:image:secure_url":
				if value != "" {
					page.OGImages = append(page.OGImages, value)
				}
			case "twitter:image", "twitter:image:src":
				if value != "" {
					page.TwitterImages = append(page.TwitterImages, value)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(doc)

	return page, nil
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, name) {
			return a.Val
		}
	}
	return ""
}

func checkPage(siteDir string, base *url.URL, page Page) []Issue {
	var issues []Issue

	if len(page.OGImages) == 0 {
		issues = append(issues, Issue{
			Page:     page.Path,
			Kind:     KindMissingOGImage,
			Severity: SeverityError,
			Message:  "page has no og:image meta tag",
		})
	}
	if len(page.TwitterImages) == 0 {
		issues = append(issues, Issue{
			Page:     page.Path,
			Kind:     KindMissingTwitterImage,
			Severity: SeverityWarning,
			Message:  "page has no twitter:image meta tag",
		})
	}

	seen := make(map[string]bool)
	for _, ref := range append(append([]string{}, page.OGImages...), page.TwitterImages...) {
		if seen[ref] {
			continue
		}
		seen[ref] = true

		local, ok, err := LocalPath(base, page.Path, ref)
		if err != nil {
			issues = append(issues, Issue{
				Page:     page.Path,
				Kind:     KindInvalidURL,
				Severity: SeverityError,
				URL:      ref,
				Message:  err.Error(),
			})
			continue
		}
		if !ok {
			continue
		}
		if info, err := os.Stat(filepath.Join(siteDir, filepath.FromSlash(local))); err != nil || info.IsDir() {
			issues = append(issues, Issue{
				Page:     page.Path,
				Kind:     KindBrokenImage,
				Severity: SeverityError,
				URL:      ref,
				Message:  "image does not exist: " + local,
			})
		}
	}

	return issues
}

// LocalPath maps an image reference found on pagePath to a path relative
// to the site root. ok is false for references to other origins.
func LocalPath(base *url.URL, pagePath, ref string) (string, bool, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", false, fmt.Errorf("invalid image url: %w", err)
	}

	if u.Scheme != "" || u.Host != "" {
		if u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https" {
			return "", false, nil
		}
		if !strings.EqualFold(u.Hostname(), base.Hostname()) || u.Port() != base.Port() {
			return "", false, nil
		}
		p := u.Path
		if prefix := strings.TrimSuffix(base.Path, "/"); prefix != "" && strings.HasPrefix(p, prefix+"/") {
			p = strings.TrimPrefix(p, prefix)
		}
		return strings.TrimPrefix(path.Clean("/"+p), "/"), true, nil
	}

	p := u.Path
	if !strings.HasPrefix(p, "/") {
		p = path.Join(path.Dir("/"+pagePath), p)
	}
	return strings.TrimPrefix(path.Clean(p), "/"), true, nil
}
