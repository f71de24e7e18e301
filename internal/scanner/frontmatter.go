package scanner

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/ogcard/internal/errors"
	"github.com/conneroisu/ogcard/internal/types"
)

const delimiter = "---"

// frontmatter is the subset of post metadata the cards use.
type frontmatter struct {
	ID          string   `yaml:"id"`
	Slug        string   `yaml:"slug"`
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Summary     string   `yaml:"summary"`
	Author      string   `yaml:"author"`
	Date        string   `yaml:"date"`
	Tags        []string `yaml:"tags"`
	Draft       bool     `yaml:"draft"`
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParsePost builds a post from a markdown file's content. The YAML
// frontmatter block is optional; without it the title and id come from the
// file name.
func ParsePost(path string, content []byte) (*types.Post, error) {
	meta, err := splitFrontmatter(content)
	if err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeFrontmatter, err.Error()).WithFile(path)
	}

	var fm frontmatter
	if len(meta) > 0 {
		if err := yaml.Unmarshal(meta, &fm); err != nil {
			return nil, errors.NewValidationError(errors.ErrCodeFrontmatter,
				fmt.Sprintf("failed to parse frontmatter: %v", err)).WithFile(path)
		}
	}

	post := &types.Post{
		Title:       strings.TrimSpace(fm.Title),
		Description: strings.TrimSpace(fm.Description),
		Author:      strings.TrimSpace(fm.Author),
		Tags:        fm.Tags,
		Draft:       fm.Draft,
		FilePath:    path,
	}
	if post.Description == "" {
		post.Description = strings.TrimSpace(fm.Summary)
	}

	if fm.Date != "" {
		date, err := parseDate(fm.Date)
		if err != nil {
			return nil, errors.NewValidationError(errors.ErrCodeFrontmatter, err.Error()).
				WithFile(path).WithContext("date", fm.Date)
		}
		post.Date = date
	}

	name := baseName(path)
	switch {
	case fm.Slug != "":
		post.ID = Slugify(fm.Slug)
	case fm.ID != "":
		post.ID = Slugify(fm.ID)
	default:
		post.ID = Slugify(name)
	}
	if post.ID == "" {
		return nil, errors.NewValidationError(errors.ErrCodeFrontmatter, "post has no usable id").WithFile(path)
	}

	if post.Title == "" {
		post.Title = cases.Title(language.English).String(strings.NewReplacer("-", " ", "_", " ").Replace(name))
	}
	return post, nil
}

// splitFrontmatter returns the YAML between the leading --- delimiters, or
// nil when the content has no frontmatter.
func splitFrontmatter(content []byte) ([]byte, error) {
	content = bytes.TrimPrefix(content, []byte("\ufeff"))
	first, rest, found := bytes.Cut(content, []byte("\n"))
	if !found || strings.TrimSpace(string(first)) != delimiter {
		return nil, nil
	}

	for len(rest) > 0 {
		var line []byte
		offset := len(content) - len(rest)
		line, rest, _ = bytes.Cut(rest, []byte("\n"))
		if strings.TrimSpace(string(line)) == delimiter {
			start := len(first) + 1
			return content[start:offset], nil
		}
	}
	return nil, fmt.Errorf("invalid frontmatter: missing closing %s delimiter", delimiter)
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD or RFC 3339", s)
}

// baseName is the file name without extension. Page bundles (index.md)
// are named after their directory.
func baseName(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if strings.EqualFold(name, "index") || strings.EqualFold(name, "_index") {
		name = filepath.Base(filepath.Dir(path))
	}
	return name
}

var foldings = strings.NewReplacer(
	"æ", "ae", "Æ", "ae",
	"ø", "oe", "Ø", "oe",
	"å", "aa", "Å", "aa",
	"ß", "ss",
	"œ", "oe", "Œ", "oe",
	"đ", "d", "Đ", "d",
	"ł", "l", "Ł", "l",
)

// Slugify turns s into a lowercase, hyphen-separated ASCII identifier.
// Letters without a decomposition (æ, ø, ß) are folded explicitly, the rest
// lose their diacritics through NFD decomposition.
func Slugify(s string) string {
	// Transformers are stateful and built per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, foldings.Replace(s))
	if err != nil {
		folded = s
	}
	folded = cases.Lower(language.Und).String(folded)

	var b strings.Builder
	hyphen := false
	for _, r := range folded {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			if hyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			hyphen = false
			b.WriteRune(r)
		default:
			hyphen = true
		}
	}
	return b.String()
}
