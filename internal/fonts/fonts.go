// Package fonts holds the font descriptors loaded at startup and creates
// font faces for layout and rasterization.
//
// Parsed fonts are immutable and shared by every render. Faces carry glyph
// caches and are not safe for concurrent use, so each render asks the Set
// for its own.
package fonts

import (
	"encoding/base64"
	"fmt"
	"math"
	"os"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"github.com/conneroisu/ogcard/internal/config"
	"github.com/conneroisu/ogcard/internal/errors"
)

// Font styles.
const (
	StyleNormal = "normal"
	StyleItalic = "italic"
)

// DefaultWeight is used when a descriptor or style leaves the weight unset.
const DefaultWeight = 400

// BuiltinFamily names the embedded Go fonts registered when no fonts are
// configured.
const BuiltinFamily = "Go"

// Descriptor is a font as configured: a family name, the raw file bytes, a
// numeric weight and a style tag.
type Descriptor struct {
	Family string
	Data   []byte
	Weight int
	Style  string
	Source string
}

// Font is a parsed descriptor.
type Font struct {
	Descriptor
	parsed *opentype.Font
}

// Parsed returns the shared parsed font.
func (f *Font) Parsed() *opentype.Font {
	return f.parsed
}

// FaceKey identifies a face request.
type FaceKey struct {
	Family string
	Weight int
	Style  string
	Size   float64
}

// String renders the key for logging and cache maps.
func (k FaceKey) String() string {
	return fmt.Sprintf("%s/%d/%s/%.2f", k.Family, k.Weight, k.Style, k.Size)
}

// Set is an immutable collection of parsed fonts.
type Set struct {
	fonts    []*Font
	families []string
}

// NewSet parses every descriptor. Weight 0 becomes DefaultWeight and an
// empty style becomes StyleNormal.
func NewSet(descs ...Descriptor) (*Set, error) {
	s := &Set{}
	seen := make(map[string]bool)

	for _, d := range descs {
		if d.Weight == 0 {
			d.Weight = DefaultWeight
		}
		d.Style = normalizeStyle(d.Style)

		parsed, err := opentype.Parse(d.Data)
		if err != nil {
			return nil, errors.NewIOError(errors.ErrCodeFontLoad,
				fmt.Sprintf("failed to parse font %q", d.Family), err).WithFile(d.Source)
		}

		s.fonts = append(s.fonts, &Font{Descriptor: d, parsed: parsed})
		key := strings.ToLower(d.Family)
		if !seen[key] {
			seen[key] = true
			s.families = append(s.families, d.Family)
		}
	}

	return s, nil
}

// Builtin returns the embedded Go font family.
func Builtin() (*Set, error) {
	return NewSet(
		Descriptor{Family: BuiltinFamily, Data: goregular.TTF, Weight: 400, Style: StyleNormal, Source: "gofont/goregular"},
		Descriptor{Family: BuiltinFamily, Data: gomedium.TTF, Weight: 500, Style: StyleNormal, Source: "gofont/gomedium"},
		Descriptor{Family: BuiltinFamily, Data: gobold.TTF, Weight: 700, Style: StyleNormal, Source: "gofont/gobold"},
		Descriptor{Family: BuiltinFamily, Data: goitalic.TTF, Weight: 400, Style: StyleItalic, Source: "gofont/goitalic"},
		Descriptor{Family: BuiltinFamily, Data: gobolditalic.TTF, Weight: 700, Style: StyleItalic, Source: "gofont/gobolditalic"},
	)
}

// Load reads the configured font files once. A missing or unreadable file
// is an I/O error that should abort startup. Without configured fonts the
// builtin family is used.
func Load(cfg *config.Config) (*Set, error) {
	if len(cfg.Fonts) == 0 {
		return Builtin()
	}

	descs := make([]Descriptor, 0, len(cfg.Fonts))
	for _, fc := range cfg.Fonts {
		path := cfg.ResolvePath(fc.Path)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.NewIOError(errors.ErrCodeFontLoad,
				fmt.Sprintf("failed to read font %q", fc.Family), err).WithFile(path)
		}
		descs = append(descs, Descriptor{
			Family: fc.Family,
			Data:   data,
			Weight: fc.Weight,
			Style:  fc.Style,
			Source: path,
		})
	}

	return NewSet(descs...)
}

// Len returns the number of fonts.
func (s *Set) Len() int {
	return len(s.fonts)
}

// Families returns the family names in registration order.
func (s *Set) Families() []string {
	out := make([]string, len(s.families))
	copy(out, s.families)
	return out
}

// DefaultFamily returns the first registered family.
func (s *Set) DefaultFamily() string {
	if len(s.families) == 0 {
		return ""
	}
	return s.families[0]
}

// Fonts returns every font in registration order.
func (s *Set) Fonts() []*Font {
	out := make([]*Font, len(s.fonts))
	copy(out, s.fonts)
	return out
}

// Match picks the closest font: exact family (falling back to the default
// family), then style, then nearest weight. Ties between weights resolve to
// the bolder font for weights above 500 and the lighter one otherwise.
func (s *Set) Match(family string, weight int, style string) (*Font, error) {
	if len(s.fonts) == 0 {
		return nil, errors.NewRenderError(errors.ErrCodeFontNotFound, "no fonts loaded", nil)
	}
	if weight == 0 {
		weight = DefaultWeight
	}
	style = normalizeStyle(style)

	candidates := s.byFamily(family)
	if len(candidates) == 0 {
		candidates = s.byFamily(s.DefaultFamily())
	}

	styled := make([]*Font, 0, len(candidates))
	for _, f := range candidates {
		if f.Style == style {
			styled = append(styled, f)
		}
	}
	if len(styled) > 0 {
		candidates = styled
	}

	var best *Font
	bestDist := math.MaxInt
	for _, f := range candidates {
		dist := f.Weight - weight
		if dist < 0 {
			dist = -dist
		}
		switch {
		case dist < bestDist:
			best, bestDist = f, dist
		case dist == bestDist:
			if (weight > 500 && f.Weight > best.Weight) || (weight <= 500 && f.Weight < best.Weight) {
				best = f
			}
		}
	}

	return best, nil
}

func (s *Set) byFamily(family string) []*Font {
	var out []*Font
	for _, f := range s.fonts {
		if strings.EqualFold(f.Family, family) {
			out = append(out, f)
		}
	}
	return out
}

// Face creates a new face for key. The caller owns the face and must not
// share it between goroutines.
func (s *Set) Face(key FaceKey) (font.Face, error) {
	f, err := s.Match(key.Family, key.Weight, key.Style)
	if err != nil {
		return nil, err
	}
	if key.Size <= 0 {
		return nil, errors.NewRenderError(errors.ErrCodeLayoutFailed,
			fmt.Sprintf("font size must be positive, got %v", key.Size), nil)
	}

	face, err := opentype.NewFace(f.parsed, &opentype.FaceOptions{
		Size:    key.Size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, errors.NewRenderError(errors.ErrCodeLayoutFailed,
			fmt.Sprintf("failed to create face %s", key), err)
	}
	return face, nil
}

// Faces caches faces for a single render. It is not safe for concurrent use.
type Faces struct {
	set   *Set
	cache map[FaceKey]font.Face
}

// NewFaces returns an empty per-render face cache backed by s.
func (s *Set) NewFaces() *Faces {
	return &Faces{set: s, cache: make(map[FaceKey]font.Face)}
}

// Get returns the cached face for key, creating it on first use.
func (f *Faces) Get(key FaceKey) (font.Face, error) {
	if face, ok := f.cache[key]; ok {
		return face, nil
	}
	face, err := f.set.Face(key)
	if err != nil {
		return nil, err
	}
	f.cache[key] = face
	return face, nil
}

// Close releases every cached face.
func (f *Faces) Close() error {
	var first error
	for k, face := range f.cache {
		if err := face.Close(); err != nil && first == nil {
			first = err
		}
		delete(f.cache, k)
	}
	return first
}

// FontFaceCSS renders an @font-face rule inlining the font data.
func (f *Font) FontFaceCSS() string {
	mime, format := sniffFormat(f.Data)
	return fmt.Sprintf(
		"@font-face{font-family:%s;font-weight:%d;font-style:%s;src:url(data:%s;base64,%s) format(%q);}",
		CSSString(f.Family), f.Weight, f.Style, mime, base64.StdEncoding.EncodeToString(f.Data), format,
	)
}

// CSSString quotes s as a single-quoted CSS string. Quotes, backslashes
// and characters that are markup-significant in XML are written as CSS
// escapes; control characters are dropped.
func CSSString(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for _, r := range s {
		switch {
		case r < 0x20 || r == 0x7f:
		case strings.ContainsRune(`\'"<>&]`, r):
			fmt.Fprintf(&b, "\\%x ", r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

func sniffFormat(data []byte) (mime, format string) {
	if len(data) >= 4 && string(data[:4]) == "OTTO" {
		return "font/otf", "opentype"
	}
	return "font/ttf", "truetype"
}

func normalizeStyle(style string) string {
	if strings.EqualFold(strings.TrimSpace(style), StyleItalic) {
		return StyleItalic
	}
	return StyleNormal
}
