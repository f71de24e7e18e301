package vector

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"sort"
	"strings"

	svg "github.com/ajstarks/svgo"

	"github.com/conneroisu/ogcard/internal/fonts"
	"github.com/conneroisu/ogcard/internal/markup"
)

// WriteSVG serializes the scene. With embedFont set, every font the scene
// uses is inlined as a base64 @font-face rule so the file renders the same
// without the fonts installed.
func (s *Scene) WriteSVG(w io.Writer, fs *fonts.Set, embedFont bool) error {
	canvas := svg.New(w)
	canvas.Start(s.Width, s.Height)

	gradients := make(map[int]string)
	for i, op := range s.Ops {
		if r, ok := op.(Rect); ok && r.Fill.Gradient != nil {
			gradients[i] = fmt.Sprintf("g%d", i)
		}
	}

	var css string
	if embedFont && fs != nil {
		var err error
		css, err = s.fontFaces(fs)
		if err != nil {
			return err
		}
	}

	if len(gradients) > 0 || css != "" {
		canvas.Def()
		if css != "" {
			canvas.Style("text/css", css)
		}
		for i, op := range s.Ops {
			id, ok := gradients[i]
			if !ok {
				continue
			}
			g := op.(Rect).Fill.Gradient
			stops := make([]svg.Offcolor, len(g.Stops))
			for j, st := range g.Stops {
				stops[j] = svg.Offcolor{
					Offset:  percent(st.Offset),
					Color:   rgbHex(st.Color),
					Opacity: float64(st.Color.A) / 255,
				}
			}
			canvas.LinearGradient(id, percent(g.X0), percent(g.Y0), percent(g.X1), percent(g.Y1), stops)
		}
		canvas.DefEnd()
	}

	for i, op := range s.Ops {
		switch o := op.(type) {
		case Rect:
			style := rectStyle(o, gradients[i])
			x, y, rw, rh := round(o.X), round(o.Y), round(o.W), round(o.H)
			if o.Radius > 0 {
				canvas.Roundrect(x, y, rw, rh, round(o.Radius), round(o.Radius), style)
			} else {
				canvas.Rect(x, y, rw, rh, style)
			}
		case TextRun:
			canvas.Text(round(o.X), round(o.Baseline), o.Text, textStyle(o))
		}
	}

	canvas.End()
	return nil
}

func (s *Scene) fontFaces(fs *fonts.Set) (string, error) {
	used := make(map[*fonts.Font]bool)
	for _, t := range s.TextRuns() {
		f, err := fs.Match(t.Face.Family, t.Face.Weight, t.Face.Style)
		if err != nil {
			return "", err
		}
		used[f] = true
	}

	rules := make([]string, 0, len(used))
	for f := range used {
		rules = append(rules, f.FontFaceCSS())
	}
	sort.Strings(rules)
	return strings.Join(rules, "\n"), nil
}

func rectStyle(r Rect, gradientID string) string {
	var b strings.Builder
	if gradientID != "" {
		fmt.Fprintf(&b, "fill:url(#%s)", gradientID)
	} else {
		b.WriteString(fillStyle("fill", r.Fill.Color))
	}
	if r.StrokeWidth > 0 {
		fmt.Fprintf(&b, ";%s;stroke-width:%g", fillStyle("stroke", r.Stroke), r.StrokeWidth)
	}
	return b.String()
}

func textStyle(t TextRun) string {
	return fmt.Sprintf("font-family:%s;font-size:%gpx;font-weight:%d;font-style:%s;white-space:pre;%s",
		fonts.CSSString(t.Face.Family), t.Face.Size, t.Face.Weight, t.Face.Style, fillStyle("fill", t.Color))
}

func fillStyle(prop string, c color.NRGBA) string {
	if c.A == 0xff {
		return fmt.Sprintf("%s:%s", prop, rgbHex(c))
	}
	return fmt.Sprintf("%s:%s;%s-opacity:%.3f", prop, rgbHex(c), prop, float64(c.A)/255)
}

func rgbHex(c color.NRGBA) string {
	c.A = 0xff
	return markup.Hex(c)
}

func percent(f float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, f)) * 100))
}

func round(f float64) int {
	return int(math.Round(f))
}
