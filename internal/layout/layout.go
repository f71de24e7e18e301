// Package layout turns a markup tree into a vector scene.
//
// Layout runs in two passes. measure computes intrinsic sizes bottom-up,
// wrapping text against the width offered by the parent. arrange then
// assigns final positions top-down, distributing free space according to
// grow factors, justification and alignment. Text is measured with the same
// faces the rasterizer draws with, so wrapped lines never overflow.
package layout

import (
	"fmt"
	"image/color"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/conneroisu/ogcard/internal/errors"
	"github.com/conneroisu/ogcard/internal/fonts"
	"github.com/conneroisu/ogcard/internal/markup"
	"github.com/conneroisu/ogcard/internal/vector"
)

// BaseStyle is the implicit style of the root's parent.
func BaseStyle(family string) markup.Style {
	return markup.Style{
		Color:      "#000000",
		FontFamily: family,
		FontSize:   16,
		FontWeight: fonts.DefaultWeight,
		FontStyle:  fonts.StyleNormal,
		LineHeight: 1.2,
		TextAlign:  markup.TextAlignStart,
	}
}

type box struct {
	node     *markup.Node
	style    markup.Style
	children []*box

	x, y, w, h float64

	face    font.Face
	faceKey fonts.FaceKey
	lines   []line
}

type engine struct {
	fonts *fonts.Set
	faces *fonts.Faces
}

// Render lays out root on a width x height canvas. The root box always
// covers the canvas unless it sets its own size.
func Render(root *markup.Node, fs *fonts.Set, width, height int) (*vector.Scene, error) {
	if root == nil {
		return nil, errors.NewRenderError(errors.ErrCodeLayoutFailed, "markup tree is empty", nil)
	}
	if width <= 0 || height <= 0 {
		return nil, errors.NewRenderError(errors.ErrCodeLayoutFailed,
			fmt.Sprintf("canvas must have a positive size, got %dx%d", width, height), nil)
	}
	if fs == nil || fs.Len() == 0 {
		return nil, errors.NewRenderError(errors.ErrCodeFontNotFound, "no fonts loaded", nil)
	}

	faces := fs.NewFaces()
	defer faces.Close()

	e := &engine{fonts: fs, faces: faces}
	b := build(root, BaseStyle(fs.DefaultFamily()))

	rootW, rootH := float64(width), float64(height)
	if b.style.Width > 0 {
		rootW = b.style.Width
	}
	if b.style.Height > 0 {
		rootH = b.style.Height
	}

	if err := e.measure(b, rootW); err != nil {
		return nil, err
	}
	e.arrange(b, 0, 0, rootW, rootH)

	scene := vector.New(width, height)
	if err := e.paint(b, scene); err != nil {
		return nil, err
	}
	return scene, nil
}

func build(n *markup.Node, parent markup.Style) *box {
	b := &box{node: n, style: n.Style.Inherit(parent)}
	for _, c := range n.Children {
		b.children = append(b.children, build(c, b.style))
	}
	return b
}

func (e *engine) measure(b *box, maxW float64) error {
	st := b.style
	outerW := maxW
	if st.Width > 0 {
		outerW = st.Width
	}
	innerW := math.Max(0, outerW-st.Padding.Horizontal())

	if b.node.Kind == markup.KindText {
		if err := e.measureText(b, innerW); err != nil {
			return err
		}
	} else {
		var err error
		if st.Direction == markup.Row {
			err = e.measureRow(b, innerW)
		} else {
			err = e.measureColumn(b, innerW)
		}
		if err != nil {
			return err
		}
	}

	if st.Width > 0 {
		b.w = st.Width
	}
	if st.Height > 0 {
		b.h = st.Height
	}
	return nil
}

func (e *engine) measureText(b *box, innerW float64) error {
	st := b.style
	f, err := e.fonts.Match(st.FontFamily, st.FontWeight, st.FontStyle)
	if err != nil {
		return err
	}
	b.faceKey = fonts.FaceKey{Family: f.Family, Weight: f.Weight, Style: f.Style, Size: st.FontSize}

	face, err := e.faces.Get(b.faceKey)
	if err != nil {
		return err
	}
	b.face = face
	b.lines = wrap(b.node.Text, face, innerW, st.MaxLines)

	widest := 0.0
	for _, l := range b.lines {
		widest = math.Max(widest, l.width)
	}
	b.w = widest + st.Padding.Horizontal()
	b.h = float64(len(b.lines))*lineHeight(st) + st.Padding.Vertical()
	return nil
}

func (e *engine) measureColumn(b *box, innerW float64) error {
	var widest, total float64
	for i, c := range b.children {
		if err := e.measure(c, innerW); err != nil {
			return err
		}
		widest = math.Max(widest, c.w)
		total += c.h
		if i > 0 {
			total += b.style.Gap
		}
	}
	b.w = widest + b.style.Padding.Horizontal()
	b.h = total + b.style.Padding.Vertical()
	return nil
}

func (e *engine) measureRow(b *box, innerW float64) error {
	n := len(b.children)
	gaps := 0.0
	if n > 1 {
		gaps = b.style.Gap * float64(n-1)
	}

	remaining := innerW - gaps
	totalGrow := 0.0
	for _, c := range b.children {
		if c.style.Grow > 0 {
			totalGrow += c.style.Grow
			continue
		}
		if err := e.measure(c, math.Max(0, remaining)); err != nil {
			return err
		}
		remaining -= c.w
	}
	for _, c := range b.children {
		if c.style.Grow <= 0 {
			continue
		}
		share := math.Max(0, remaining) * c.style.Grow / totalGrow
		if err := e.measure(c, share); err != nil {
			return err
		}
		if c.style.Width == 0 {
			c.w = share
		}
	}

	var sum, tallest float64
	for _, c := range b.children {
		sum += c.w
		tallest = math.Max(tallest, c.h)
	}
	b.w = sum + gaps + b.style.Padding.Horizontal()
	b.h = tallest + b.style.Padding.Vertical()
	return nil
}

func (e *engine) arrange(b *box, x, y, w, h float64) {
	b.x, b.y, b.w, b.h = x, y, w, h
	n := len(b.children)
	if b.node.Kind == markup.KindText || n == 0 {
		return
	}

	st := b.style
	row := st.Direction == markup.Row
	innerX, innerY := x+st.Padding.Left, y+st.Padding.Top
	innerW := math.Max(0, w-st.Padding.Horizontal())
	innerH := math.Max(0, h-st.Padding.Vertical())

	main, cross := innerH, innerW
	if row {
		main, cross = innerW, innerH
	}

	sizes := make([]float64, n)
	gap := st.Gap
	used := gap * float64(n-1)
	totalGrow := 0.0
	for i, c := range b.children {
		if row {
			sizes[i] = c.w
		} else {
			sizes[i] = c.h
		}
		used += sizes[i]
		totalGrow += math.Max(0, c.style.Grow)
	}

	free := main - used
	if free > 0 && totalGrow > 0 {
		for i, c := range b.children {
			if c.style.Grow > 0 {
				sizes[i] += free * c.style.Grow / totalGrow
			}
		}
		free = 0
	}

	offset := 0.0
	if free > 0 {
		switch st.Justify {
		case markup.JustifyCenter:
			offset = free / 2
		case markup.JustifyEnd:
			offset = free
		case markup.JustifySpaceBetween:
			if n > 1 {
				gap += free / float64(n-1)
			}
		}
	}

	pos := offset
	for i, c := range b.children {
		crossSize, explicit := c.w, c.style.Width
		if row {
			crossSize, explicit = c.h, c.style.Height
		}

		crossOff := 0.0
		switch st.Align {
		case markup.AlignStretch:
			if explicit == 0 {
				crossSize = cross
			}
		case markup.AlignCenter:
			crossOff = (cross - crossSize) / 2
		case markup.AlignEnd:
			crossOff = cross - crossSize
		}

		if row {
			e.arrange(c, innerX+pos, innerY+crossOff, sizes[i], crossSize)
		} else {
			e.arrange(c, innerX+crossOff, innerY+pos, crossSize, sizes[i])
		}
		pos += sizes[i] + gap
	}
}

func (e *engine) paint(b *box, scene *vector.Scene) error {
	st := b.style

	if !st.Background.IsZero() || st.Border > 0 {
		rect := vector.Rect{X: b.x, Y: b.y, W: b.w, H: b.h, Radius: st.Radius}
		fill, err := resolvePaint(st.Background)
		if err != nil {
			return err
		}
		rect.Fill = fill
		if st.Border > 0 {
			stroke, err := parseColor(st.BorderColor)
			if err != nil {
				return err
			}
			rect.Stroke, rect.StrokeWidth = stroke, st.Border
		}
		scene.Add(rect)
	}

	if b.node.Kind == markup.KindText && len(b.lines) > 0 {
		col, err := parseColor(st.Color)
		if err != nil {
			return err
		}

		m := b.face.Metrics()
		ascent, descent := toFloat(m.Ascent), toFloat(m.Descent)
		lh := lineHeight(st)
		contentW := b.w - st.Padding.Horizontal()

		for i, l := range b.lines {
			x := b.x + st.Padding.Left
			switch st.TextAlign {
			case markup.TextAlignCenter:
				x += (contentW - l.width) / 2
			case markup.TextAlignEnd:
				x += contentW - l.width
			}
			top := b.y + st.Padding.Top + float64(i)*lh
			scene.Add(vector.TextRun{
				X:        x,
				Baseline: top + (lh-(ascent+descent))/2 + ascent,
				Width:    l.width,
				Text:     l.text,
				Face:     b.faceKey,
				Color:    col,
			})
		}
	}

	for _, c := range b.children {
		if err := e.paint(c, scene); err != nil {
			return err
		}
	}
	return nil
}

func resolvePaint(bg markup.Background) (vector.Paint, error) {
	if bg.Gradient == nil {
		if bg.Color == "" {
			return vector.Paint{}, nil
		}
		c, err := parseColor(bg.Color)
		return vector.Paint{Color: c}, err
	}

	g := &vector.Gradient{X0: bg.Gradient.X0, Y0: bg.Gradient.Y0, X1: bg.Gradient.X1, Y1: bg.Gradient.Y1}
	for _, s := range bg.Gradient.Stops {
		c, err := parseColor(s.Color)
		if err != nil {
			return vector.Paint{}, err
		}
		g.Stops = append(g.Stops, vector.Stop{Offset: s.Offset, Color: c})
	}
	if len(g.Stops) == 0 {
		return vector.Paint{}, errors.NewRenderError(errors.ErrCodeLayoutFailed, "gradient has no stops", nil)
	}
	return vector.Paint{Gradient: g}, nil
}

func parseColor(s string) (color.NRGBA, error) {
	c, err := markup.ParseColor(s)
	if err != nil {
		return c, errors.NewRenderError(errors.ErrCodeInvalidColor, "invalid color", err).
			WithContext("color", s)
	}
	return c, nil
}

func lineHeight(st markup.Style) float64 {
	return st.FontSize * st.LineHeight
}

func toFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
