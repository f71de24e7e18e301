// Package vector holds the resolution-independent scene produced by layout:
// an ordered list of painted rectangles and positioned text runs.
package vector

import (
	"image/color"

	"github.com/conneroisu/ogcard/internal/fonts"
)

// Op is a drawing operation. Ops paint in order.
type Op interface {
	isOp()
}

// Paint is a solid color or a linear gradient.
type Paint struct {
	Color    color.NRGBA
	Gradient *Gradient
}

// Gradient is a linear gradient whose endpoints are fractions of the
// painted rectangle.
type Gradient struct {
	X0, Y0, X1, Y1 float64
	Stops          []Stop
}

// Stop is a resolved gradient stop.
type Stop struct {
	Offset float64
	Color  color.NRGBA
}

// Rect is a filled, optionally rounded and stroked rectangle.
type Rect struct {
	X, Y, W, H  float64
	Radius      float64
	Fill        Paint
	Stroke      color.NRGBA
	StrokeWidth float64
}

// TextRun is a single line of text drawn from its baseline origin.
type TextRun struct {
	X, Baseline float64
	Width       float64
	Text        string
	Face        fonts.FaceKey
	Color       color.NRGBA
}

func (Rect) isOp()    {}
func (TextRun) isOp() {}

// Scene is a complete vector image.
type Scene struct {
	Width, Height int
	Ops           []Op
}

// New returns an empty scene of the given size.
func New(width, height int) *Scene {
	return &Scene{Width: width, Height: height}
}

// Add appends an operation.
func (s *Scene) Add(op Op) {
	s.Ops = append(s.Ops, op)
}

// Rects returns the rectangle operations in paint order.
func (s *Scene) Rects() []Rect {
	var out []Rect
	for _, op := range s.Ops {
		if r, ok := op.(Rect); ok {
			out = append(out, r)
		}
	}
	return out
}

// TextRuns returns the text operations in paint order.
func (s *Scene) TextRuns() []TextRun {
	var out []TextRun
	for _, op := range s.Ops {
		if t, ok := op.(TextRun); ok {
			out = append(out, t)
		}
	}
	return out
}

// Text concatenates every text run, one per line.
func (s *Scene) Text() []string {
	runs := s.TextRuns()
	out := make([]string, len(runs))
	for i, r := range runs {
		out[i] = r.Text
	}
	return out
}
