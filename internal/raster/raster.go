// Package raster draws vector scenes into bitmaps and encodes them in the
// configured output format.
package raster

import (
	"image"

	"github.com/fogleman/gg"

	"github.com/conneroisu/ogcard/internal/errors"
	"github.com/conneroisu/ogcard/internal/fonts"
	"github.com/conneroisu/ogcard/internal/vector"
)

// Rasterize draws scene at its own size. Text runs are drawn with faces
// created for this call only.
func Rasterize(scene *vector.Scene, fs *fonts.Set) (image.Image, error) {
	if scene == nil || scene.Width <= 0 || scene.Height <= 0 {
		return nil, errors.NewRenderError(errors.ErrCodeLayoutFailed, "scene has no drawable area", nil)
	}

	faces := fs.NewFaces()
	defer faces.Close()

	dc := gg.NewContext(scene.Width, scene.Height)
	for _, op := range scene.Ops {
		switch o := op.(type) {
		case vector.Rect:
			drawRect(dc, o)
		case vector.TextRun:
			if o.Text == "" {
				continue
			}
			face, err := faces.Get(o.Face)
			if err != nil {
				return nil, err
			}
			dc.SetFontFace(face)
			dc.SetColor(o.Color)
			dc.DrawString(o.Text, o.X, o.Baseline)
		}
	}
	return dc.Image(), nil
}

func drawRect(dc *gg.Context, r vector.Rect) {
	path := func() {
		if r.Radius > 0 {
			dc.DrawRoundedRectangle(r.X, r.Y, r.W, r.H, r.Radius)
		} else {
			dc.DrawRectangle(r.X, r.Y, r.W, r.H)
		}
	}

	path()
	if g := r.Fill.Gradient; g != nil {
		lg := gg.NewLinearGradient(
			r.X+g.X0*r.W, r.Y+g.Y0*r.H,
			r.X+g.X1*r.W, r.Y+g.Y1*r.H,
		)
		for _, s := range g.Stops {
			lg.AddColorStop(s.Offset, s.Color)
		}
		dc.SetFillStyle(lg)
	} else {
		dc.SetColor(r.Fill.Color)
	}
	dc.Fill()

	if r.StrokeWidth > 0 {
		path()
		dc.SetColor(r.Stroke)
		dc.SetLineWidth(r.StrokeWidth)
		dc.Stroke()
	}
}
