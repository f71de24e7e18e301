package vector

import (
	"bytes"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/ogcard/internal/fonts"
)

func testScene() *Scene {
	s := New(1200, 630)
	s.Add(Rect{W: 1200, H: 630, Fill: Paint{Gradient: &Gradient{
		X1: 1, Y1: 1,
		Stops: []Stop{
			{Offset: 0, Color: color.NRGBA{0x0f, 0x17, 0x2a, 0xff}},
			{Offset: 1, Color: color.NRGBA{0x1e, 0x29, 0x3b, 0xff}},
		},
	}}})
	s.Add(Rect{X: 60, Y: 500, W: 200, H: 48, Radius: 12, Fill: Paint{Color: color.NRGBA{0x38, 0xbd, 0xf8, 0x80}}})
	s.Add(TextRun{
		X: 60, Baseline: 120, Width: 300,
		Text:  "Tips & <tricks>",
		Face:  fonts.FaceKey{Family: fonts.BuiltinFamily, Weight: 700, Style: fonts.StyleNormal, Size: 64},
		Color: color.NRGBA{0xf8, 0xfa, 0xfc, 0xff},
	})
	return s
}

func writeSVG(t *testing.T, s *Scene, embed bool) string {
	t.Helper()
	fs, err := fonts.Builtin()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, s.WriteSVG(&buf, fs, embed))
	return buf.String()
}

func TestWriteSVG(t *testing.T) {
	out := writeSVG(t, testScene(), false)

	assert.Contains(t, out, `width="1200"`)
	assert.Contains(t, out, `height="630"`)
	assert.Contains(t, out, `<linearGradient id="g0"`)
	assert.Contains(t, out, "fill:url(#g0)")
	assert.Contains(t, out, `rx="12"`)
	assert.Contains(t, out, "fill-opacity:0.502")
	assert.Contains(t, out, "Tips &amp; &lt;tricks&gt;")
	assert.Contains(t, out, "font-weight:700")
	assert.NotContains(t, out, "@font-face")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "</svg>"))
}

func TestWriteSVGEmbedsUsedFonts(t *testing.T) {
	out := writeSVG(t, testScene(), true)

	assert.Equal(t, 1, strings.Count(out, "@font-face"))
	assert.Contains(t, out, "font-weight:700")
	assert.Contains(t, out, "data:font/ttf;base64,")
}

func TestWriteSVGQuotesFontFamily(t *testing.T) {
	s := New(100, 100)
	s.Add(TextRun{
		X: 10, Baseline: 50, Width: 80,
		Text:  "x",
		Face:  fonts.FaceKey{Family: `Bob's "Display"`, Weight: 400, Style: fonts.StyleNormal, Size: 20},
		Color: color.NRGBA{A: 0xff},
	})

	out := writeSVG(t, s, false)
	assert.Contains(t, out, `font-family:'Bob\27 s \22 Display\22 '`)
	assert.NotContains(t, out, `Bob's`)
	assert.NotContains(t, out, `"Display"`)
}

func TestWriteSVGWithoutText(t *testing.T) {
	s := New(10, 10)
	s.Add(Rect{W: 10, H: 10, Fill: Paint{Color: color.NRGBA{A: 0xff}}})

	out := writeSVG(t, s, true)
	assert.NotContains(t, out, "<defs>")
	assert.Contains(t, out, "fill:#000000")
}

func TestSceneAccessors(t *testing.T) {
	s := testScene()
	assert.Len(t, s.Rects(), 2)
	assert.Len(t, s.TextRuns(), 1)
	assert.Equal(t, []string{"Tips & <tricks>"}, s.Text())
}
