package layout

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/ogcard/internal/errors"
	"github.com/conneroisu/ogcard/internal/fonts"
	"github.com/conneroisu/ogcard/internal/markup"
)

const longTitle = "Building a static site generator that renders social cards at build time"

func builtin(t *testing.T) *fonts.Set {
	t.Helper()
	fs, err := fonts.Builtin()
	require.NoError(t, err)
	return fs
}

func TestRenderValidatesInput(t *testing.T) {
	fs := builtin(t)

	_, err := Render(nil, fs, 1200, 630)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeLayoutFailed, errors.CodeOf(err))

	_, err = Render(markup.Box(markup.Style{}), fs, 0, 630)
	require.Error(t, err)
	assert.True(t, errors.IsRenderError(err))

	empty, err := fonts.NewSet()
	require.NoError(t, err)
	_, err = Render(markup.Box(markup.Style{}), empty, 1200, 630)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeFontNotFound, errors.CodeOf(err))
}

func TestRootCoversCanvas(t *testing.T) {
	root := markup.Box(markup.Style{Background: markup.Background{Color: "#0f172a"}})

	scene, err := Render(root, builtin(t), 1200, 630)
	require.NoError(t, err)

	assert.Equal(t, 1200, scene.Width)
	assert.Equal(t, 630, scene.Height)
	rects := scene.Rects()
	require.Len(t, rects, 1)
	assert.Equal(t, 0.0, rects[0].X)
	assert.Equal(t, 0.0, rects[0].Y)
	assert.Equal(t, 1200.0, rects[0].W)
	assert.Equal(t, 630.0, rects[0].H)
	assert.Equal(t, uint8(0x0f), rects[0].Fill.Color.R)
}

func TestTextWrapsWithinBox(t *testing.T) {
	root := markup.Box(markup.Style{Padding: markup.Uniform(50)},
		markup.Text(markup.Style{FontSize: 48}, longTitle),
	)

	scene, err := Render(root, builtin(t), 500, 630)
	require.NoError(t, err)

	runs := scene.TextRuns()
	require.Greater(t, len(runs), 1)
	assert.Equal(t, longTitle, strings.Join(scene.Text(), " "))
	for i, r := range runs {
		assert.LessOrEqual(t, r.Width, 400.0)
		assert.GreaterOrEqual(t, r.X, 50.0)
		if i > 0 {
			assert.InDelta(t, 48*1.2, r.Baseline-runs[i-1].Baseline, 0.001)
		}
	}
}

func TestMaxLinesEllipsis(t *testing.T) {
	root := markup.Box(markup.Style{},
		markup.Text(markup.Style{FontSize: 48, MaxLines: 2}, longTitle),
	)

	scene, err := Render(root, builtin(t), 400, 630)
	require.NoError(t, err)

	lines := scene.Text()
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[1], Ellipsis))
	for _, r := range scene.TextRuns() {
		assert.LessOrEqual(t, r.Width, 400.0)
	}
}

func TestSpacerPushesToEdge(t *testing.T) {
	root := markup.Box(markup.Style{Padding: markup.Uniform(40)},
		markup.Box(markup.Style{Direction: markup.Row},
			markup.Text(markup.Style{}, "left"),
			markup.Spacer(),
			markup.Text(markup.Style{}, "right"),
		),
	)

	scene, err := Render(root, builtin(t), 1200, 630)
	require.NoError(t, err)

	runs := scene.TextRuns()
	require.Len(t, runs, 2)
	assert.InDelta(t, 40, runs[0].X, 0.001)
	assert.InDelta(t, 1160, runs[1].X+runs[1].Width, 0.001)
}

func TestColumnJustifyAndTextAlign(t *testing.T) {
	root := markup.Box(markup.Style{Justify: markup.JustifyCenter, TextAlign: markup.TextAlignCenter},
		markup.Text(markup.Style{FontSize: 40, LineHeight: 1}, "centered"),
	)

	scene, err := Render(root, builtin(t), 1200, 600)
	require.NoError(t, err)

	runs := scene.TextRuns()
	require.Len(t, runs, 1)
	assert.InDelta(t, 1200, 2*runs[0].X+runs[0].Width, 0.001)
	assert.Greater(t, runs[0].Baseline, 300.0)
	assert.Less(t, runs[0].Baseline, 340.0)
}

func TestSpaceBetween(t *testing.T) {
	root := markup.Box(markup.Style{Justify: markup.JustifySpaceBetween},
		markup.Text(markup.Style{FontSize: 20, LineHeight: 1}, "top"),
		markup.Text(markup.Style{FontSize: 20, LineHeight: 1}, "bottom"),
	)

	scene, err := Render(root, builtin(t), 400, 300)
	require.NoError(t, err)

	runs := scene.TextRuns()
	require.Len(t, runs, 2)
	assert.Less(t, runs[0].Baseline, 20.0)
	assert.Greater(t, runs[1].Baseline, 280.0)
}

func TestFaceResolvesToLoadedFont(t *testing.T) {
	root := markup.Box(markup.Style{FontFamily: "Missing", FontWeight: 650},
		markup.Text(markup.Style{}, "bold"),
	)

	scene, err := Render(root, builtin(t), 400, 200)
	require.NoError(t, err)

	runs := scene.TextRuns()
	require.Len(t, runs, 1)
	assert.Equal(t, fonts.BuiltinFamily, runs[0].Face.Family)
	assert.Equal(t, 700, runs[0].Face.Weight)
}

func TestInvalidColors(t *testing.T) {
	tests := []struct {
		name string
		root *markup.Node
	}{
		{"background", markup.Box(markup.Style{Background: markup.Background{Color: "navy"}})},
		{"text", markup.Box(markup.Style{}, markup.Text(markup.Style{Color: "#12"}, "x"))},
		{"gradient stop", markup.Box(markup.Style{Background: markup.Background{
			Gradient: &markup.Gradient{X1: 1, Stops: []markup.Stop{{Offset: 0, Color: "#000"}, {Offset: 1, Color: "oops"}}},
		}})},
		{"border", markup.Box(markup.Style{Border: 2, BorderColor: ""})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Render(tt.root, builtin(t), 100, 100)
			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeInvalidColor, errors.CodeOf(err))
		})
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	fs := builtin(t)
	build := func() *markup.Node {
		return markup.Box(markup.Style{
			Padding:    markup.Uniform(60),
			Gap:        12,
			Background: markup.Background{Gradient: &markup.Gradient{X1: 1, Y1: 1, Stops: []markup.Stop{{Offset: 0, Color: "#0f172a"}, {Offset: 1, Color: "#1e293b"}}}},
		},
			markup.Text(markup.Style{FontSize: 64, FontWeight: 700, MaxLines: 3}, longTitle),
			markup.Text(markup.Style{FontSize: 28, Color: "#94a3b8"}, "example.com"),
		)
	}

	a, err := Render(build(), fs, 1200, 630)
	require.NoError(t, err)
	b, err := Render(build(), fs, 1200, 630)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestWrap(t *testing.T) {
	face, err := builtin(t).Face(fonts.FaceKey{Family: fonts.BuiltinFamily, Weight: 400, Style: fonts.StyleNormal, Size: 20})
	require.NoError(t, err)

	t.Run("blank", func(t *testing.T) {
		assert.Nil(t, wrap("  \n ", face, 100, 0))
	})

	t.Run("collapses whitespace", func(t *testing.T) {
		lines := wrap("a   b\tc", face, 1000, 0)
		require.Len(t, lines, 1)
		assert.Equal(t, "a b c", lines[0].text)
	})

	t.Run("paragraphs", func(t *testing.T) {
		lines := wrap("one\n\ntwo", face, 1000, 0)
		require.Len(t, lines, 3)
		assert.Equal(t, "", lines[1].text)
		assert.Equal(t, "two", lines[2].text)
	})

	t.Run("long word is split", func(t *testing.T) {
		word := strings.Repeat("w", 40)
		lines := wrap(word, face, 100, 0)
		require.Greater(t, len(lines), 1)
		var joined string
		for _, l := range lines {
			assert.LessOrEqual(t, l.width, 100.0)
			joined += l.text
		}
		assert.Equal(t, word, joined)
	})

	t.Run("very long word is split into fitting chunks", func(t *testing.T) {
		word := strings.Repeat("Wi", 1500)
		parts := breakWord(face, word, 150)
		require.Greater(t, len(parts), 1)
		assert.Equal(t, word, strings.Join(parts, ""))
		for _, p := range parts {
			assert.NotEmpty(t, p)
			assert.LessOrEqual(t, advance(face, p), 150.0)
		}
		assert.Equal(t, []string{"short"}, breakWord(face, "short", 1000))
	})

	t.Run("ellipsis fits", func(t *testing.T) {
		lines := wrap(longTitle, face, 120, 1)
		require.Len(t, lines, 1)
		assert.True(t, strings.HasSuffix(lines[0].text, Ellipsis))
		assert.LessOrEqual(t, lines[0].width, 120.0)
	})
}
