package layout

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// Ellipsis marks a line truncated by MaxLines.
const Ellipsis = "…"

type line struct {
	text  string
	width float64
}

func newLine(face font.Face, s string) line {
	return line{text: s, width: advance(face, s)}
}

func advance(face font.Face, s string) float64 {
	return toFloat(font.MeasureString(face, s))
}

// wrap breaks text into lines no wider than maxW. Runs of whitespace
// collapse to a single space, newlines start a new paragraph, and words
// wider than maxW are split between runes. When maxLines is positive the
// result is cut to that many lines and the last one ends in an ellipsis.
func wrap(text string, face font.Face, maxW float64, maxLines int) []line {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var lines []line
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, line{})
			continue
		}

		current := ""
		for _, w := range words {
			if current != "" {
				candidate := current + " " + w
				if advance(face, candidate) <= maxW {
					current = candidate
					continue
				}
				lines = append(lines, newLine(face, current))
			}
			parts := breakWord(face, w, maxW)
			for _, p := range parts[:len(parts)-1] {
				lines = append(lines, newLine(face, p))
			}
			current = parts[len(parts)-1]
		}
		lines = append(lines, newLine(face, current))
	}

	if maxLines > 0 && len(lines) > maxLines {
		lines = lines[:maxLines]
		lines[maxLines-1] = newLine(face, ellipsize(face, lines[maxLines-1].text, maxW))
	}
	return lines
}

// breakWord splits word between runes into chunks no wider than maxW. The
// chunk width is accumulated the way font.MeasureString sums it, so each
// rune is measured once.
func breakWord(face font.Face, word string, maxW float64) []string {
	var parts []string
	start := 0
	var width fixed.Int26_6
	prev := rune(-1)
	for i, r := range word {
		adv, _ := face.GlyphAdvance(r)
		step := adv
		if prev >= 0 {
			step += face.Kern(prev, r)
		}
		if i > start && toFloat(width+step) > maxW {
			parts = append(parts, word[start:i])
			start = i
			width = adv
		} else {
			width += step
		}
		prev = r
	}
	return append(parts, word[start:])
}

// ellipsize drops trailing runes until s plus the ellipsis fits in maxW.
func ellipsize(face font.Face, s string, maxW float64) string {
	s = strings.TrimRight(s, " ")
	for s != "" && advance(face, s+Ellipsis) > maxW {
		_, size := utf8.DecodeLastRuneInString(s)
		s = strings.TrimRight(s[:len(s)-size], " ")
	}
	return s + Ellipsis
}
