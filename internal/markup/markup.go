// Package markup defines the layout tree that templates produce and the
// layout engine consumes.
//
// A tree is made of boxes and text leaves. Boxes arrange their children in
// a row or a column, flexbox style. Text properties (color, font, size,
// alignment) are inherited from the nearest ancestor that sets them.
package markup

// Kind distinguishes boxes from text leaves.
type Kind int

const (
	KindBox Kind = iota
	KindText
)

// Direction is the main axis of a box.
type Direction int

const (
	Column Direction = iota
	Row
)

// Justify distributes children along the main axis.
type Justify int

const (
	JustifyStart Justify = iota
	JustifyCenter
	JustifyEnd
	JustifySpaceBetween
)

// Align positions children on the cross axis.
type Align int

const (
	AlignStretch Align = iota
	AlignStart
	AlignCenter
	AlignEnd
)

// TextAlign positions lines inside a text node.
type TextAlign int

const (
	TextAlignInherit TextAlign = iota
	TextAlignStart
	TextAlignCenter
	TextAlignEnd
)

// Edges holds per-side spacing in pixels.
type Edges struct {
	Top, Right, Bottom, Left float64
}

// Uniform returns edges with the same value on every side.
func Uniform(v float64) Edges {
	return Edges{Top: v, Right: v, Bottom: v, Left: v}
}

// Symmetric returns edges with vertical and horizontal values.
func Symmetric(vertical, horizontal float64) Edges {
	return Edges{Top: vertical, Right: horizontal, Bottom: vertical, Left: horizontal}
}

// Horizontal returns left + right.
func (e Edges) Horizontal() float64 { return e.Left + e.Right }

// Vertical returns top + bottom.
func (e Edges) Vertical() float64 { return e.Top + e.Bottom }

// Gradient is a linear gradient. Start and end points are fractions of the
// painted box (0,0 top-left to 1,1 bottom-right).
type Gradient struct {
	X0, Y0, X1, Y1 float64
	Stops          []Stop
}

// Stop is a gradient color stop.
type Stop struct {
	Offset float64
	Color  string
}

// Background paints a box. Gradient wins over Color when both are set.
type Background struct {
	Color    string
	Gradient *Gradient
}

// IsZero reports whether nothing would be painted.
func (b Background) IsZero() bool {
	return b.Color == "" && b.Gradient == nil
}

// Style carries both box and text properties. Zero values mean "unset":
// auto size, no padding, inherited text properties.
type Style struct {
	Width, Height float64
	Grow          float64
	Padding       Edges
	Gap           float64
	Direction     Direction
	Justify       Justify
	Align         Align
	Background    Background
	Radius        float64
	Border        float64
	BorderColor   string

	Color      string
	FontFamily string
	FontSize   float64
	FontWeight int
	FontStyle  string
	LineHeight float64
	MaxLines   int
	TextAlign  TextAlign
}

// Inherit fills unset text properties from parent.
func (s Style) Inherit(parent Style) Style {
	if s.Color == "" {
		s.Color = parent.Color
	}
	if s.FontFamily == "" {
		s.FontFamily = parent.FontFamily
	}
	if s.FontSize == 0 {
		s.FontSize = parent.FontSize
	}
	if s.FontWeight == 0 {
		s.FontWeight = parent.FontWeight
	}
	if s.FontStyle == "" {
		s.FontStyle = parent.FontStyle
	}
	if s.LineHeight == 0 {
		s.LineHeight = parent.LineHeight
	}
	if s.TextAlign == TextAlignInherit {
		s.TextAlign = parent.TextAlign
	}
	return s
}

// Node is one element of the layout tree.
type Node struct {
	Kind     Kind
	Style    Style
	Text     string
	Children []*Node
}

// Box creates a container node. Nil children are dropped so templates can
// include optional parts inline.
func Box(style Style, children ...*Node) *Node {
	kept := make([]*Node, 0, len(children))
	for _, c := range children {
		if c != nil {
			kept = append(kept, c)
		}
	}
	return &Node{Kind: KindBox, Style: style, Children: kept}
}

// Text creates a text leaf.
func Text(style Style, text string) *Node {
	return &Node{Kind: KindText, Style: style, Text: text}
}

// Spacer creates an empty box that absorbs free space on the main axis.
func Spacer() *Node {
	return &Node{Kind: KindBox, Style: Style{Grow: 1}}
}

// If returns n when cond holds and nil otherwise.
func If(cond bool, n func() *Node) *Node {
	if !cond {
		return nil
	}
	return n()
}

// Walk visits n and its descendants depth first. Returning false from fn
// skips the node's children.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children {
		Walk(c, fn)
	}
}

// Count returns the number of nodes in the tree rooted at n.
func Count(n *Node) int {
	total := 0
	Walk(n, func(*Node) bool {
		total++
		return true
	})
	return total
}
