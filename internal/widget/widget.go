// Package widget provides the terminal layout primitives slides are built
// from. Widgets are rendered to a list of styled lines at a given width.
package widget

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/gubarz/mdslides/internal/style"
)

// Widget is anything that can be drawn into a slide
type Widget interface {
	// Render draws the widget into lines no wider than width
	Render(width int) []string
	// PackedWidth is the smallest width the widget fits in without wrapping
	PackedWidth() int
}

// Container is a widget that holds other widgets
type Container interface {
	Widget
	Add(children ...Widget)
	Children() []Widget
	SetChildren(children []Widget)
}

// Align controls horizontal placement
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// ParseAlign converts a css text-align value
func ParseAlign(s string) Align {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "center":
		return AlignCenter
	case "right":
		return AlignRight
	}
	return AlignLeft
}

// String renders a widget into a single newline separated string
func String(w Widget, width int) string {
	return strings.Join(w.Render(width), "\n")
}

// Width returns the display width of a possibly styled line
func Width(line string) int {
	return lipgloss.Width(line)
}

// padLine pads or aligns a styled line to exactly width cells
func padLine(line string, width int, align Align) string {
	w := Width(line)
	if w >= width {
		return line
	}
	gap := width - w
	switch align {
	case AlignCenter:
		left := gap / 2
		return strings.Repeat(" ", left) + line + strings.Repeat(" ", gap-left)
	case AlignRight:
		return strings.Repeat(" ", gap) + line
	}
	return line + strings.Repeat(" ", gap)
}

// ============================================================================
// Pile
// ============================================================================

// Pile stacks its children vertically
type Pile struct {
	children []Widget
}

// NewPile creates a pile
func NewPile(children ...Widget) *Pile {
	return &Pile{children: children}
}

func (p *Pile) Add(children ...Widget) {
	p.children = append(p.children, children...)
}

func (p *Pile) Children() []Widget {
	return p.children
}

func (p *Pile) SetChildren(children []Widget) {
	p.children = children
}

func (p *Pile) Render(width int) []string {
	var lines []string
	for _, c := range p.children {
		lines = append(lines, c.Render(width)...)
	}
	return lines
}

func (p *Pile) PackedWidth() int {
	w := 0
	for _, c := range p.children {
		w = max(w, c.PackedWidth())
	}
	return w
}

// ============================================================================
// Divider
// ============================================================================

// Divider is a horizontal line, or blank space when Char is empty
type Divider struct {
	Char   string
	Style  style.Spec
	Top    int
	Bottom int
}

// NewDivider creates a single blank line
func NewDivider() *Divider {
	return &Divider{}
}

// IsDivider reports whether w is a divider
func IsDivider(w Widget) bool {
	_, ok := w.(*Divider)
	return ok
}

func (d *Divider) Render(width int) []string {
	lines := make([]string, 0, d.Top+d.Bottom+1)
	for i := 0; i < d.Top; i++ {
		lines = append(lines, "")
	}
	line := ""
	if cw := Width(d.Char); cw > 0 && width > 0 {
		line = d.Style.Render(strings.Repeat(d.Char, width/cw))
	}
	lines = append(lines, line)
	for i := 0; i < d.Bottom; i++ {
		lines = append(lines, "")
	}
	return lines
}

func (d *Divider) PackedWidth() int {
	return Width(d.Char)
}

// ============================================================================
// Padding
// ============================================================================

// Padding indents a widget and optionally clamps its width
type Padding struct {
	W     Widget
	Left  int
	Right int
	Width int // fixed inner width, 0 fills the available space
	Align Align
}

func (p *Padding) Render(width int) []string {
	inner := width - p.Left - p.Right
	if p.Width > 0 && p.Width < inner {
		inner = p.Width
	}
	if inner < 1 {
		inner = 1
	}
	avail := max(width-p.Left-p.Right, inner)

	prefix := strings.Repeat(" ", p.Left)
	lines := p.W.Render(inner)
	for i, l := range lines {
		if avail > inner {
			l = padLine(padLine(l, inner, AlignLeft), avail, p.Align)
		}
		lines[i] = prefix + l
	}
	return lines
}

func (p *Padding) PackedWidth() int {
	return p.W.PackedWidth() + p.Left + p.Right
}

// ============================================================================
// Styled
// ============================================================================

// Styled attaches a style to a widget. Foreground styling is carried by the
// text spans themselves, so only a background is painted here.
type Styled struct {
	W     Widget
	Style style.Spec
}

// Wrap styles w, returning w untouched for an empty spec
func Wrap(w Widget, spec style.Spec) Widget {
	if spec.IsZero() {
		return w
	}
	return &Styled{W: w, Style: spec}
}

// Unwrap returns the widget inside any styling
func Unwrap(w Widget) Widget {
	for {
		s, ok := w.(*Styled)
		if !ok {
			return w
		}
		w = s.W
	}
}

func (s *Styled) Render(width int) []string {
	lines := s.W.Render(width)
	bg, _ := style.Split(s.Style.Background)
	if bg == "" || bg == "default" {
		return lines
	}
	paint := style.New("", s.Style.Background)
	for i, l := range lines {
		lines[i] = paint.Render(padLine(l, width, AlignLeft))
	}
	return lines
}

func (s *Styled) PackedWidth() int {
	return s.W.PackedWidth()
}

// ============================================================================
// LineBox
// ============================================================================

// LineBox draws a side line with optional corners to the left of a widget
type LineBox struct {
	W            Widget
	Side         string
	TopCorner    string
	BottomCorner string
	Style        style.Spec
}

func (b *LineBox) Render(width int) []string {
	gutter := Width(b.Side) + 1
	var lines []string
	if b.TopCorner != "" {
		lines = append(lines, b.Style.Render(b.TopCorner))
	}
	for _, l := range b.W.Render(max(width-gutter, 1)) {
		lines = append(lines, b.Style.Render(b.Side)+" "+l)
	}
	if b.BottomCorner != "" {
		lines = append(lines, b.Style.Render(b.BottomCorner))
	}
	return lines
}

func (b *LineBox) PackedWidth() int {
	return b.W.PackedWidth() + Width(b.Side) + 1
}
