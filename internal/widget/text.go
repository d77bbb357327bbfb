package widget

import (
	"strings"

	"github.com/gubarz/mdslides/internal/style"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"
)

// Span is a run of text sharing one style
type Span struct {
	Text  string
	Style style.Spec
}

// Text is a block of styled, word wrapped text
type Text struct {
	Spans  []Span
	Align  Align
	NoWrap bool
}

// NewText creates a text widget
func NewText(spans ...Span) *Text {
	return &Text{Spans: spans}
}

// PlainText returns the text without styling
func (t *Text) PlainText() string {
	var sb strings.Builder
	for _, s := range t.Spans {
		sb.WriteString(s.Text)
	}
	return sb.String()
}

// logicalLines groups spans into lines split at embedded newlines
func (t *Text) logicalLines() [][]Span {
	lines := [][]Span{{}}
	for _, s := range t.Spans {
		parts := strings.Split(s.Text, "\n")
		for i, part := range parts {
			if i > 0 {
				lines = append(lines, []Span{})
			}
			if part != "" {
				lines[len(lines)-1] = append(lines[len(lines)-1], Span{Text: part, Style: s.Style})
			}
		}
	}
	return lines
}

func (t *Text) Render(width int) []string {
	if width < 1 {
		width = 1
	}
	var out []string
	for _, spans := range t.logicalLines() {
		var sb strings.Builder
		for _, s := range spans {
			sb.WriteString(s.Style.Render(s.Text))
		}
		line := sb.String()
		if !t.NoWrap {
			line = wrap.String(wordwrap.String(line, width), width)
		}
		for _, l := range strings.Split(line, "\n") {
			if t.Align != AlignLeft {
				l = padLine(strings.TrimRight(l, " "), width, t.Align)
			}
			out = append(out, l)
		}
	}
	return out
}

func (t *Text) PackedWidth() int {
	w := 0
	for _, line := range strings.Split(t.PlainText(), "\n") {
		w = max(w, runewidth.StringWidth(line))
	}
	return w
}
