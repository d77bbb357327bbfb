package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gubarz/mdslides/internal/config"
	"github.com/gubarz/mdslides/internal/parser"
	"github.com/gubarz/mdslides/internal/style"
	"github.com/gubarz/mdslides/internal/widget"
)

func specFromDef(d config.StyleDef) style.Spec {
	return style.New(d.Fg, d.Bg)
}

// ============================================================================
// Headings
// ============================================================================

func renderHeadingOpen(tok *parser.Token, ctx *Context) error {
	hs := ctx.Styles().Heading(tok.HeadingLevel())
	if err := ctx.EnsureNewBlock(); err != nil {
		return err
	}
	ctx.SpecPush(style.New(hs.Fg, hs.Bg), true)
	ctx.InlinePush(widget.Span{Text: hs.Prefix, Style: ctx.SpecText()})
	return nil
}

func renderHeadingClose(tok *parser.Token, ctx *Context) error {
	hs := ctx.Styles().Heading(tok.HeadingLevel())
	ctx.InlinePush(widget.Span{Text: hs.Suffix, Style: ctx.SpecText()})
	if err := ctx.InlineFlush(); err != nil {
		return err
	}
	if err := ctx.SpecPop(); err != nil {
		return err
	}
	return ctx.WidgetAdd(widget.NewDivider())
}

// ============================================================================
// Paragraphs and inline content
// ============================================================================

func renderParagraphOpen(tok *parser.Token, ctx *Context) error {
	if tok.Hidden {
		return nil
	}
	return ctx.EnsureNewBlock()
}

func renderParagraphClose(tok *parser.Token, ctx *Context) error {
	if err := ctx.InlineFlush(); err != nil {
		return err
	}
	if tok.Hidden {
		return nil
	}
	return ctx.WidgetAdd(widget.NewDivider())
}

func renderInline(tok *parser.Token, ctx *Context) error {
	return ctx.RenderTokens(tok.Children, true)
}

// ============================================================================
// Block quotes
// ============================================================================

func renderBlockquoteOpen(tok *parser.Token, ctx *Context) error {
	qs := ctx.Styles().Quote
	if err := ctx.EnsureNewBlock(); err != nil {
		return err
	}
	pile := widget.NewPile()
	box := &widget.LineBox{
		W:            pile,
		Side:         qs.Side,
		TopCorner:    qs.TopCorner,
		BottomCorner: qs.BottomCorner,
		Style:        specFromDef(qs.Style),
	}
	ctx.ContainerPush(pile, true, box)
	ctx.SpecPush(specFromDef(qs.Style), false)
	return nil
}

func renderBlockquoteClose(tok *parser.Token, ctx *Context) error {
	if err := ctx.InlineFlush(); err != nil {
		return err
	}
	if err := ctx.SpecPop(); err != nil {
		return err
	}
	pile, err := ctx.ContainerPop()
	if err != nil {
		return err
	}
	stripOuterDividers(pile)
	return ctx.WidgetAdd(widget.NewDivider())
}

// stripOuterDividers removes a single leading and trailing divider
func stripOuterDividers(c widget.Container) {
	children := c.Children()
	if len(children) > 0 && widget.IsDivider(children[0]) {
		children = children[1:]
	}
	if len(children) > 0 && widget.IsDivider(children[len(children)-1]) {
		children = children[:len(children)-1]
	}
	c.SetChildren(children)
}

// ============================================================================
// Code
// ============================================================================

func renderFence(tok *parser.Token, ctx *Context) error {
	lang, attrs := parser.ParseFenceInfo(tok.Info)
	return renderCode(ctx, tok.Content, lang, attrs)
}

func renderCodeBlock(tok *parser.Token, ctx *Context) error {
	return renderCode(ctx, tok.Content, "text", nil)
}

var lineNumberSpec = style.New("#777", "")

func renderCode(ctx *Context, code, lang string, attrs map[string]string) error {
	if lang == "" {
		lang = "text"
	}
	if err := ctx.EnsureNewBlock(); err != nil {
		return err
	}

	code = strings.TrimRight(code, "\n")
	spans, bg := ctx.Config().Highlighter.Highlight(code, lang, ctx.Styles().Style)

	if parser.AttrBool(attrs["line_numbers"]) {
		start := 1
		if v, err := strconv.Atoi(attrs["start_line"]); err == nil {
			start = v
		}
		spans = numberLines(spans, start)
	}

	text := &widget.Text{Spans: spans}
	w := widget.Wrap(&widget.Padding{W: text, Left: 1, Right: 1}, bg)
	return ctx.WidgetAdd(w, widget.NewDivider())
}

// numberLines prefixes every line of highlighted code with its number
func numberLines(spans []widget.Span, start int) []widget.Span {
	var lines [][]widget.Span
	curr := []widget.Span{}
	for _, s := range spans {
		parts := strings.Split(s.Text, "\n")
		for i, part := range parts {
			if i > 0 {
				lines = append(lines, curr)
				curr = []widget.Span{}
			}
			if part != "" {
				curr = append(curr, widget.Span{Text: part, Style: s.Style})
			}
		}
	}
	lines = append(lines, curr)

	width := len(strconv.Itoa(start + len(lines) - 1))
	var out []widget.Span
	for i, line := range lines {
		if i > 0 {
			out = append(out, widget.Span{Text: "\n"})
		}
		out = append(out, widget.Span{Text: fmt.Sprintf("%*d ", width, start+i), Style: lineNumberSpec})
		out = append(out, line...)
	}
	return out
}

// ============================================================================
// Rules and raw html
// ============================================================================

func renderHorizontalRule(tok *parser.Token, ctx *Context) error {
	hs := ctx.Styles().Hrule
	if err := ctx.EnsureNewBlock(); err != nil {
		return err
	}
	return ctx.WidgetAdd(
		&widget.Divider{Char: hs.Char, Style: specFromDef(hs.Style)},
		widget.NewDivider(),
	)
}

func renderHTMLBlock(tok *parser.Token, ctx *Context) error {
	if strings.TrimSpace(stripComments(tok.Content)) == "" {
		return nil
	}
	if err := renderHTML(tok.Content, ctx); err != nil {
		return err
	}
	return ctx.InlineFlush()
}
