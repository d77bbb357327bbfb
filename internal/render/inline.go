package render

import (
	"regexp"

	"github.com/gubarz/mdslides/internal/parser"
	"github.com/gubarz/mdslides/internal/style"
	"github.com/gubarz/mdslides/internal/widget"
)

var newlinesRe = regexp.MustCompile(`\s*\n\s*`)

func renderText(tok *parser.Token, ctx *Context) error {
	text := tok.Content
	if !ctx.IsLiteral() {
		text = newlinesRe.ReplaceAllString(text, " ")
	}
	ctx.InlinePush(widget.Span{Text: text, Style: ctx.SpecText()})
	return nil
}

func renderSoftBreak(tok *parser.Token, ctx *Context) error {
	ctx.InlinePush(widget.Span{Text: " ", Style: ctx.SpecText()})
	return nil
}

func renderHardBreak(tok *parser.Token, ctx *Context) error {
	ctx.InlinePush(widget.Span{Text: "\n"})
	return nil
}

func renderCodeInline(tok *parser.Token, ctx *Context) error {
	spec := ctx.SpecTextWith(specFromDef(ctx.Styles().CodeInline))
	ctx.InlinePush(widget.Span{Text: tok.Content, Style: spec})
	return nil
}

func renderEmOpen(tok *parser.Token, ctx *Context) error {
	s := style.New(style.Italics, "")
	ctx.TagPush("em", &s, true)
	return nil
}

func renderStrongOpen(tok *parser.Token, ctx *Context) error {
	s := style.New(style.Bold, "")
	ctx.TagPush("strong", &s, true)
	return nil
}

func renderStrikeOpen(tok *parser.Token, ctx *Context) error {
	s := style.New(style.Strikethrough, "")
	ctx.TagPush("s", &s, true)
	return nil
}

func renderLinkOpen(tok *parser.Token, ctx *Context) error {
	s := specFromDef(ctx.Styles().Link).WithLink(tok.Attr("href"), tok.Attr("title"))
	ctx.TagPush("a", &s, true)
	return nil
}

// renderTagClose closes the innermost open tag called name. A close with no
// matching open tag is ignored.
func renderTagClose(name string) RenderFunc {
	return func(tok *parser.Token, ctx *Context) error {
		_, err := ctx.TagPopUntil(name)
		return err
	}
}

func renderImage(tok *parser.Token, ctx *Context) error {
	text := tok.PlainText()
	if text == "" {
		text = tok.Attr("src")
	}
	s := specFromDef(ctx.Styles().Link).WithLink(tok.Attr("src"), tok.Attr("title"))
	ctx.InlinePush(widget.Span{Text: text, Style: ctx.SpecTextWith(s)})
	return nil
}

func renderHTMLInline(tok *parser.Token, ctx *Context) error {
	return renderHTML(tok.Content, ctx)
}
