package render

import (
	"html"
	"regexp"
	"strings"

	"github.com/gubarz/mdslides/internal/parser"
	"github.com/gubarz/mdslides/internal/style"
	"github.com/gubarz/mdslides/internal/widget"
)

var (
	htmlTagRe     = regexp.MustCompile(`(?s)<!--.*?-->|<(/)?([a-zA-Z][a-zA-Z0-9-]*)((?:[^>"']|"[^"]*"|'[^']*')*)>`)
	htmlCommentRe = regexp.MustCompile(`(?s)<!--.*?-->`)
	htmlAttrRe    = regexp.MustCompile(`([a-zA-Z_:][a-zA-Z0-9_:.-]*)(?:\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s"'>/]+)))?`)
	cssDeclRe     = regexp.MustCompile(`([a-zA-Z-]+)\s*:\s*([^;]+)`)
	htmlSpaceRe   = regexp.MustCompile(`\s+`)
)

// voidTags never take a closing tag
var voidTags = map[string]bool{
	"br": true, "img": true, "hr": true, "input": true, "meta": true,
	"link": true, "wbr": true, "col": true, "area": true, "base": true,
	"embed": true, "source": true, "track": true, "param": true,
}

// Tag is a parsed html tag
type Tag struct {
	Name        string
	Closing     bool
	SelfClosing bool
	Attrs       map[string]string
	Style       map[string]string
}

// IsVoid reports whether the tag never has a matching close tag
func (t Tag) IsVoid() bool {
	return t.SelfClosing || voidTags[t.Name]
}

// ParseTag parses a single html tag such as `<span style="color:red">`.
// Comments and anything that is not a tag report false.
func ParseTag(s string) (Tag, bool) {
	m := htmlTagRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil || m[2] == "" {
		return Tag{}, false
	}
	return tagFromMatch(m), true
}

func tagFromMatch(m []string) Tag {
	rest := strings.TrimSpace(m[3])
	tag := Tag{
		Name:        strings.ToLower(m[2]),
		Closing:     m[1] == "/",
		SelfClosing: strings.HasSuffix(rest, "/"),
		Attrs:       map[string]string{},
		Style:       map[string]string{},
	}
	rest = strings.TrimSuffix(rest, "/")
	for _, a := range htmlAttrRe.FindAllStringSubmatch(rest, -1) {
		tag.Attrs[strings.ToLower(a[1])] = html.UnescapeString(a[2] + a[3] + a[4])
	}
	for _, d := range cssDeclRe.FindAllStringSubmatch(tag.Attrs["style"], -1) {
		tag.Style[strings.ToLower(d[1])] = strings.TrimSpace(d[2])
	}
	return tag
}

// findTags returns every tag in s, skipping comments
func findTags(s string) []Tag {
	var tags []Tag
	for _, m := range htmlTagRe.FindAllStringSubmatch(s, -1) {
		if m[2] != "" {
			tags = append(tags, tagFromMatch(m))
		}
	}
	return tags
}

func stripComments(s string) string {
	return htmlCommentRe.ReplaceAllString(s, "")
}

// cssSpec converts the supported inline css properties into a style
func cssSpec(css map[string]string) (style.Spec, bool) {
	var fg, bg []string
	if c := css["color"]; c != "" {
		fg = append(fg, c)
	}
	if c := css["background-color"]; c != "" {
		bg = append(bg, c)
	}
	if w := css["font-weight"]; w == "bold" || w == "bolder" || w == "700" {
		fg = append(fg, style.Bold)
	}
	if css["font-style"] == "italic" {
		fg = append(fg, style.Italics)
	}
	for _, deco := range strings.Fields(css["text-decoration"]) {
		switch deco {
		case "underline":
			fg = append(fg, style.Underline)
		case "line-through":
			fg = append(fg, style.Strikethrough)
		case "blink":
			fg = append(fg, style.Blink)
		}
	}
	if len(fg) == 0 && len(bg) == 0 {
		return style.Spec{}, false
	}
	return style.New(strings.Join(fg, ","), strings.Join(bg, ",")), true
}

// renderHTML renders raw html, opening and closing tags on the context tag
// stack. Unknown tags only apply their inline css.
func renderHTML(content string, ctx *Context) error {
	pos := 0
	for _, loc := range htmlTagRe.FindAllStringSubmatchIndex(content, -1) {
		htmlText(content[pos:loc[0]], ctx)
		pos = loc[1]
		if loc[4] < 0 {
			continue // comment
		}
		m := make([]string, 4)
		for i := range m {
			if loc[2*i] >= 0 {
				m[i] = content[loc[2*i]:loc[2*i+1]]
			}
		}
		tag := tagFromMatch(m)

		var err error
		if tag.Closing {
			_, err = ctx.TagPopUntil(tag.Name)
		} else {
			err = htmlOpen(tag, ctx)
		}
		if err != nil {
			return err
		}
	}
	htmlText(content[pos:], ctx)
	return nil
}

func htmlText(text string, ctx *Context) {
	if text == "" {
		return
	}
	text = html.UnescapeString(text)
	if !ctx.IsLiteral() {
		if strings.TrimSpace(text) == "" {
			return
		}
		text = htmlSpaceRe.ReplaceAllString(text, " ")
		if len(ctx.inline) == 0 {
			text = strings.TrimLeft(text, " ")
		}
	}
	ctx.InlinePush(widget.Span{Text: text, Style: ctx.SpecText()})
}

func htmlOpen(tag Tag, ctx *Context) error {
	if tag.Name == "br" {
		ctx.InlinePush(widget.Span{Text: "\n"})
		return nil
	}
	if tag.IsVoid() {
		return nil
	}

	spec, hasCSS := cssSpec(tag.Style)
	withMod := func(mod string) *style.Spec {
		s := style.Overwrite(style.New(mod, ""), spec)
		return &s
	}
	var css *style.Spec
	if hasCSS {
		css = &spec
	}

	switch tag.Name {
	case "b", "strong":
		ctx.TagPush(tag.Name, withMod(style.Bold), true)
	case "i", "em":
		ctx.TagPush(tag.Name, withMod(style.Italics), true)
	case "u":
		ctx.TagPush(tag.Name, withMod(style.Underline), true)
	case "blink":
		ctx.TagPush(tag.Name, withMod(style.Blink), true)
	case "s", "del", "strike":
		ctx.TagPush(tag.Name, withMod(style.Strikethrough), true)
	case "a":
		s := style.Overwrite(specFromDef(ctx.Styles().Link), spec).WithLink(tag.Attrs["href"], tag.Attrs["title"])
		ctx.TagPush(tag.Name, &s, true)
	case "pre":
		ctx.tagPush(tagEntry{name: tag.Name, literal: true}, css, true)
	case "div", "p":
		return htmlBlockOpen(tag, css, ctx)
	case "ul", "ol":
		return htmlListOpen(tag, css, ctx)
	case "li":
		return htmlListItemOpen(tag, css, ctx)
	default:
		ctx.TagPush(tag.Name, css, true)
	}
	return nil
}

func htmlBlockOpen(tag Tag, css *style.Spec, ctx *Context) error {
	if err := ctx.EnsureNewBlock(); err != nil {
		return err
	}
	ctx.tagPush(tagEntry{
		name: tag.Name,
		onClose: func(c *Context) error {
			if err := c.InlineFlush(); err != nil {
				return err
			}
			return c.WidgetAdd(widget.NewDivider())
		},
	}, css, false)
	return nil
}

func htmlListOpen(tag Tag, css *style.Spec, ctx *Context) error {
	open := &parser.Token{Type: parser.BulletListOpen, Tag: tag.Name}
	if tag.Name == "ol" {
		open.Type = parser.OrderedListOpen
		if start := tag.Attrs["start"]; start != "" {
			open.SetAttr("start", start)
		}
	}
	if err := listOpen(open, ctx, tag.Name == "ol"); err != nil {
		return err
	}
	closeTok := &parser.Token{Type: open.Type.CloseType(), Tag: tag.Name, Unwound: open}
	ctx.tagPush(tagEntry{
		name: tag.Name,
		onClose: func(c *Context) error {
			return renderListClose(closeTok, c)
		},
	}, css, true)
	return nil
}

func htmlListItemOpen(tag Tag, css *style.Spec, ctx *Context) error {
	if _, ok := ctx.Meta()[metaList]; !ok {
		ctx.TagPush(tag.Name, css, true)
		return nil
	}
	if err := ctx.InlineFlush(); err != nil {
		return err
	}
	open := &parser.Token{Type: parser.ListItemOpen, Tag: tag.Name}
	if err := renderListItemOpen(open, ctx); err != nil {
		return err
	}
	ctx.tagPush(tagEntry{
		name: tag.Name,
		onClose: func(c *Context) error {
			return renderListItemClose(open, c)
		},
	}, css, true)
	return nil
}
