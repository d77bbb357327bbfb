package parser

import (
	"bytes"
	"sort"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// Tokenizer turns markdown source into a flat token stream. Block tokens
// are emitted as open/close pairs and inline content is nested as the
// children of inline tokens.
type Tokenizer struct {
	md goldmark.Markdown
}

// NewTokenizer creates a tokenizer with GFM tables, strikethrough and
// bare url autolinks enabled
func NewTokenizer() *Tokenizer {
	return &Tokenizer{
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.Table,
				extension.Strikethrough,
				extension.Linkify,
			),
		),
	}
}

// Tokenize parses src and returns its block token stream
func (tz *Tokenizer) Tokenize(src []byte) []*Token {
	doc := tz.md.Parser().Parse(text.NewReader(src))
	b := &tokenBuilder{src: src, lineStarts: lineStarts(src)}
	b.children(doc, 0)
	return b.tokens
}

// Tokenize parses src with a default tokenizer
func Tokenize(src []byte) []*Token {
	return NewTokenizer().Tokenize(src)
}

// ============================================================================
// Block walking
// ============================================================================

type tokenBuilder struct {
	src        []byte
	lineStarts []int
	tokens     []*Token
}

func (b *tokenBuilder) emit(t *Token) {
	b.tokens = append(b.tokens, t)
}

func (b *tokenBuilder) children(n ast.Node, level int) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		b.block(c, level)
	}
}

// container emits an open token, the node's block children and a close token
func (b *tokenBuilder) container(n ast.Node, open *Token, level int) {
	open.Level = level
	open.Map = b.rangeOf(n)
	b.emit(open)
	b.children(n, level+1)
	b.emit(&Token{Type: open.Type.CloseType(), Tag: open.Tag, Markup: open.Markup, Level: level})
}

func (b *tokenBuilder) block(n ast.Node, level int) {
	switch node := n.(type) {
	case *ast.Heading:
		tag := "h" + strconv.Itoa(node.Level)
		markup := strings.Repeat("#", node.Level)
		b.emit(&Token{Type: HeadingOpen, Tag: tag, Markup: markup, Level: level, Map: b.rangeOf(n)})
		b.inline(n, level+1)
		b.emit(&Token{Type: HeadingClose, Tag: tag, Markup: markup, Level: level})

	case *ast.Paragraph:
		b.paragraph(n, level, false)

	case *ast.TextBlock:
		b.paragraph(n, level, true)

	case *ast.List:
		open := &Token{Type: BulletListOpen, Tag: "ul", Markup: string(node.Marker)}
		if node.IsOrdered() {
			open.Type = OrderedListOpen
			open.Tag = "ol"
			open.SetAttr("start", strconv.Itoa(node.Start))
		}
		b.container(n, open, level)

	case *ast.ListItem:
		b.container(n, &Token{Type: ListItemOpen, Tag: "li"}, level)

	case *ast.Blockquote:
		b.container(n, &Token{Type: BlockquoteOpen, Tag: "blockquote", Markup: ">"}, level)

	case *ast.FencedCodeBlock:
		info := ""
		if node.Info != nil {
			info = strings.TrimSpace(string(node.Info.Segment.Value(b.src)))
		}
		b.emit(&Token{
			Type:    Fence,
			Tag:     "code",
			Markup:  "```",
			Info:    info,
			Content: b.linesText(n),
			Level:   level,
			Map:     b.rangeOf(n),
		})

	case *ast.CodeBlock:
		b.emit(&Token{Type: CodeBlock, Tag: "code", Content: b.linesText(n), Level: level, Map: b.rangeOf(n)})

	case *ast.ThematicBreak:
		b.emit(&Token{Type: HorizontalRule, Tag: "hr", Markup: "---", Level: level, Map: b.rangeOf(n)})

	case *ast.HTMLBlock:
		content := b.linesText(n)
		if node.HasClosure() {
			content += string(node.ClosureLine.Value(b.src))
		}
		b.emit(&Token{Type: HTMLBlock, Content: content, Level: level, Map: b.rangeOf(n)})

	case *extast.Table:
		b.table(node, level)

	default:
		b.children(n, level)
	}
}

func (b *tokenBuilder) paragraph(n ast.Node, level int, hidden bool) {
	b.emit(&Token{Type: ParagraphOpen, Tag: "p", Level: level, Hidden: hidden, Map: b.rangeOf(n)})
	b.inline(n, level+1)
	b.emit(&Token{Type: ParagraphClose, Tag: "p", Level: level, Hidden: hidden})
}

func (b *tokenBuilder) table(node *extast.Table, level int) {
	b.emit(&Token{Type: TableOpen, Tag: "table", Level: level, Map: b.rangeOf(node)})
	bodyOpen := false
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		switch row := c.(type) {
		case *extast.TableHeader:
			b.emit(&Token{Type: TableHeadOpen, Tag: "thead", Level: level + 1, Map: b.rangeOf(row)})
			b.row(row, TableHeaderOpen, "th", level+2)
			b.emit(&Token{Type: TableHeadClose, Tag: "thead", Level: level + 1})
		case *extast.TableRow:
			if !bodyOpen {
				b.emit(&Token{Type: TableBodyOpen, Tag: "tbody", Level: level + 1, Map: b.rangeOf(row)})
				bodyOpen = true
			}
			b.row(row, TableDataOpen, "td", level+2)
		}
	}
	if bodyOpen {
		b.emit(&Token{Type: TableBodyClose, Tag: "tbody", Level: level + 1})
	}
	b.emit(&Token{Type: TableClose, Tag: "table", Level: level})
}

func (b *tokenBuilder) row(row ast.Node, cellType TokenType, tag string, level int) {
	b.emit(&Token{Type: TableRowOpen, Tag: "tr", Level: level, Map: b.rangeOf(row)})
	for c := row.FirstChild(); c != nil; c = c.NextSibling() {
		cell, ok := c.(*extast.TableCell)
		if !ok {
			continue
		}
		open := &Token{Type: cellType, Tag: tag, Level: level + 1, Map: b.rangeOf(cell)}
		if cell.Alignment != extast.AlignNone {
			open.SetAttr("style", "text-align:"+cell.Alignment.String())
		}
		b.emit(open)
		b.inline(cell, level+2)
		b.emit(&Token{Type: cellType.CloseType(), Tag: tag, Level: level + 1})
	}
	b.emit(&Token{Type: TableRowClose, Tag: "tr", Level: level})
}

// ============================================================================
// Inline walking
// ============================================================================

func (b *tokenBuilder) inline(parent ast.Node, level int) {
	tok := &Token{
		Type:    Inline,
		Content: strings.TrimRight(b.linesText(parent), " \t\n"),
		Level:   level,
		Map:     b.rangeOf(parent),
	}
	for c := parent.FirstChild(); c != nil; c = c.NextSibling() {
		b.inlineNode(c, &tok.Children, 0)
	}
	b.emit(tok)
}

func (b *tokenBuilder) inlineChildren(n ast.Node, out *[]*Token, level int) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		b.inlineNode(c, out, level)
	}
}

// pair emits open and close tokens around a node's inline children
func (b *tokenBuilder) pair(n ast.Node, out *[]*Token, open *Token, level int) {
	open.Level = level
	*out = append(*out, open)
	b.inlineChildren(n, out, level+1)
	*out = append(*out, &Token{Type: open.Type.CloseType(), Tag: open.Tag, Markup: open.Markup, Level: level})
}

func (b *tokenBuilder) inlineNode(n ast.Node, out *[]*Token, level int) {
	switch node := n.(type) {
	case *ast.Text:
		if v := string(node.Segment.Value(b.src)); v != "" {
			*out = append(*out, &Token{Type: Text, Content: v, Level: level})
		}
		if node.HardLineBreak() {
			*out = append(*out, &Token{Type: HardBreak, Tag: "br", Level: level})
		} else if node.SoftLineBreak() {
			*out = append(*out, &Token{Type: SoftBreak, Tag: "br", Level: level})
		}

	case *ast.String:
		*out = append(*out, &Token{Type: Text, Content: string(node.Value), Level: level})

	case *ast.CodeSpan:
		var buf bytes.Buffer
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			switch t := c.(type) {
			case *ast.Text:
				buf.Write(t.Segment.Value(b.src))
			case *ast.String:
				buf.Write(t.Value)
			}
		}
		*out = append(*out, &Token{Type: CodeInline, Tag: "code", Markup: "`", Content: buf.String(), Level: level})

	case *ast.Emphasis:
		open := &Token{Type: EmOpen, Tag: "em", Markup: "*"}
		if node.Level >= 2 {
			open = &Token{Type: StrongOpen, Tag: "strong", Markup: "**"}
		}
		b.pair(n, out, open, level)

	case *extast.Strikethrough:
		b.pair(n, out, &Token{Type: StrikeOpen, Tag: "s", Markup: "~~"}, level)

	case *ast.Link:
		open := &Token{Type: LinkOpen, Tag: "a"}
		open.SetAttr("href", string(node.Destination))
		if len(node.Title) > 0 {
			open.SetAttr("title", string(node.Title))
		}
		b.pair(n, out, open, level)

	case *ast.AutoLink:
		open := &Token{Type: LinkOpen, Tag: "a", Markup: "autolink", Level: level}
		open.SetAttr("href", string(node.URL(b.src)))
		*out = append(*out,
			open,
			&Token{Type: Text, Content: string(node.Label(b.src)), Level: level + 1},
			&Token{Type: LinkClose, Tag: "a", Markup: "autolink", Level: level},
		)

	case *ast.Image:
		img := &Token{Type: Image, Tag: "img", Level: level}
		img.SetAttr("src", string(node.Destination))
		if len(node.Title) > 0 {
			img.SetAttr("title", string(node.Title))
		}
		b.inlineChildren(n, &img.Children, 0)
		img.Content = img.PlainText()
		*out = append(*out, img)

	case *ast.RawHTML:
		var buf bytes.Buffer
		for i := 0; i < node.Segments.Len(); i++ {
			seg := node.Segments.At(i)
			buf.Write(seg.Value(b.src))
		}
		*out = append(*out, &Token{Type: HTMLInline, Content: buf.String(), Level: level})

	default:
		b.inlineChildren(n, out, level)
	}
}

// ============================================================================
// Source positions
// ============================================================================

func lineStarts(src []byte) []int {
	starts := []int{0}
	for i, c := range src {
		if c == '\n' && i+1 < len(src) {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// lineOf returns the zero-based line containing byte offset off
func (b *tokenBuilder) lineOf(off int) int {
	return sort.Search(len(b.lineStarts), func(i int) bool {
		return b.lineStarts[i] > off
	}) - 1
}

// rangeOf computes the source lines covered by a block node. Containers
// without lines of their own cover the union of their descendants.
func (b *tokenBuilder) rangeOf(n ast.Node) *LineRange {
	start, end, ok := b.span(n)
	if !ok {
		return nil
	}
	return &LineRange{Start: start, End: end}
}

func (b *tokenBuilder) span(n ast.Node) (int, int, bool) {
	if n.Type() != ast.TypeBlock {
		return 0, 0, false
	}
	start, end, ok := 0, 0, false
	merge := func(s, e int) {
		if !ok || s < start {
			start = s
		}
		if !ok || e > end {
			end = e
		}
		ok = true
	}

	if fenced, isFenced := n.(*ast.FencedCodeBlock); isFenced && fenced.Info != nil {
		l := b.lineOf(fenced.Info.Segment.Start)
		merge(l, l+1)
	}
	lines := n.Lines()
	if lines.Len() > 0 {
		first := lines.At(0)
		last := lines.At(lines.Len() - 1)
		stop := last.Stop - 1
		if stop < last.Start {
			stop = last.Start
		}
		merge(b.lineOf(first.Start), b.lineOf(stop)+1)
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if s, e, cok := b.span(c); cok {
			merge(s, e)
		}
	}
	return start, end, ok
}

// linesText joins the raw source lines of a block node
func (b *tokenBuilder) linesText(n ast.Node) string {
	if n.Type() != ast.TypeBlock {
		return ""
	}
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(b.src))
	}
	return buf.String()
}
