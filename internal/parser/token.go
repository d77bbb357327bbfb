package parser

import (
	"strconv"
	"strings"
)

// TokenType identifies the kind of a markdown token
type TokenType string

// Block token types
const (
	HeadingOpen      TokenType = "heading_open"
	HeadingClose     TokenType = "heading_close"
	ParagraphOpen    TokenType = "paragraph_open"
	ParagraphClose   TokenType = "paragraph_close"
	Inline           TokenType = "inline"
	BulletListOpen   TokenType = "bullet_list_open"
	BulletListClose  TokenType = "bullet_list_close"
	OrderedListOpen  TokenType = "ordered_list_open"
	OrderedListClose TokenType = "ordered_list_close"
	ListItemOpen     TokenType = "list_item_open"
	ListItemClose    TokenType = "list_item_close"
	BlockquoteOpen   TokenType = "blockquote_open"
	BlockquoteClose  TokenType = "blockquote_close"
	Fence            TokenType = "fence"
	CodeBlock        TokenType = "code_block"
	HorizontalRule   TokenType = "hr"
	HTMLBlock        TokenType = "html_block"
	TableOpen        TokenType = "table_open"
	TableClose       TokenType = "table_close"
	TableHeadOpen    TokenType = "thead_open"
	TableHeadClose   TokenType = "thead_close"
	TableBodyOpen    TokenType = "tbody_open"
	TableBodyClose   TokenType = "tbody_close"
	TableRowOpen     TokenType = "tr_open"
	TableRowClose    TokenType = "tr_close"
	TableHeaderOpen  TokenType = "th_open"
	TableHeaderClose TokenType = "th_close"
	TableDataOpen    TokenType = "td_open"
	TableDataClose   TokenType = "td_close"
)

// Inline token types
const (
	Text        TokenType = "text"
	SoftBreak   TokenType = "softbreak"
	HardBreak   TokenType = "hardbreak"
	CodeInline  TokenType = "code_inline"
	EmOpen      TokenType = "em_open"
	EmClose     TokenType = "em_close"
	StrongOpen  TokenType = "strong_open"
	StrongClose TokenType = "strong_close"
	StrikeOpen  TokenType = "s_open"
	StrikeClose TokenType = "s_close"
	LinkOpen    TokenType = "link_open"
	LinkClose   TokenType = "link_close"
	Image       TokenType = "image"
	HTMLInline  TokenType = "html_inline"
)

// IsOpen reports whether the type opens a container
func (t TokenType) IsOpen() bool {
	return strings.HasSuffix(string(t), "_open")
}

// IsClose reports whether the type closes a container
func (t TokenType) IsClose() bool {
	return strings.HasSuffix(string(t), "_close")
}

// CloseType returns the matching close type for an open type
func (t TokenType) CloseType() TokenType {
	return TokenType(strings.TrimSuffix(string(t), "_open") + "_close")
}

// LineRange is a half-open [Start, End) range of source lines
type LineRange struct {
	Start int
	End   int
}

// Token is a single node of the flat markdown token stream
type Token struct {
	Type     TokenType
	Tag      string            // html tag name, e.g. h2, ul, td
	Content  string            // raw text for text/fence/html tokens
	Info     string            // fence info string
	Markup   string            // bullet char, fence marker, emphasis marker
	Level    int               // nesting depth
	Map      *LineRange        // source lines this token spans, nil if unknown
	Attrs    map[string]string // href, src, start, style ...
	Children []*Token          // inline children of an inline token
	Hidden   bool              // paragraphs inside tight lists

	// Meta is scratch space used by a render pass. It is only written on
	// copies of slide tokens.
	Meta map[string]any

	// Unwound is the token a synthesized close token was generated for
	Unwound *Token
}

// HeadingLevel returns the level of a heading token, taken from its tag
func (t *Token) HeadingLevel() int {
	if len(t.Tag) == 2 && t.Tag[0] == 'h' && t.Tag[1] >= '1' && t.Tag[1] <= '9' {
		return int(t.Tag[1] - '0')
	}
	return 0
}

// SetHeadingLevel rewrites the tag of a heading token
func (t *Token) SetHeadingLevel(level int) {
	t.Tag = "h" + strconv.Itoa(level)
}

// Attr returns the named attribute or an empty string
func (t *Token) Attr(name string) string {
	if t.Attrs == nil {
		return ""
	}
	return t.Attrs[name]
}

// SetAttr sets an attribute, allocating the map on first use
func (t *Token) SetAttr(name, value string) {
	if t.Attrs == nil {
		t.Attrs = make(map[string]string)
	}
	t.Attrs[name] = value
}

// Clone returns a deep copy of the token
func (t *Token) Clone() *Token {
	if t == nil {
		return nil
	}
	c := *t
	if t.Map != nil {
		m := *t.Map
		c.Map = &m
	}
	if t.Attrs != nil {
		c.Attrs = make(map[string]string, len(t.Attrs))
		for k, v := range t.Attrs {
			c.Attrs[k] = v
		}
	}
	if t.Meta != nil {
		c.Meta = make(map[string]any, len(t.Meta))
		for k, v := range t.Meta {
			c.Meta[k] = v
		}
	}
	c.Children = CloneTokens(t.Children)
	return &c
}

// ShallowClone copies the token but leaves it without children
func (t *Token) ShallowClone() *Token {
	c := *t
	c.Children = nil
	return &c
}

// PlainText returns the concatenated text of an inline token's children
func (t *Token) PlainText() string {
	var sb strings.Builder
	for _, child := range t.Children {
		switch child.Type {
		case Text, CodeInline:
			sb.WriteString(child.Content)
		case SoftBreak, HardBreak:
			sb.WriteString(" ")
		case Image:
			sb.WriteString(child.PlainText())
		}
	}
	return sb.String()
}

// CloneTokens deep copies a token list
func CloneTokens(tokens []*Token) []*Token {
	if tokens == nil {
		return nil
	}
	out := make([]*Token, len(tokens))
	for i, t := range tokens {
		out[i] = t.Clone()
	}
	return out
}

// TokensEqual compares two token lists structurally, ignoring Meta
func TokensEqual(a, b []*Token) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !tokenEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func tokenEqual(a, b *Token) bool {
	if a.Type != b.Type || a.Tag != b.Tag || a.Content != b.Content ||
		a.Info != b.Info || a.Level != b.Level || a.Hidden != b.Hidden {
		return false
	}
	if len(a.Attrs) != len(b.Attrs) {
		return false
	}
	for k, v := range a.Attrs {
		if b.Attrs[k] != v {
			return false
		}
	}
	return TokensEqual(a.Children, b.Children)
}
