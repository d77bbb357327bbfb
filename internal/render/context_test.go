package render

import (
	"errors"
	"testing"

	"github.com/gubarz/mdslides/internal/config"
	"github.com/gubarz/mdslides/internal/parser"
	"github.com/gubarz/mdslides/internal/style"
	"github.com/gubarz/mdslides/internal/widget"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext() *Context {
	return NewContext(&Config{
		Styles:      config.DarkTheme(),
		Highlighter: plainHighlighter{},
		Registry:    NewRegistry(),
	})
}

func types(tokens []*parser.Token) []parser.TokenType {
	var out []parser.TokenType
	for _, t := range tokens {
		out = append(out, t.Type)
	}
	return out
}

func drain(it *TokenIterator) {
	for tok := it.Next(); tok != nil; tok = it.Next() {
	}
}

func TestUnwindRemovesFirstMatch(t *testing.T) {
	tests := []struct {
		name   string
		tokens []parser.TokenType
		want   []parser.TokenType
	}{
		{
			name:   "balanced",
			tokens: []parser.TokenType{parser.ParagraphOpen, parser.ParagraphClose},
			want:   nil,
		},
		{
			name:   "open containers innermost first",
			tokens: []parser.TokenType{parser.BlockquoteOpen, parser.BulletListOpen, parser.ListItemOpen},
			want:   []parser.TokenType{parser.ListItemClose, parser.BulletListClose, parser.BlockquoteClose},
		},
		{
			name:   "interleaved close removes by type",
			tokens: []parser.TokenType{parser.ParagraphOpen, parser.BlockquoteOpen, parser.ParagraphClose},
			want:   []parser.TokenType{parser.BlockquoteClose},
		},
		{
			name: "oldest of a repeated type is removed",
			tokens: []parser.TokenType{
				parser.BlockquoteOpen, parser.ParagraphOpen, parser.BlockquoteOpen, parser.BlockquoteClose,
			},
			want: []parser.TokenType{parser.BlockquoteClose, parser.ParagraphClose},
		},
		{
			name:   "unmatched close is ignored",
			tokens: []parser.TokenType{parser.HeadingClose, parser.ParagraphOpen},
			want:   []parser.TokenType{parser.ParagraphClose},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tokens []*parser.Token
			for _, typ := range tt.tokens {
				tokens = append(tokens, &parser.Token{Type: typ})
			}
			ledger := &unwindLedger{}
			drain(newTokenIterator(tokens, false, ledger))
			assert.Equal(t, tt.want, types(ledger.materialize()))
		})
	}
}

func TestUnwindOldestRepeatedTypeKeepsLatest(t *testing.T) {
	first := &parser.Token{Type: parser.BlockquoteOpen, Markup: "first"}
	second := &parser.Token{Type: parser.BlockquoteOpen, Markup: "second"}
	ledger := &unwindLedger{}
	drain(newTokenIterator([]*parser.Token{first, second, {Type: parser.BlockquoteClose}}, false, ledger))

	out := ledger.materialize()
	require.Len(t, out, 1)
	assert.Same(t, second, out[0].Unwound)
}

func TestUnwindInlineBatching(t *testing.T) {
	ledger := &unwindLedger{}
	drain(newTokenIterator([]*parser.Token{{Type: parser.ParagraphOpen}}, false, ledger))
	drain(newTokenIterator([]*parser.Token{{Type: parser.EmOpen}, {Type: parser.StrongOpen}}, true, ledger))

	out := ledger.materialize()
	require.Len(t, out, 2)
	assert.Equal(t, parser.Inline, out[0].Type)
	assert.Equal(t, []parser.TokenType{parser.StrongClose, parser.EmClose}, types(out[0].Children))
	assert.Equal(t, parser.ParagraphClose, out[1].Type)
}

func TestUnwindHTMLTags(t *testing.T) {
	tests := []struct {
		name    string
		typ     parser.TokenType
		content []string
		want    []string
	}{
		{"open", parser.HTMLInline, []string{"<b>"}, []string{"</b>"}},
		{"closed", parser.HTMLInline, []string{"<b>", "</B>"}, nil},
		{"void", parser.HTMLInline, []string{"<br>"}, nil},
		{"self closing", parser.HTMLInline, []string{"<span/>"}, nil},
		{"comment", parser.HTMLInline, []string{"<!-- stop -->"}, nil},
		{"block with several tags", parser.HTMLBlock, []string{"<div><p>text</p><span>"}, []string{"</span>", "</div>"}},
		{"block closed later", parser.HTMLBlock, []string{"<div>", "</div>"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tokens []*parser.Token
			for _, c := range tt.content {
				tokens = append(tokens, &parser.Token{Type: tt.typ, Content: c})
			}
			ledger := &unwindLedger{}
			drain(newTokenIterator(tokens, tt.typ == parser.HTMLInline, ledger))

			var got []string
			for _, tok := range ledger.materialize() {
				if tok.Type == parser.Inline {
					for _, child := range tok.Children {
						got = append(got, child.Content)
					}
					continue
				}
				got = append(got, tok.Content)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIteratorInheritsLineMap(t *testing.T) {
	m := &parser.LineRange{Start: 4, End: 6}
	tokens := []*parser.Token{{Type: parser.ParagraphOpen, Map: m}, {Type: parser.Inline}, {Type: parser.ParagraphClose}}
	it := newTokenIterator(tokens, false, &unwindLedger{})

	it.Next()
	second := it.Next()
	require.NotNil(t, second.Map)
	assert.Equal(t, 4, second.Map.Start)
	assert.Equal(t, parser.ParagraphClose, it.Peek().Type)
	assert.Equal(t, parser.Inline, it.Curr().Type)
	assert.Nil(t, it.AtOffset(5))
}

func TestCleanStateValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Context)
		want   string
	}{
		{
			name:   "clean",
			mutate: func(c *Context) {},
		},
		{
			name:   "leftover spec",
			mutate: func(c *Context) { c.SpecPush(style.New("red", ""), false) },
			want:   "specs: expected 0, got 1",
		},
		{
			name:   "leftover tag",
			mutate: func(c *Context) { c.TagPush("b", nil, true) },
			want:   "tags: expected 0, got 1",
		},
		{
			name:   "leftover container",
			mutate: func(c *Context) { c.ContainerPush(widget.NewPile(), true, nil) },
			want:   "containers: expected 0, got 1",
		},
		{
			name:   "leftover tokens",
			mutate: func(c *Context) { c.TokensPush(nil, false) },
			want:   "tokens: expected 0, got 1",
		},
		{
			name: "leftover unwind entries",
			mutate: func(c *Context) {
				c.TokensPush([]*parser.Token{{Type: parser.ParagraphOpen}}, false)
				drain(c.Tokens())
				_ = c.TokensPop()
			},
			want: "unwind: expected 0, got 1",
		},
		{
			name:   "unbalanced level",
			mutate: func(c *Context) { c.LevelInc() },
			want:   "level: expected 0, got 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestContext()
			c.CleanStateSnapshot()
			tt.mutate(c)
			err := c.CleanStateValidate()
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			var se *StructuralError
			require.True(t, errors.As(err, &se))
			assert.Contains(t, se.Msg, "unclean render state")
			assert.Contains(t, se.Msg, tt.want)
		})
	}
}

func TestCleanStateValidateWithoutSnapshot(t *testing.T) {
	assert.Error(t, newTestContext().CleanStateValidate())
}

func TestContainerMetaIsInherited(t *testing.T) {
	c := newTestContext()
	c.ContainerPush(widget.NewPile(), true, nil)
	c.Meta()["list_level"] = 2
	c.ContainerPush(widget.NewPile(), true, nil)
	assert.Equal(t, 2, c.Meta().Int("list_level", 0))

	c.Meta()["list_level"] = 3
	_, err := c.ContainerPop()
	require.NoError(t, err)
	assert.Equal(t, 2, c.Meta().Int("list_level", 0))
}

func TestContainerAddCollapsesBlankDividers(t *testing.T) {
	c := newTestContext()
	root := widget.NewPile()
	c.ContainerPush(root, true, nil)
	require.NoError(t, c.WidgetAdd(widget.NewDivider(), widget.NewDivider(), widget.NewText()))
	require.NoError(t, c.WidgetAdd(&widget.Divider{Char: "-"}, &widget.Divider{Char: "-"}))
	assert.Len(t, root.Children(), 4)
}

func TestSpecStack(t *testing.T) {
	c := newTestContext()
	c.SpecPush(style.New("red", "blue"), false)
	c.SpecPush(style.New("bold", ""), true)

	assert.Equal(t, style.New("red", "blue"), c.SpecGeneral())
	assert.Equal(t, style.New("red,bold", "blue"), c.SpecText())

	require.NoError(t, c.SpecPop())
	require.NoError(t, c.SpecPop())
	assert.ErrorIs(t, c.SpecPop(), ErrStackUnderflow)
}

func TestTagPopUntil(t *testing.T) {
	c := newTestContext()
	bold := style.New("bold", "")
	c.TagPush("div", nil, false)
	c.TagPush("b", &bold, true)
	c.TagPush("i", nil, true)

	ok, err := c.TagPopUntil("u")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, c.tags, 3)

	ok, err = c.TagPopUntil("b")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, c.tags, 1)
	assert.Empty(t, c.specs)
}

func TestWidgetAddWithoutContainer(t *testing.T) {
	c := newTestContext()
	assert.ErrorIs(t, c.WidgetAdd(widget.NewText()), ErrNoContainer)
	assert.ErrorIs(t, c.RenderAll(), ErrNoTokens)
}

func TestDiagnoseAddsExcerpts(t *testing.T) {
	source := []string{"one", "two", "three", "four", "five", "six", "seven", "eight"}
	c := NewContext(&Config{Registry: NewRegistry(), Source: source, LineOffset: 2})

	opener := &parser.Token{Type: parser.BlockquoteOpen, Map: &parser.LineRange{Start: 1, End: 2}}
	tok := &parser.Token{Type: "mystery", Map: &parser.LineRange{Start: 5, End: 6}, Unwound: opener}

	err := c.Diagnose(structural(tok, "boom"))
	var se *StructuralError
	require.True(t, errors.As(err, &se))
	assert.Contains(t, se.Excerpt, "HERE→  8 | six")
	assert.Contains(t, se.UnwoundExcerpt, "HERE→ 4 | two")
	assert.Contains(t, se.Details(), "boom")
}
