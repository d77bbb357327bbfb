package widget

import (
	"testing"

	"github.com/gubarz/mdslides/internal/style"
	"github.com/stretchr/testify/assert"
)

func plain(s string) *Text {
	return NewText(Span{Text: s})
}

func TestTextRender(t *testing.T) {
	tests := []struct {
		name  string
		text  *Text
		width int
		want  []string
	}{
		{
			name:  "fits",
			text:  plain("hello world"),
			width: 20,
			want:  []string{"hello world"},
		},
		{
			name:  "word wrap",
			text:  plain("hello world again"),
			width: 11,
			want:  []string{"hello world", "again"},
		},
		{
			name:  "embedded newline",
			text:  NewText(Span{Text: "a\nb"}, Span{Text: "c"}),
			width: 10,
			want:  []string{"a", "bc"},
		},
		{
			name:  "centered",
			text:  &Text{Spans: []Span{{Text: "ab"}}, Align: AlignCenter},
			width: 6,
			want:  []string{"  ab  "},
		},
		{
			name:  "right aligned",
			text:  &Text{Spans: []Span{{Text: "ab"}}, Align: AlignRight},
			width: 5,
			want:  []string{"   ab"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.text.Render(tt.width))
		})
	}
}

func TestTextPackedWidth(t *testing.T) {
	assert.Equal(t, 5, plain("ab\nabcde\nc").PackedWidth())
	assert.Equal(t, 4, plain("日本").PackedWidth())
}

func TestPile(t *testing.T) {
	p := NewPile(plain("one"))
	p.Add(NewDivider(), plain("two"))

	assert.Equal(t, []string{"one", "", "two"}, p.Render(10))
	assert.Equal(t, 3, p.PackedWidth())
	assert.Len(t, p.Children(), 3)

	p.SetChildren(p.Children()[1:])
	assert.True(t, IsDivider(p.Children()[0]))
}

func TestDivider(t *testing.T) {
	d := &Divider{Char: "─", Top: 1, Bottom: 1}
	assert.Equal(t, []string{"", "────", ""}, d.Render(4))
	assert.Equal(t, []string{""}, NewDivider().Render(4))
}

func TestColumns(t *testing.T) {
	c := NewColumns(1,
		Column{W: plain("*"), Width: 2},
		Column{W: plain("first second")},
	)
	assert.Equal(t, []string{"*  first", "   second"}, c.Render(9))
	assert.Equal(t, 2+1+12, c.PackedWidth())
}

func TestColumnsShareWidth(t *testing.T) {
	c := NewColumns(2, Column{W: plain("a")}, Column{W: plain("b")})
	assert.Equal(t, []int{4, 4}, c.widths(10))
	assert.Equal(t, []string{"a     b"}, c.Render(10))
}

func TestPadding(t *testing.T) {
	p := &Padding{W: plain("abc"), Left: 2, Right: 2}
	assert.Equal(t, []string{"  abc"}, p.Render(10))
	assert.Equal(t, 7, p.PackedWidth())

	centered := &Padding{W: plain("ab"), Width: 2, Align: AlignCenter}
	assert.Equal(t, []string{"   ab   "}, centered.Render(8))
}

func TestLineBox(t *testing.T) {
	b := &LineBox{W: plain("quoted"), Side: "|", TopCorner: "+", BottomCorner: "+"}
	assert.Equal(t, []string{"+", "| quoted", "+"}, b.Render(20))
	assert.Equal(t, 8, b.PackedWidth())
}

func TestWrapUnwrap(t *testing.T) {
	txt := plain("x")
	assert.Same(t, txt, Wrap(txt, style.Spec{}))

	wrapped := Wrap(txt, style.New("bold", ""))
	assert.IsType(t, &Styled{}, wrapped)
	assert.Same(t, txt, Unwrap(wrapped))
}

func TestString(t *testing.T) {
	got := String(NewPile(plain("a"), plain("b")), 5)
	assert.Equal(t, "a\nb", got)
}
