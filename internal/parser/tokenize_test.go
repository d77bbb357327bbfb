package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenTypes(tokens []*Token) []TokenType {
	out := make([]TokenType, len(tokens))
	for i, t := range tokens {
		out[i] = t.Type
	}
	return out
}

func TestTokenizeBlockStream(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []TokenType
	}{
		{
			name: "heading and paragraph",
			src:  "# Title\n\nbody\n",
			want: []TokenType{HeadingOpen, Inline, HeadingClose, ParagraphOpen, Inline, ParagraphClose},
		},
		{
			name: "tight bullet list",
			src:  "- a\n- b\n",
			want: []TokenType{
				BulletListOpen,
				ListItemOpen, ParagraphOpen, Inline, ParagraphClose, ListItemClose,
				ListItemOpen, ParagraphOpen, Inline, ParagraphClose, ListItemClose,
				BulletListClose,
			},
		},
		{
			name: "blockquote",
			src:  "> quoted\n",
			want: []TokenType{BlockquoteOpen, ParagraphOpen, Inline, ParagraphClose, BlockquoteClose},
		},
		{
			name: "table",
			src:  "| a | b |\n|---|--:|\n| 1 | 2 |\n",
			want: []TokenType{
				TableOpen,
				TableHeadOpen, TableRowOpen,
				TableHeaderOpen, Inline, TableHeaderClose,
				TableHeaderOpen, Inline, TableHeaderClose,
				TableRowClose, TableHeadClose,
				TableBodyOpen, TableRowOpen,
				TableDataOpen, Inline, TableDataClose,
				TableDataOpen, Inline, TableDataClose,
				TableRowClose, TableBodyClose,
				TableClose,
			},
		},
		{
			name: "fence rule and html",
			src:  "```go\nx := 1\n```\n\n***\n\n<div>\nhi\n</div>\n",
			want: []TokenType{Fence, HorizontalRule, HTMLBlock},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tokenTypes(Tokenize([]byte(tt.src))))
		})
	}
}

func TestTokenizeInlineChildren(t *testing.T) {
	tokens := Tokenize([]byte("**b** *i* ~~s~~ `c` [l](http://x \"t\") <u>u</u>\n"))
	require.Len(t, tokens, 3)

	var types []TokenType
	for _, child := range tokens[1].Children {
		if child.Type != Text {
			types = append(types, child.Type)
		}
	}
	assert.Equal(t, []TokenType{
		StrongOpen, StrongClose,
		EmOpen, EmClose,
		StrikeOpen, StrikeClose,
		CodeInline,
		LinkOpen, LinkClose,
		HTMLInline, HTMLInline,
	}, types)

	for _, child := range tokens[1].Children {
		if child.Type == LinkOpen {
			assert.Equal(t, "http://x", child.Attr("href"))
			assert.Equal(t, "t", child.Attr("title"))
		}
		if child.Type == CodeInline {
			assert.Equal(t, "c", child.Content)
		}
	}
}

func TestTokenizeLineMaps(t *testing.T) {
	tokens := Tokenize([]byte("# Title\n\nline one\nline two\n\n- a\n- b\n"))

	require.NotNil(t, tokens[0].Map)
	assert.Equal(t, LineRange{Start: 0, End: 1}, *tokens[0].Map)

	require.Equal(t, ParagraphOpen, tokens[3].Type)
	require.NotNil(t, tokens[3].Map)
	assert.Equal(t, LineRange{Start: 2, End: 4}, *tokens[3].Map)

	require.Equal(t, BulletListOpen, tokens[6].Type)
	require.NotNil(t, tokens[6].Map)
	assert.Equal(t, 5, tokens[6].Map.Start)
	assert.Equal(t, 7, tokens[6].Map.End)
}

func TestTokenizeFenceAndOrderedList(t *testing.T) {
	tokens := Tokenize([]byte("```ruby {line_numbers=true}\nputs 1\n```\n\n3. three\n4. four\n"))

	require.Equal(t, Fence, tokens[0].Type)
	assert.Equal(t, "ruby {line_numbers=true}", tokens[0].Info)
	assert.Equal(t, "puts 1\n", tokens[0].Content)

	require.Equal(t, OrderedListOpen, tokens[1].Type)
	assert.Equal(t, "3", tokens[1].Attr("start"))
}

func TestTokenizeTightListParagraphsAreHidden(t *testing.T) {
	tokens := Tokenize([]byte("- a\n- b\n"))
	require.Equal(t, ParagraphOpen, tokens[2].Type)
	assert.True(t, tokens[2].Hidden)

	tokens = Tokenize([]byte("plain\n"))
	assert.False(t, tokens[0].Hidden)
}

func TestTokenCloneIsDeep(t *testing.T) {
	tokens := Tokenize([]byte("*a* b\n"))
	clone := tokens[1].Clone()
	clone.Children[0].Type = Text
	clone.Map.Start = 99

	assert.Equal(t, EmOpen, tokens[1].Children[0].Type)
	assert.NotEqual(t, 99, tokens[1].Map.Start)
}
