package render

import (
	"strings"

	"github.com/alecthomas/chroma"
	"github.com/alecthomas/chroma/lexers"
	"github.com/alecthomas/chroma/styles"
	"github.com/gubarz/mdslides/internal/style"
	"github.com/gubarz/mdslides/internal/widget"
)

// Highlighter colors source code
type Highlighter interface {
	// Highlight returns styled spans for text and the background the code
	// block should be painted with
	Highlight(text, lang, styleName string) ([]widget.Span, style.Spec)
}

// ChromaHighlighter highlights with chroma lexers and styles
type ChromaHighlighter struct{}

func (ChromaHighlighter) Highlight(text, lang, styleName string) ([]widget.Span, style.Spec) {
	lexer := lexers.Get(lang)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)
	theme := styles.Get(styleName)
	bg := entrySpec(theme.Get(chroma.Background))
	bg = style.New("", bg.Background)

	it, err := lexer.Tokenise(nil, text)
	if err != nil {
		return []widget.Span{{Text: text}}, bg
	}

	var spans []widget.Span
	for _, tok := range it.Tokens() {
		spans = append(spans, widget.Span{
			Text:  tok.Value,
			Style: entrySpec(theme.Get(tok.Type)),
		})
	}
	if n := len(spans); n > 0 {
		spans[n-1].Text = strings.TrimRight(spans[n-1].Text, "\n")
	}
	return spans, bg
}

// entrySpec converts a chroma style entry into a spec
func entrySpec(e chroma.StyleEntry) style.Spec {
	var fg []string
	if e.Colour.IsSet() {
		fg = append(fg, e.Colour.String())
	}
	if e.Bold == chroma.Yes {
		fg = append(fg, style.Bold)
	}
	if e.Italic == chroma.Yes {
		fg = append(fg, style.Italics)
	}
	if e.Underline == chroma.Yes {
		fg = append(fg, style.Underline)
	}
	bg := ""
	if e.Background.IsSet() {
		bg = e.Background.String()
	}
	return style.New(strings.Join(fg, ","), bg)
}
