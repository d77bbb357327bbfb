package parser

import (
	"strings"
)

// Document is a parsed presentation
type Document struct {
	Meta   Meta
	Slides []*Slide
	Split  SplitInfo

	// Source holds the body lines the token maps refer to
	Source []string
	// LineOffset is the number of front matter lines preceding Source
	LineOffset int
	// Raw is the complete input
	Raw string
}

// Parser handles markdown presentation parsing
type Parser struct {
	tokenizer   *Tokenizer
	singleSlide bool
}

// NewParser creates a new parser
func NewParser(singleSlide bool) *Parser {
	return &Parser{
		tokenizer:   NewTokenizer(),
		singleSlide: singleSlide,
	}
}

// Parse parses front matter and slides out of the input
func (p *Parser) Parse(input string) (*Document, error) {
	input = strings.ReplaceAll(input, "\r\n", "\n")

	body, offset, meta, err := ParseMeta(input)
	if err != nil {
		return nil, err
	}

	tokens := p.tokenizer.Tokenize([]byte(body))
	slides, info := Split(tokens, p.singleSlide)

	// the inferred title only applies when slides were split on headings
	if !p.singleSlide && info.Rules == 0 && meta.Title == "" {
		meta.Title = info.Title
	}

	return &Document{
		Meta:       meta,
		Slides:     slides,
		Split:      info,
		Source:     strings.Split(body, "\n"),
		LineOffset: offset,
		Raw:        input,
	}, nil
}

// Tokenizer returns the tokenizer used by the parser
func (p *Parser) Tokenizer() *Tokenizer {
	return p.tokenizer
}
