package render

import (
	"github.com/gubarz/mdslides/internal/parser"
)

// unwindEntry is a synthesized close token waiting for its real close
type unwindEntry struct {
	inline bool
	token  *parser.Token
}

// unwindLedger tracks every container opened but not yet closed. It is
// shared by all iterators of one render context.
type unwindLedger struct {
	entries []unwindEntry
}

func (l *unwindLedger) push(e unwindEntry) {
	l.entries = append(l.entries, e)
}

// removeFirst drops the oldest entry matching fn. Missing matches are
// ignored.
func (l *unwindLedger) removeFirst(fn func(*parser.Token) bool) {
	for i, e := range l.entries {
		if fn(e.token) {
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			return
		}
	}
}

// materialize returns the pending close tokens innermost first. Runs of
// inline entries are grouped under a synthetic inline token so they can be
// rendered through the normal inline path.
func (l *unwindLedger) materialize() []*parser.Token {
	var out []*parser.Token
	var batch *parser.Token
	for i := len(l.entries) - 1; i >= 0; i-- {
		e := l.entries[i]
		tok := e.token.Clone()
		if !e.inline {
			batch = nil
			out = append(out, tok)
			continue
		}
		if batch == nil {
			batch = &parser.Token{Type: parser.Inline, Map: tok.Map}
			out = append(out, batch)
		}
		batch.Children = append(batch.Children, tok)
	}
	return out
}

// TokenIterator walks a private copy of a token list
type TokenIterator struct {
	tokens  []*parser.Token
	idx     int
	inline  bool
	ledger  *unwindLedger
	lastMap *parser.LineRange
}

func newTokenIterator(tokens []*parser.Token, inline bool, ledger *unwindLedger) *TokenIterator {
	own := make([]*parser.Token, len(tokens))
	copy(own, tokens)
	return &TokenIterator{tokens: own, inline: inline, ledger: ledger}
}

// Next advances and returns the next token, or nil at the end
func (it *TokenIterator) Next() *parser.Token {
	if it.idx >= len(it.tokens) {
		return nil
	}
	tok := it.tokens[it.idx]
	it.idx++

	if tok.Map == nil && it.lastMap != nil {
		m := *it.lastMap
		tok.Map = &m
	} else if tok.Map != nil {
		it.lastMap = tok.Map
	}

	it.handleUnwind(tok)
	return tok
}

// Peek returns the next token without consuming it
func (it *TokenIterator) Peek() *parser.Token {
	return it.AtOffset(1)
}

// Curr returns the most recently consumed token
func (it *TokenIterator) Curr() *parser.Token {
	return it.AtOffset(0)
}

// AtOffset returns the token n positions after the current one
func (it *TokenIterator) AtOffset(n int) *parser.Token {
	i := it.idx - 1 + n
	if i < 0 || i >= len(it.tokens) {
		return nil
	}
	return it.tokens[i]
}

// Inline reports whether the iterator walks inline children
func (it *TokenIterator) Inline() bool {
	return it.inline
}

func (it *TokenIterator) handleUnwind(tok *parser.Token) {
	switch {
	case tok.Type == parser.HTMLInline:
		if tags := findTags(tok.Content); len(tags) > 0 {
			it.unwindHTMLTag(tok, tags[0], parser.HTMLInline)
		}
	case tok.Type == parser.HTMLBlock:
		for _, tag := range findTags(tok.Content) {
			it.unwindHTMLTag(tok, tag, parser.HTMLBlock)
		}
	case tok.Type.IsOpen():
		it.ledger.push(unwindEntry{
			inline: it.inline,
			token: &parser.Token{
				Type:    tok.Type.CloseType(),
				Tag:     tok.Tag,
				Markup:  tok.Markup,
				Level:   tok.Level,
				Hidden:  tok.Hidden,
				Map:     tok.Map,
				Unwound: tok,
			},
		})
	case tok.Type.IsClose():
		it.ledger.removeFirst(func(t *parser.Token) bool {
			return t.Type == tok.Type
		})
	}
}

func (it *TokenIterator) unwindHTMLTag(tok *parser.Token, tag Tag, typ parser.TokenType) {
	if tag.IsVoid() {
		return
	}
	closing := "</" + tag.Name + ">"
	if tag.Closing {
		it.ledger.removeFirst(func(t *parser.Token) bool {
			return (t.Type == parser.HTMLInline || t.Type == parser.HTMLBlock) && t.Content == closing
		})
		return
	}
	it.ledger.push(unwindEntry{
		inline: it.inline,
		token: &parser.Token{
			Type:    typ,
			Content: closing,
			Map:     tok.Map,
			Unwound: tok,
		},
	})
}
