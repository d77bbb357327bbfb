package render

import (
	"log/slog"

	"github.com/gubarz/mdslides/internal/config"
	"github.com/gubarz/mdslides/internal/parser"
	"github.com/gubarz/mdslides/internal/widget"
)

// Config is the read-only configuration shared by every render pass
type Config struct {
	Styles      config.Styles
	Highlighter Highlighter
	Registry    *Registry

	// Source and LineOffset locate token line maps for diagnostics
	Source     []string
	LineOffset int

	Logger *slog.Logger
}

// Renderer turns slides into widget trees
type Renderer struct {
	cfg  *Config
	base *Context
}

// NewRenderer creates a renderer, filling in default collaborators
func NewRenderer(cfg Config) *Renderer {
	if cfg.Registry == nil {
		cfg.Registry = NewRegistry()
	}
	if cfg.Highlighter == nil {
		cfg.Highlighter = ChromaHighlighter{}
	}
	if cfg.Logger == nil {
		cfg.Logger = config.DiscardLogger()
	}
	c := &cfg
	return &Renderer{cfg: c, base: NewContext(c)}
}

// Config returns the renderer configuration
func (r *Renderer) Config() *Config {
	return r.cfg
}

// RenderSlide renders a slide. The slide is rendered twice: the first pass
// is discarded and only measures values such as list marker widths that
// the second pass needs up front.
func (r *Renderer) RenderSlide(slide *parser.Slide) (widget.Widget, error) {
	tokens := parser.CloneTokens(slide.Tokens)
	if _, err := r.pass(tokens); err != nil {
		return nil, err
	}
	return r.pass(tokens)
}

func (r *Renderer) pass(tokens []*parser.Token) (widget.Widget, error) {
	ctx := r.base.Clone()
	root := widget.NewPile()

	ctx.CleanStateSnapshot()
	ctx.ContainerPush(root, true, nil)

	ctx.TokensPush(tokens, false)
	if err := ctx.RenderAll(); err != nil {
		return nil, ctx.Diagnose(err)
	}

	// close whatever a progressive reveal step left open
	if unwound := ctx.UnwindTokensConsumed(); len(unwound) > 0 {
		if err := ctx.RenderTokens(unwound, false); err != nil {
			return nil, ctx.Diagnose(err)
		}
	}

	if err := ctx.TokensPop(); err != nil {
		return nil, err
	}
	if _, err := ctx.ContainerPop(); err != nil {
		return nil, err
	}
	if err := ctx.CleanStateValidate(); err != nil {
		return nil, err
	}
	return root, nil
}

// RenderTitle renders markdown meant for a single line, such as the
// presentation title. Block level content is rejected.
func (r *Renderer) RenderTitle(title string) ([]widget.Span, error) {
	tokens := parser.Tokenize([]byte(title))
	var inline *parser.Token
	for _, tok := range tokens {
		switch tok.Type {
		case parser.ParagraphOpen, parser.ParagraphClose:
		case parser.Inline:
			if inline != nil {
				return nil, structural(tok, "title must be a single line of text")
			}
			inline = tok
		default:
			return nil, structural(tok, "title contains block level content (%s)", tok.Type)
		}
	}
	if inline == nil {
		return nil, nil
	}

	ctx := r.base.Clone()
	ctx.CleanStateSnapshot()
	pile := widget.NewPile()
	ctx.containerPushDetached(pile, true)
	ctx.SpecPush(specFromDef(r.cfg.Styles.Title), true)
	if err := ctx.RenderTokens(inline.Children, true); err != nil {
		return nil, err
	}
	if unwound := ctx.UnwindTokensConsumed(); len(unwound) > 0 {
		if err := ctx.RenderTokens(unwound, false); err != nil {
			return nil, err
		}
	}
	spans := ctx.InlineSpansConsumed()
	if err := ctx.SpecPop(); err != nil {
		return nil, err
	}
	if _, err := ctx.ContainerPop(); err != nil {
		return nil, err
	}
	if err := ctx.CleanStateValidate(); err != nil {
		return nil, err
	}
	return spans, nil
}
