package render

import (
	"github.com/gubarz/mdslides/internal/parser"
)

// RenderFunc renders one token into the context
type RenderFunc func(tok *parser.Token, ctx *Context) error

// Outcome is the result of an extension override
type Outcome int

const (
	// Declined passes the token on to the next override or the default
	Declined Outcome = iota
	// Handled stops dispatch for the token
	Handled
)

// OverrideFunc is an extension hook for one token type. An override may
// rewrite the token and decline, leaving the drawing to the default.
type OverrideFunc func(tok *parser.Token, ctx *Context) (Outcome, error)

// Extension contributes render overrides
type Extension interface {
	Name() string
	// UserWarnings lists what the extension may do that a user should
	// consent to before loading it
	UserWarnings() []string
	Overrides() map[parser.TokenType]OverrideFunc
	Shutdown()
}

// Registry maps token types to render functions and consults extension
// overrides, in load order, before the defaults
type Registry struct {
	renderers map[parser.TokenType]RenderFunc
	exts      []Extension
}

// NewRegistry creates a registry with the default renderers
func NewRegistry(exts ...Extension) *Registry {
	return &Registry{
		renderers: defaultRenderers(),
		exts:      exts,
	}
}

// Register replaces the default renderer for a token type
func (r *Registry) Register(typ parser.TokenType, fn RenderFunc) {
	r.renderers[typ] = fn
}

// Extensions returns the loaded extensions
func (r *Registry) Extensions() []Extension {
	return r.exts
}

// Render dispatches tok to the first override that handles it, falling
// back to the default renderer
func (r *Registry) Render(tok *parser.Token, ctx *Context) error {
	for _, ext := range r.exts {
		override, ok := ext.Overrides()[tok.Type]
		if !ok {
			continue
		}
		outcome, err := override(tok, ctx)
		if err != nil {
			return err
		}
		if outcome == Handled {
			return nil
		}
	}

	fn, ok := r.renderers[tok.Type]
	if !ok {
		return structural(tok, "no renderer for token type %q", tok.Type)
	}
	return fn(tok, ctx)
}

func defaultRenderers() map[parser.TokenType]RenderFunc {
	return map[parser.TokenType]RenderFunc{
		// blocks
		parser.HeadingOpen:      renderHeadingOpen,
		parser.HeadingClose:     renderHeadingClose,
		parser.ParagraphOpen:    renderParagraphOpen,
		parser.ParagraphClose:   renderParagraphClose,
		parser.Inline:           renderInline,
		parser.BulletListOpen:   renderBulletListOpen,
		parser.BulletListClose:  renderListClose,
		parser.OrderedListOpen:  renderOrderedListOpen,
		parser.OrderedListClose: renderListClose,
		parser.ListItemOpen:     renderListItemOpen,
		parser.ListItemClose:    renderListItemClose,
		parser.BlockquoteOpen:   renderBlockquoteOpen,
		parser.BlockquoteClose:  renderBlockquoteClose,
		parser.Fence:            renderFence,
		parser.CodeBlock:        renderCodeBlock,
		parser.HorizontalRule:   renderHorizontalRule,
		parser.HTMLBlock:        renderHTMLBlock,
		parser.TableOpen:        renderTableOpen,
		// a table consumes its own tokens, these only arrive synthesized
		// when a table was cut short
		parser.TableClose:       renderNothing,
		parser.TableHeadClose:   renderNothing,
		parser.TableBodyClose:   renderNothing,
		parser.TableRowClose:    renderNothing,
		parser.TableHeaderClose: renderNothing,
		parser.TableDataClose:   renderNothing,

		// inline
		parser.Text:        renderText,
		parser.SoftBreak:   renderSoftBreak,
		parser.HardBreak:   renderHardBreak,
		parser.CodeInline:  renderCodeInline,
		parser.EmOpen:      renderEmOpen,
		parser.EmClose:     renderTagClose("em"),
		parser.StrongOpen:  renderStrongOpen,
		parser.StrongClose: renderTagClose("strong"),
		parser.StrikeOpen:  renderStrikeOpen,
		parser.StrikeClose: renderTagClose("s"),
		parser.LinkOpen:    renderLinkOpen,
		parser.LinkClose:   renderTagClose("a"),
		parser.Image:       renderImage,
		parser.HTMLInline:  renderHTMLInline,
	}
}

func renderNothing(*parser.Token, *Context) error {
	return nil
}
