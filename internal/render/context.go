package render

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gubarz/mdslides/internal/config"
	"github.com/gubarz/mdslides/internal/parser"
	"github.com/gubarz/mdslides/internal/style"
	"github.com/gubarz/mdslides/internal/widget"
)

// Meta is per-container render metadata. Each pushed container starts with
// a copy of its parent's metadata.
type Meta map[string]any

// Int returns an integer value or def when missing
func (m Meta) Int(key string, def int) int {
	if v, ok := m[key].(int); ok {
		return v
	}
	return def
}

// Bool returns a boolean value
func (m Meta) Bool(key string) bool {
	v, _ := m[key].(bool)
	return v
}

// containerRecord is one entry of the container stack. parent indexes the
// enclosing record, -1 for the root.
type containerRecord struct {
	container widget.Container
	meta      Meta
	parent    int
}

// tagEntry is an open markdown or html tag
type tagEntry struct {
	name    string
	hasSpec bool
	literal bool
	onClose func(*Context) error
}

type specEntry struct {
	spec     style.Spec
	textOnly bool
}

// inlineItem is a pending inline result, either a span or a whole widget
type inlineItem struct {
	span   widget.Span
	widget widget.Widget
}

// stateSnapshot holds stack depths recorded at the start of a render pass
type stateSnapshot struct {
	containers int
	tags       int
	specs      int
	tokens     int
	unwind     int
}

// Context is the mutable state of one render pass. Render functions push
// and pop containers, tags and style specs as they walk the token stream.
// When a render function fails it returns immediately, leaving the stacks
// as they were at the failure point.
type Context struct {
	cfg *Config
	log *slog.Logger

	containers []containerRecord
	tags       []tagEntry
	specs      []specEntry
	tokens     []*TokenIterator
	ledger     *unwindLedger
	level      int

	inline     []inlineItem
	inNewBlock bool
	snapshot   *stateSnapshot
}

// NewContext creates an empty context
func NewContext(cfg *Config) *Context {
	log := cfg.Logger
	if log == nil {
		log = config.DiscardLogger()
	}
	return &Context{
		cfg:        cfg,
		log:        log.With("component", "render"),
		ledger:     &unwindLedger{},
		inNewBlock: true,
	}
}

// Clone returns a context with empty stacks sharing the configuration
func (c *Context) Clone() *Context {
	return &Context{
		cfg:        c.cfg,
		log:        c.log,
		ledger:     &unwindLedger{},
		inNewBlock: true,
	}
}

// Config returns the render configuration
func (c *Context) Config() *Config {
	return c.cfg
}

// Styles returns the presentation styles
func (c *Context) Styles() config.Styles {
	return c.cfg.Styles
}

// Log returns the context logger
func (c *Context) Log() *slog.Logger {
	return c.log
}

// ============================================================================
// Token iterators
// ============================================================================

// TokensPush makes tokens the current token source
func (c *Context) TokensPush(tokens []*parser.Token, inline bool) {
	c.tokens = append(c.tokens, newTokenIterator(tokens, inline, c.ledger))
}

// TokensPop discards the current token source
func (c *Context) TokensPop() error {
	if len(c.tokens) == 0 {
		return fmt.Errorf("tokens: %w", ErrStackUnderflow)
	}
	c.tokens = c.tokens[:len(c.tokens)-1]
	return nil
}

// Tokens returns the current token iterator, nil when none is pushed
func (c *Context) Tokens() *TokenIterator {
	if len(c.tokens) == 0 {
		return nil
	}
	return c.tokens[len(c.tokens)-1]
}

// UnwindTokens returns close tokens for everything still open, innermost
// first
func (c *Context) UnwindTokens() []*parser.Token {
	return c.ledger.materialize()
}

// UnwindTokensConsumed is UnwindTokens followed by clearing the ledger
func (c *Context) UnwindTokensConsumed() []*parser.Token {
	toks := c.ledger.materialize()
	c.ledger.entries = nil
	return toks
}

// ============================================================================
// Containers
// ============================================================================

// ContainerPush makes w the target of WidgetAdd. Unless w is the root, it
// is added to the current container first, styled with the general spec.
// customAdd, when set, is added instead of w, for containers nested inside
// decoration.
func (c *Context) ContainerPush(w widget.Container, isNewBlock bool, customAdd widget.Widget) {
	parent := len(c.containers) - 1
	meta := Meta{}
	if parent >= 0 {
		for k, v := range c.containers[parent].meta {
			meta[k] = v
		}
		add := widget.Widget(w)
		if customAdd != nil {
			add = customAdd
		}
		c.containerAdd(c.containers[parent].container, c.WrapWidget(add))
	}
	c.containers = append(c.containers, containerRecord{container: w, meta: meta, parent: parent})
	c.inNewBlock = isNewBlock
}

// containerPushDetached pushes a container that is not added to its parent
func (c *Context) containerPushDetached(w widget.Container, isNewBlock bool) {
	parent := len(c.containers) - 1
	meta := Meta{}
	if parent >= 0 {
		for k, v := range c.containers[parent].meta {
			meta[k] = v
		}
	}
	c.containers = append(c.containers, containerRecord{container: w, meta: meta, parent: parent})
	c.inNewBlock = isNewBlock
}

// ContainerPop flushes pending inline results and pops the current container
func (c *Context) ContainerPop() (widget.Container, error) {
	if len(c.containers) == 0 {
		return nil, fmt.Errorf("containers: %w", ErrStackUnderflow)
	}
	if err := c.InlineFlush(); err != nil {
		return nil, err
	}
	rec := c.containers[len(c.containers)-1]
	c.containers = c.containers[:len(c.containers)-1]
	c.inNewBlock = false
	return rec.container, nil
}

// Container returns the current container
func (c *Context) Container() widget.Container {
	if len(c.containers) == 0 {
		return nil
	}
	return c.containers[len(c.containers)-1].container
}

// Meta returns the metadata of the current container
func (c *Context) Meta() Meta {
	if len(c.containers) == 0 {
		return Meta{}
	}
	return c.containers[len(c.containers)-1].meta
}

// UseContainerTmp renders fn into w without adding w to the current
// container
func (c *Context) UseContainerTmp(w widget.Container, fn func() error) error {
	c.containerPushDetached(w, true)
	if err := fn(); err != nil {
		return err
	}
	_, err := c.ContainerPop()
	return err
}

// WrapWidget styles w with the current general spec
func (c *Context) WrapWidget(w widget.Widget) widget.Widget {
	return widget.Wrap(w, c.SpecGeneral())
}

// containerAdd appends to a container, collapsing runs of blank dividers
func (c *Context) containerAdd(container widget.Container, w widget.Widget) {
	if d, ok := w.(*widget.Divider); ok && d.Char == "" {
		children := container.Children()
		if len(children) > 0 {
			if prev, ok := children[len(children)-1].(*widget.Divider); ok && prev.Char == "" {
				return
			}
		}
	}
	container.Add(w)
}

// WidgetAdd adds widgets to the current container
func (c *Context) WidgetAdd(ws ...widget.Widget) error {
	container := c.Container()
	if container == nil {
		return ErrNoContainer
	}
	for _, w := range ws {
		c.containerAdd(container, w)
		c.inNewBlock = widget.IsDivider(w)
	}
	return nil
}

// EnsureNewBlock flushes inline results and separates what follows from
// the previous block with a blank line
func (c *Context) EnsureNewBlock() error {
	if c.inNewBlock {
		return nil
	}
	container := c.Container()
	if container == nil {
		return ErrNoContainer
	}
	if err := c.InlineFlush(); err != nil {
		return err
	}
	if len(container.Children()) == 0 {
		c.inNewBlock = true
		return nil
	}
	return c.WidgetAdd(widget.NewDivider())
}

// ============================================================================
// Inline results
// ============================================================================

// InlinePush queues styled text
func (c *Context) InlinePush(spans ...widget.Span) {
	for _, s := range spans {
		if s.Text != "" {
			c.inline = append(c.inline, inlineItem{span: s})
		}
	}
}

// InlinePushWidget queues a widget produced inside inline content
func (c *Context) InlinePushWidget(w widget.Widget) {
	c.inline = append(c.inline, inlineItem{widget: w})
}

// InlineWidgetsConsumed converts pending inline results into widgets and
// clears them. Consecutive spans are joined into one text widget.
func (c *Context) InlineWidgetsConsumed() []widget.Widget {
	var out []widget.Widget
	var spans []widget.Span
	for _, item := range c.inline {
		if item.widget == nil {
			spans = append(spans, item.span)
			continue
		}
		if len(spans) > 0 {
			out = append(out, widget.NewText(spans...))
			spans = nil
		}
		out = append(out, item.widget)
	}
	if len(spans) > 0 {
		out = append(out, widget.NewText(spans...))
	}
	c.inline = nil
	return out
}

// InlineSpansConsumed returns and clears the pending spans, dropping any
// inline widgets
func (c *Context) InlineSpansConsumed() []widget.Span {
	var out []widget.Span
	for _, item := range c.inline {
		if item.widget == nil {
			out = append(out, item.span)
		}
	}
	c.inline = nil
	return out
}

// InlineFlush adds pending inline results to the current container
func (c *Context) InlineFlush() error {
	if len(c.inline) == 0 {
		return nil
	}
	return c.WidgetAdd(c.InlineWidgetsConsumed()...)
}

// ============================================================================
// Tags
// ============================================================================

// TagPush records an open tag, pushing spec when one is given
func (c *Context) TagPush(name string, spec *style.Spec, textOnly bool) {
	c.tagPush(tagEntry{name: name}, spec, textOnly)
}

func (c *Context) tagPush(entry tagEntry, spec *style.Spec, textOnly bool) {
	if spec != nil {
		c.SpecPush(*spec, textOnly)
		entry.hasSpec = true
	}
	c.tags = append(c.tags, entry)
}

// TagPop closes the innermost tag and returns its name
func (c *Context) TagPop() (string, error) {
	if len(c.tags) == 0 {
		return "", fmt.Errorf("tags: %w", ErrStackUnderflow)
	}
	entry := c.tags[len(c.tags)-1]
	c.tags = c.tags[:len(c.tags)-1]
	if entry.hasSpec {
		if err := c.SpecPop(); err != nil {
			return "", err
		}
	}
	if entry.onClose != nil {
		if err := entry.onClose(c); err != nil {
			return "", err
		}
	}
	return entry.name, nil
}

// TagPopUntil closes tags down to and including the innermost tag named
// name. It reports false, closing nothing, when no such tag is open.
func (c *Context) TagPopUntil(name string) (bool, error) {
	idx := -1
	for i := len(c.tags) - 1; i >= 0; i-- {
		if c.tags[i].name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, nil
	}
	for len(c.tags) > idx {
		if _, err := c.TagPop(); err != nil {
			return false, err
		}
	}
	return true, nil
}

// IsLiteral reports whether text should keep its line breaks
func (c *Context) IsLiteral() bool {
	for _, t := range c.tags {
		if t.literal {
			return true
		}
	}
	return false
}

// ============================================================================
// Specs
// ============================================================================

// SpecPush pushes a style. Text-only specs apply to text but not to the
// containers pushed while they are active.
func (c *Context) SpecPush(s style.Spec, textOnly bool) {
	c.specs = append(c.specs, specEntry{spec: s, textOnly: textOnly})
}

// SpecPop pops the innermost style
func (c *Context) SpecPop() error {
	if len(c.specs) == 0 {
		return fmt.Errorf("specs: %w", ErrStackUnderflow)
	}
	c.specs = c.specs[:len(c.specs)-1]
	return nil
}

// SpecGeneral folds every spec that is not text-only
func (c *Context) SpecGeneral() style.Spec {
	var out style.Spec
	for _, e := range c.specs {
		if !e.textOnly {
			out = style.Overwrite(out, e.spec)
		}
	}
	return out
}

// SpecText folds every spec on the stack
func (c *Context) SpecText() style.Spec {
	var out style.Spec
	for _, e := range c.specs {
		out = style.Overwrite(out, e.spec)
	}
	return out
}

// SpecTextWith layers s on top of SpecText
func (c *Context) SpecTextWith(s style.Spec) style.Spec {
	return style.Overwrite(c.SpecText(), s)
}

// ============================================================================
// Nesting depth
// ============================================================================

// LevelInc increments the nesting depth used for log indentation
func (c *Context) LevelInc() {
	c.level++
}

// LevelDec decrements the nesting depth
func (c *Context) LevelDec() {
	c.level--
}

// ============================================================================
// Rendering
// ============================================================================

// Render dispatches a single token
func (c *Context) Render(tok *parser.Token) error {
	c.log.Debug(strings.Repeat("  ", c.level)+"render", "type", string(tok.Type))
	c.LevelInc()
	if err := c.cfg.Registry.Render(tok, c); err != nil {
		return err
	}
	c.LevelDec()
	return nil
}

// RenderAll renders every remaining token of the current iterator
func (c *Context) RenderAll() error {
	it := c.Tokens()
	if it == nil {
		return ErrNoTokens
	}
	for tok := it.Next(); tok != nil; tok = it.Next() {
		if err := c.Render(tok); err != nil {
			return err
		}
	}
	return nil
}

// RenderTokens renders tokens through a freshly pushed iterator
func (c *Context) RenderTokens(tokens []*parser.Token, inline bool) error {
	c.TokensPush(tokens, inline)
	if err := c.RenderAll(); err != nil {
		return err
	}
	return c.TokensPop()
}

// ============================================================================
// Clean state validation
// ============================================================================

// CleanStateSnapshot records the current stack depths
func (c *Context) CleanStateSnapshot() {
	c.snapshot = &stateSnapshot{
		containers: len(c.containers),
		tags:       len(c.tags),
		specs:      len(c.specs),
		tokens:     len(c.tokens),
		unwind:     len(c.ledger.entries),
	}
}

// CleanStateValidate fails when any stack depth differs from the snapshot
// or the nesting depth is not back to zero
func (c *Context) CleanStateValidate() error {
	if c.snapshot == nil {
		return structural(nil, "render state validated without a snapshot")
	}
	var problems []string
	check := func(name string, want, got int) {
		if want != got {
			problems = append(problems, fmt.Sprintf("%s: expected %d, got %d", name, want, got))
		}
	}
	check("containers", c.snapshot.containers, len(c.containers))
	check("tags", c.snapshot.tags, len(c.tags))
	check("specs", c.snapshot.specs, len(c.specs))
	check("tokens", c.snapshot.tokens, len(c.tokens))
	check("unwind", c.snapshot.unwind, len(c.ledger.entries))
	check("level", 0, c.level)
	if len(problems) > 0 {
		return structural(nil, "unclean render state (%s)", strings.Join(problems, ", "))
	}
	return nil
}

// ============================================================================
// Diagnostics
// ============================================================================

// Diagnose attaches source excerpts for the current token to structural
// errors. Other errors are returned unchanged.
func (c *Context) Diagnose(err error) error {
	var se *StructuralError
	if !errors.As(err, &se) {
		return err
	}
	tok := se.Token
	if tok == nil {
		if it := c.Tokens(); it != nil {
			tok = it.Curr()
		}
	}
	if tok == nil {
		return err
	}
	if se.Excerpt == "" {
		se.Excerpt = formatExcerpt(c.cfg.Source, tok.Map, c.cfg.LineOffset)
	}
	if se.UnwoundExcerpt == "" && tok.Unwound != nil {
		se.UnwoundExcerpt = formatExcerpt(c.cfg.Source, tok.Unwound.Map, c.cfg.LineOffset)
	}
	return err
}
