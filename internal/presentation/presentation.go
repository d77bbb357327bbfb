// Package presentation ties parsing, extensions, rendering and the slide
// cache together for one markdown source.
package presentation

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gubarz/mdslides/internal/config"
	"github.com/gubarz/mdslides/internal/executor"
	"github.com/gubarz/mdslides/internal/ext"
	"github.com/gubarz/mdslides/internal/parser"
	"github.com/gubarz/mdslides/internal/render"
	"github.com/gubarz/mdslides/internal/scheduler"
	"github.com/gubarz/mdslides/internal/widget"
	"github.com/spf13/afero"
)

// Stdin is the path that reads the presentation from Options.Stdin
const Stdin = "-"

// Options configure a presentation
type Options struct {
	Fs    afero.Fs
	Path  string
	Stdin io.Reader

	Theme     string
	CodeStyle string

	// Extensions are preloaded and trusted, extensions requested by the
	// source are only loaded when Safe is off
	Extensions       []string
	Safe             bool
	IgnoreExtFailure bool

	SingleSlide  bool
	Threads      bool
	PollInterval time.Duration
	StartSlide   int

	Runner executor.ShellRunner
	Logger *slog.Logger
}

// Presentation is a loaded markdown presentation
type Presentation struct {
	opts Options
	log  *slog.Logger

	mu       sync.RWMutex
	doc      *parser.Document
	styles   config.Styles
	renderer *render.Renderer

	exts     []render.Extension
	warnings []ext.Warning
	sched    *scheduler.SlideRenderer
}

// Load reads and parses the presentation and loads its extensions.
// Nothing renders until Start, so extension warnings can be confirmed first.
func Load(opts Options) (*Presentation, error) {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Logger == nil {
		opts.Logger = config.DiscardLogger()
	}
	if opts.Path != Stdin && opts.Path != "" {
		opts.Path = filepath.Clean(opts.Path)
	}

	p := &Presentation{
		opts: opts,
		log:  opts.Logger.With("component", "presentation"),
	}

	data, err := p.read()
	if err != nil {
		return nil, err
	}
	doc, err := parser.NewParser(opts.SingleSlide).Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", p.name(), err)
	}

	names := append([]string{}, opts.Extensions...)
	if !opts.Safe {
		names = append(names, doc.Meta.Extensions...)
	} else if len(doc.Meta.Extensions) > 0 {
		p.log.Info("safe mode, ignoring source extensions", "extensions", doc.Meta.Extensions)
	}
	p.exts, p.warnings, err = ext.Load(p.extEnv(), names, opts.Extensions, opts.IgnoreExtFailure)
	if err != nil {
		return nil, err
	}

	if err := p.swap(doc); err != nil {
		ext.Shutdown(p.exts)
		return nil, err
	}

	p.sched = scheduler.New(p.render,
		scheduler.WithLogger(opts.Logger),
		scheduler.WithPollInterval(opts.PollInterval),
	)
	p.log.Info("loaded presentation", "source", p.name(), "slides", len(doc.Slides))
	return p, nil
}

// Start begins rendering slides in the background when threads are enabled
func (p *Presentation) Start() error {
	if !p.opts.Threads {
		return nil
	}
	if err := p.sched.Start(); err != nil {
		return err
	}
	p.queueAll()
	return nil
}

// Warnings returns the user warnings of untrusted extensions
func (p *Presentation) Warnings() []ext.Warning {
	return p.warnings
}

// Reload reads and parses the source again. Extensions stay loaded.
func (p *Presentation) Reload() error {
	data, err := p.read()
	if err != nil {
		return err
	}
	doc, err := parser.NewParser(p.opts.SingleSlide).Parse(string(data))
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", p.name(), err)
	}

	p.sched.FlushCache()
	if err := p.swap(doc); err != nil {
		return err
	}
	// anything rendered between the two flushes used the old document
	p.sched.FlushCache()

	if p.sched.Running() {
		p.queueAll()
	}
	p.log.Info("reloaded presentation", "slides", len(doc.Slides))
	return nil
}

// swap installs a parsed document together with the styles and renderer
// built for it
func (p *Presentation) swap(doc *parser.Document) error {
	styles, err := config.Theme(p.opts.Theme)
	if err != nil {
		return err
	}
	styles, err = styles.Merge(doc.Meta.Styles)
	if err != nil {
		return err
	}
	if p.opts.CodeStyle != "" {
		styles.Style = p.opts.CodeStyle
	}

	renderer := render.NewRenderer(render.Config{
		Styles:     styles,
		Registry:   render.NewRegistry(p.exts...),
		Source:     doc.Source,
		LineOffset: doc.LineOffset,
		Logger:     p.opts.Logger,
	})

	p.mu.Lock()
	p.doc, p.styles, p.renderer = doc, styles, renderer
	p.mu.Unlock()
	return nil
}

// queueAll queues every slide except the one shown first
func (p *Presentation) queueAll() {
	for i := range p.SlideCount() {
		if i != p.opts.StartSlide {
			p.sched.QueueRender(i)
		}
	}
}

func (p *Presentation) render(n int) (widget.Widget, error) {
	p.mu.RLock()
	r, slides := p.renderer, p.doc.Slides
	p.mu.RUnlock()

	if n < 0 || n >= len(slides) {
		return nil, fmt.Errorf("slide %d out of range (%d slides)", n+1, len(slides))
	}
	return r.RenderSlide(slides[n])
}

// RenderSlide returns the widget tree of slide n, counting from 0
func (p *Presentation) RenderSlide(n int) (widget.Widget, error) {
	return p.sched.RenderSlide(n)
}

// Slides returns the current slides
func (p *Presentation) Slides() []*parser.Slide {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.doc.Slides
}

// SlideCount returns the number of slides
func (p *Presentation) SlideCount() int {
	return len(p.Slides())
}

// Meta returns the front matter
func (p *Presentation) Meta() parser.Meta {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.doc.Meta
}

// Styles returns the styles in effect
func (p *Presentation) Styles() config.Styles {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.styles
}

// Title renders the presentation title
func (p *Presentation) Title() ([]widget.Span, error) {
	p.mu.RLock()
	r, title := p.renderer, p.doc.Meta.Title
	p.mu.RUnlock()
	return r.RenderTitle(title)
}

// Path returns the source path, or Stdin
func (p *Presentation) Path() string {
	return p.opts.Path
}

// Close stops background rendering and shuts down extensions
func (p *Presentation) Close() {
	p.sched.Stop()
	ext.Shutdown(p.exts)
}

func (p *Presentation) name() string {
	if p.fromStdin() {
		return "stdin"
	}
	return p.opts.Path
}

func (p *Presentation) fromStdin() bool {
	return p.opts.Path == "" || p.opts.Path == Stdin
}

// read returns the source. Stdin is only read once and kept for reloads.
func (p *Presentation) read() ([]byte, error) {
	if p.fromStdin() {
		p.mu.RLock()
		doc := p.doc
		p.mu.RUnlock()
		if doc != nil {
			return []byte(doc.Raw), nil
		}
		data, err := io.ReadAll(p.opts.Stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}

	data, err := afero.ReadFile(p.opts.Fs, p.opts.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", p.opts.Path, err)
	}
	return data, nil
}

func (p *Presentation) extEnv() ext.Env {
	env := ext.Env{
		Fs:     p.opts.Fs,
		Runner: p.opts.Runner,
		Logger: p.opts.Logger,
	}
	if wd, err := os.Getwd(); err == nil {
		env.WorkDir = wd
	}
	env.SourceDir = env.WorkDir
	if !p.fromStdin() {
		if dir, err := filepath.Abs(filepath.Dir(p.opts.Path)); err == nil {
			env.SourceDir = dir
		}
	}
	return env
}
