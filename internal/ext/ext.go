// Package ext loads the extensions a presentation asks for. Extensions
// override how individual token types are rendered.
package ext

import (
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gubarz/mdslides/internal/config"
	"github.com/gubarz/mdslides/internal/executor"
	"github.com/gubarz/mdslides/internal/render"
	"github.com/spf13/afero"
)

// Env is what extensions get to work with
type Env struct {
	Fs        afero.Fs
	SourceDir string // directory of the presentation source
	WorkDir   string // working directory for non relative paths
	Runner    executor.ShellRunner
	Logger    *slog.Logger
	Now       func() time.Time
}

func (e Env) withDefaults() Env {
	if e.Fs == nil {
		e.Fs = afero.NewOsFs()
	}
	if e.Runner == nil {
		e.Runner = executor.NewExecutor()
	}
	if e.Logger == nil {
		e.Logger = config.DiscardLogger()
	}
	if e.Now == nil {
		e.Now = time.Now
	}
	return e
}

// Factory creates an extension
type Factory func(env Env) (render.Extension, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register makes an extension available by name
func Register(name string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[name] = f
}

// Names returns the registered extension names, sorted
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookup(name string) (Factory, bool) {
	mu.RLock()
	defer mu.RUnlock()
	f, ok := factories[name]
	return f, ok
}

// Warning holds the user warnings of one extension
type Warning struct {
	Extension string
	Messages  []string
}

// LoadError collects every extension that failed to load
type LoadError struct {
	Errors []error
}

func (e *LoadError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return "error loading one or more extensions:\n\n" + strings.Join(msgs, "\n")
}

func (e *LoadError) Unwrap() []error {
	return e.Errors
}

// Load creates the named extensions in order. Extensions named in safe were
// requested by the user and carry no warnings, the rest report their user
// warnings for confirmation. Failures are collected into a LoadError unless
// ignoreFailure is set, in which case failing extensions are skipped.
func Load(env Env, names, safe []string, ignoreFailure bool) ([]render.Extension, []Warning, error) {
	env = env.withDefaults()
	log := env.Logger.With("component", "ext")

	var (
		exts     []render.Extension
		warnings []Warning
		errs     []error
		seen     = map[string]bool{}
	)
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		ext, err := create(env, name)
		if err != nil {
			if ignoreFailure {
				log.Warn("skipping extension", "name", name, "error", err)
				continue
			}
			errs = append(errs, err)
			continue
		}
		log.Info("loaded extension", "name", name)
		exts = append(exts, ext)

		if !slices.Contains(safe, name) {
			if msgs := ext.UserWarnings(); len(msgs) > 0 {
				warnings = append(warnings, Warning{Extension: name, Messages: msgs})
			}
		}
	}

	if len(errs) > 0 {
		Shutdown(exts)
		return nil, nil, &LoadError{Errors: errs}
	}
	return exts, warnings, nil
}

func create(env Env, name string) (render.Extension, error) {
	f, ok := lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown extension %q", name)
	}
	ext, err := f(env)
	if err != nil {
		return nil, fmt.Errorf("extension %q: %w", name, err)
	}
	return ext, nil
}

// Shutdown shuts down every extension
func Shutdown(exts []render.Extension) {
	for _, e := range exts {
		e.Shutdown()
	}
}

// FormatWarnings renders warnings for a confirmation prompt
func FormatWarnings(warnings []Warning) string {
	var sb strings.Builder
	sb.WriteString("Extension-provided user warnings:\n")
	for _, w := range warnings {
		fmt.Fprintf(&sb, "\n  %q:\n\n", w.Extension)
		for _, msg := range w.Messages {
			fmt.Fprintf(&sb, "    * %s\n", msg)
		}
	}
	return sb.String()
}

func init() {
	Register("file_loader", newFileLoader)
	Register("calendar", newCalendar)
	Register("terminal", newTerminal)
}
