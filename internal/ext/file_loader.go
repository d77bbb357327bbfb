package ext

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gubarz/mdslides/internal/executor"
	"github.com/gubarz/mdslides/internal/parser"
	"github.com/gubarz/mdslides/internal/render"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// fileBlock is the YAML body of a ```file code block
type fileBlock struct {
	Path      string `yaml:"path"`
	Relative  *bool  `yaml:"relative"`
	Lang      string `yaml:"lang"`
	Transform string `yaml:"transform"`
	Lines     struct {
		Start int  `yaml:"start"`
		End   *int `yaml:"end"`
	} `yaml:"lines"`
}

// fileLoader replaces ```file blocks with the contents of the file they
// point at, optionally piped through a shell command
type fileLoader struct {
	env Env
}

func newFileLoader(env Env) (render.Extension, error) {
	return &fileLoader{env: env.withDefaults()}, nil
}

func (f *fileLoader) Name() string {
	return "file_loader"
}

func (f *fileLoader) UserWarnings() []string {
	return []string{
		"Code-blocks with a language of 'file' may run shell commands from the " +
			"source markdown if the 'transform' field is set",
	}
}

func (f *fileLoader) Overrides() map[parser.TokenType]render.OverrideFunc {
	return map[parser.TokenType]render.OverrideFunc{
		parser.Fence: f.renderFence,
	}
}

func (f *fileLoader) Shutdown() {}

// renderFence rewrites the token and always declines so the default code
// renderer draws the result
func (f *fileLoader) renderFence(tok *parser.Token, ctx *render.Context) (render.Outcome, error) {
	lang, _ := parser.ParseFenceInfo(tok.Info)
	if lang != "file" {
		return render.Declined, nil
	}

	var block fileBlock
	if err := yaml.Unmarshal([]byte(tok.Content), &block); err != nil {
		return render.Declined, fmt.Errorf("invalid file block: %w", err)
	}
	if block.Path == "" {
		return render.Declined, fmt.Errorf("file block has no path")
	}
	if block.Lang == "" {
		block.Lang = "text"
	}

	base := f.env.SourceDir
	if block.Relative != nil && !*block.Relative {
		base = f.env.WorkDir
	}
	path := block.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(base, path)
	}

	// attributes such as line numbers carry over to the new language
	attrs := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(tok.Info), lang))

	exists, err := afero.Exists(f.env.Fs, path)
	if err != nil || !exists {
		f.env.Logger.Warn("file not found", "path", path)
		tok.Content = "File not found\n"
		tok.Info = strings.TrimSpace("text " + attrs)
		return render.Declined, nil
	}

	data, err := afero.ReadFile(f.env.Fs, path)
	if err != nil {
		return render.Declined, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if block.Transform != "" {
		cmd := executor.SubstituteVars(block.Transform, map[string]string{"path": path})
		// a failing transform still shows what it printed
		out, err := f.env.Runner.Transform(context.Background(), cmd, data)
		if err != nil {
			f.env.Logger.Warn("transform failed", "command", cmd, "error", err)
		}
		data = out
	}

	tok.Content = string(sliceLines(data, block.Lines.Start, block.Lines.End))
	tok.Info = strings.TrimSpace(block.Lang + " " + attrs)
	return render.Declined, nil
}

// sliceLines selects lines[start:end] where negative indexes count from the
// end and a nil end means the last line
func sliceLines(data []byte, start int, end *int) []byte {
	lines := bytes.Split(data, []byte("\n"))
	n := len(lines)

	clamp := func(i int) int {
		if i < 0 {
			i += n
		}
		return min(max(i, 0), n)
	}
	lo, hi := clamp(start), n
	if end != nil {
		hi = clamp(*end)
	}
	if lo >= hi {
		return nil
	}
	return bytes.Join(lines[lo:hi], []byte("\n"))
}
