package ext

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gubarz/mdslides/internal/config"
	"github.com/gubarz/mdslides/internal/parser"
	"github.com/gubarz/mdslides/internal/render"
	"github.com/gubarz/mdslides/internal/style"
	"github.com/gubarz/mdslides/internal/widget"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner records transform calls and upper cases the input
type fakeRunner struct {
	commands []string
}

func (r *fakeRunner) RunShell(ctx context.Context, command string) (string, error) {
	r.commands = append(r.commands, command)
	return "", nil
}

func (r *fakeRunner) Transform(ctx context.Context, command string, input []byte) ([]byte, error) {
	r.commands = append(r.commands, command)
	return []byte(strings.ToUpper(string(input))), nil
}

type plainHighlighter struct{}

func (plainHighlighter) Highlight(text, lang, styleName string) ([]widget.Span, style.Spec) {
	return []widget.Span{{Text: text}}, style.Spec{}
}

func testEnv(fs afero.Fs, runner *fakeRunner) Env {
	return Env{
		Fs:        fs,
		SourceDir: "/deck",
		WorkDir:   "/work",
		Runner:    runner,
		Now:       func() time.Time { return time.Date(2026, time.October, 18, 12, 0, 0, 0, time.UTC) },
	}
}

func renderWith(t *testing.T, exts []render.Extension, md string) string {
	t.Helper()
	r := render.NewRenderer(render.Config{
		Styles:      config.DarkTheme(),
		Highlighter: plainHighlighter{},
		Registry:    render.NewRegistry(exts...),
	})
	w, err := r.RenderSlide(&parser.Slide{Tokens: parser.Tokenize([]byte(md))})
	require.NoError(t, err)
	return widget.String(w, 60)
}

func TestLoad(t *testing.T) {
	env := testEnv(afero.NewMemMapFs(), &fakeRunner{})

	t.Run("warnings only for unsafe extensions", func(t *testing.T) {
		exts, warnings, err := Load(env, []string{"calendar", "file_loader"}, nil, false)
		require.NoError(t, err)
		require.Len(t, exts, 2)
		assert.Equal(t, "calendar", exts[0].Name())
		require.Len(t, warnings, 1)
		assert.Equal(t, "file_loader", warnings[0].Extension)

		_, warnings, err = Load(env, []string{"file_loader"}, []string{"file_loader"}, false)
		require.NoError(t, err)
		assert.Empty(t, warnings)
	})

	t.Run("duplicates load once", func(t *testing.T) {
		exts, _, err := Load(env, []string{"calendar", " calendar ", ""}, nil, false)
		require.NoError(t, err)
		assert.Len(t, exts, 1)
	})

	t.Run("failures are aggregated", func(t *testing.T) {
		_, _, err := Load(env, []string{"nope", "calendar", "missing"}, nil, false)
		var le *LoadError
		require.True(t, errors.As(err, &le))
		assert.Len(t, le.Errors, 2)
		assert.Contains(t, err.Error(), `"nope"`)
		assert.Contains(t, err.Error(), `"missing"`)
	})

	t.Run("failures can be ignored", func(t *testing.T) {
		exts, _, err := Load(env, []string{"nope", "calendar"}, nil, true)
		require.NoError(t, err)
		require.Len(t, exts, 1)
		assert.Equal(t, "calendar", exts[0].Name())
	})

	t.Run("factory errors are wrapped", func(t *testing.T) {
		boom := errors.New("boom")
		Register("broken", func(Env) (render.Extension, error) { return nil, boom })
		_, _, err := Load(env, []string{"broken"}, nil, false)
		assert.ErrorIs(t, err, boom)
	})
}

func TestNames(t *testing.T) {
	names := Names()
	assert.Contains(t, names, "file_loader")
	assert.Contains(t, names, "calendar")
}

func TestFormatWarnings(t *testing.T) {
	out := FormatWarnings([]Warning{{Extension: "x", Messages: []string{"does things"}}})
	assert.Contains(t, out, `"x"`)
	assert.Contains(t, out, "* does things")
}

func TestFileLoader(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/deck/code.go", []byte("one\ntwo\nthree\nfour\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/work/other.txt", []byte("from work\n"), 0o644))

	tests := []struct {
		name     string
		block    string
		want     []string
		notWant  []string
		commands int
	}{
		{
			name:  "relative to the source",
			block: "path: code.go\nlang: go\n",
			want:  []string{"one", "four"},
		},
		{
			name:    "line range",
			block:   "path: code.go\nlines:\n  start: 1\n  end: 3\n",
			want:    []string{"two", "three"},
			notWant: []string{"one", "four"},
		},
		{
			name:    "negative start",
			block:   "path: code.go\nlines:\n  start: -2\n",
			want:    []string{"four"},
			notWant: []string{"three"},
		},
		{
			name:  "working directory",
			block: "path: other.txt\nrelative: false\n",
			want:  []string{"from work"},
		},
		{
			name:     "transform",
			block:    "path: code.go\ntransform: sort $path\n",
			want:     []string{"ONE"},
			commands: 1,
		},
		{
			name:  "missing file",
			block: "path: nope.txt\n",
			want:  []string{"File not found"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{}
			exts, _, err := Load(testEnv(fs, runner), []string{"file_loader"}, nil, false)
			require.NoError(t, err)

			out := renderWith(t, exts, "```file\n"+tt.block+"```\n")
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
			for _, w := range tt.notWant {
				assert.NotContains(t, out, w)
			}
			assert.Len(t, runner.commands, tt.commands)
			if tt.commands > 0 {
				assert.Equal(t, "sort /deck/code.go", runner.commands[0])
			}
		})
	}
}

func TestFileLoaderIgnoresOtherFences(t *testing.T) {
	exts, _, err := Load(testEnv(afero.NewMemMapFs(), &fakeRunner{}), []string{"file_loader"}, nil, false)
	require.NoError(t, err)
	out := renderWith(t, exts, "```go\npath: x\n```\n")
	assert.Contains(t, out, "path: x")
}

func TestFileLoaderInvalidBlock(t *testing.T) {
	exts, _, err := Load(testEnv(afero.NewMemMapFs(), &fakeRunner{}), []string{"file_loader"}, nil, false)
	require.NoError(t, err)
	r := render.NewRenderer(render.Config{Registry: render.NewRegistry(exts...), Highlighter: plainHighlighter{}})
	_, err = r.RenderSlide(&parser.Slide{Tokens: parser.Tokenize([]byte("```file\nlang: go\n```\n"))})
	assert.Error(t, err)
}

func TestSliceLines(t *testing.T) {
	data := []byte("a\nb\nc\nd")
	end := func(i int) *int { return &i }
	tests := []struct {
		name  string
		start int
		end   *int
		want  string
	}{
		{"all", 0, nil, "a\nb\nc\nd"},
		{"middle", 1, end(3), "b\nc"},
		{"negative end", 0, end(-1), "a\nb\nc"},
		{"past the end", 2, end(10), "c\nd"},
		{"empty", 3, end(1), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(sliceLines(data, tt.start, tt.end)))
		})
	}
}

func TestCalendar(t *testing.T) {
	exts, _, err := Load(testEnv(afero.NewMemMapFs(), &fakeRunner{}), []string{"calendar"}, nil, false)
	require.NoError(t, err)

	out := renderWith(t, exts, "```calendar\n```\n")
	assert.Contains(t, out, "October 2026")
	assert.Contains(t, out, "Mo Tu We Th Fr Sa Su")

	out = renderWith(t, exts, "```text\nplain\n```\n")
	assert.Contains(t, out, "plain")
}

func TestMonthGrid(t *testing.T) {
	got := monthGrid(time.Date(2026, time.October, 18, 0, 0, 0, 0, time.UTC))
	want := strings.Join([]string{
		"    October 2026",
		"Mo Tu We Th Fr Sa Su",
		"          1  2  3  4",
		" 5  6  7  8  9 10 11",
		"12 13 14 15 16 17 18",
		"19 20 21 22 23 24 25",
		"26 27 28 29 30 31",
	}, "\n")
	assert.Equal(t, want, got)
}

func TestTerminal(t *testing.T) {
	runner := &fakeRunner{}
	exts, warnings, err := Load(testEnv(afero.NewMemMapFs(), runner), []string{"terminal"}, nil, false)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, "terminal", warnings[0].Extension)

	t.Run("terminal-ex feeds init text and keeps the last rows", func(t *testing.T) {
		out := renderWith(t, exts, "```terminal-ex\ncommand: cat\nrows: 2\ninit_text: |\n  one\n  two\n  three\n```\n")
		assert.Equal(t, "cat", runner.commands[len(runner.commands)-1])
		// the init text is shown as a code block above the box
		assert.Contains(t, out, "one")
		assert.Contains(t, out, "TWO")
		assert.Contains(t, out, "THREE")
		assert.NotContains(t, out, "ONE")
		assert.Contains(t, out, "┌")
		assert.Contains(t, out, "└")
	})

	t.Run("numbered terminal pads to its rows", func(t *testing.T) {
		out := renderWith(t, exts, "```terminal3\nbash -i\n```\n")
		assert.Equal(t, "bash -i", runner.commands[len(runner.commands)-1])
		assert.Equal(t, 3, strings.Count(out, "│"))
	})

	t.Run("missing command", func(t *testing.T) {
		r := render.NewRenderer(render.Config{
			Styles:      config.DarkTheme(),
			Highlighter: plainHighlighter{},
			Registry:    render.NewRegistry(exts...),
		})
		_, err := r.RenderSlide(&parser.Slide{Tokens: parser.Tokenize([]byte("```terminal-ex\nrows: 2\n```\n"))})
		assert.ErrorContains(t, err, "terminal block has no command")
	})

	t.Run("other fences are left alone", func(t *testing.T) {
		calls := len(runner.commands)
		out := renderWith(t, exts, "```terminal-like\nplain\n```\n")
		assert.Contains(t, out, "plain")
		assert.Len(t, runner.commands, calls)
	})
}

func TestLastRows(t *testing.T) {
	assert.Equal(t, []string{"b", "c"}, lastRows("a\nb\nc\n", 2))
	assert.Equal(t, []string{"a", "", ""}, lastRows("a\n", 3))
	assert.Equal(t, []string{"", ""}, lastRows("", 2))
}
