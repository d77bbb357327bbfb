package presentation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gubarz/mdslides/internal/ext"
	"github.com/gubarz/mdslides/internal/widget"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const deck = `---
title: The *Deck*
author: Someone
styles:
  table:
    column_spacing: 5
---
# One

first slide

---

# Two

second slide
`

func memFs(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
	}
	return fs
}

func slideText(t *testing.T, p *Presentation, n int) string {
	t.Helper()
	w, err := p.RenderSlide(n)
	require.NoError(t, err)
	return widget.String(w, 60)
}

func TestLoad(t *testing.T) {
	p, err := Load(Options{Fs: memFs(t, map[string]string{"/deck/talk.md": deck}), Path: "/deck/talk.md"})
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, 2, p.SlideCount())
	assert.Equal(t, "Someone", p.Meta().Author)
	assert.Equal(t, 5, p.Styles().Table.ColumnSpacing)
	assert.Contains(t, slideText(t, p, 0), "first slide")
	assert.Contains(t, slideText(t, p, 1), "second slide")

	spans, err := p.Title()
	require.NoError(t, err)
	var title strings.Builder
	for _, s := range spans {
		title.WriteString(s.Text)
	}
	assert.Equal(t, "The Deck", title.String())

	_, err = p.RenderSlide(2)
	assert.ErrorContains(t, err, "out of range")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(Options{Fs: afero.NewMemMapFs(), Path: "/nope.md"})
	assert.ErrorContains(t, err, "failed to read /nope.md")
}

func TestCodeStyleOverride(t *testing.T) {
	fs := memFs(t, map[string]string{"/a.md": "# A\n"})

	p, err := Load(Options{Fs: fs, Path: "/a.md", Theme: "light"})
	require.NoError(t, err)
	assert.Equal(t, "friendly", p.Styles().Style)
	p.Close()

	p, err = Load(Options{Fs: fs, Path: "/a.md", Theme: "light", CodeStyle: "vim"})
	require.NoError(t, err)
	assert.Equal(t, "vim", p.Styles().Style)
	p.Close()

	_, err = Load(Options{Fs: fs, Path: "/a.md", Theme: "neon"})
	assert.ErrorContains(t, err, `unknown theme "neon"`)
}

func TestExtensions(t *testing.T) {
	source := "---\nextensions:\n  - file_loader\n---\n```file\npath: code.txt\n```\n"

	tests := []struct {
		name      string
		opts      Options
		wantExts  int
		wantWarns int
		wantText  string
	}{
		{
			name:      "source extensions warn",
			wantExts:  1,
			wantWarns: 1,
			wantText:  "loaded from disk",
		},
		{
			name:     "preloaded extensions are trusted",
			opts:     Options{Extensions: []string{"file_loader"}},
			wantExts: 1,
			wantText: "loaded from disk",
		},
		{
			name:     "safe mode skips source extensions",
			opts:     Options{Safe: true},
			wantText: "path: code.txt",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts
			opts.Fs = memFs(t, map[string]string{
				"/deck/talk.md":  source,
				"/deck/code.txt": "loaded from disk\n",
			})
			opts.Path = "/deck/talk.md"

			p, err := Load(opts)
			require.NoError(t, err)
			defer p.Close()

			assert.Len(t, p.exts, tt.wantExts)
			assert.Len(t, p.Warnings(), tt.wantWarns)
			assert.Contains(t, slideText(t, p, 0), tt.wantText)
		})
	}
}

func TestExtensionFailures(t *testing.T) {
	fs := memFs(t, map[string]string{"/a.md": "---\nextensions: [nope]\n---\n# A\n"})

	_, err := Load(Options{Fs: fs, Path: "/a.md"})
	var le *ext.LoadError
	assert.True(t, errors.As(err, &le))

	p, err := Load(Options{Fs: fs, Path: "/a.md", IgnoreExtFailure: true})
	require.NoError(t, err)
	p.Close()
}

func TestReload(t *testing.T) {
	fs := memFs(t, map[string]string{"/deck/talk.md": deck})
	p, err := Load(Options{
		Fs:           fs,
		Path:         "/deck/talk.md",
		Threads:      true,
		PollInterval: 5 * time.Millisecond,
	})
	require.NoError(t, err)
	defer p.Close()
	require.NoError(t, p.Start())

	assert.Contains(t, slideText(t, p, 0), "first slide")

	require.NoError(t, afero.WriteFile(fs, "/deck/talk.md", []byte("# A\n\nchanged\n\n---\n\n# B\n\n---\n\n# C\n"), 0o644))
	require.NoError(t, p.Reload())

	assert.Equal(t, 3, p.SlideCount())
	assert.Contains(t, slideText(t, p, 0), "changed")
	assert.Equal(t, 3, p.Styles().Table.ColumnSpacing, "front matter overrides are gone")
}

func TestReloadKeepsOldDocumentOnError(t *testing.T) {
	fs := memFs(t, map[string]string{"/a.md": "# A\n"})
	p, err := Load(Options{Fs: fs, Path: "/a.md"})
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, afero.WriteFile(fs, "/a.md", []byte("---\ntitle: [\n---\n"), 0o644))
	assert.Error(t, p.Reload())
	assert.Contains(t, slideText(t, p, 0), "A")
}

func TestStdin(t *testing.T) {
	p, err := Load(Options{Path: Stdin, Stdin: strings.NewReader("# From stdin\n")})
	require.NoError(t, err)
	defer p.Close()

	assert.Contains(t, slideText(t, p, 0), "From stdin")
	require.NoError(t, p.Reload())
	assert.Equal(t, 1, p.SlideCount())

	assert.Error(t, p.Watch(context.Background(), func(error) {}))
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "talk.md")
	require.NoError(t, os.WriteFile(path, []byte("# One\n"), 0o644))

	p, err := Load(Options{Path: path})
	require.NoError(t, err)
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var reloads atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- p.Watch(ctx, func(err error) {
			assert.NoError(t, err)
			reloads.Add(1)
		})
	}()

	// give the watcher time to register
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("# One\n\n---\n\n# Two\n"), 0o644))

	assert.Eventually(t, func() bool { return p.SlideCount() == 2 }, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return reloads.Load() > 0 }, time.Second, 10*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}
