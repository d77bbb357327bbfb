package ext

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gubarz/mdslides/internal/parser"
	"github.com/gubarz/mdslides/internal/render"
	"github.com/gubarz/mdslides/internal/widget"
	"gopkg.in/yaml.v3"
)

const (
	defaultTerminalRows = 10
	terminalTimeout     = 10 * time.Second
)

var numberedTerminal = regexp.MustCompile(`^terminal(\d+)$`)

// terminalBlock is the YAML body of a ```terminal-ex code block
type terminalBlock struct {
	Command           string `yaml:"command"`
	Rows              int    `yaml:"rows"`
	InitText          string `yaml:"init_text"`
	InitCodeblock     *bool  `yaml:"init_codeblock"`
	InitCodeblockLang string `yaml:"init_codeblock_lang"`
}

// terminal runs the command of ```terminal<rows> and ```terminal-ex blocks
// and shows the last rows lines of its output in a box. init_text is fed to
// the command on stdin. The output is captured once per render, the command
// is not interactive.
type terminal struct {
	env Env
}

func newTerminal(env Env) (render.Extension, error) {
	return &terminal{env: env.withDefaults()}, nil
}

func (t *terminal) Name() string { return "terminal" }
func (t *terminal) Shutdown()    {}

func (t *terminal) UserWarnings() []string {
	return []string{
		"Code-blocks with a language starting with 'terminal' will run " +
			"shell commands from the source markdown",
	}
}

func (t *terminal) Overrides() map[parser.TokenType]render.OverrideFunc {
	return map[parser.TokenType]render.OverrideFunc{
		parser.Fence: t.renderFence,
	}
}

// parseTerminalBlock reads the block settings from a fence, reporting false
// for fences that are not terminal blocks
func parseTerminalBlock(tok *parser.Token) (terminalBlock, bool, error) {
	lang := parser.FenceLang(tok)
	if m := numberedTerminal.FindStringSubmatch(lang); m != nil {
		rows, _ := strconv.Atoi(m[1])
		off := false
		return terminalBlock{
			Command:       strings.TrimSpace(tok.Content),
			Rows:          rows,
			InitCodeblock: &off,
		}, true, nil
	}
	if lang != "terminal-ex" {
		return terminalBlock{}, false, nil
	}

	var block terminalBlock
	if err := yaml.Unmarshal([]byte(tok.Content), &block); err != nil {
		return block, true, fmt.Errorf("invalid terminal-ex block: %w", err)
	}
	if block.Rows <= 0 {
		block.Rows = defaultTerminalRows
	}
	if block.InitCodeblockLang == "" {
		block.InitCodeblockLang = "text"
	}
	return block, true, nil
}

func (t *terminal) renderFence(tok *parser.Token, ctx *render.Context) (render.Outcome, error) {
	block, ok, err := parseTerminalBlock(tok)
	if !ok || err != nil {
		return render.Declined, err
	}
	if block.Command == "" {
		return render.Declined, fmt.Errorf("terminal block has no command")
	}

	if block.InitText != "" && (block.InitCodeblock == nil || *block.InitCodeblock) {
		code := &parser.Token{
			Type:    parser.Fence,
			Info:    block.InitCodeblockLang,
			Content: block.InitText,
			Map:     tok.Map,
		}
		if err := ctx.RenderTokens([]*parser.Token{code}, false); err != nil {
			return render.Declined, err
		}
	}

	runCtx, cancel := context.WithTimeout(context.Background(), terminalTimeout)
	defer cancel()
	out, err := t.env.Runner.Transform(runCtx, block.Command, []byte(block.InitText))
	if err != nil {
		// the box still shows what the command printed
		t.env.Logger.Warn("terminal command failed", "command", block.Command, "error", err)
	}

	if err := ctx.EnsureNewBlock(); err != nil {
		return render.Declined, err
	}
	spec := ctx.SpecText()
	box := &widget.LineBox{
		W:            widget.NewText(widget.Span{Text: strings.Join(lastRows(string(out), block.Rows), "\n"), Style: spec}),
		Side:         "│",
		TopCorner:    "┌",
		BottomCorner: "└",
		Style:        spec,
	}
	if err := ctx.WidgetAdd(box, widget.NewDivider()); err != nil {
		return render.Declined, err
	}
	return render.Handled, nil
}

// lastRows returns exactly rows lines, the tail of out padded with blanks
func lastRows(out string, rows int) []string {
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if out == "" {
		lines = nil
	}
	if len(lines) > rows {
		lines = lines[len(lines)-rows:]
	}
	for len(lines) < rows {
		lines = append(lines, "")
	}
	return lines
}
