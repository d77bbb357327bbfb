package ext

import (
	"fmt"
	"strings"
	"time"

	"github.com/gubarz/mdslides/internal/parser"
	"github.com/gubarz/mdslides/internal/render"
	"github.com/gubarz/mdslides/internal/widget"
)

// calendar draws the current month for ```calendar blocks
type calendar struct {
	now func() time.Time
}

func newCalendar(env Env) (render.Extension, error) {
	return &calendar{now: env.withDefaults().Now}, nil
}

func (c *calendar) Name() string           { return "calendar" }
func (c *calendar) UserWarnings() []string { return nil }
func (c *calendar) Shutdown()              {}

func (c *calendar) Overrides() map[parser.TokenType]render.OverrideFunc {
	return map[parser.TokenType]render.OverrideFunc{
		parser.Fence: c.renderFence,
	}
}

func (c *calendar) renderFence(tok *parser.Token, ctx *render.Context) (render.Outcome, error) {
	if parser.FenceLang(tok) != "calendar" {
		return render.Declined, nil
	}
	if err := ctx.EnsureNewBlock(); err != nil {
		return render.Declined, err
	}
	text := widget.NewText(widget.Span{Text: monthGrid(c.now().UTC()), Style: ctx.SpecText()})
	if err := ctx.WidgetAdd(text, widget.NewDivider()); err != nil {
		return render.Declined, err
	}
	return render.Handled, nil
}

// monthGrid lays out the month containing t, weeks starting on Monday
func monthGrid(t time.Time) string {
	const width = 20
	var sb strings.Builder

	title := fmt.Sprintf("%s %d", t.Month(), t.Year())
	left := (width - len(title)) / 2
	sb.WriteString(strings.TrimRight(strings.Repeat(" ", left)+title, " "))
	sb.WriteString("\nMo Tu We Th Fr Sa Su\n")

	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	days := first.AddDate(0, 1, -1).Day()
	// Monday is column 0
	col := (int(first.Weekday()) + 6) % 7

	line := strings.Repeat("   ", col)
	for day := 1; day <= days; day++ {
		line += fmt.Sprintf("%2d", day)
		col++
		if col == 7 || day == days {
			sb.WriteString(strings.TrimRight(line, " "))
			sb.WriteString("\n")
			line, col = "", 0
			continue
		}
		line += " "
	}
	return strings.TrimRight(sb.String(), "\n")
}
