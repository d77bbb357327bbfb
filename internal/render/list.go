package render

import (
	"strconv"
	"strings"

	"github.com/gubarz/mdslides/internal/parser"
	"github.com/gubarz/mdslides/internal/widget"
	"github.com/mattn/go-runewidth"
)

// metaMaxMarkerWidth is written on list open tokens by the measuring pass
const metaMaxMarkerWidth = "max_list_marker_width"

const defaultMarkerWidth = 2

var romanTable = []struct {
	value  int
	symbol string
}{
	{1000, "m"}, {900, "cm"}, {500, "d"}, {400, "cd"},
	{100, "c"}, {90, "xc"}, {50, "l"}, {40, "xl"},
	{10, "x"}, {9, "ix"}, {5, "v"}, {4, "iv"}, {1, "i"},
}

// ToRoman converts n to a lowercase roman numeral
func ToRoman(n int) string {
	var sb strings.Builder
	for _, r := range romanTable {
		for n >= r.value {
			sb.WriteString(r.symbol)
			n -= r.value
		}
	}
	return sb.String()
}

// toAlpha converts n to a, b, ..., z, aa, ab, ...
func toAlpha(n int) string {
	var out []byte
	for n > 0 {
		n--
		out = append([]byte{byte('a' + n%26)}, out...)
		n /= 26
	}
	return string(out)
}

// listState is the bookkeeping kept in the metadata of a list container
type listState struct {
	token *parser.Token
	count int
	width int
}

const metaList = "list"

func renderBulletListOpen(tok *parser.Token, ctx *Context) error {
	return listOpen(tok, ctx, false)
}

func renderOrderedListOpen(tok *parser.Token, ctx *Context) error {
	return listOpen(tok, ctx, true)
}

func listOpen(tok *parser.Token, ctx *Context, ordered bool) error {
	level := ctx.Meta().Int("list_level", 0) + 1
	if level == 1 {
		if err := ctx.EnsureNewBlock(); err != nil {
			return err
		}
	} else if err := ctx.InlineFlush(); err != nil {
		return err
	}

	width := defaultMarkerWidth
	if w, ok := tok.Meta[metaMaxMarkerWidth].(int); ok {
		width = w
	}
	start := 1
	if v, err := strconv.Atoi(tok.Attr("start")); err == nil {
		start = v
	}

	ctx.ContainerPush(widget.NewPile(), true, nil)
	meta := ctx.Meta()
	meta["list_level"] = level
	meta["ordered"] = ordered
	meta["list_start"] = start
	meta[metaList] = &listState{token: tok, width: width}
	return nil
}

func renderListClose(tok *parser.Token, ctx *Context) error {
	state, ok := ctx.Meta()[metaList].(*listState)
	if !ok {
		return structural(tok, "list closed outside of a list")
	}
	if state.token.Meta == nil {
		state.token.Meta = map[string]any{}
	}
	state.token.Meta[metaMaxMarkerWidth] = state.width

	level := ctx.Meta().Int("list_level", 1)
	if _, err := ctx.ContainerPop(); err != nil {
		return err
	}
	if level == 1 {
		return ctx.WidgetAdd(widget.NewDivider())
	}
	return nil
}

// listMarker returns the marker for the nth item of the current list
func listMarker(ctx *Context, n int) string {
	meta := ctx.Meta()
	level := meta.Int("list_level", 1)
	if !meta.Bool("ordered") {
		return ctx.Styles().Bullet(level)
	}
	num := meta.Int("list_start", 1) + n - 1
	switch ctx.Styles().NumberingStyle(level) {
	case "alpha":
		return toAlpha(num) + "."
	case "roman":
		return ToRoman(num) + "."
	}
	return strconv.Itoa(num) + "."
}

func renderListItemOpen(tok *parser.Token, ctx *Context) error {
	state, ok := ctx.Meta()[metaList].(*listState)
	if !ok {
		return structural(tok, "list item outside of a list")
	}
	state.count++
	marker := listMarker(ctx, state.count)
	state.width = max(state.width, runewidth.StringWidth(marker))

	item := widget.NewPile()
	row := widget.NewColumns(1,
		widget.Column{
			W:     widget.NewText(widget.Span{Text: marker, Style: ctx.SpecText()}),
			Width: state.width,
		},
		widget.Column{W: item},
	)
	ctx.ContainerPush(item, true, row)
	return nil
}

func renderListItemClose(tok *parser.Token, ctx *Context) error {
	_, err := ctx.ContainerPop()
	return err
}
