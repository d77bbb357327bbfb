package widget

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/araddon/dateparse"

	"github.com/gubarz/mdslides/internal/style"
)

// SortDir is the sort state of a table column
type SortDir int

const (
	SortNone SortDir = iota
	SortAsc
	SortDesc
)

func (d SortDir) String() string {
	switch d {
	case SortAsc:
		return "asc"
	case SortDesc:
		return "desc"
	}
	return "none"
}

// TableCell is a rendered cell and the plain text it is sorted by
type TableCell struct {
	W    Widget
	Text string
}

// Table lays out a header and body rows in aligned columns. Sorting only
// reorders the body.
type Table struct {
	Header       []TableCell
	Rows         [][]TableCell
	Aligns       []Align
	Gap          int
	Divider      string
	DividerStyle style.Spec

	sortCol int
	sortDir SortDir
}

// NewTable creates a table. Every row must have as many cells as the header.
func NewTable(header []TableCell, rows [][]TableCell, aligns []Align) *Table {
	return &Table{Header: header, Rows: rows, Aligns: aligns, Gap: 2, Divider: "─"}
}

// CycleSort advances the sort of col through none, ascending and
// descending. Selecting a different column starts again at ascending.
func (t *Table) CycleSort(col int) SortDir {
	if col < 0 || col >= len(t.Header) {
		return t.sortDir
	}
	if col != t.sortCol {
		t.sortCol = col
		t.sortDir = SortNone
	}
	t.sortDir = (t.sortDir + 1) % 3
	return t.sortDir
}

// SortState returns the sorted column and direction
func (t *Table) SortState() (int, SortDir) {
	return t.sortCol, t.sortDir
}

// RowOrder returns body row indexes in display order
func (t *Table) RowOrder() []int {
	order := make([]int, len(t.Rows))
	for i := range order {
		order[i] = i
	}
	if t.sortDir == SortNone {
		return order
	}

	values := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		if t.sortCol < len(row) {
			values[i] = row[t.sortCol].Text
		}
	}
	c := pickCaster(values)
	keys := make([]any, len(values))
	for i, v := range values {
		keys[i], _ = c.cast(v)
	}
	sort.SliceStable(order, func(a, b int) bool {
		ka, kb := keys[order[a]], keys[order[b]]
		if t.sortDir == SortDesc {
			return c.less(kb, ka)
		}
		return c.less(ka, kb)
	})
	return order
}

func (t *Table) align(col int) Align {
	if col < len(t.Aligns) {
		return t.Aligns[col]
	}
	return AlignLeft
}

func (t *Table) naturalWidths() []int {
	widths := make([]int, len(t.Header))
	for i, cell := range t.Header {
		widths[i] = cell.W.PackedWidth()
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], cell.W.PackedWidth())
			}
		}
	}
	return widths
}

// fitWidths shrinks the widest columns until the table fits in width
func (t *Table) fitWidths(width int) []int {
	widths := t.naturalWidths()
	avail := width - t.Gap*max(len(widths)-1, 0)
	total := 0
	for _, w := range widths {
		total += w
	}
	if total <= avail {
		return widths
	}

	fixed := make([]bool, len(widths))
	remaining, open := avail, len(widths)
	for open > 0 {
		share := max(remaining/open, 1)
		changed := false
		for i, w := range widths {
			if !fixed[i] && w <= share {
				fixed[i] = true
				remaining -= w
				open--
				changed = true
			}
		}
		if !changed {
			for i := range widths {
				if !fixed[i] {
					widths[i] = share
				}
			}
			break
		}
	}
	return widths
}

func (t *Table) row(cells []TableCell, widths []int) *Columns {
	cols := make([]Column, len(widths))
	for i := range widths {
		var w Widget = NewText()
		if i < len(cells) {
			w = &Padding{W: cells[i].W, Width: cells[i].W.PackedWidth(), Align: t.align(i)}
		}
		cols[i] = Column{W: w, Width: max(widths[i], 1)}
	}
	return NewColumns(t.Gap, cols...)
}

func (t *Table) Render(width int) []string {
	widths := t.fitWidths(width)
	lines := t.row(t.Header, widths).Render(width)

	if t.Divider != "" {
		parts := make([]string, len(widths))
		for i, w := range widths {
			parts[i] = t.DividerStyle.Render(strings.Repeat(t.Divider, w))
		}
		lines = append(lines, strings.Join(parts, strings.Repeat(" ", t.Gap)))
	}

	for _, idx := range t.RowOrder() {
		lines = append(lines, t.row(t.Rows[idx], widths).Render(width)...)
	}
	return lines
}

func (t *Table) PackedWidth() int {
	w := t.Gap * max(len(t.Header)-1, 0)
	for _, cw := range t.naturalWidths() {
		w += cw
	}
	return w
}

// Tables returns every table inside w in reading order
func Tables(w Widget) []*Table {
	var out []*Table
	var walk func(Widget)
	walk = func(w Widget) {
		switch w := w.(type) {
		case *Table:
			out = append(out, w)
		case Container:
			for _, c := range w.Children() {
				walk(c)
			}
		case *Padding:
			walk(w.W)
		case *Styled:
			walk(w.W)
		case *LineBox:
			walk(w.W)
		case *Columns:
			for _, c := range w.Cols {
				walk(c.W)
			}
		}
	}
	walk(w)
	return out
}

// ============================================================================
// Casting cell text for sorting
// ============================================================================

type caster struct {
	name string
	cast func(string) (any, bool)
	less func(a, b any) bool
}

// versionRe keeps bare integers and ISO dates away from the version caster
var versionRe = regexp.MustCompile(`^v?\d+(\.\d+)+`)

// casters are tried in order, the first that parses every value wins
var casters = []caster{
	{
		name: "float",
		cast: func(s string) (any, bool) {
			f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			return f, err == nil
		},
		less: func(a, b any) bool { return a.(float64) < b.(float64) },
	},
	{
		name: "hex",
		cast: func(s string) (any, bool) {
			s = strings.TrimSpace(s)
			if len(s) < 3 || !strings.EqualFold(s[:2], "0x") {
				return nil, false
			}
			n, err := strconv.ParseUint(s[2:], 16, 64)
			return n, err == nil
		},
		less: func(a, b any) bool { return a.(uint64) < b.(uint64) },
	},
	{
		name: "version",
		cast: func(s string) (any, bool) {
			s = strings.TrimSpace(s)
			if !versionRe.MatchString(s) {
				return nil, false
			}
			v, err := semver.NewVersion(s)
			return v, err == nil
		},
		less: func(a, b any) bool { return a.(*semver.Version).LessThan(b.(*semver.Version)) },
	},
	{
		name: "date",
		cast: func(s string) (any, bool) {
			t, err := dateparse.ParseAny(strings.TrimSpace(s))
			return t, err == nil
		},
		less: func(a, b any) bool { return a.(time.Time).Before(b.(time.Time)) },
	},
}

var rawCaster = caster{
	name: "raw",
	cast: func(s string) (any, bool) { return s, true },
	less: func(a, b any) bool { return a.(string) < b.(string) },
}

func pickCaster(values []string) caster {
outer:
	for _, c := range casters {
		for _, v := range values {
			if _, ok := c.cast(v); !ok {
				continue outer
			}
		}
		return c
	}
	return rawCaster
}
