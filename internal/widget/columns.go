package widget

import (
	"strings"
)

// Column is one cell of a Columns row. A zero Width shares the space left
// over by fixed width columns.
type Column struct {
	W     Widget
	Width int
}

// Columns lays widgets out side by side
type Columns struct {
	Cols []Column
	Gap  int
}

// NewColumns creates a row of columns separated by gap spaces
func NewColumns(gap int, cols ...Column) *Columns {
	return &Columns{Cols: cols, Gap: gap}
}

// widths distributes width across the columns
func (c *Columns) widths(width int) []int {
	widths := make([]int, len(c.Cols))
	used := c.Gap * max(len(c.Cols)-1, 0)
	flex := 0
	for i, col := range c.Cols {
		if col.Width > 0 {
			widths[i] = col.Width
			used += col.Width
		} else {
			flex++
		}
	}
	if flex == 0 {
		return widths
	}
	remaining := max(width-used, flex)
	share := remaining / flex
	extra := remaining - share*flex
	for i, col := range c.Cols {
		if col.Width > 0 {
			continue
		}
		widths[i] = share
		if extra > 0 {
			widths[i]++
			extra--
		}
	}
	return widths
}

func (c *Columns) Render(width int) []string {
	widths := c.widths(width)
	rendered := make([][]string, len(c.Cols))
	height := 0
	for i, col := range c.Cols {
		rendered[i] = col.W.Render(widths[i])
		height = max(height, len(rendered[i]))
	}

	gap := strings.Repeat(" ", c.Gap)
	lines := make([]string, height)
	for row := 0; row < height; row++ {
		var sb strings.Builder
		for i := range c.Cols {
			if i > 0 {
				sb.WriteString(gap)
			}
			cell := ""
			if row < len(rendered[i]) {
				cell = rendered[i][row]
			}
			if i < len(c.Cols)-1 {
				cell = padLine(cell, widths[i], AlignLeft)
			}
			sb.WriteString(cell)
		}
		lines[row] = strings.TrimRight(sb.String(), " ")
	}
	return lines
}

func (c *Columns) PackedWidth() int {
	w := c.Gap * max(len(c.Cols)-1, 0)
	for _, col := range c.Cols {
		if col.Width > 0 {
			w += col.Width
		} else {
			w += col.W.PackedWidth()
		}
	}
	return w
}
