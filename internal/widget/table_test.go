package widget

import (
	"strings"
	"testing"

	"github.com/gubarz/mdslides/internal/style"
	"github.com/stretchr/testify/assert"
)

func cells(values ...string) []TableCell {
	out := make([]TableCell, len(values))
	for i, v := range values {
		out[i] = TableCell{W: plain(v), Text: v}
	}
	return out
}

func column(values ...string) *Table {
	rows := make([][]TableCell, len(values))
	for i, v := range values {
		rows[i] = cells(v)
	}
	return NewTable(cells("value"), rows, nil)
}

func TestTableCycleSort(t *testing.T) {
	table := column("b", "a")
	assert.Equal(t, []int{0, 1}, table.RowOrder())

	assert.Equal(t, SortAsc, table.CycleSort(0))
	assert.Equal(t, []int{1, 0}, table.RowOrder())

	assert.Equal(t, SortDesc, table.CycleSort(0))
	assert.Equal(t, []int{0, 1}, table.RowOrder())

	assert.Equal(t, SortNone, table.CycleSort(0))
	assert.Equal(t, []int{0, 1}, table.RowOrder())

	// out of range columns leave the state alone
	assert.Equal(t, SortNone, table.CycleSort(3))
}

func TestTableCycleSortSwitchesColumn(t *testing.T) {
	table := NewTable(cells("a", "b"), [][]TableCell{cells("1", "y"), cells("2", "x")}, nil)
	table.CycleSort(0)
	table.CycleSort(0)
	assert.Equal(t, SortAsc, table.CycleSort(1))
	col, dir := table.SortState()
	assert.Equal(t, 1, col)
	assert.Equal(t, SortAsc, dir)
	assert.Equal(t, []int{1, 0}, table.RowOrder())
}

func TestTableSortCasters(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   []int
		caster string
	}{
		{
			name:   "integers sort numerically",
			values: []string{"2", "10", "1"},
			want:   []int{2, 0, 1},
			caster: "float",
		},
		{
			name:   "one non numeric cell falls back to raw bytes",
			values: []string{"2", "10", "1", "x"},
			want:   []int{2, 1, 0, 3},
			caster: "raw",
		},
		{
			name:   "floats",
			values: []string{"1.5", "-3", "1e2"},
			want:   []int{1, 0, 2},
			caster: "float",
		},
		{
			name:   "hex needs a prefix",
			values: []string{"0xff", "0x0A", "0x1"},
			want:   []int{2, 1, 0},
			caster: "hex",
		},
		{
			name:   "versions",
			values: []string{"v1.10.0", "1.2.3", "1.2.3-rc1", "1.2"},
			want:   []int{3, 2, 1, 0},
			caster: "version",
		},
		{
			name:   "mixed date layouts",
			values: []string{"2024-03-01", "Jan 2, 2006", "1999-12-31"},
			want:   []int{2, 1, 0},
			caster: "date",
		},
		{
			name:   "iso dates are not versions",
			values: []string{"2024-03-01", "2023-12-31", "2024-01-15"},
			want:   []int{1, 2, 0},
			caster: "date",
		},
		{
			name:   "dates with times",
			values: []string{"2024-03-01 10:00", "2024-03-01 09:30:00", "March 1, 2024"},
			want:   []int{2, 1, 0},
			caster: "date",
		},
		{
			name:   "version build metadata",
			values: []string{"1.0.0+b2", "1.0.0-alpha", "0.9.9"},
			want:   []int{2, 1, 0},
			caster: "version",
		},
		{
			name:   "unparseable date falls back to raw",
			values: []string{"2024-03-01", "someday", "1999-12-31"},
			want:   []int{2, 0, 1},
			caster: "raw",
		},
		{
			name:   "stable for equal keys",
			values: []string{"1", "1.0", "0", "1"},
			want:   []int{2, 0, 1, 3},
			caster: "float",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.caster, pickCaster(tt.values).name)
			table := column(tt.values...)
			table.CycleSort(0)
			assert.Equal(t, tt.want, table.RowOrder())
		})
	}
}

func TestTableRenderKeepsHeaderOnSort(t *testing.T) {
	table := NewTable(cells("name", "n"), [][]TableCell{cells("b", "2"), cells("a", "10")}, []Align{AlignLeft, AlignRight})
	table.Gap = 1

	assert.Equal(t, []string{
		"name  n",
		"──── ──",
		"b     2",
		"a    10",
	}, table.Render(40))

	table.CycleSort(1)
	table.CycleSort(1)
	lines := table.Render(40)
	assert.Equal(t, "name  n", lines[0])
	assert.Equal(t, "a    10", lines[2])
	assert.Equal(t, 7, table.PackedWidth())
}

func TestTableFitsNarrowWidth(t *testing.T) {
	long := strings.Repeat("word ", 10)
	table := NewTable(cells("a", "b"), [][]TableCell{cells("x", long)}, nil)
	table.Divider = ""
	for _, l := range table.Render(20) {
		assert.LessOrEqual(t, Width(l), 20)
	}
}

func TestTables(t *testing.T) {
	first := column("a")
	second := column("b")
	tree := NewPile(
		plain("intro"),
		&Padding{W: first, Width: first.PackedWidth()},
		&LineBox{W: NewPile(Wrap(second, style.New("", "red"))), Side: "│"},
	)
	assert.Equal(t, []*Table{first, second}, Tables(tree))
	assert.Empty(t, Tables(plain("no tables")))
}
