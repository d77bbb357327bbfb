package render

import (
	"strings"

	"github.com/gubarz/mdslides/internal/parser"
	"github.com/gubarz/mdslides/internal/widget"
)

// tableCell is the open token of a cell and the inline token holding its
// content. inline is nil when the table was cut off right after the open.
type tableCell struct {
	open   *parser.Token
	inline *parser.Token
}

// nextOfType consumes the next token, failing unless it has type typ. A nil
// token without an error means the stream ended. Reveal steps cut tables
// short this way, and the closes that would follow are implied.
func nextOfType(it *TokenIterator, typ parser.TokenType) (*parser.Token, error) {
	tok := it.Next()
	if tok == nil {
		return nil, nil
	}
	if tok.Type != typ {
		return nil, structural(tok, "malformed table, expected %s but got %s", typ, tok.Type)
	}
	return tok, nil
}

// collectRow consumes one row. complete is false when the stream ended
// before the row was closed.
func collectRow(it *TokenIterator, cellType parser.TokenType) (cells []tableCell, complete bool, err error) {
	open, err := nextOfType(it, parser.TableRowOpen)
	if err != nil || open == nil {
		return nil, false, err
	}
	for {
		tok := it.Next()
		if tok == nil {
			return cells, false, nil
		}
		if tok.Type == parser.TableRowClose {
			return cells, true, nil
		}
		if tok.Type != cellType {
			return nil, false, structural(tok, "malformed table row, expected %s but got %s", cellType, tok.Type)
		}
		cell := tableCell{open: tok}
		if cell.inline, err = nextOfType(it, parser.Inline); err != nil {
			return nil, false, err
		}
		cells = append(cells, cell)
		if cell.inline == nil {
			return cells, false, nil
		}
		end, err := nextOfType(it, cellType.CloseType())
		if err != nil {
			return nil, false, err
		}
		if end == nil {
			return cells, false, nil
		}
	}
}

// collectTable consumes the tokens following table_open up to and including
// table_close, or up to the end of a truncated stream
func collectTable(it *TokenIterator) ([]tableCell, [][]tableCell, error) {
	open, err := nextOfType(it, parser.TableHeadOpen)
	if err != nil || open == nil {
		return nil, nil, err
	}
	header, complete, err := collectRow(it, parser.TableHeaderOpen)
	if err != nil {
		return nil, nil, err
	}
	if !complete {
		return header, nil, nil
	}
	end, err := nextOfType(it, parser.TableHeadClose)
	if err != nil {
		return nil, nil, err
	}
	if end == nil {
		return header, nil, nil
	}

	tok := it.Next()
	if tok == nil || tok.Type == parser.TableClose {
		return header, nil, nil
	}
	if tok.Type != parser.TableBodyOpen {
		return nil, nil, structural(tok, "malformed table, expected %s but got %s", parser.TableBodyOpen, tok.Type)
	}

	var rows [][]tableCell
	for {
		next := it.Peek()
		if next == nil {
			return header, rows, nil
		}
		if next.Type == parser.TableBodyClose {
			it.Next()
			break
		}
		row, complete, err := collectRow(it, parser.TableDataOpen)
		if err != nil {
			return nil, nil, err
		}
		if len(row) > 0 || complete {
			rows = append(rows, row)
		}
		if !complete {
			return header, rows, nil
		}
	}
	if _, err := nextOfType(it, parser.TableClose); err != nil {
		return nil, nil, err
	}
	return header, rows, nil
}

func cellAlign(open *parser.Token) widget.Align {
	for _, decl := range strings.Split(open.Attr("style"), ";") {
		k, v, ok := strings.Cut(decl, ":")
		if ok && strings.TrimSpace(k) == "text-align" {
			return widget.ParseAlign(v)
		}
	}
	return widget.AlignLeft
}

func renderCell(ctx *Context, cell tableCell) (widget.TableCell, error) {
	if cell.inline == nil {
		return widget.TableCell{W: widget.NewText()}, nil
	}
	pile := widget.NewPile()
	err := ctx.UseContainerTmp(pile, func() error {
		return ctx.RenderTokens(cell.inline.Children, true)
	})
	if err != nil {
		return widget.TableCell{}, err
	}
	return widget.TableCell{W: pile, Text: cell.inline.PlainText()}, nil
}

func renderTableOpen(tok *parser.Token, ctx *Context) error {
	it := ctx.Tokens()
	if it == nil {
		return ErrNoTokens
	}
	headerToks, rowToks, err := collectTable(it)
	if err != nil {
		return err
	}
	if err := ctx.EnsureNewBlock(); err != nil {
		return err
	}

	ts := ctx.Styles().Table
	aligns := make([]widget.Align, len(headerToks))
	header := make([]widget.TableCell, len(headerToks))
	ctx.SpecPush(specFromDef(ts.Style), true)
	for i, c := range headerToks {
		aligns[i] = cellAlign(c.open)
		if header[i], err = renderCell(ctx, c); err != nil {
			return err
		}
	}
	if err := ctx.SpecPop(); err != nil {
		return err
	}

	rows := make([][]widget.TableCell, len(rowToks))
	for r, cells := range rowToks {
		// rows are normalized to the header width
		if len(cells) > len(header) {
			cells = cells[:len(header)]
		}
		row := make([]widget.TableCell, len(header))
		for i := range row {
			if i >= len(cells) {
				row[i] = widget.TableCell{W: widget.NewText()}
				continue
			}
			if row[i], err = renderCell(ctx, cells[i]); err != nil {
				return err
			}
		}
		rows[r] = row
	}

	table := widget.NewTable(header, rows, aligns)
	if ts.ColumnSpacing > 0 {
		table.Gap = ts.ColumnSpacing
	}
	table.Divider = ts.HeaderDivider
	table.DividerStyle = specFromDef(ts.Style)

	centered := &widget.Padding{W: table, Width: table.PackedWidth(), Align: widget.AlignCenter}
	return ctx.WidgetAdd(centered, widget.NewDivider())
}
