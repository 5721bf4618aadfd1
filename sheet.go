package sheetcalc

import (
	"fmt"
	"io"
	"strings"
)

// Sheet is a sparse spreadsheet: a mapping from position to cell. It owns
// every cell it holds; cells reference each other only through non-owning
// edges. A Sheet is not safe for concurrent use.
type Sheet struct {
	cells map[Position]*Cell
}

// NewSheet creates an empty sheet.
func NewSheet() *Sheet {
	return &Sheet{cells: make(map[Position]*Cell)}
}

// SetCell parses text into the cell at pos, creating the cell if absent.
// It returns ErrInvalidPosition for an out-of-bounds position, a
// *FormulaParseError for invalid formula text, and ErrCircularDependency if
// the formula would introduce a cycle; on any error the sheet is unchanged.
func (s *Sheet) SetCell(pos Position, text string) error {
	if !pos.IsValid() {
		return fmt.Errorf("set cell (%d, %d): %w", pos.Row, pos.Col, ErrInvalidPosition)
	}
	c, existed := s.cells[pos]
	if !existed {
		c = newCell(s)
		s.cells[pos] = c
	}
	if err := c.Set(text); err != nil {
		if !existed {
			delete(s.cells, pos) // a failed Set mutates nothing, drop the fresh cell
		}
		return err
	}
	return nil
}

// GetCell returns the cell at pos, or nil if no cell exists there.
func (s *Sheet) GetCell(pos Position) (*Cell, error) {
	if !pos.IsValid() {
		return nil, fmt.Errorf("get cell (%d, %d): %w", pos.Row, pos.Col, ErrInvalidPosition)
	}
	return s.cells[pos], nil
}

// ClearCell empties the cell at pos and tears down its outgoing edges. The
// cell is removed from the sheet unless some formula still reads from it, in
// which case it stays as an empty cell so every edge keeps resolving.
func (s *Sheet) ClearCell(pos Position) error {
	if !pos.IsValid() {
		return fmt.Errorf("clear cell (%d, %d): %w", pos.Row, pos.Col, ErrInvalidPosition)
	}
	c, ok := s.cells[pos]
	if !ok {
		return nil
	}
	c.Clear()
	if !c.IsReferenced() {
		delete(s.cells, pos)
	}
	return nil
}

// GetPrintableSize returns the minimal bounding box, anchored at the origin,
// of all cells with non-empty text. An empty sheet yields (0, 0).
func (s *Sheet) GetPrintableSize() Size {
	var size Size
	for pos, c := range s.cells {
		if c.GetText() == "" {
			continue
		}
		if pos.Row+1 > size.Rows {
			size.Rows = pos.Row + 1
		}
		if pos.Col+1 > size.Cols {
			size.Cols = pos.Col + 1
		}
	}
	return size
}

// PrintValues writes the printable window's computed values to w, tab
// between columns and newline after each row. Absent cells print nothing.
func (s *Sheet) PrintValues(w io.Writer) error {
	return s.print(w, func(c *Cell) string { return formatValue(c.GetValue()) })
}

// PrintTexts writes the printable window's stored texts to w in the same
// layout as PrintValues.
func (s *Sheet) PrintTexts(w io.Writer) error {
	return s.print(w, (*Cell).GetText)
}

func (s *Sheet) print(w io.Writer, render func(*Cell) string) error {
	size := s.GetPrintableSize()
	var sb strings.Builder
	for row := 0; row < size.Rows; row++ {
		sb.Reset()
		for col := 0; col < size.Cols; col++ {
			if col > 0 {
				sb.WriteByte('\t')
			}
			if c, ok := s.cells[Position{Row: row, Col: col}]; ok {
				sb.WriteString(render(c))
			}
		}
		sb.WriteByte('\n')
		if _, err := io.WriteString(w, sb.String()); err != nil {
			return err
		}
	}
	return nil
}

// cell returns the cell at a known-valid position, nil if absent.
func (s *Sheet) cell(pos Position) *Cell {
	return s.cells[pos]
}

// materialize creates an empty cell at a known-valid position.
func (s *Sheet) materialize(pos Position) *Cell {
	c := newCell(s)
	s.cells[pos] = c
	return c
}

// sheetView adapts a Sheet to the SheetView consumed by formula evaluation.
type sheetView struct {
	s *Sheet
}

func (v sheetView) GetCell(pos Position) CellView {
	c := v.s.cell(pos)
	if c == nil {
		return nil
	}
	return c
}
