package sheetcalc

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// Names of the worksheets WriteXLSX produces.
const (
	xlsxValuesSheet = "Values"
	xlsxTextsSheet  = "Texts"
)

// WriteXLSX renders the sheet's printable window into an xlsx workbook and
// writes it to w. The Values worksheet holds computed values (formula cells
// additionally carry their canonical formula), the Texts worksheet holds the
// stored texts. This is a one-way snapshot, an output sink like PrintValues;
// the engine never reads workbooks back.
func (s *Sheet) WriteXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), xlsxValuesSheet); err != nil {
		return fmt.Errorf("rename values sheet: %w", err)
	}
	if _, err := f.NewSheet(xlsxTextsSheet); err != nil {
		return fmt.Errorf("create texts sheet: %w", err)
	}

	size := s.GetPrintableSize()
	for row := 0; row < size.Rows; row++ {
		for col := 0; col < size.Cols; col++ {
			pos := Position{Row: row, Col: col}
			c, ok := s.cells[pos]
			if !ok || c.GetText() == "" {
				continue
			}
			if err := s.writeXLSXCell(f, pos, c); err != nil {
				return err
			}
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func (s *Sheet) writeXLSXCell(f *excelize.File, pos Position, c *Cell) error {
	name := pos.String()

	var value any
	switch v := c.GetValue().(type) {
	case float64:
		value = v
	case string:
		value = v
	case FormulaError:
		value = v.Error()
	}
	if err := f.SetCellValue(xlsxValuesSheet, name, value); err != nil {
		return fmt.Errorf("write value at %s: %w", name, err)
	}
	if fc, ok := c.content.(formulaContent); ok {
		if err := f.SetCellFormula(xlsxValuesSheet, name, fc.formula.Expression()); err != nil {
			return fmt.Errorf("write formula at %s: %w", name, err)
		}
	}
	if err := f.SetCellValue(xlsxTextsSheet, name, c.GetText()); err != nil {
		return fmt.Errorf("write text at %s: %w", name, err)
	}
	return nil
}
