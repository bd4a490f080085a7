package tabular

import (
	"fmt"
	"io"

	"github.com/dylandoyle11/RedashETL/pkg/models/domain"
	"github.com/xuri/excelize/v2"
)

const defaultSheet = "Sheet1"

// ReadXLSX reads the first sheet of a workbook, using its first row as header.
func ReadXLSX(r io.Reader) (*domain.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("failed to read sheet: no header row")
	}
	return fromRecords(rows[0], rows[1:]), nil
}

func WriteXLSX(w io.Writer, table *domain.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	header := make([]any, len(table.Columns))
	for i, c := range table.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(defaultSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for r, row := range table.Rows {
		cells := make([]any, len(table.Columns))
		for i, col := range table.Columns {
			cells[i] = xlsxValue(row[col])
		}
		addr, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(defaultSheet, addr, &cells); err != nil {
			return fmt.Errorf("failed to write row %d: %w", r+1, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// xlsxValue keeps numbers numeric in the workbook.
func xlsxValue(v any) any {
	switch val := ParseValue(FormatValue(v)).(type) {
	case nil:
		return ""
	default:
		return val
	}
}
