package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dylandoyle11/RedashETL/pkg/models/domain"
)

func ReadCSV(r io.Reader) (*domain.Table, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to read CSV header: empty input")
		}
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	if len(header) > 0 {
		header[0] = trimBOM(header[0])
	}

	var records [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}
		records = append(records, record)
	}
	return fromRecords(header, records), nil
}

func WriteCSV(w io.Writer, table *domain.Table) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(table.Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, rec := range toRecords(table) {
		if err := writer.Write(rec); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func fromRecords(header []string, records [][]string) *domain.Table {
	table := domain.NewTable(header...)
	table.Rows = make([]domain.Row, 0, len(records))
	for _, rec := range records {
		row := make(domain.Row, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = ParseValue(rec[i])
			} else {
				row[col] = nil
			}
		}
		table.Append(row)
	}
	return table
}

func toRecords(table *domain.Table) [][]string {
	records := make([][]string, 0, len(table.Rows))
	for _, row := range table.Rows {
		rec := make([]string, len(table.Columns))
		for i, col := range table.Columns {
			rec[i] = FormatValue(row[col])
		}
		records = append(records, rec)
	}
	return records
}

func trimBOM(s string) string {
	return strings.TrimPrefix(s, "\ufeff")
}
