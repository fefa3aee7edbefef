// Package tabular decodes CSV and XLSX uploads into generic row records:
// column-name → raw cell value maps, keyed by the file's own headers.
package tabular

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/sheetflow/sheetflow/internal/domain"
)

// ErrUnsupportedFormat is returned when an uploaded file is not supported.
var ErrUnsupportedFormat = errors.New("unsupported file format")

var byteOrderMark = []byte{0xEF, 0xBB, 0xBF}

// Table is a parsed upload: the header row plus one record per data row.
type Table struct {
	Headers []string
	Rows    []domain.RowRecord
}

// Parse decodes payload according to the file extension.
func Parse(fileName string, payload []byte) (Table, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".csv":
		return parseCSV(payload)
	case ".xlsx":
		return parseExcel(payload)
	default:
		return Table{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

func parseCSV(payload []byte) (Table, error) {
	reader := bufio.NewReader(bytes.NewReader(payload))
	if prefix, err := reader.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = reader.Discard(len(byteOrderMark))
	}

	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("failed to read csv: %w", err)
	}

	return buildTable(records)
}

func parseExcel(payload []byte) (Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return Table{}, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Table{}, errors.New("excel file has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return Table{}, fmt.Errorf("failed to read rows from xlsx: %w", err)
	}

	return buildTable(rows)
}

// buildTable treats the first non-empty row as the header and turns every
// later non-empty row into a RowRecord keyed by header name.
func buildTable(records [][]string) (Table, error) {
	if len(records) == 0 {
		return Table{}, errors.New("no rows found in file")
	}

	var headerRow []string
	var dataRows [][]string
	for _, row := range records {
		if isEmptyRow(row) {
			continue
		}
		if headerRow == nil {
			headerRow = row
			continue
		}
		dataRows = append(dataRows, row)
	}

	if headerRow == nil {
		return Table{}, errors.New("no header row detected")
	}

	headers := dedupeHeaders(headerRow)
	table := Table{Headers: headers}

	for _, row := range dataRows {
		record := make(domain.RowRecord, len(headers))
		for idx, header := range headers {
			if idx >= len(row) {
				continue
			}
			if cell := strings.TrimSpace(row[idx]); cell != "" {
				record[header] = cell
			}
		}
		if len(record) > 0 {
			table.Rows = append(table.Rows, record)
		}
	}

	return table, nil
}

// dedupeHeaders trims header names, fills in blanks, and suffixes duplicates
// so every column has a distinct key.
func dedupeHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	seen := make(map[string]int)

	for idx, value := range raw {
		name := strings.TrimSpace(value)
		if name == "" {
			name = fmt.Sprintf("Column %d", idx+1)
		}

		base := strings.ToLower(name)
		count := seen[base]
		if count > 0 {
			name = fmt.Sprintf("%s %d", name, count+1)
		}
		seen[base] = count + 1

		headers[idx] = name
	}

	return headers
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
