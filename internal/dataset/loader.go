package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat is returned for input files that are neither CSV
// nor Excel. This is the only fatal ingestion error; malformed cells
// degrade to nulls later in the pipeline.
var ErrUnsupportedFormat = errors.New("unsupported file format, use CSV or Excel")

// ErrEmptyTable is returned when the input has no header row at all.
var ErrEmptyTable = errors.New("file contains no rows")

// Load reads an input file into a Table. Cell values are raw strings;
// the first row supplies column names.
func Load(path string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return loadCSV(path)
	case ".xlsx", ".xls":
		return loadExcel(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func loadCSV(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyTable, path)
	}

	// Strip the UTF-8 BOM some spreadsheet exports prepend.
	records[0][0] = strings.TrimPrefix(records[0][0], "\uFEFF")

	return fromRecords(records), nil
}

func loadExcel(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	// Use the first sheet that actually carries a header and data.
	var records [][]string
	var sheetName string
	for _, name := range f.GetSheetList() {
		rows, rerr := f.GetRows(name)
		if rerr != nil || len(rows) < 2 {
			continue
		}
		if hasHeader(rows[0]) {
			records = rows
			sheetName = name
			break
		}
	}
	if records == nil {
		return nil, fmt.Errorf("no usable sheet found in %s", path)
	}

	slog.Info("loaded Excel sheet",
		slog.String("file", filepath.Base(path)),
		slog.String("sheet", sheetName),
		slog.Int("rows", len(records)-1))

	return fromRecords(records), nil
}

func hasHeader(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return true
		}
	}
	return false
}

func fromRecords(records [][]string) *Table {
	columns := make([]string, len(records[0]))
	for i, c := range records[0] {
		columns[i] = strings.TrimSpace(c)
	}

	table := &Table{Columns: columns}
	for _, rec := range records[1:] {
		row := make(Row, len(columns))
		for i, col := range columns {
			if i < len(rec) {
				row[col] = rec[i]
			} else {
				row[col] = ""
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}
