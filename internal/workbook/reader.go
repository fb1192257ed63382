// Package workbook wraps excelize with the row shape the import pipeline
// works on: named sheets of header-keyed string rows.
package workbook

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// RowNumberKey carries the original 1-based spreadsheet row number through the
// pipeline for error reporting.
const RowNumberKey = "_row"

// Row maps normalized column keys to trimmed cell values. Empty cells are "".
type Row map[string]string

// RowNumber returns the spreadsheet row this Row came from, or 0.
func (r Row) RowNumber() int {
	n, _ := strconv.Atoi(r[RowNumberKey])
	return n
}

// ParseError indicates the file could not be read as a workbook at all.
// It is fatal: nothing is imported when parsing fails.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unreadable workbook: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Workbook is an in-memory view of a parsed spreadsheet.
type Workbook struct {
	sheets  map[string][]Row
	headers map[string][]string
	order   []string
}

// NormalizeHeader converts a raw header cell to the key used in Rows:
// lower-cased, trimmed, required-marker stripped, spaces collapsed to
// underscores.
func NormalizeHeader(h string) string {
	h = strings.TrimSpace(h)
	h = strings.TrimSuffix(h, " *")
	h = strings.ToLower(h)
	return strings.Join(strings.Fields(h), "_")
}

// Read parses an xlsx stream into a Workbook. Returns *ParseError on corrupt
// or unreadable content.
func Read(r io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	defer f.Close()

	wb := &Workbook{
		sheets:  make(map[string][]Row),
		headers: make(map[string][]string),
	}

	for _, name := range f.GetSheetList() {
		raw, err := f.GetRows(name)
		if err != nil {
			return nil, &ParseError{Err: fmt.Errorf("sheet %q: %w", name, err)}
		}
		wb.order = append(wb.order, name)
		if len(raw) == 0 {
			wb.sheets[name] = nil
			continue
		}

		headers := make([]string, len(raw[0]))
		for i, h := range raw[0] {
			headers[i] = NormalizeHeader(h)
		}
		wb.headers[name] = headers

		rows := make([]Row, 0, len(raw)-1)
		for idx, cells := range raw[1:] {
			row := make(Row, len(headers)+1)
			empty := true
			for i, value := range cells {
				if i >= len(headers) || headers[i] == "" {
					continue
				}
				v := strings.TrimSpace(value)
				row[headers[i]] = v
				if v != "" {
					empty = false
				}
			}
			if empty {
				continue
			}
			row[RowNumberKey] = strconv.Itoa(idx + 2)
			rows = append(rows, row)
		}
		wb.sheets[name] = rows
	}

	return wb, nil
}

// SheetNames returns sheet names in file order.
func (w *Workbook) SheetNames() []string {
	return w.order
}

// HasSheet reports whether the workbook contains the named sheet.
func (w *Workbook) HasSheet(name string) bool {
	_, ok := w.sheets[name]
	return ok
}

// Rows returns the data rows of a sheet (header excluded), nil if absent.
func (w *Workbook) Rows(name string) []Row {
	return w.sheets[name]
}

// Headers returns the normalized header keys of a sheet.
func (w *Workbook) Headers(name string) []string {
	return w.headers[name]
}
