package workbook

import (
	"io"

	"github.com/xuri/excelize/v2"
)

// Builder accumulates sheets and writes them out as an xlsx workbook.
// Used by the export path and the import-template generator.
type Builder struct {
	file  *excelize.File
	first bool
}

// NewBuilder returns an empty workbook builder.
func NewBuilder() *Builder {
	return &Builder{file: excelize.NewFile(), first: true}
}

// AddSheet appends a sheet with a styled header row followed by data rows.
func (b *Builder) AddSheet(name string, headers []string, rows [][]interface{}) error {
	if b.first {
		b.file.SetSheetName("Sheet1", name)
		b.first = false
	} else {
		if _, err := b.file.NewSheet(name); err != nil {
			return err
		}
	}

	headerStyle, _ := b.file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := b.file.SetCellValue(name, cell, h); err != nil {
			return err
		}
		b.file.SetCellStyle(name, cell, cell, headerStyle)
		col, _ := excelize.ColumnNumberToName(i + 1)
		b.file.SetColWidth(name, col, col, 20)
	}

	for r, row := range rows {
		for c, value := range row {
			if value == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := b.file.SetCellValue(name, cell, value); err != nil {
				return err
			}
		}
	}

	return nil
}

// SetCell writes a single cell, for free-form sheets like Instructions.
func (b *Builder) SetCell(sheet, cell string, value interface{}) error {
	if b.first {
		b.file.SetSheetName("Sheet1", sheet)
		b.first = false
	} else if idx, _ := b.file.GetSheetIndex(sheet); idx < 0 {
		if _, err := b.file.NewSheet(sheet); err != nil {
			return err
		}
	}
	return b.file.SetCellValue(sheet, cell, value)
}

// SetColWidth adjusts a column range width on a sheet.
func (b *Builder) SetColWidth(sheet, start, end string, width float64) {
	b.file.SetColWidth(sheet, start, end, width)
}

// SetActiveSheet makes the named sheet active when the file opens.
func (b *Builder) SetActiveSheet(name string) {
	if idx, err := b.file.GetSheetIndex(name); err == nil && idx >= 0 {
		b.file.SetActiveSheet(idx)
	}
}

// WriteTo streams the workbook to w.
func (b *Builder) WriteTo(w io.Writer) error {
	defer b.file.Close()
	return b.file.Write(w)
}
