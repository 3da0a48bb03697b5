package parser

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"kwcluster/pkg/keyword"
	"kwcluster/pkg/logger"
)

// XLSXParser reads one worksheet of an Excel workbook.
// The first row is the header; cells come back as their stored values.
type XLSXParser struct {
	log *logger.Logger
}

func NewXLSXParser() *XLSXParser {
	return &XLSXParser{
		log: logger.GetLogger().WithComponent("xlsx_parser"),
	}
}

func (p *XLSXParser) Parse(ctx context.Context, r io.Reader, opts Options) (*keyword.RawTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open workbook: %w", ErrMalformedInput, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	sheet := opts.Sheet
	if sheet == "" {
		if len(sheets) == 0 {
			return nil, ErrEmptyInput
		}
		sheet = sheets[0]
	} else if !containsSheet(sheets, sheet) {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrSheetNotFound, sheet, sheets)
	}

	// RawCellValue keeps numbers as stored instead of applying number formats like "#,##0".
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: sheet %q has no header row", ErrEmptyInput, sheet)
	}

	table := &keyword.RawTable{Header: rows[0], Rows: make([][]string, 0, len(rows)-1)}
	width := len(table.Header)
	for _, row := range rows[1:] {
		// Trailing empty cells are omitted by excelize.
		if len(row) < width {
			padded := make([]string, width)
			copy(padded, row)
			row = padded
		}
		table.Rows = append(table.Rows, row)
	}

	p.log.WithFields(map[string]interface{}{
		"sheet":   sheet,
		"rows":    len(table.Rows),
		"columns": width,
	}).Debug("Parsed workbook sheet")

	return table, nil
}

func (p *XLSXParser) SupportedFormats() []string {
	return []string{"xlsx", "xlsm"}
}

func containsSheet(sheets []string, name string) bool {
	for _, s := range sheets {
		if s == name {
			return true
		}
	}
	return false
}
