package parser

import (
	"context"
	"errors"
	"io"

	"kwcluster/pkg/keyword"
)

// DefaultSheet is the worksheet read from keyword exports when none is configured.
const DefaultSheet = "Keywords für kartons-zuschnitte"

var (
	// ErrSheetNotFound is returned when a workbook has no sheet with the requested name.
	ErrSheetNotFound = errors.New("sheet not found")
	// ErrUnsupportedFormat is returned for uploads no registered parser understands.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrEmptyInput is returned when the source holds no header row.
	ErrEmptyInput = errors.New("empty input")
	// ErrMalformedInput is returned when the bytes are not a readable file of the expected format.
	ErrMalformedInput = errors.New("malformed input")
)

// Options tunes a single parse.
type Options struct {
	// Sheet selects the workbook sheet; empty means the first sheet.
	Sheet string
}

// TableParser reads an uploaded export into an untyped table.
type TableParser interface {
	Parse(ctx context.Context, r io.Reader, opts Options) (*keyword.RawTable, error)
	SupportedFormats() []string
}

type ParserFactory interface {
	GetParser(format string) TableParser
	RegisterParser(format string, parser TableParser)
}
