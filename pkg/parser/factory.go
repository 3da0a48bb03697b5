package parser

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"kwcluster/pkg/keyword"
)

type parserFactory struct {
	parsers map[string]TableParser
	mu      sync.RWMutex
}

var (
	factory     *parserFactory
	factoryOnce sync.Once
)

// GetParserFactory returns the singleton parser factory instance
func GetParserFactory() ParserFactory {
	factoryOnce.Do(func() {
		factory = &parserFactory{
			parsers: make(map[string]TableParser),
		}
		// Register default parsers
		xlsx := NewXLSXParser()
		for _, format := range xlsx.SupportedFormats() {
			factory.RegisterParser(format, xlsx)
		}
		factory.RegisterParser("csv", NewCSVParser(0))
		factory.RegisterParser("txt", NewCSVParser(0))
		factory.RegisterParser("tsv", NewCSVParser('\t'))
	})
	return factory
}

func (f *parserFactory) GetParser(format string) TableParser {
	f.mu.RLock()
	defer f.mu.RUnlock()

	parser, exists := f.parsers[strings.ToLower(format)]
	if !exists {
		return nil
	}
	return parser
}

func (f *parserFactory) RegisterParser(format string, parser TableParser) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if parser == nil {
		panic(fmt.Sprintf("cannot register nil parser for format %s", format))
	}

	f.parsers[strings.ToLower(format)] = parser
}

// FormatFromFilename maps an upload name such as "export.XLSX" to a format key.
func FormatFromFilename(name string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
}

// ParseUpload picks a parser from the file name and reads r with it.
func ParseUpload(ctx context.Context, filename string, r io.Reader, opts Options) (*keyword.RawTable, error) {
	format := FormatFromFilename(filename)
	p := GetParserFactory().GetParser(format)
	if p == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filename)
	}
	return p.Parse(ctx, r, opts)
}
