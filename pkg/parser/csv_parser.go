package parser

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"kwcluster/pkg/keyword"
	"kwcluster/pkg/logger"
)

// maxUploadSize bounds how much of a delimited file is read into memory.
const maxUploadSize = 32 << 20

// CSVParser reads delimited text exports such as SEO tool CSV downloads.
// A zero delimiter is sniffed from the header line.
type CSVParser struct {
	delimiter rune
	log       *logger.Logger
}

func NewCSVParser(delimiter rune) *CSVParser {
	return &CSVParser{
		delimiter: delimiter,
		log:       logger.GetLogger().WithComponent("csv_parser"),
	}
}

func (p *CSVParser) Parse(ctx context.Context, r io.Reader, _ Options) (*keyword.RawTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := io.ReadAll(io.LimitReader(r, maxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(raw) > maxUploadSize {
		return nil, fmt.Errorf("%w: upload exceeds %d bytes", ErrMalformedInput, maxUploadSize)
	}

	content, enc, err := decodeText(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode upload: %w", ErrMalformedInput, err)
	}
	if len(bytes.TrimSpace(content)) == 0 {
		return nil, ErrEmptyInput
	}

	delim := p.delimiter
	if delim == 0 {
		delim = sniffDelimiter(content)
	}

	reader := csv.NewReader(bytes.NewReader(content))
	reader.Comma = delim
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse delimited text: %w", ErrMalformedInput, err)
	}
	if len(records) == 0 {
		return nil, ErrEmptyInput
	}

	table := &keyword.RawTable{Header: records[0], Rows: records[1:]}

	p.log.WithFields(map[string]interface{}{
		"encoding":  enc,
		"delimiter": string(delim),
		"rows":      len(table.Rows),
	}).Debug("Parsed delimited upload")

	return table, nil
}

func (p *CSVParser) SupportedFormats() []string {
	if p.delimiter == '\t' {
		return []string{"tsv"}
	}
	return []string{"csv", "txt"}
}

// decodeText converts raw upload bytes to UTF-8 and reports the detected encoding.
// BOMs decide first; valid UTF-8 stays as is; anything else is read as Windows-1252.
func decodeText(raw []byte) ([]byte, string, error) {
	var enc encoding.Encoding
	name := "utf-8"

	switch {
	case bytes.HasPrefix(raw, []byte{0xEF, 0xBB, 0xBF}):
		return raw[3:], "utf-8-bom", nil
	case bytes.HasPrefix(raw, []byte{0xFF, 0xFE}):
		enc, name = unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM), "utf-16le"
	case bytes.HasPrefix(raw, []byte{0xFE, 0xFF}):
		enc, name = unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM), "utf-16be"
	case utf8.Valid(raw):
		return raw, name, nil
	default:
		enc, name = charmap.Windows1252, "windows-1252"
	}

	decoded, _, err := transform.Bytes(enc.NewDecoder(), raw)
	if err != nil {
		return nil, name, err
	}
	return decoded, name, nil
}

// sniffDelimiter picks the candidate occurring most often outside quotes in the first line.
func sniffDelimiter(content []byte) rune {
	candidates := []rune{',', ';', '\t', '|'}
	counts := make(map[rune]int, len(candidates))

	inQuotes := false
	for _, r := range string(content) {
		if r == '"' {
			inQuotes = !inQuotes
			continue
		}
		if !inQuotes && (r == '\n' || r == '\r') {
			break
		}
		if !inQuotes {
			counts[r]++
		}
	}

	best, bestCount := ',', 0
	for _, c := range candidates {
		if counts[c] > bestCount {
			best, bestCount = c, counts[c]
		}
	}
	return best
}
