package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"kwcluster/pkg/keyword"
)

var errMalformedResponse = errors.New("malformed response")

// OrganicKeywordsResponse is the raw response of the organic-keywords endpoint
type OrganicKeywordsResponse struct {
	OrganicKeywords []map[string]interface{} `json:"organic_keywords"`
}

// OrganicKeywordsParser turns API responses into raw keyword tables
// Follows Single Responsibility Principle - only handles the response format
type OrganicKeywordsParser struct{}

// NewOrganicKeywordsParser creates a new response parser
func NewOrganicKeywordsParser() *OrganicKeywordsParser {
	return &OrganicKeywordsParser{}
}

// ParseResponse decodes body into a RawTable.
// The header follows fields when given, otherwise the sorted union of all record keys.
// Numbers keep their exact decimal text and nulls become blank cells.
func (p *OrganicKeywordsParser) ParseResponse(body []byte, fields []string) (*keyword.RawTable, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("%w: empty response body", errMalformedResponse)
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var resp OrganicKeywordsResponse
	if err := dec.Decode(&resp); err != nil {
		return nil, fmt.Errorf("%w: %v (response: %s)", errMalformedResponse, err, string(body[:min(len(body), 200)]))
	}
	if resp.OrganicKeywords == nil {
		return nil, fmt.Errorf("%w: missing organic_keywords array", errMalformedResponse)
	}

	header := fields
	if len(header) == 0 {
		header = unionKeys(resp.OrganicKeywords)
	}

	table := &keyword.RawTable{
		Header: append([]string(nil), header...),
		Rows:   make([][]string, 0, len(resp.OrganicKeywords)),
	}
	for _, rec := range resp.OrganicKeywords {
		row := make([]string, len(header))
		for i, field := range header {
			row[i] = cellText(rec[field])
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

func unionKeys(records []map[string]interface{}) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, rec := range records {
		for k := range rec {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	return keys
}

func cellText(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	}
	encoded, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(encoded)
}

// errorMessage extracts {"error": "..."} style messages from failed responses
func errorMessage(body []byte) string {
	var payload struct {
		Error   interface{} `json:"error"`
		Message string      `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if s, ok := payload.Error.(string); ok && s != "" {
			return s
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	text := string(bytes.TrimSpace(body))
	if len(text) > 200 {
		text = text[:200]
	}
	return text
}
