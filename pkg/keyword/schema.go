package keyword

import (
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Schema maps canonical fields to the column names a particular source uses.
// Column names are matched exactly and case-sensitively.
type Schema struct {
	Name    string           `yaml:"name"`
	Columns map[Field]string `yaml:"columns"`
}

// Built-in profile names.
const (
	ProfileSpreadsheet = "spreadsheet"
	ProfileAPI         = "api"
	ProfileSemrush     = "semrush"
	ProfileCanonical   = "canonical"
)

// SpreadsheetSchema matches the keyword export sheet
// (Keyword, Volume, KD, CPC, Current position, Current URL, Updated).
var SpreadsheetSchema = Schema{
	Name: ProfileSpreadsheet,
	Columns: map[Field]string{
		FieldKeyword:    "Keyword",
		FieldVolume:     "Volume",
		FieldDifficulty: "KD",
		FieldCPC:        "CPC",
		FieldPosition:   "Current position",
	},
}

// APISchema matches the organic-keywords API fields.
var APISchema = Schema{
	Name: ProfileAPI,
	Columns: map[Field]string{
		FieldKeyword:    "keyword",
		FieldVolume:     "volume",
		FieldDifficulty: "keyword_difficulty",
		FieldCPC:        "cpc",
		FieldPosition:   "best_position",
	},
}

// SemrushSchema matches a Semrush organic positions export.
var SemrushSchema = Schema{
	Name: ProfileSemrush,
	Columns: map[Field]string{
		FieldKeyword:    "Keyword",
		FieldVolume:     "Search Volume",
		FieldDifficulty: "Keyword Difficulty",
		FieldCPC:        "CPC",
		FieldPosition:   "Position",
	},
}

// CanonicalSchema reads tables produced by Table.Raw.
var CanonicalSchema = Schema{
	Name: ProfileCanonical,
	Columns: map[Field]string{
		FieldKeyword:    string(FieldKeyword),
		FieldVolume:     string(FieldVolume),
		FieldDifficulty: string(FieldDifficulty),
		FieldCPC:        string(FieldCPC),
		FieldPosition:   string(FieldPosition),
	},
}

// Validate checks that every required field has a source column.
func (s Schema) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("schema name is required")
	}
	for _, f := range requiredFields {
		if s.Columns[f] == "" {
			return fmt.Errorf("schema %q: no column mapped for field %q", s.Name, f)
		}
	}
	for f := range s.Columns {
		if numericGetter(f) == nil && f != FieldKeyword {
			return fmt.Errorf("schema %q: unknown field %q", s.Name, f)
		}
	}
	return nil
}

// Profiles is a registry of schemas by name.
type Profiles map[string]Schema

// DefaultProfiles returns the built-in schemas.
func DefaultProfiles() Profiles {
	return Profiles{
		ProfileSpreadsheet: SpreadsheetSchema,
		ProfileAPI:         APISchema,
		ProfileSemrush:     SemrushSchema,
		ProfileCanonical:   CanonicalSchema,
	}
}

// Lookup returns the schema registered under name.
func (p Profiles) Lookup(name string) (Schema, error) {
	s, ok := p[name]
	if !ok {
		return Schema{}, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
	}
	return s, nil
}

// Names returns the registered profile names in sorted order.
func (p Profiles) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type profileFile struct {
	Profiles []Schema `yaml:"profiles"`
}

// LoadProfiles reads additional schemas from YAML and merges them over the built-ins.
//
//	profiles:
//	  - name: mytool
//	    columns:
//	      keyword: "Query"
//	      volume: "Searches"
//	      difficulty: "Difficulty"
//	      cpc: "CPC (EUR)"
func LoadProfiles(r io.Reader) (Profiles, error) {
	var file profileFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode profiles: %w", err)
	}

	profiles := DefaultProfiles()
	for _, s := range file.Profiles {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		profiles[s.Name] = s
	}
	return profiles, nil
}

// LoadProfilesFile is LoadProfiles for a file path. An empty path yields the built-ins.
func LoadProfilesFile(path string) (Profiles, error) {
	if path == "" {
		return DefaultProfiles(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open profiles file: %w", err)
	}
	defer f.Close()
	return LoadProfiles(f)
}
