package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/reindex/internal/ir"
	"github.com/roach88/reindex/internal/reindex"
	"github.com/roach88/reindex/internal/source"
)

// Scenario defines a conformance test scenario: one reindex call and the
// outcome it must produce.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Input is the inline input: a record, a list of records, or any
	// other value (to exercise INVALID_INPUT_KIND).
	Input any `yaml:"input,omitempty"`

	// InputFile loads the input with the source package instead.
	// Relative paths resolve from the scenario file's directory.
	InputFile string `yaml:"input_file,omitempty"`

	// By is the key path, passed to reindex.NewPath as decoded.
	By any `yaml:"by"`

	// Strict, Group and Workers are passed to reindex.ParseOptions as
	// decoded, so wrongly typed values surface as INVALID_FLAG_TYPE.
	Strict  any `yaml:"strict,omitempty"`
	Group   any `yaml:"group,omitempty"`
	Workers any `yaml:"workers,omitempty"`

	// Expect is the required outcome.
	Expect Expect `yaml:"expect"`

	// baseDir is the directory of the scenario file, for InputFile.
	baseDir string
}

// Expect specifies the expected outcome. Exactly one of Error, Entries and
// Groups must be set.
type Expect struct {
	// Error is the expected error code (e.g. DUPLICATE_KEY). Matching uses
	// errors.Is, so PATH_KEY also accepts a PATH_TYPE failure.
	Error string `yaml:"error,omitempty"`

	// Entries is the complete expected unique result.
	Entries []Entry `yaml:"entries,omitempty"`

	// Groups is the complete expected grouped result.
	Groups []Group `yaml:"groups,omitempty"`

	// Dropped is the expected number of records without a key.
	Dropped *int `yaml:"dropped,omitempty"`
}

// Entry is one key of a unique result.
type Entry struct {
	Key    any       `yaml:"key"`
	Record ir.Record `yaml:"record"`
}

// Group is one key of a grouped result, records in input order.
type Group struct {
	Key     any         `yaml:"key"`
	Records []ir.Record `yaml:"records"`
}

// knownCodes lists the error codes a scenario may expect.
var knownCodes = map[string]bool{
	string(reindex.CodeInvalidInputKind): true,
	string(reindex.CodeInvalidPathType):  true,
	string(reindex.CodeInvalidFlagType):  true,
	string(reindex.CodePathType):         true,
	string(reindex.CodePathKey):          true,
	string(reindex.CodeNonScalarKey):     true,
	string(reindex.CodeDuplicateKey):     true,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	scenario.baseDir = filepath.Dir(path)
	return scenario, nil
}

// ParseScenario parses scenario YAML. Relative input_file paths resolve
// from the working directory.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	scenario.normalize()

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// normalize gives decoded YAML values the same kinds the source package
// produces (int64 numbers, string-keyed mappings).
func (s *Scenario) normalize() {
	s.Input = ir.NormalizeValue(s.Input)
	s.By = ir.NormalizeValue(s.By)
	s.Strict = ir.NormalizeValue(s.Strict)
	s.Group = ir.NormalizeValue(s.Group)
	s.Workers = ir.NormalizeValue(s.Workers)
	for i := range s.Expect.Entries {
		e := &s.Expect.Entries[i]
		e.Key = ir.NormalizeValue(e.Key)
		ir.NormalizeValue(e.Record)
	}
	for i := range s.Expect.Groups {
		g := &s.Expect.Groups[i]
		g.Key = ir.NormalizeValue(g.Key)
		for _, rec := range g.Records {
			ir.NormalizeValue(rec)
		}
	}
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Input == nil && s.InputFile == "" {
		return fmt.Errorf("input or input_file is required")
	}
	if s.Input != nil && s.InputFile != "" {
		return fmt.Errorf("input and input_file are mutually exclusive")
	}

	if s.By == nil {
		return fmt.Errorf("by is required")
	}

	set := 0
	if s.Expect.Error != "" {
		set++
		if !knownCodes[s.Expect.Error] {
			return fmt.Errorf("expect.error: unknown error code %q", s.Expect.Error)
		}
	}
	if s.Expect.Entries != nil {
		set++
	}
	if s.Expect.Groups != nil {
		set++
	}
	if set != 1 {
		return fmt.Errorf("expect: exactly one of error, entries or groups is required")
	}
	if s.Expect.Dropped != nil && s.Expect.Error != "" {
		return fmt.Errorf("expect.dropped cannot be combined with expect.error")
	}

	for i, e := range s.Expect.Entries {
		if _, ok := ir.KeyOf(e.Key); !ok {
			return fmt.Errorf("expect.entries[%d]: key must be a scalar", i)
		}
		if e.Record == nil {
			return fmt.Errorf("expect.entries[%d]: record is required", i)
		}
	}
	for i, g := range s.Expect.Groups {
		if _, ok := ir.KeyOf(g.Key); !ok {
			return fmt.Errorf("expect.groups[%d]: key must be a scalar", i)
		}
		if len(g.Records) == 0 {
			return fmt.Errorf("expect.groups[%d]: records must be non-empty", i)
		}
	}

	return nil
}

// LoadInput returns the scenario's input, reading InputFile if set.
func (s *Scenario) LoadInput() (any, error) {
	if s.InputFile == "" {
		return s.Input, nil
	}
	path := s.InputFile
	if !filepath.IsAbs(path) && s.baseDir != "" {
		path = filepath.Join(s.baseDir, path)
	}
	v, err := source.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load input_file: %w", err)
	}
	return v, nil
}

// Options decodes the scenario's path and flags the way a caller passing
// loosely typed configuration would.
func (s *Scenario) Options() (reindex.Path, reindex.Options, error) {
	path, err := reindex.NewPath(s.By)
	if err != nil {
		return nil, reindex.Options{}, err
	}
	opts, err := reindex.ParseOptions(map[string]any{
		"strict":  s.Strict,
		"group":   s.Group,
		"workers": s.Workers,
	})
	if err != nil {
		return nil, reindex.Options{}, err
	}
	return path, opts, nil
}
