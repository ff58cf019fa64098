package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a generation conformance case.
// Scenarios run the full pipeline for one context and assert on the
// resolved substitutions and the emitted source.
type Scenario struct {
	// Name uniquely identifies this scenario. Golden comparisons store
	// the emitted source under testdata/golden/{name}.golden.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Context selects the profile to generate for.
	Context string `yaml:"context"`

	// Profiles lists paths to CUE profile files to compile and search
	// for the context. When empty, the embedded profiles are used.
	// Paths are relative to the scenario file location.
	Profiles []string `yaml:"profiles,omitempty"`

	// Headers is an include tree to scan instead of the embedded header
	// excerpts. Relative to the scenario file location.
	Headers string `yaml:"headers,omitempty"`

	// Assertions validate the substitutions and the emitted source.
	// Supported types: substitution, symbol_order, func_count, contains
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// ExpectError marks a failure scenario: generation must fail as
	// described. Assertions may be empty when it is set.
	ExpectError *ExpectError `yaml:"expect_error,omitempty"`
}

// ExpectError describes the generation failure a scenario expects.
// At least one of Code and Contains must be set.
type ExpectError struct {
	// Code is the expected error code (e.g. "E200"). It matches when it
	// appears in the error text, which covers both coded error values
	// and wrapped formats.
	Code string `yaml:"code,omitempty"`

	// Contains narrows the match to errors mentioning a fragment.
	Contains string `yaml:"contains,omitempty"`
}

// Assertion validates one aspect of a generation result.
type Assertion struct {
	// Type specifies the assertion type:
	// - "substitution": check a rule resolved with the given replacement
	// - "symbol_order": check wrapper functions appear in order
	// - "func_count": check the number of emitted wrapper functions
	// - "contains": check the emitted source contains a fragment
	Type string `yaml:"type"`

	// Original is the C type name the rule replaces (used by substitution).
	Original string `yaml:"original,omitempty"`

	// Replacement is the expected Go type (used by substitution).
	Replacement string `yaml:"replacement,omitempty"`

	// Class is the expected conversion class, "pointer" or "integer"
	// (used by substitution; optional).
	Class string `yaml:"class,omitempty"`

	// Symbols is the expected wrapper order (used by symbol_order).
	// Wrappers don't need to be consecutive.
	Symbols []string `yaml:"symbols,omitempty"`

	// Count is the expected number of wrappers (used by func_count).
	Count int `yaml:"count,omitempty"`

	// Text is the fragment the emitted source must contain (used by contains).
	Text string `yaml:"text,omitempty"`
}

// Assertion type constants.
const (
	AssertSubstitution = "substitution"
	AssertSymbolOrder  = "symbol_order"
	AssertFuncCount    = "func_count"
	AssertContains     = "contains"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	// Read file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Validate required fields
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving profile and header paths relative to the provided base path.
// This is useful when scenario files reference fixtures using relative paths.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	// Read file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos)
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Resolve fixture paths relative to base path BEFORE validation
	if basePath != "" {
		for i, profilePath := range scenario.Profiles {
			if !filepath.IsAbs(profilePath) {
				scenario.Profiles[i] = filepath.Join(basePath, profilePath)
			}
		}
		if scenario.Headers != "" && !filepath.IsAbs(scenario.Headers) {
			scenario.Headers = filepath.Join(basePath, scenario.Headers)
		}
	}

	// Validate required fields (now with resolved paths)
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Context == "" {
		return fmt.Errorf("context is required")
	}

	if len(s.Assertions) == 0 && s.ExpectError == nil {
		return fmt.Errorf("assertions list is required unless expect_error is set")
	}

	// Validate profile paths exist
	for _, profilePath := range s.Profiles {
		if _, err := os.Stat(profilePath); os.IsNotExist(err) {
			return fmt.Errorf("profile file not found: %s", profilePath)
		}
	}

	// Validate the header tree exists
	if s.Headers != "" {
		info, err := os.Stat(s.Headers)
		if os.IsNotExist(err) {
			return fmt.Errorf("header directory not found: %s", s.Headers)
		}
		if err == nil && !info.IsDir() {
			return fmt.Errorf("headers must be a directory: %s", s.Headers)
		}
	}

	if s.ExpectError != nil && s.ExpectError.Code == "" && s.ExpectError.Contains == "" {
		return fmt.Errorf("expect_error: code or contains is required")
	}

	// Validate assertions
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertSubstitution:
		if a.Original == "" {
			return fmt.Errorf("assertions[%d]: original is required for substitution", index)
		}
		if a.Replacement == "" {
			return fmt.Errorf("assertions[%d]: replacement is required for substitution", index)
		}
		if a.Class != "" && a.Class != "pointer" && a.Class != "integer" {
			return fmt.Errorf("assertions[%d]: class must be \"pointer\" or \"integer\"", index)
		}
	case AssertSymbolOrder:
		if len(a.Symbols) == 0 {
			return fmt.Errorf("assertions[%d]: symbols list is required for symbol_order", index)
		}
	case AssertFuncCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for func_count", index)
		}
	case AssertContains:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for contains", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
