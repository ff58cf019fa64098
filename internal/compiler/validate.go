package compiler

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kortbus/sdlgen/internal/ir"
)

// Profile validation error codes (E100-E199)
const (
	// General validation errors (E100)
	ErrUnsupportedType = "E100" // unsupported type for validation

	// Identity errors (E101-E102)
	ErrContextInvalid = "E101" // context must be a lowercase identifier
	ErrPackageInvalid = "E102" // go_package must be a valid Go package name

	// Input errors (E103-E105)
	ErrNoHeaders  = "E103" // at least one header required
	ErrBadHeader  = "E104" // header name must be non-empty
	ErrBadInclude = "E105" // include line must be a #include directive

	// Rule errors (E106-E109)
	ErrNoRules        = "E106" // at least one rule required
	ErrDuplicateRule  = "E107" // duplicate rule original
	ErrBadOriginal    = "E108" // original must be a C identifier
	ErrBadReplacement = "E109" // replacement must be a fixed-width Go integer type

	// Decoration errors (E110)
	ErrBadDecoration = "E110" // decoration must be a C identifier
)

// ValidationError represents a profile validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate validates a compiled profile against the generation rules.
// Returns all errors found (does not fail-fast).
func Validate(v any) []ValidationError {
	switch p := v.(type) {
	case *ir.Profile:
		return validateProfile(p)
	case ir.Profile:
		return validateProfile(&p)
	default:
		return []ValidationError{{
			Field:   "type",
			Message: fmt.Sprintf("unsupported type: %T", v),
			Code:    ErrUnsupportedType,
		}}
	}
}

// validateProfile validates a generation profile.
func validateProfile(p *ir.Profile) []ValidationError {
	var errs []ValidationError

	// E101: context names become CLI arguments and store keys
	if !contextPattern.MatchString(p.Context) {
		errs = append(errs, ValidationError{
			Field:   "context",
			Message: fmt.Sprintf("context %q must be a lowercase identifier", p.Context),
			Code:    ErrContextInvalid,
		})
	}

	// E102: go_package becomes the package clause of the emitted file
	if !goPackagePattern.MatchString(p.Package) {
		errs = append(errs, ValidationError{
			Field:   "go_package",
			Message: fmt.Sprintf("go_package %q is not a valid Go package name", p.Package),
			Code:    ErrPackageInvalid,
		})
	}

	// E103: nothing to scan without headers
	if len(p.Headers) == 0 {
		errs = append(errs, ValidationError{
			Field:   "headers",
			Message: "at least one header is required",
			Code:    ErrNoHeaders,
		})
	}

	// E104: empty header names cannot be resolved
	for i, h := range p.Headers {
		if strings.TrimSpace(h) == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("headers[%d]", i),
				Message: "header name must be non-empty",
				Code:    ErrBadHeader,
			})
		}
	}

	// E105: include lines are copied verbatim into the cgo preamble
	for i, inc := range p.Includes {
		if !strings.HasPrefix(inc, "#include") {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("includes[%d]", i),
				Message: fmt.Sprintf("include line %q must start with #include", inc),
				Code:    ErrBadInclude,
			})
		}
	}

	errs = append(errs, validateRules(p.Rules)...)

	// E110: decorations are stripped by identifier match during scanning
	for i, d := range p.Decorations {
		if !isCIdent(d) {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("decorations[%d]", i),
				Message: fmt.Sprintf("decoration %q must be a C identifier", d),
				Code:    ErrBadDecoration,
			})
		}
	}

	return errs
}

// validateRules validates the substitution rule table.
func validateRules(rules []ir.Rule) []ValidationError {
	var errs []ValidationError

	// E106: a profile with no rules substitutes nothing
	if len(rules) == 0 {
		errs = append(errs, ValidationError{
			Field:   "rules",
			Message: "at least one substitution rule is required",
			Code:    ErrNoRules,
		})
	}

	// Track originals for duplicate detection
	seen := make(map[string]bool, len(rules))

	for i, r := range rules {
		// E108: originals are matched against typedef names
		if !isCIdent(r.Original) {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("rules[%d].original", i),
				Message: fmt.Sprintf("original %q must be a C identifier", r.Original),
				Code:    ErrBadOriginal,
			})
		}

		// E107: two rules for one original would make substitution ambiguous
		if seen[r.Original] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("rules[%d].original", i),
				Message: fmt.Sprintf("duplicate rule for %q", r.Original),
				Code:    ErrDuplicateRule,
			})
		}
		seen[r.Original] = true

		// E109: replacements must stay fixed-width across platforms
		if !ir.ReplacementTypes[r.Replacement] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("rules[%d].replacement", i),
				Message: fmt.Sprintf("replacement %q is not a fixed-width Go integer type", r.Replacement),
				Code:    ErrBadReplacement,
			})
		}
	}

	return errs
}

// contextPattern matches context names: lowercase letter followed by
// lowercase letters or digits.
var contextPattern = regexp.MustCompile(`^[a-z][a-z0-9]*$`)

// goPackagePattern matches the Go package names this generator emits.
var goPackagePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// cIdentPattern matches C identifiers.
var cIdentPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// isCIdent checks if a string is a valid C identifier.
func isCIdent(s string) bool {
	return cIdentPattern.MatchString(s)
}
