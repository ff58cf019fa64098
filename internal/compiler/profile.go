package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/kortbus/sdlgen/internal/ir"
)

// CompileProfile parses a CUE value into a Profile.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the profile struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`profile: sdl2: { ... }`)
//	p, err := CompileProfile(v.LookupPath(cue.ParsePath("profile.sdl2")))
func CompileProfile(v cue.Value) (*ir.Profile, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	p := &ir.Profile{}

	// The context name is the struct label (the path selector).
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		p.Context = labels[len(labels)-1].String()
	}

	// display_name is optional and informational.
	if dv := v.LookupPath(cue.ParsePath("display_name")); dv.Exists() {
		s, err := dv.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		p.DisplayName = s
	}

	// go_package is required: the package clause of the emitted file.
	pkgVal := v.LookupPath(cue.ParsePath("go_package"))
	if !pkgVal.Exists() {
		return nil, &CompileError{
			Field:   "go_package",
			Message: "go_package is required",
			Pos:     v.Pos(),
		}
	}
	pkg, err := pkgVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	p.Package = pkg

	// pkg_config and includes feed the emitted cgo preamble.
	p.PkgConfig, err = parseStringList(v, "pkg_config", false)
	if err != nil {
		return nil, err
	}
	p.Includes, err = parseStringList(v, "includes", false)
	if err != nil {
		return nil, err
	}

	// headers is required: the scan list, in order.
	p.Headers, err = parseStringList(v, "headers", true)
	if err != nil {
		return nil, err
	}

	p.Decorations, err = parseStringList(v, "decorations", false)
	if err != nil {
		return nil, err
	}

	// rules is required: the substitution table.
	p.Rules, err = parseRules(v)
	if err != nil {
		return nil, err
	}

	return p, nil
}

// CompileSource compiles one CUE source containing profile declarations:
//
//	profile: sdl2: { ... }
//	profile: sdl3: { ... }
//
// Profiles are returned in declaration order.
func CompileSource(filename string, src []byte) ([]*ir.Profile, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	root := v.LookupPath(cue.ParsePath("profile"))
	if !root.Exists() {
		return nil, &CompileError{
			Field:   "profile",
			Message: "no profile declarations found",
			Pos:     v.Pos(),
		}
	}

	iter, err := root.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var profiles []*ir.Profile
	for iter.Next() {
		p, err := CompileProfile(iter.Value())
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}

	if len(profiles) == 0 {
		return nil, &CompileError{
			Field:   "profile",
			Message: "no profile declarations found",
			Pos:     v.Pos(),
		}
	}
	return profiles, nil
}

// parseStringList reads a list-of-strings field. Required fields must exist;
// optional ones default to nil.
func parseStringList(v cue.Value, field string, required bool) ([]string, error) {
	listVal := v.LookupPath(cue.ParsePath(field))
	if !listVal.Exists() {
		if required {
			return nil, &CompileError{
				Field:   field,
				Message: fmt.Sprintf("%s is required", field),
				Pos:     v.Pos(),
			}
		}
		return nil, nil
	}

	iter, err := listVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

// parseRules extracts the substitution rule list from the profile.
func parseRules(v cue.Value) ([]ir.Rule, error) {
	rulesVal := v.LookupPath(cue.ParsePath("rules"))
	if !rulesVal.Exists() {
		return nil, &CompileError{
			Field:   "rules",
			Message: "rules are required",
			Pos:     v.Pos(),
		}
	}

	iter, err := rulesVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var rules []ir.Rule
	for iter.Next() {
		rv := iter.Value()

		origVal := rv.LookupPath(cue.ParsePath("original"))
		if !origVal.Exists() {
			return nil, &CompileError{
				Field:   fmt.Sprintf("rules[%d].original", len(rules)),
				Message: "original is required",
				Pos:     rv.Pos(),
			}
		}
		orig, err := origVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}

		replVal := rv.LookupPath(cue.ParsePath("replacement"))
		if !replVal.Exists() {
			return nil, &CompileError{
				Field:   fmt.Sprintf("rules[%d].replacement", len(rules)),
				Message: "replacement is required",
				Pos:     rv.Pos(),
			}
		}
		repl, err := replVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}

		rules = append(rules, ir.Rule{Original: orig, Replacement: repl})
	}
	return rules, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
