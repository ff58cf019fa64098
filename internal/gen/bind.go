package gen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kortbus/sdlgen/internal/ir"
)

// Binding error codes (E200-E299)
const (
	ErrRuleUnresolved = "E200" // rule original not declared by any scanned header
	ErrRuleNotHandle  = "E201" // rule original is not a handle-like typedef
)

// Class decides the cast shape a substitution uses in emitted code.
type Class string

const (
	// ClassPointer converts through unsafe.Pointer: the C type is a
	// pointer (opaque handles, pointer aliases).
	ClassPointer Class = "pointer"

	// ClassInteger converts numerically: the C type is an integer alias.
	ClassInteger Class = "integer"
)

// Binding joins a profile rule with the typedef that declares its original.
type Binding struct {
	Rule  ir.Rule
	Class Class
	Def   ir.Typedef
}

// BindError describes a rule that could not be resolved against the
// scanned declarations.
type BindError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e BindError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// BindErrors aggregates bind failures into a single error value.
type BindErrors []BindError

func (e BindErrors) Error() string {
	msgs := make([]string, len(e))
	for i, be := range e {
		msgs[i] = be.Error()
	}
	return strings.Join(msgs, "; ")
}

// Bind resolves every profile rule against the scanned unit. A rule binds
// only when its original is declared as an alias or opaque-handle typedef
// by one of the scanned headers; a substitution the headers never declare
// is reported rather than silently emitted.
//
// All failures are collected. Bindings are returned sorted by original
// name so downstream emission does not depend on rule declaration order.
func Bind(p *ir.Profile, unit *ir.Unit) ([]Binding, []BindError) {
	var (
		bindings []Binding
		errs     []BindError
	)

	for i, rule := range p.Rules {
		def, ok := unit.Typedef(rule.Original)
		if !ok {
			errs = append(errs, BindError{
				Field:   fmt.Sprintf("rules[%d].original", i),
				Message: fmt.Sprintf("%q is not declared by any scanned header", rule.Original),
				Code:    ErrRuleUnresolved,
			})
			continue
		}

		class, ok := classify(def)
		if !ok {
			errs = append(errs, BindError{
				Field:   fmt.Sprintf("rules[%d].original", i),
				Message: fmt.Sprintf("%q is a %s typedef, not a substitutable handle", rule.Original, def.Kind),
				Code:    ErrRuleNotHandle,
			})
			continue
		}

		bindings = append(bindings, Binding{Rule: rule, Class: class, Def: def})
	}

	if len(errs) > 0 {
		return nil, errs
	}

	sort.Slice(bindings, func(i, j int) bool {
		return bindings[i].Rule.Original < bindings[j].Rule.Original
	})
	return bindings, nil
}

// classify maps a typedef kind to a conversion class. Struct, enum, and
// function pointer typedefs are not substitutable: their values do not fit
// in an integer without further assumptions.
func classify(def ir.Typedef) (Class, bool) {
	switch def.Kind {
	case ir.TypedefOpaque:
		return ClassPointer, true
	case ir.TypedefAlias:
		// An alias to a pointer type still converts through
		// unsafe.Pointer, e.g. typedef void *SDL_GLContext.
		if def.Type.Stars > 0 {
			return ClassPointer, true
		}
		return ClassInteger, true
	default:
		return "", false
	}
}
