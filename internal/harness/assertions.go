package harness

import (
	"fmt"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string   // Assertion type for categorization
	Expected string   // Human-readable expected outcome
	Actual   string   // Human-readable actual outcome
	Funcs    []string // Emitted wrapper names for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	// Header with assertion type
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)

	// Expected vs Actual (most important info)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	// Emitted wrappers for context
	if len(e.Funcs) > 0 {
		fmt.Fprintf(&buf, "\nEmitted wrappers:\n")
		for i, name := range e.Funcs {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, name)
		}
	}

	return buf.String()
}

// assertSubstitution checks that a handle rule resolved with the given
// replacement (and conversion class, when specified).
func assertSubstitution(result *Result, assertion Assertion) error {
	for _, sub := range result.Substitutions {
		if sub.Original != assertion.Original {
			continue
		}
		if sub.Replacement != assertion.Replacement {
			return &AssertionError{
				Type:     "substitution",
				Expected: fmt.Sprintf("%s replaced by %s", assertion.Original, assertion.Replacement),
				Actual:   fmt.Sprintf("%s replaced by %s", sub.Original, sub.Replacement),
				Funcs:    result.Funcs,
			}
		}
		if assertion.Class != "" && sub.Class != assertion.Class {
			return &AssertionError{
				Type:     "substitution",
				Expected: fmt.Sprintf("%s converts as %s", assertion.Original, assertion.Class),
				Actual:   fmt.Sprintf("%s converts as %s", sub.Original, sub.Class),
				Funcs:    result.Funcs,
			}
		}
		return nil // Found matching substitution
	}

	return &AssertionError{
		Type:     "substitution",
		Expected: fmt.Sprintf("substitution for %s", assertion.Original),
		Actual:   "not resolved by the profile",
		Funcs:    result.Funcs,
	}
}

// assertSymbolOrder checks if wrappers appear in the specified order.
// Wrappers don't need to be consecutive (intervening wrappers are allowed).
func assertSymbolOrder(result *Result, assertion Assertion) error {
	// Step 1: Find first position of each expected wrapper
	positions := make(map[string]int)

	for i, name := range result.Funcs {
		for _, expected := range assertion.Symbols {
			if name == expected && positions[expected] == 0 {
				positions[expected] = i + 1 // 1-indexed for readability
			}
		}
	}

	// Step 2: Verify all wrappers found
	for _, name := range assertion.Symbols {
		if positions[name] == 0 {
			return &AssertionError{
				Type:     "symbol_order",
				Expected: fmt.Sprintf("all wrappers present: %v", assertion.Symbols),
				Actual:   fmt.Sprintf("missing wrapper: %s", name),
				Funcs:    result.Funcs,
			}
		}
	}

	// Step 3: Verify order
	for i := 1; i < len(assertion.Symbols); i++ {
		prev := assertion.Symbols[i-1]
		curr := assertion.Symbols[i]

		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     "symbol_order",
				Expected: fmt.Sprintf("wrappers in order: %v", assertion.Symbols),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Funcs: result.Funcs,
			}
		}
	}

	return nil
}

// assertFuncCount checks that exactly the specified number of wrappers
// was emitted.
func assertFuncCount(result *Result, assertion Assertion) error {
	if len(result.Funcs) != assertion.Count {
		return &AssertionError{
			Type:     "func_count",
			Expected: fmt.Sprintf("%d wrappers", assertion.Count),
			Actual:   fmt.Sprintf("%d wrappers", len(result.Funcs)),
			Funcs:    result.Funcs,
		}
	}

	return nil
}

// assertContains checks if the emitted source contains a fragment.
func assertContains(result *Result, assertion Assertion) error {
	if !strings.Contains(string(result.Output), assertion.Text) {
		return &AssertionError{
			Type:     "contains",
			Expected: fmt.Sprintf("emitted source containing %q", assertion.Text),
			Actual:   "fragment not found",
			Funcs:    result.Funcs,
		}
	}

	return nil
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertSubstitution:
			err = assertSubstitution(result, assertion)
		case AssertSymbolOrder:
			err = assertSymbolOrder(result, assertion)
		case AssertFuncCount:
			err = assertFuncCount(result, assertion)
		case AssertContains:
			err = assertContains(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
