package harness

import (
	"fmt"
	"os"
	"strings"

	"github.com/kortbus/sdlgen/internal/compiler"
	"github.com/kortbus/sdlgen/internal/gen"
	"github.com/kortbus/sdlgen/internal/include"
	"github.com/kortbus/sdlgen/internal/ir"
)

// Run executes a scenario and returns the result.
//
// Execution flow:
// 1. Load the profile (embedded catalog or the scenario's CUE files)
// 2. Resolve the header tree (embedded excerpts or the scenario's directory)
// 3. Run the pipeline twice and compare digests
// 4. Evaluate assertions (or match the expected error) against the result
//
// Infrastructure failures (unreadable profiles, missing header trees)
// return an error. Generation failures are part of the scenario outcome:
// they fail assertions unless expect_error matches them.
func Run(scenario *Scenario) (*Result, error) {
	p, err := loadProfile(scenario)
	if err != nil {
		return nil, err
	}

	r, err := resolveHeaders(scenario)
	if err != nil {
		return nil, err
	}

	result := NewResult(scenario.Context)
	genErr := generate(p, r, result)

	if scenario.ExpectError != nil {
		if genErr == nil {
			result.AddError(fmt.Sprintf("expected generation to fail with %s, but it succeeded", describeExpectError(scenario.ExpectError)))
		} else {
			matchExpectError(scenario.ExpectError, genErr, result)
		}
	} else if genErr != nil {
		result.AddError(fmt.Sprintf("generation failed: %v", genErr))
	}

	assertionErrors := EvaluateAssertions(result, scenario.Assertions)
	for _, errMsg := range assertionErrors {
		result.AddError(errMsg)
	}

	return result, nil
}

// generate validates the profile and runs the pipeline twice, recording
// the first run and comparing digests across runs. A digest mismatch is
// an assertion failure, not an infrastructure error.
func generate(p *ir.Profile, r include.Resolver, result *Result) error {
	if verrs := compiler.Validate(p); len(verrs) > 0 {
		msgs := make([]string, len(verrs))
		for i, verr := range verrs {
			msgs[i] = verr.Error()
		}
		return fmt.Errorf("profile invalid: %s", strings.Join(msgs, "; "))
	}

	first, err := gen.Run(p, r)
	if err != nil {
		return err
	}
	result.RecordRun(first)

	second, err := gen.Run(p, r)
	if err != nil {
		return fmt.Errorf("second run failed: %w", err)
	}

	if first.ProfileDigest != second.ProfileDigest {
		result.AddError(fmt.Sprintf("profile digest changed between runs: %s then %s", first.ProfileDigest, second.ProfileDigest))
	}
	if first.HeaderDigest != second.HeaderDigest {
		result.AddError(fmt.Sprintf("header digest changed between runs: %s then %s", first.HeaderDigest, second.HeaderDigest))
	}
	if first.OutputDigest != second.OutputDigest {
		result.AddError(fmt.Sprintf("output digest changed between runs: %s then %s", first.OutputDigest, second.OutputDigest))
	}

	return nil
}

// loadProfile selects the profile for the scenario's context, either
// from the embedded catalog or from the scenario's CUE files.
func loadProfile(scenario *Scenario) (*ir.Profile, error) {
	if len(scenario.Profiles) == 0 {
		return compiler.BuiltinProfile(scenario.Context)
	}

	for _, path := range scenario.Profiles {
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read profile file: %w", err)
		}
		profiles, err := compiler.CompileSource(path, src)
		if err != nil {
			return nil, err
		}
		for _, p := range profiles {
			if p.Context == scenario.Context {
				return p, nil
			}
		}
	}
	return nil, fmt.Errorf("no profile for context %q in scenario profiles", scenario.Context)
}

// resolveHeaders picks the include tree the scenario scans.
func resolveHeaders(scenario *Scenario) (include.Resolver, error) {
	if scenario.Headers != "" {
		info, err := os.Stat(scenario.Headers)
		if err != nil || !info.IsDir() {
			return nil, fmt.Errorf("header directory not found: %s", scenario.Headers)
		}
		return include.Dir(scenario.Headers), nil
	}
	if !include.HasBuiltin(scenario.Context) {
		return nil, fmt.Errorf("no embedded headers for context %q (set headers in the scenario)", scenario.Context)
	}
	return include.Builtin(scenario.Context), nil
}

// matchExpectError checks the generation error against the expectation
// and records the error text for inspection.
func matchExpectError(expect *ExpectError, genErr error, result *Result) {
	result.GenError = genErr.Error()

	if expect.Code != "" && !strings.Contains(result.GenError, expect.Code) {
		result.AddError(fmt.Sprintf("expected error code %s, got: %v", expect.Code, genErr))
	}
	if expect.Contains != "" && !strings.Contains(result.GenError, expect.Contains) {
		result.AddError(fmt.Sprintf("expected error containing %q, got: %v", expect.Contains, genErr))
	}
}

// describeExpectError renders the expectation for failure messages.
func describeExpectError(expect *ExpectError) string {
	if expect.Code != "" && expect.Contains != "" {
		return fmt.Sprintf("%s (%q)", expect.Code, expect.Contains)
	}
	if expect.Code != "" {
		return expect.Code
	}
	return fmt.Sprintf("%q", expect.Contains)
}
