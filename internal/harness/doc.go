// Package harness provides conformance testing for sdlgen generation.
//
// The harness compiles a profile, scans its headers, runs the full
// generation pipeline in-process, and validates the resolved
// substitutions and the emitted source against scenario expectations.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	context: sdl2
//	profiles:            # optional, embedded profiles when omitted
//	  - path/to/profile.cue
//	headers: path/to/include/tree   # optional, embedded excerpts when omitted
//	assertions:
//	  - type: substitution
//	    original: VkInstance
//	    replacement: uintptr
//	    class: pointer
//	  - type: symbol_order
//	    symbols:
//	      - SDL_Vulkan_LoadLibrary
//	      - SDL_Vulkan_CreateSurface
//	  - type: func_count
//	    count: 7
//	  - type: contains
//	    text: "C.VkInstance(unsafe.Pointer(instance))"
//
// Failure scenarios replace assertions with an expected error:
//
//	expect_error:
//	  code: E200
//	  contains: VkPhantom
//
// expect_error matches failures from profile validation and rule
// binding; the scenario passes only when generation fails as described.
//
// # Assertion Types
//
// The following assertion types are supported:
//
//   - substitution: Verifies a rule resolved with the given replacement
//     type and, optionally, conversion class
//   - symbol_order: Verifies wrapper functions appear in the given order
//   - func_count: Verifies the number of emitted wrapper functions
//   - contains: Verifies the emitted source contains a fragment
//
// # Deterministic Testing
//
// Every scenario runs the pipeline twice over identical inputs and
// compares the profile, header, and output digests between runs. A
// digest that changes between runs fails the scenario regardless of its
// assertions. Golden files hold the emitted Go source byte for byte, so
// any drift in scanning, binding, or emission surfaces as a diff.
//
// # Usage
//
// Load a scenario:
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/sdl2_builtin.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Execute it:
//
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
//
// In tests, compare the emitted source against a golden file:
//
//	if err := harness.RunWithGolden(t, scenario); err != nil {
//	    t.Fatal(err)
//	}
package harness
