package harness

import (
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RunWithGolden executes a scenario and compares the emitted source
// against a golden file. The golden file is stored in
// testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Golden files hold the emitted Go source byte for byte and serve as
// the source of truth for generator output. Returns an error if the
// scenario fails to execute or produces no output; test failure (via
// goldie) occurs when the output doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}

	if len(result.Output) == 0 {
		return fmt.Errorf("scenario %q produced no output to compare", scenario.Name)
	}

	AssertGolden(t, scenario.Name, result)
	return nil
}

// AssertGolden compares the given result's output against a golden file.
// This is useful when you've already run a scenario and want to compare
// the result against a golden file without re-running.
func AssertGolden(t *testing.T, scenarioName string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, result.Output)
}
