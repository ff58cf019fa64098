package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kortbus/sdlgen/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Filter string // glob over scenario names, empty runs everything
}

// ScenarioReport holds the outcome of one scenario.
type ScenarioReport struct {
	Name   string   `json:"name"`
	Path   string   `json:"path"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// SuiteReport summarizes a conformance run.
type SuiteReport struct {
	Scenarios []ScenarioReport `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run conformance scenarios",
		Long: `Run YAML conformance scenarios against the generation pipeline.

Each scenario names a version context, optional profile and header
fixtures, and assertions over the emitted bindings. Profile and header
paths inside a scenario resolve relative to the scenario file. Every
scenario also generates twice and checks the digests agree.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, bad filter)

Examples:
  sdlgen test ./scenarios
  sdlgen test ./scenarios --filter "sdl2_*"
  sdlgen test ./scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTest(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runTest(opts *TestOptions, dir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return outputTestError(formatter, ErrCodeNotFound, fmt.Sprintf("scenario directory not found: %s", dir))
	}

	files, err := findScenarioFiles(dir, opts.Filter)
	if err != nil {
		return outputTestError(formatter, ErrCodeScanError, fmt.Sprintf("failed to find scenarios: %v", err))
	}

	report := &SuiteReport{Scenarios: make([]ScenarioReport, 0, len(files)), Total: len(files)}
	if len(files) == 0 {
		if opts.Format == "json" {
			return formatter.Success(report)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No scenarios found.")
		return nil
	}

	formatter.VerboseLog("Running %d scenario(s) from %s", len(files), dir)

	for _, file := range files {
		sr := runScenarioFile(file, opts, cmd)
		report.Scenarios = append(report.Scenarios, sr)
		if sr.Pass {
			report.Passed++
		} else {
			report.Failed++
		}
	}

	if opts.Format == "json" {
		return outputSuiteJSON(formatter, report)
	}
	return outputSuiteText(cmd, report)
}

// findScenarioFiles walks the directory and returns all YAML scenario files,
// optionally filtered by a glob over the scenario name (file name without
// extension). filepath.Walk yields lexical order, so runs are deterministic.
func findScenarioFiles(dir string, filter string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})

	return files, err
}

// runScenarioFile loads and executes one scenario, streaming its result in
// text mode.
func runScenarioFile(path string, opts *TestOptions, cmd *cobra.Command) ScenarioReport {
	w := cmd.OutOrStdout()
	report := ScenarioReport{
		Name: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Path: path,
	}

	// Relative profile and header paths resolve against the scenario's own
	// directory.
	scenario, err := harness.LoadScenarioWithBasePath(path, filepath.Dir(path))
	if err != nil {
		report.Errors = []string{fmt.Sprintf("failed to load scenario: %v", err)}
		printScenarioFailure(opts, w, report.Name, report.Errors)
		return report
	}
	report.Name = scenario.Name

	result, err := harness.Run(scenario)
	if err != nil {
		report.Errors = []string{fmt.Sprintf("execution failed: %v", err)}
		printScenarioFailure(opts, w, scenario.Name, report.Errors)
		return report
	}

	if !result.Pass {
		report.Errors = result.Errors
		printScenarioFailure(opts, w, scenario.Name, result.Errors)
		return report
	}

	report.Pass = true
	if opts.Format != "json" {
		fmt.Fprintf(w, "✓ %s\n", scenario.Name)
	}
	return report
}

// printScenarioFailure streams one failing scenario in text mode.
func printScenarioFailure(opts *TestOptions, w io.Writer, name string, errs []string) {
	if opts.Format == "json" {
		return
	}
	fmt.Fprintf(w, "✗ %s\n", name)
	for _, e := range errs {
		fmt.Fprintf(w, "  %s\n", e)
	}
}

// outputSuiteText prints the summary line. Scenario failures are exit code
// 1: the command ran, the scenarios did not hold.
func outputSuiteText(cmd *cobra.Command, report *SuiteReport) error {
	w := cmd.OutOrStdout()

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Summary: %d passed, %d failed, %d total\n", report.Passed, report.Failed, report.Total)

	if report.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%s: %d scenario(s) failed", ErrCodeScenarioFailed, report.Failed))
	}
	fmt.Fprintln(w, "✓ All scenarios passed")
	return nil
}

// outputSuiteJSON writes the JSON response, carrying the full report on
// failure so callers can see which scenarios broke.
func outputSuiteJSON(formatter *OutputFormatter, report *SuiteReport) error {
	if report.Failed == 0 {
		return formatter.Success(report)
	}

	message := fmt.Sprintf("%d scenario(s) failed", report.Failed)
	response := CLIResponse{
		Status: "error",
		Data:   report,
		Error: &CLIError{
			Code:    ErrCodeScenarioFailed,
			Message: message,
		},
	}
	if err := json.NewEncoder(formatter.Writer).Encode(response); err != nil {
		return err
	}
	return NewExitError(ExitFailure, fmt.Sprintf("%s: %s", ErrCodeScenarioFailed, message))
}

// outputTestError outputs a command-level test error.
func outputTestError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}
