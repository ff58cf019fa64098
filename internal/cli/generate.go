package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/kortbus/sdlgen/internal/compiler"
	"github.com/kortbus/sdlgen/internal/gen"
	"github.com/kortbus/sdlgen/internal/ir"
	"github.com/kortbus/sdlgen/internal/store"
)

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	*RootOptions
	Output string // output file path, empty for stdout
	Record bool   // persist a run record
	DB     string // run store path
}

// GenerateReport summarizes one generation run.
type GenerateReport struct {
	Context       string `json:"context"`
	Package       string `json:"package"`
	OutputPath    string `json:"output_path,omitempty"`
	Substitutions int    `json:"substitutions"`
	Funcs         int    `json:"funcs"`
	ProfileDigest string `json:"profile_digest"`
	HeaderDigest  string `json:"header_digest"`
	OutputDigest  string `json:"output_digest"`
	Code          string `json:"code,omitempty"` // emitted source when no output file is written
	RunID         string `json:"run_id,omitempty"`
	RunSeq        int64  `json:"run_seq,omitempty"`
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "generate <context>",
		Short: "Generate cgo bindings for a version context",
		Long: `Generate the cgo declaration file for one version context.

Resolves the context's profile, scans its headers, applies the handle
substitution rules, and emits the generated Go source to stdout or to
the --output file. With --record, the run's digests are persisted to
the --db run store for later drift detection.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path (default: stdout)")
	cmd.Flags().BoolVar(&opts.Record, "record", false, "record the run in the store (requires --db)")
	cmd.Flags().StringVar(&opts.DB, "db", "", "run store database path")

	return cmd
}

func runGenerate(opts *GenerateOptions, context string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	if opts.Record && opts.DB == "" {
		return outputGenerateError(formatter, ErrCodeGeneric, "--record requires --db", nil)
	}

	p, err := resolveProfile(opts.RootOptions, context)
	if err != nil {
		return outputGenerateError(formatter, loadErrorCode(err), err.Error(), nil)
	}

	// Profiles are validated before generation so rule-table mistakes
	// surface with their validation codes rather than as bind failures.
	if verrs := compiler.Validate(p); len(verrs) > 0 {
		return outputGenerateValidationErrors(formatter, verrs)
	}

	resolver, err := resolveHeaders(opts.RootOptions, context)
	if err != nil {
		return outputGenerateError(formatter, loadErrorCode(err), err.Error(), nil)
	}

	formatter.VerboseLog("Generating %s: %d rule(s), %d header(s)", context, len(p.Rules), len(p.Headers))

	result, err := gen.Run(p, resolver)
	if err != nil {
		var berrs gen.BindErrors
		if errors.As(err, &berrs) {
			return outputBindErrors(formatter, berrs)
		}
		return outputGenerateError(formatter, ErrCodeGeneric, err.Error(), nil)
	}

	report := &GenerateReport{
		Context:       p.Context,
		Package:       p.Package,
		OutputPath:    opts.Output,
		Substitutions: len(result.Bindings),
		Funcs:         len(result.Unit.Funcs()),
		ProfileDigest: result.ProfileDigest,
		HeaderDigest:  result.HeaderDigest,
		OutputDigest:  result.OutputDigest,
	}

	// Write to file if --output specified
	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, result.Output, 0644); err != nil {
			return outputGenerateError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		}
	} else {
		report.Code = string(result.Output)
	}

	if opts.Record {
		stored, inserted, err := recordRun(cmd, opts, report)
		if err != nil {
			return outputGenerateError(formatter, ErrCodeStore, fmt.Sprintf("recording run: %v", err), nil)
		}
		report.RunID = stored.ID
		report.RunSeq = stored.Seq
		if inserted {
			formatter.VerboseLog("Recorded run seq %d (%s)", stored.Seq, stored.ID)
		}
	}

	return outputGenerateSuccess(formatter, report, opts.Output)
}

// recordRun persists the run's digests to the store.
func recordRun(cmd *cobra.Command, opts *GenerateOptions, report *GenerateReport) (ir.RunRecord, bool, error) {
	st, err := store.Open(opts.DB)
	if err != nil {
		return ir.RunRecord{}, false, err
	}
	defer st.Close()

	rec := ir.RunRecord{
		ID:            uuid.Must(uuid.NewV7()).String(),
		Context:       report.Context,
		ProfileDigest: report.ProfileDigest,
		HeaderDigest:  report.HeaderDigest,
		OutputDigest:  report.OutputDigest,
		OutputPath:    report.OutputPath,
		ToolVersion:   ir.ToolVersion,
		CreatedAt:     time.Now().UTC().Format(time.RFC3339),
	}

	return st.RecordRun(cmd.Context(), rec)
}

// outputGenerateSuccess outputs the generation result.
// Without an output file, text mode streams the generated source itself so
// the command composes with redirection; the run summary moves to verbose
// logging on stderr.
func outputGenerateSuccess(formatter *OutputFormatter, report *GenerateReport, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(report)
	}

	if outputFile == "" {
		_, err := formatter.Writer.Write([]byte(report.Code))
		return err
	}

	fmt.Fprintf(formatter.Writer, "✓ Generated %s bindings for %s: %d substitution(s), %d function(s)\n",
		report.Package, report.Context, report.Substitutions, report.Funcs)
	fmt.Fprintf(formatter.Writer, "Wrote %s\n", outputFile)
	if report.RunID != "" {
		fmt.Fprintf(formatter.Writer, "Recorded run seq %d (%s)\n", report.RunSeq, report.RunID)
	}

	return nil
}

// outputGenerateError outputs a single generation error.
func outputGenerateError(formatter *OutputFormatter, code, message string, details interface{}) error {
	_ = formatter.Error(code, message, details)
	// Load and IO errors are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputGenerateValidationErrors reports a profile that failed validation on
// the way into generation.
func outputGenerateValidationErrors(formatter *OutputFormatter, errs []compiler.ValidationError) error {
	if formatter.Format == "json" {
		cliErrors := make([]CLIError, len(errs))
		for i, verr := range errs {
			cliErrors[i] = CLIError{
				Code:    verr.Code,
				Message: fmt.Sprintf("%s: %s", verr.Field, verr.Message),
			}
		}

		response := CLIResponse{
			Status: "error",
			Error:  &cliErrors[0],
			Data:   cliErrors, // Include all errors in data
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		// Invalid profiles are command-level errors (exit code 2)
		return NewExitError(ExitCommandError, fmt.Sprintf("profile invalid with %d error(s)", len(errs)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Profile invalid")
	fmt.Fprintln(formatter.Writer)

	for _, verr := range errs {
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", verr.Code, verr.Field, verr.Message)
	}

	// Invalid profiles are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("profile invalid with %d error(s)", len(errs)))
}

// outputBindErrors reports rules that failed to resolve against the scanned
// headers.
func outputBindErrors(formatter *OutputFormatter, errs gen.BindErrors) error {
	if formatter.Format == "json" {
		cliErrors := make([]CLIError, len(errs))
		for i, berr := range errs {
			cliErrors[i] = CLIError{
				Code:    berr.Code,
				Message: fmt.Sprintf("%s: %s", berr.Field, berr.Message),
			}
		}

		response := CLIResponse{
			Status: "error",
			Error:  &cliErrors[0],
			Data:   cliErrors, // Include all errors in data
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		// Unresolved rules are validation failures (exit code 1)
		return NewExitError(ExitFailure, fmt.Sprintf("binding failed with %d error(s)", len(errs)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Binding failed")
	fmt.Fprintln(formatter.Writer)

	for _, berr := range errs {
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", berr.Code, berr.Field, berr.Message)
	}

	// Unresolved rules are validation failures (exit code 1)
	return NewExitError(ExitFailure, fmt.Sprintf("binding failed with %d error(s)", len(errs)))
}

// loadErrorCode extracts the error code from a load-path error.
func loadErrorCode(err error) string {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code
	}
	return ErrCodeGeneric
}
