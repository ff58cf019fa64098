package cli

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kortbus/sdlgen/internal/compiler"
	"github.com/kortbus/sdlgen/internal/gen"
	"github.com/kortbus/sdlgen/internal/ir"
	"github.com/kortbus/sdlgen/internal/store"
)

// Store and verification error codes (E300-E399)
const (
	ErrCodeNonDeterministic = "E300" // back-to-back runs produced different output
	ErrCodeDrift            = "E301" // current output differs from the recorded run
	ErrCodeNoRecordedRun    = "E302" // no recorded run for the context
	ErrCodeStore            = "E303" // run store access failed
	ErrCodeScenarioFailed   = "E304" // one or more conformance scenarios failed
)

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
	DB string // run store path, empty to skip drift detection
}

// VerifyReport holds the digest comparison for one context.
type VerifyReport struct {
	Context       string              `json:"context"`
	Deterministic bool                `json:"deterministic"`
	ProfileDigest string              `json:"profile_digest"`
	HeaderDigest  string              `json:"header_digest"`
	OutputDigest  string              `json:"output_digest"`
	Recorded      *RecordedComparison `json:"recorded,omitempty"`
}

// RecordedComparison compares the current digests against a recorded run.
type RecordedComparison struct {
	RunID         string `json:"run_id"`
	Seq           int64  `json:"seq"`
	ProfileDigest string `json:"profile_digest"`
	HeaderDigest  string `json:"header_digest"`
	OutputDigest  string `json:"output_digest"`
	Match         bool   `json:"match"`
}

// digestDiff is one digest pair that disagreed.
type digestDiff struct {
	Name string `json:"name"`
	Want string `json:"want"`
	Got  string `json:"got"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify <context>",
		Short: "Verify generation is deterministic and matches recorded runs",
		Long: `Verify one version context's generation.

Runs the pipeline twice over unchanged inputs and compares digests: any
disagreement means generation is not deterministic. With --db, the
current digests are also compared against the context's latest recorded
run, so edits to profiles or headers since that run surface as drift.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "run store database path")

	return cmd
}

func runVerify(opts *VerifyOptions, context string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	p, err := resolveProfile(opts.RootOptions, context)
	if err != nil {
		return outputVerifyError(formatter, loadErrorCode(err), err.Error(), nil)
	}

	if verrs := compiler.Validate(p); len(verrs) > 0 {
		return outputVerifyError(formatter, verrs[0].Code,
			fmt.Sprintf("profile invalid: %s: %s", verrs[0].Field, verrs[0].Message), nil)
	}

	resolver, err := resolveHeaders(opts.RootOptions, context)
	if err != nil {
		return outputVerifyError(formatter, loadErrorCode(err), err.Error(), nil)
	}

	verifyRun := func() (*gen.Result, error) {
		result, err := gen.Run(p, resolver)
		if err != nil {
			var berrs gen.BindErrors
			if errors.As(err, &berrs) {
				return nil, outputBindErrors(formatter, berrs)
			}
			return nil, outputVerifyError(formatter, ErrCodeGeneric, err.Error(), nil)
		}
		return result, nil
	}

	formatter.VerboseLog("Verifying %s: generating twice", context)

	first, err := verifyRun()
	if err != nil {
		return err
	}
	second, err := verifyRun()
	if err != nil {
		return err
	}

	report := &VerifyReport{
		Context:       context,
		ProfileDigest: first.ProfileDigest,
		HeaderDigest:  first.HeaderDigest,
		OutputDigest:  first.OutputDigest,
	}

	if diffs := diffResults(first, second); len(diffs) > 0 {
		return outputNonDeterministic(formatter, report, diffs)
	}
	report.Deterministic = true

	if opts.DB != "" {
		rec, err := latestRecordedRun(cmd, opts.DB, context)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return outputVerifyFailure(formatter, report, ErrCodeNoRecordedRun,
					fmt.Sprintf("no recorded run for context %q", context), nil)
			}
			var loadErr *LoadError
			if errors.As(err, &loadErr) {
				return outputVerifyError(formatter, loadErr.Code, loadErr.Message, nil)
			}
			return outputVerifyError(formatter, ErrCodeStore, fmt.Sprintf("reading run store: %v", err), nil)
		}

		diffs := diffRecorded(rec, first)
		report.Recorded = &RecordedComparison{
			RunID:         rec.ID,
			Seq:           rec.Seq,
			ProfileDigest: rec.ProfileDigest,
			HeaderDigest:  rec.HeaderDigest,
			OutputDigest:  rec.OutputDigest,
			Match:         len(diffs) == 0,
		}
		if len(diffs) > 0 {
			return outputDrift(formatter, report, rec, diffs)
		}
	}

	return outputVerifySuccess(formatter, report)
}

// latestRecordedRun reads the context's latest run from the store.
func latestRecordedRun(cmd *cobra.Command, dbPath, context string) (ir.RunRecord, error) {
	st, err := openStoreRead(dbPath)
	if err != nil {
		return ir.RunRecord{}, err
	}
	defer st.Close()

	return st.LatestRun(cmd.Context(), context)
}

// openStoreRead opens an existing run store, failing when the database file
// does not exist rather than letting SQLite create an empty one.
func openStoreRead(path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("run store not found: %s", path)}
	}
	return store.Open(path)
}

// diffResults compares the digests of two back-to-back runs.
func diffResults(first, second *gen.Result) []digestDiff {
	var diffs []digestDiff
	if first.ProfileDigest != second.ProfileDigest {
		diffs = append(diffs, digestDiff{Name: "profile_digest", Want: first.ProfileDigest, Got: second.ProfileDigest})
	}
	if first.HeaderDigest != second.HeaderDigest {
		diffs = append(diffs, digestDiff{Name: "header_digest", Want: first.HeaderDigest, Got: second.HeaderDigest})
	}
	if first.OutputDigest != second.OutputDigest {
		diffs = append(diffs, digestDiff{Name: "output_digest", Want: first.OutputDigest, Got: second.OutputDigest})
	}
	return diffs
}

// diffRecorded compares a recorded run's digests against a fresh result.
func diffRecorded(rec ir.RunRecord, result *gen.Result) []digestDiff {
	var diffs []digestDiff
	if rec.ProfileDigest != result.ProfileDigest {
		diffs = append(diffs, digestDiff{Name: "profile_digest", Want: rec.ProfileDigest, Got: result.ProfileDigest})
	}
	if rec.HeaderDigest != result.HeaderDigest {
		diffs = append(diffs, digestDiff{Name: "header_digest", Want: rec.HeaderDigest, Got: result.HeaderDigest})
	}
	if rec.OutputDigest != result.OutputDigest {
		diffs = append(diffs, digestDiff{Name: "output_digest", Want: rec.OutputDigest, Got: result.OutputDigest})
	}
	return diffs
}

// outputVerifySuccess outputs a successful verification.
func outputVerifySuccess(formatter *OutputFormatter, report *VerifyReport) error {
	if formatter.Format == "json" {
		return formatter.Success(report)
	}

	if report.Recorded != nil {
		fmt.Fprintf(formatter.Writer, "✓ %s verified: deterministic, matches recorded run seq %d\n",
			report.Context, report.Recorded.Seq)
		return nil
	}
	fmt.Fprintf(formatter.Writer, "✓ %s verified: deterministic\n", report.Context)
	return nil
}

// outputNonDeterministic reports digests that changed between two runs over
// unchanged inputs.
func outputNonDeterministic(formatter *OutputFormatter, report *VerifyReport, diffs []digestDiff) error {
	message := fmt.Sprintf("generation for %s is not deterministic", report.Context)
	if formatter.Format == "json" {
		return encodeVerifyFailure(formatter, report, ErrCodeNonDeterministic, message, diffs)
	}

	fmt.Fprintf(formatter.Writer, "✗ Non-deterministic generation for %s\n\n", report.Context)
	printDigestDiffs(formatter.Writer, diffs, "first: ", "second:")
	return NewExitError(ExitFailure, fmt.Sprintf("%s: %s", ErrCodeNonDeterministic, message))
}

// outputDrift reports digests that moved since the recorded run.
func outputDrift(formatter *OutputFormatter, report *VerifyReport, rec ir.RunRecord, diffs []digestDiff) error {
	message := fmt.Sprintf("output for %s drifted from recorded run seq %d", report.Context, rec.Seq)
	if formatter.Format == "json" {
		return encodeVerifyFailure(formatter, report, ErrCodeDrift, message, diffs)
	}

	fmt.Fprintf(formatter.Writer, "✗ Drift detected for %s (recorded run seq %d)\n\n", report.Context, rec.Seq)
	printDigestDiffs(formatter.Writer, diffs, "recorded:", "current: ")
	if rec.ToolVersion != ir.ToolVersion {
		fmt.Fprintf(formatter.Writer, "  recorded by tool %s, current tool is %s\n\n", rec.ToolVersion, ir.ToolVersion)
	}
	return NewExitError(ExitFailure, fmt.Sprintf("%s: %s", ErrCodeDrift, message))
}

// outputVerifyFailure reports a verification failure without digest diffs.
func outputVerifyFailure(formatter *OutputFormatter, report *VerifyReport, code, message string, diffs []digestDiff) error {
	if formatter.Format == "json" {
		return encodeVerifyFailure(formatter, report, code, message, diffs)
	}

	fmt.Fprintf(formatter.Writer, "✗ %s\n", message)
	return NewExitError(ExitFailure, fmt.Sprintf("%s: %s", code, message))
}

// encodeVerifyFailure writes the JSON failure response. Verification
// failures are exit code 1: the command ran, the property did not hold.
func encodeVerifyFailure(formatter *OutputFormatter, report *VerifyReport, code, message string, diffs []digestDiff) error {
	response := CLIResponse{
		Status: "error",
		Data:   report,
		Error: &CLIError{
			Code:    code,
			Message: message,
		},
	}
	if len(diffs) > 0 {
		response.Error.Details = diffs
	}

	encoder := json.NewEncoder(formatter.Writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	return NewExitError(ExitFailure, fmt.Sprintf("%s: %s", code, message))
}

// printDigestDiffs renders digest pairs with aligned labels.
func printDigestDiffs(w io.Writer, diffs []digestDiff, wantLabel, gotLabel string) {
	for _, d := range diffs {
		fmt.Fprintf(w, "  %s:\n", d.Name)
		fmt.Fprintf(w, "    %s %s\n", wantLabel, d.Want)
		fmt.Fprintf(w, "    %s %s\n\n", gotLabel, d.Got)
	}
}

// outputVerifyError outputs a command-level verify error.
func outputVerifyError(formatter *OutputFormatter, code, message string, details interface{}) error {
	_ = formatter.Error(code, message, details)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}
