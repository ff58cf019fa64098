package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kortbus/sdlgen/internal/gen"
	"github.com/kortbus/sdlgen/internal/ir"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
	DB string // run store path, empty to skip run listing
}

// InspectReport describes one context's configuration and scan results.
type InspectReport struct {
	Context     string         `json:"context"`
	DisplayName string         `json:"display_name,omitempty"`
	Package     string         `json:"package"`
	PkgConfig   []string       `json:"pkg_config,omitempty"`
	Includes    []string       `json:"includes"`
	Headers     []string       `json:"headers"`
	Decorations []string       `json:"decorations,omitempty"`
	Rules       []ir.Rule      `json:"rules"`
	Scan        *ScanSummary   `json:"scan,omitempty"`
	Runs        []ir.RunRecord `json:"runs,omitempty"`
}

// ScanSummary counts the declarations scanned from a context's headers.
type ScanSummary struct {
	Files    []FileSummary `json:"files"`
	Typedefs int           `json:"typedefs"`
	Funcs    int           `json:"funcs"`
}

// FileSummary counts one header's scanned declarations.
type FileSummary struct {
	Name     string `json:"name"`
	Typedefs int    `json:"typedefs"`
	Funcs    int    `json:"funcs"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect <context>",
		Short: "Show a context's rules, headers, and scan results",
		Long: `Show one version context's configuration: its substitution rules, cgo
preamble inputs, and header scan list. When the context's headers are
available they are scanned and per-header declaration counts are
reported. With --db, the context's recorded runs are listed.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "run store database path")

	return cmd
}

func runInspect(opts *InspectOptions, context string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	p, err := resolveProfile(opts.RootOptions, context)
	if err != nil {
		return outputInspectError(formatter, loadErrorCode(err), err.Error(), nil)
	}

	report := &InspectReport{
		Context:     p.Context,
		DisplayName: p.DisplayName,
		Package:     p.Package,
		PkgConfig:   p.PkgConfig,
		Includes:    p.Includes,
		Headers:     p.Headers,
		Decorations: p.Decorations,
		Rules:       p.Rules,
	}

	// Scan counts are informational: a context whose headers are not at
	// hand still inspects, it just reports the header list unscanned.
	resolver, rerr := resolveHeaders(opts.RootOptions, context)
	if rerr != nil && opts.Headers != "" {
		return outputInspectError(formatter, loadErrorCode(rerr), rerr.Error(), nil)
	}
	if rerr != nil {
		formatter.VerboseLog("Headers unavailable for %s, skipping scan: %v", context, rerr)
	} else {
		unit, _, scanErr := gen.ScanUnit(p, resolver)
		if scanErr != nil {
			return outputInspectError(formatter, ErrCodeGeneric, scanErr.Error(), nil)
		}
		report.Scan = summarizeScan(unit)
	}

	if opts.DB != "" {
		st, err := openStoreRead(opts.DB)
		if err != nil {
			return outputInspectError(formatter, loadErrorCode(err), err.Error(), nil)
		}
		defer st.Close()

		runs, err := st.ListRuns(cmd.Context(), context)
		if err != nil {
			return outputInspectError(formatter, ErrCodeStore, fmt.Sprintf("listing runs: %v", err), nil)
		}
		report.Runs = runs
	}

	if formatter.Format == "json" {
		return formatter.Success(report)
	}

	outputInspectText(formatter.Writer, report, opts.DB != "")
	return nil
}

// summarizeScan counts declarations per scanned header.
func summarizeScan(unit *ir.Unit) *ScanSummary {
	summary := &ScanSummary{Files: make([]FileSummary, 0, len(unit.Files))}
	for _, f := range unit.Files {
		summary.Files = append(summary.Files, FileSummary{
			Name:     f.Name,
			Typedefs: len(f.Typedefs),
			Funcs:    len(f.Funcs),
		})
		summary.Typedefs += len(f.Typedefs)
		summary.Funcs += len(f.Funcs)
	}
	return summary
}

// outputInspectText renders the report for humans.
func outputInspectText(w io.Writer, report *InspectReport, withRuns bool) {
	if report.DisplayName != "" {
		fmt.Fprintf(w, "Context: %s (%s)\n", report.Context, report.DisplayName)
	} else {
		fmt.Fprintf(w, "Context: %s\n", report.Context)
	}
	fmt.Fprintf(w, "Package: %s\n", report.Package)
	if len(report.PkgConfig) > 0 {
		fmt.Fprintf(w, "Pkg-config: %s\n", strings.Join(report.PkgConfig, ", "))
	}
	if len(report.Decorations) > 0 {
		fmt.Fprintf(w, "Decorations: %s\n", strings.Join(report.Decorations, ", "))
	}

	if len(report.Includes) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Includes:")
		for _, inc := range report.Includes {
			fmt.Fprintf(w, "  %s\n", inc)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Rules:")
	for _, r := range report.Rules {
		fmt.Fprintf(w, "  %s → %s\n", r.Original, r.Replacement)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Headers:")
	if report.Scan != nil {
		for _, f := range report.Scan.Files {
			fmt.Fprintf(w, "  %s: %d typedef(s), %d function(s)\n", f.Name, f.Typedefs, f.Funcs)
		}
		fmt.Fprintf(w, "  total: %d typedef(s), %d function(s)\n", report.Scan.Typedefs, report.Scan.Funcs)
	} else {
		for _, h := range report.Headers {
			fmt.Fprintf(w, "  %s (not scanned)\n", h)
		}
	}

	if withRuns {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Recorded runs:")
		if len(report.Runs) == 0 {
			fmt.Fprintln(w, "  (none)")
		}
		for _, r := range report.Runs {
			fmt.Fprintf(w, "  seq %d: output %s (%s)\n", r.Seq, shortDigest(r.OutputDigest), r.CreatedAt)
		}
	}
}

// outputInspectError outputs a single inspect error.
func outputInspectError(formatter *OutputFormatter, code, message string, details interface{}) error {
	_ = formatter.Error(code, message, details)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// shortDigest abbreviates a digest for text output.
func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}
