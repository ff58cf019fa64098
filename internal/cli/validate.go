package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kortbus/sdlgen/internal/compiler"
	"github.com/kortbus/sdlgen/internal/gen"
	"github.com/kortbus/sdlgen/internal/ir"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                       `json:"valid"`
	Contexts []string                   `json:"contexts,omitempty"`
	Errors   []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [<context>]",
		Short: "Validate profiles without generating",
		Long: `Validate generation profiles without emitting code.

Checks every profile (or just the named context) against the profile
schema and rule-table constraints. When the context's headers are
available, substitution rules are also resolved against the scanned
declarations so originals no header declares are reported here rather
than at generation time.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			context := ""
			if len(args) > 0 {
				context = args[0]
			}
			return runValidate(rootOpts, context, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, context string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	// Collect-all mode: one broken profile file should not hide the rest
	profiles, loadErrors := resolveProfiles(opts, LoadModeCollectAll)

	// Handle load errors that left nothing to validate (directory not
	// found, no files, etc.)
	if len(profiles) == 0 && len(loadErrors) > 0 {
		var loadErr *LoadError
		if errors.As(loadErrors[0], &loadErr) {
			return outputValidateError(formatter, loadErr.Code, loadErr.Message, nil)
		}
		return outputValidateError(formatter, ErrCodeGeneric, loadErrors[0].Error(), nil)
	}

	if context != "" {
		p := findProfile(profiles, context)
		if p == nil {
			return outputValidateError(formatter, ErrCodeNotFound, fmt.Sprintf("no profile for context %q", context), nil)
		}
		profiles = []*ir.Profile{p}
	}

	formatter.VerboseLog("Validating %d profile(s)", len(profiles))

	validationErrors := validateAll(opts, profiles, formatter)

	// Add any load errors as validation errors
	for _, err := range loadErrors {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			validationErrors = append(validationErrors, compiler.ValidationError{
				Field:   "load",
				Message: loadErr.Message,
				Code:    loadErr.Code,
			})
		}
	}

	if len(validationErrors) > 0 {
		return outputValidationErrors(formatter, validationErrors)
	}

	contexts := make([]string, len(profiles))
	for i, p := range profiles {
		contexts[i] = p.Context
	}

	// Output success
	return outputValidateSuccess(formatter, contexts)
}

// validateAll validates every profile against the schema and, where headers
// are available, resolves its rule table against the scanned declarations.
func validateAll(opts *RootOptions, profiles []*ir.Profile, formatter *OutputFormatter) []compiler.ValidationError {
	var allErrors []compiler.ValidationError

	for _, p := range profiles {
		formatter.VerboseLog("Validating profile: %s", p.Context)

		schemaErrs := compiler.Validate(p)
		allErrors = append(allErrors, schemaErrs...)
		if len(schemaErrs) > 0 {
			// Rule resolution against a broken profile would only repeat
			// the schema findings as bind noise.
			continue
		}

		resolver, err := resolveHeaders(opts, p.Context)
		if err != nil {
			formatter.VerboseLog("Headers unavailable for %s, skipping rule resolution: %v", p.Context, err)
			continue
		}

		unit, _, err := gen.ScanUnit(p, resolver)
		if err != nil {
			allErrors = append(allErrors, compiler.ValidationError{
				Field:   "headers",
				Message: err.Error(),
				Code:    ErrCodeGeneric,
			})
			continue
		}

		if _, berrs := gen.Bind(p, unit); len(berrs) > 0 {
			for _, berr := range berrs {
				allErrors = append(allErrors, compiler.ValidationError{
					Field:   berr.Field,
					Message: berr.Message,
					Code:    berr.Code,
				})
			}
		}
	}

	return allErrors
}

// findProfile returns the profile for a context, or nil.
func findProfile(profiles []*ir.Profile, context string) *ir.Profile {
	for _, p := range profiles {
		if p.Context == context {
			return p
		}
	}
	return nil
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, contexts []string) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Contexts: contexts})
	}

	if len(contexts) == 1 {
		fmt.Fprintf(formatter.Writer, "✓ Profile %s valid\n", contexts[0])
		return nil
	}
	fmt.Fprintln(formatter.Writer, "✓ All profiles valid")
	return nil
}

// outputValidateError outputs a single validation error.
func outputValidateError(formatter *OutputFormatter, code, message string, details interface{}) error {
	_ = formatter.Error(code, message, details)
	// Load errors are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []compiler.ValidationError) error {
	if formatter.Format == "json" {
		result := ValidationResult{
			Valid:  false,
			Errors: errs,
		}

		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
	}

	// Validation failures = exit code 1
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
