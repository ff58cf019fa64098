package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue/token"

	"github.com/kortbus/sdlgen/internal/compiler"
	"github.com/kortbus/sdlgen/internal/include"
	"github.com/kortbus/sdlgen/internal/ir"
)

// LoadMode controls how errors are handled during profile loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadResult contains the results of loading profiles from a directory.
type LoadResult struct {
	Profiles  []*ir.Profile
	FileCount int // Number of CUE files found
}

// LoadError represents an error that occurred during profile loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadProfiles compiles CUE profiles from a directory.
// If mode is LoadModeFailFast, returns on first error.
// If mode is LoadModeCollectAll, collects all errors.
// Profiles are returned sorted by context name, matching compiler.Builtin.
func LoadProfiles(dir string, mode LoadMode) (*LoadResult, []error) {
	var errs []error

	// Verify directory exists
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("profile directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing profile directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	// Find CUE files
	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	result := &LoadResult{FileCount: len(cueFiles)}

	// Track contexts for duplicate detection across files
	declaredIn := make(map[string]string, len(cueFiles))

	for _, file := range cueFiles {
		src, readErr := os.ReadFile(file)
		if readErr != nil {
			errs = append(errs, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("reading %s: %v", file, readErr)})
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}

		profiles, compileErr := compiler.CompileSource(file, src)
		if compileErr != nil {
			errs = append(errs, convertCompileError(compileErr, file))
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}

		for _, p := range profiles {
			if prev, dup := declaredIn[p.Context]; dup {
				errs = append(errs, &LoadError{
					Code:    ErrCodeDuplicateContext,
					Message: fmt.Sprintf("context %q declared in both %s and %s", p.Context, prev, file),
				})
				if mode == LoadModeFailFast {
					return result, errs
				}
				continue
			}
			declaredIn[p.Context] = file
			result.Profiles = append(result.Profiles, p)
		}
	}

	sort.Slice(result.Profiles, func(i, j int) bool {
		return result.Profiles[i].Context < result.Profiles[j].Context
	})

	return result, errs
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// resolveProfiles returns the profile set commands operate on: the embedded
// profiles, or the --profiles directory when set.
func resolveProfiles(opts *RootOptions, mode LoadMode) ([]*ir.Profile, []error) {
	if opts.Profiles == "" {
		profiles, err := compiler.Builtin()
		if err != nil {
			return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("compiling embedded profiles: %v", err)}}
		}
		return profiles, nil
	}

	result, errs := LoadProfiles(opts.Profiles, mode)
	if result == nil {
		return nil, errs
	}
	return result.Profiles, errs
}

// resolveProfile finds the profile for one context.
func resolveProfile(opts *RootOptions, context string) (*ir.Profile, error) {
	profiles, errs := resolveProfiles(opts, LoadModeFailFast)
	if len(errs) > 0 {
		return nil, errs[0]
	}
	for _, p := range profiles {
		if p.Context == context {
			return p, nil
		}
	}
	return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("no profile for context %q", context)}
}

// resolveHeaders picks the header resolver for a context: a --headers
// include tree when set, the embedded excerpts otherwise.
func resolveHeaders(opts *RootOptions, context string) (include.Resolver, error) {
	if opts.Headers != "" {
		info, err := os.Stat(opts.Headers)
		if err != nil || !info.IsDir() {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("header directory not found: %s", opts.Headers)}
		}
		return include.Dir(opts.Headers), nil
	}
	if !include.HasBuiltin(context) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("no embedded headers for context %q (use --headers)", context)}
	}
	return include.Builtin(context), nil
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, file string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: compileErr.Message,
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: fmt.Sprintf("%s: %v", file, err),
	}
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric          = "E001" // Generic/unknown error
	ErrCodeScanError        = "E002" // Directory scan error
	ErrCodeNoFiles          = "E003" // No CUE files found
	ErrCodeLoadFailed       = "E004" // CUE file read failed
	ErrCodeNotFound         = "E005" // Path, context, or header not found
	ErrCodeBuildFailed      = "E006" // CUE build failed
	ErrCodeWriteFailed      = "E007" // File write error
	ErrCodeDuplicateContext = "E008" // Context declared by more than one file
)

// MapFieldToErrorCode maps a compiler error field to an error code.
// Compile errors report the profile field they arose from; the mapping
// assigns each the validation code the compiled profile would have failed
// with, so a field missing at compile time and a field invalid at
// validation time carry the same code.
func MapFieldToErrorCode(field string) string {
	switch field {
	case "context":
		return compiler.ErrContextInvalid
	case "go_package":
		return compiler.ErrPackageInvalid
	case "headers":
		return compiler.ErrNoHeaders
	case "includes":
		return compiler.ErrBadInclude
	case "rules":
		return compiler.ErrNoRules
	case "cue":
		return ErrCodeBuildFailed
	}
	switch {
	case strings.HasSuffix(field, ".original"):
		return compiler.ErrBadOriginal
	case strings.HasSuffix(field, ".replacement"):
		return compiler.ErrBadReplacement
	}
	return ErrCodeGeneric
}
