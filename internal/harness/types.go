package harness

import (
	"github.com/kortbus/sdlgen/internal/gen"
)

// Substitution records one resolved handle rule.
type Substitution struct {
	Original    string `json:"original"`
	Replacement string `json:"replacement"`
	Class       string `json:"class"`
}

// Result captures the outcome of executing a scenario.
type Result struct {
	// Pass indicates whether all assertions passed.
	Pass bool `json:"pass"`

	// Context is the profile context that was generated.
	Context string `json:"context"`

	// Package is the Go package name of the emitted file.
	Package string `json:"package,omitempty"`

	// Output is the emitted Go source.
	Output []byte `json:"-"`

	// Substitutions are the resolved handle rules in binding order.
	Substitutions []Substitution `json:"substitutions,omitempty"`

	// Funcs lists the emitted wrapper functions in declaration order.
	Funcs []string `json:"funcs,omitempty"`

	// ProfileDigest fingerprints the profile that produced the output.
	ProfileDigest string `json:"profile_digest,omitempty"`

	// HeaderDigest fingerprints the scanned header bytes.
	HeaderDigest string `json:"header_digest,omitempty"`

	// OutputDigest fingerprints the emitted source.
	OutputDigest string `json:"output_digest,omitempty"`

	// GenError holds the generation error text for expect_error scenarios.
	GenError string `json:"gen_error,omitempty"`

	// Errors contains assertion failure messages (if any).
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a Result for the given context.
func NewResult(context string) *Result {
	return &Result{
		Pass:    true,
		Context: context,
		Errors:  []string{},
	}
}

// AddError records an assertion failure and marks the result as failed.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Pass = false
}

// RecordRun copies the observable parts of a generation result.
func (r *Result) RecordRun(res *gen.Result) {
	r.Package = res.Profile.Package
	r.Output = res.Output
	r.ProfileDigest = res.ProfileDigest
	r.HeaderDigest = res.HeaderDigest
	r.OutputDigest = res.OutputDigest

	for _, b := range res.Bindings {
		r.Substitutions = append(r.Substitutions, Substitution{
			Original:    b.Rule.Original,
			Replacement: b.Rule.Replacement,
			Class:       string(b.Class),
		})
	}
	for _, fn := range res.Unit.Funcs() {
		r.Funcs = append(r.Funcs, fn.Name)
	}
}
