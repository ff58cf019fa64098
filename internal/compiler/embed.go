package compiler

import (
	"embed"
	"fmt"
	"path"
	"sort"

	"github.com/kortbus/sdlgen/internal/ir"
)

// Builtin profiles ship inside the binary so generation works with no
// profile directory at hand. They compile through the same path as
// user-supplied CUE files.
//
//go:embed profiles/*.cue
var profilesFS embed.FS

// Builtin compiles every embedded profile, sorted by context name.
func Builtin() ([]*ir.Profile, error) {
	entries, err := profilesFS.ReadDir("profiles")
	if err != nil {
		return nil, fmt.Errorf("read embedded profiles: %w", err)
	}

	var profiles []*ir.Profile
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".cue" {
			continue
		}
		data, err := profilesFS.ReadFile(path.Join("profiles", e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read embedded profile %s: %w", e.Name(), err)
		}
		ps, err := CompileSource(e.Name(), data)
		if err != nil {
			return nil, fmt.Errorf("embedded profile %s: %w", e.Name(), err)
		}
		profiles = append(profiles, ps...)
	}

	sort.Slice(profiles, func(i, j int) bool {
		return profiles[i].Context < profiles[j].Context
	})
	return profiles, nil
}

// BuiltinProfile compiles the embedded profile for a single context.
func BuiltinProfile(context string) (*ir.Profile, error) {
	profiles, err := Builtin()
	if err != nil {
		return nil, err
	}
	for _, p := range profiles {
		if p.Context == context {
			return p, nil
		}
	}
	return nil, fmt.Errorf("no builtin profile for context %q", context)
}

// BuiltinContexts returns the context names of all embedded profiles.
func BuiltinContexts() ([]string, error) {
	profiles, err := Builtin()
	if err != nil {
		return nil, err
	}
	contexts := make([]string, 0, len(profiles))
	for _, p := range profiles {
		contexts = append(contexts, p.Context)
	}
	return contexts, nil
}
