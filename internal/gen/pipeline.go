package gen

import (
	"github.com/kortbus/sdlgen/internal/cscan"
	"github.com/kortbus/sdlgen/internal/include"
	"github.com/kortbus/sdlgen/internal/ir"
)

// Result carries everything one generation run produces.
type Result struct {
	Profile       *ir.Profile
	Unit          *ir.Unit
	Bindings      []Binding
	Output        []byte
	ProfileDigest string
	HeaderDigest  string
	OutputDigest  string
}

// OutputName is the default file name for a profile's emitted bindings.
func OutputName(p *ir.Profile) string {
	return p.Package + ".go"
}

// ScanUnit resolves a profile's headers and scans them into declaration IR,
// in profile order. The sources are returned alongside the unit so callers
// can digest the exact bytes that were scanned.
func ScanUnit(p *ir.Profile, r include.Resolver) (*ir.Unit, []ir.HeaderSource, error) {
	sources, err := include.Load(r, p)
	if err != nil {
		return nil, nil, err
	}

	unit := &ir.Unit{Context: p.Context}
	for _, src := range sources {
		f, err := cscan.Scan(src.Name, src.Content, cscan.Options{Decorations: p.Decorations})
		if err != nil {
			return nil, nil, err
		}
		unit.Files = append(unit.Files, *f)
	}
	return unit, sources, nil
}

// Run executes the generation pipeline for one profile: resolve headers,
// scan them in profile order, bind the substitution rules, emit, digest.
// The profile is assumed to have passed compiler validation.
func Run(p *ir.Profile, r include.Resolver) (*Result, error) {
	unit, sources, err := ScanUnit(p, r)
	if err != nil {
		return nil, err
	}

	bindings, berrs := Bind(p, unit)
	if len(berrs) > 0 {
		return nil, BindErrors(berrs)
	}

	output, err := Emit(p, unit, bindings)
	if err != nil {
		return nil, err
	}

	profileDigest, err := ir.ProfileDigest(p)
	if err != nil {
		return nil, err
	}
	headerDigest, err := ir.HeaderDigest(sources)
	if err != nil {
		return nil, err
	}

	return &Result{
		Profile:       p,
		Unit:          unit,
		Bindings:      bindings,
		Output:        output,
		ProfileDigest: profileDigest,
		HeaderDigest:  headerDigest,
		OutputDigest:  ir.OutputDigest(output),
	}, nil
}
