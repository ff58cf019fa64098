package gen

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/kortbus/sdlgen/internal/ir"
)

// fileModel is the fully prepared render input: every type spelling and
// call expression is computed before the template runs, so the template
// stays pure layout.
type fileModel struct {
	Package     string
	DisplayName string
	PkgConfig   string // space-joined pkg-config names, empty when none
	Includes    []string
	NeedsUnsafe bool
	Aliases     []aliasModel
	Funcs       []funcModel
}

type aliasModel struct {
	Name        string
	Replacement string
}

type funcModel struct {
	Name      string
	ParamList string
	Ret       string // empty for void
	Body      string
}

var fileTemplate = template.Must(template.New("bindings").Parse(`// Code generated by sdlgen. DO NOT EDIT.

// Package {{.Package}} wraps the {{.DisplayName}} Vulkan entry points
// with Vulkan handle types replaced by fixed-width integers.
package {{.Package}}

/*
{{if .PkgConfig}}#cgo pkg-config: {{.PkgConfig}}
{{end}}{{range .Includes}}{{.}}
{{end}}*/
import "C"
{{if .NeedsUnsafe}}
import "unsafe"
{{end}}{{range .Aliases}}
// {{.Name}} carries C.{{.Name}} as {{.Replacement}}.
type {{.Name}} = {{.Replacement}}
{{end}}{{range .Funcs}}
// {{.Name}} wraps C.{{.Name}}.
func {{.Name}}({{.ParamList}}) {{if .Ret}}{{.Ret}} {{end}}{
	{{.Body}}
}
{{end}}`))

// Emit renders the cgo binding file for one bound unit. Output is
// deterministic: the alias block follows binding order (sorted by original
// name) and functions follow header scan order.
func Emit(p *ir.Profile, unit *ir.Unit, bindings []Binding) ([]byte, error) {
	var buf bytes.Buffer
	if err := fileTemplate.Execute(&buf, buildModel(p, unit, bindings)); err != nil {
		return nil, fmt.Errorf("render bindings: %w", err)
	}
	return buf.Bytes(), nil
}

func buildModel(p *ir.Profile, unit *ir.Unit, bindings []Binding) *fileModel {
	bound := make(map[string]Binding, len(bindings))
	for _, b := range bindings {
		bound[b.Rule.Original] = b
	}

	display := p.DisplayName
	if display == "" {
		display = p.Context
	}

	m := &fileModel{
		Package:     p.Package,
		DisplayName: display,
		PkgConfig:   strings.Join(p.PkgConfig, " "),
		Includes:    p.Includes,
	}

	for _, b := range bindings {
		m.Aliases = append(m.Aliases, aliasModel{
			Name:        b.Rule.Original,
			Replacement: b.Rule.Replacement,
		})
	}

	for _, fn := range unit.Funcs() {
		fm := funcModel{Name: fn.Name, Ret: goType(fn.Return, bound)}
		if usesUnsafe(fn.Return, bound) {
			m.NeedsUnsafe = true
		}

		params := make([]string, 0, len(fn.Params))
		args := make([]string, 0, len(fn.Params))
		for i, prm := range fn.Params {
			name := paramName(prm.Name, i)
			params = append(params, name+" "+goType(prm.Type, bound))
			args = append(args, argExpr(name, prm.Type, bound))
			if usesUnsafe(prm.Type, bound) {
				m.NeedsUnsafe = true
			}
		}

		fm.ParamList = strings.Join(params, ", ")
		call := fmt.Sprintf("C.%s(%s)", fn.Name, strings.Join(args, ", "))
		fm.Body = retExpr(call, fn.Return, bound)
		m.Funcs = append(m.Funcs, fm)
	}

	return m
}

// reservedNames are parameter spellings that would break the generated
// body: Go keywords plus the two import names the file may reference.
var reservedNames = map[string]bool{
	"break": true, "case": true, "chan": true, "const": true,
	"continue": true, "default": true, "defer": true, "else": true,
	"fallthrough": true, "for": true, "func": true, "go": true,
	"goto": true, "if": true, "import": true, "interface": true,
	"map": true, "package": true, "range": true, "return": true,
	"select": true, "struct": true, "switch": true, "type": true,
	"var": true, "C": true, "unsafe": true,
}

// paramName picks the Go spelling of a parameter. Unnamed parameters are
// numbered by position.
func paramName(name string, i int) string {
	if name == "" {
		return fmt.Sprintf("arg%d", i)
	}
	if reservedNames[name] {
		return name + "_"
	}
	return name
}
