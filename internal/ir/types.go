package ir

import "strings"

// Rule is one type substitution scoped to a version context: wherever
// Original appears in a scanned declaration, Replacement is emitted instead.
type Rule struct {
	Original    string `json:"original"`
	Replacement string `json:"replacement"`
}

// ReplacementTypes defines the allowed replacement type names.
// Handle substitutions map C handle types onto pointer-width or fixed-width
// unsigned integers; nothing else is expressible in a profile.
var ReplacementTypes = map[string]bool{
	"uintptr": true,
	"uint64":  true,
	"uint32":  true,
	"uint16":  true,
	"uint8":   true,
}

// Profile is the compiled form of one version context's configuration.
type Profile struct {
	Context     string   `json:"context"`               // "sdl2", "sdl3"
	DisplayName string   `json:"display_name"`          // "SDL 2.x"
	Package     string   `json:"package"`               // emitted Go package name
	PkgConfig   []string `json:"pkg_config,omitempty"`  // cgo pkg-config names
	Includes    []string `json:"includes"`              // cgo preamble #include lines
	Headers     []string `json:"headers"`               // scan list, in order
	Decorations []string `json:"decorations,omitempty"` // macros stripped during scanning
	Rules       []Rule   `json:"rules"`
}

// RuleFor returns the rule whose Original matches name.
func (p *Profile) RuleFor(name string) (Rule, bool) {
	for _, r := range p.Rules {
		if r.Original == name {
			return r, true
		}
	}
	return Rule{}, false
}

// TypeRef references a C type as written in a declaration. Base is the bare
// type name ("VkInstance", "char", "unsigned int"); Stars is the pointer
// depth.
type TypeRef struct {
	Const bool   `json:"const,omitempty"`
	Base  string `json:"base"`
	Stars int    `json:"stars,omitempty"`
}

// String renders the reference in C source order, e.g. "const char **".
func (t TypeRef) String() string {
	var sb strings.Builder
	if t.Const {
		sb.WriteString("const ")
	}
	sb.WriteString(t.Base)
	if t.Stars > 0 {
		sb.WriteByte(' ')
		sb.WriteString(strings.Repeat("*", t.Stars))
	}
	return sb.String()
}

// IsVoid reports whether the reference is the bare void type.
func (t TypeRef) IsVoid() bool {
	return t.Base == "void" && t.Stars == 0
}

// TypedefKind classifies the typedef forms the scanner understands.
type TypedefKind string

const (
	// TypedefAlias is a plain alias: typedef uint64_t VkSurfaceKHR;
	TypedefAlias TypedefKind = "alias"

	// TypedefOpaque is an opaque pointer handle: typedef struct VkInstance_T *VkInstance;
	TypedefOpaque TypedefKind = "opaque"

	// TypedefStruct is a struct definition or forward alias: typedef struct SDL_Window SDL_Window;
	TypedefStruct TypedefKind = "struct"

	// TypedefEnum is an enum definition: typedef enum { ... } SDL_bool;
	TypedefEnum TypedefKind = "enum"

	// TypedefFuncPointer is a function pointer alias: typedef void (*SDL_FunctionPointer)(void);
	TypedefFuncPointer TypedefKind = "func_pointer"
)

// Typedef is one scanned typedef declaration. Type carries the aliased type
// for TypedefAlias and TypedefOpaque; for the other kinds it records the
// underlying tag name where one exists.
type Typedef struct {
	Name string      `json:"name"`
	Kind TypedefKind `json:"kind"`
	Type TypeRef     `json:"type"`
}

// Param is one function parameter. Name may be empty for unnamed parameters.
type Param struct {
	Name string  `json:"name,omitempty"`
	Type TypeRef `json:"type"`
}

// Func is one scanned extern function prototype.
type Func struct {
	Name   string  `json:"name"`
	Return TypeRef `json:"return"`
	Params []Param `json:"params"`
}

// File is the scan result for one header: its recorded #include targets and
// declarations in source order.
type File struct {
	Name     string    `json:"name"`
	Includes []string  `json:"includes,omitempty"`
	Typedefs []Typedef `json:"typedefs,omitempty"`
	Funcs    []Func    `json:"funcs,omitempty"`
}

// Unit is one version context's complete scan result.
type Unit struct {
	Context string `json:"context"`
	Files   []File `json:"files"`
}

// Typedef returns the first typedef named name, in scan order.
func (u *Unit) Typedef(name string) (Typedef, bool) {
	for _, f := range u.Files {
		for _, td := range f.Typedefs {
			if td.Name == name {
				return td, true
			}
		}
	}
	return Typedef{}, false
}

// Funcs returns every scanned prototype in scan order.
func (u *Unit) Funcs() []Func {
	var funcs []Func
	for _, f := range u.Files {
		funcs = append(funcs, f.Funcs...)
	}
	return funcs
}

// HeaderSource is one resolved header: its profile-listed name and exact
// bytes as fed to the scanner.
type HeaderSource struct {
	Name    string
	Content []byte
}
