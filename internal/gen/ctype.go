package gen

import (
	"fmt"
	"strings"

	"github.com/kortbus/sdlgen/internal/ir"
)

// builtinCTypes maps multi-word and plain C builtins to their cgo
// spellings. Anything not listed here is referenced as C.<name>.
var builtinCTypes = map[string]string{
	"char":               "C.char",
	"signed char":        "C.schar",
	"unsigned char":      "C.uchar",
	"short":              "C.short",
	"unsigned short":     "C.ushort",
	"int":                "C.int",
	"signed int":         "C.int",
	"unsigned":           "C.uint",
	"unsigned int":       "C.uint",
	"long":               "C.long",
	"unsigned long":      "C.ulong",
	"long long":          "C.longlong",
	"unsigned long long": "C.ulonglong",
	"float":              "C.float",
	"double":             "C.double",
	"bool":               "C.bool",
}

// goType spells a scanned C type the way the generated Go file declares it.
// Substituted types appear under their alias names; everything else keeps
// its C type through cgo. const is dropped: cgo has no const.
func goType(t ir.TypeRef, bound map[string]Binding) string {
	if b, ok := bound[t.Base]; ok {
		return strings.Repeat("*", t.Stars) + b.Rule.Original
	}

	if t.Base == "void" {
		switch t.Stars {
		case 0:
			return ""
		default:
			// void* is unsafe.Pointer; deeper levels point at it.
			return strings.Repeat("*", t.Stars-1) + "unsafe.Pointer"
		}
	}

	var base string
	switch {
	case strings.HasPrefix(t.Base, "struct "):
		base = "C.struct_" + strings.TrimPrefix(t.Base, "struct ")
	case strings.HasPrefix(t.Base, "union "):
		base = "C.union_" + strings.TrimPrefix(t.Base, "union ")
	case strings.HasPrefix(t.Base, "enum "):
		base = "C.enum_" + strings.TrimPrefix(t.Base, "enum ")
	default:
		if spelled, ok := builtinCTypes[t.Base]; ok {
			base = spelled
		} else {
			base = "C." + t.Base
		}
	}
	return strings.Repeat("*", t.Stars) + base
}

// argExpr renders the call-site expression for one parameter. Substituted
// positions convert between the integer alias and the original C type;
// every other position passes through untouched.
func argExpr(name string, t ir.TypeRef, bound map[string]Binding) string {
	b, ok := bound[t.Base]
	if !ok {
		return name
	}

	if t.Stars > 0 {
		// Pointer to a substituted type: reinterpret the pointer itself.
		return fmt.Sprintf("(%sC.%s)(unsafe.Pointer(%s))",
			strings.Repeat("*", t.Stars), t.Base, name)
	}

	switch b.Class {
	case ClassPointer:
		return fmt.Sprintf("C.%s(unsafe.Pointer(%s))", t.Base, name)
	default:
		return fmt.Sprintf("C.%s(%s)", t.Base, name)
	}
}

// retExpr wraps a call expression so its result carries the Go-side type
// of the declared return. The empty string means the call is a statement.
func retExpr(call string, t ir.TypeRef, bound map[string]Binding) string {
	if t.IsVoid() {
		return call
	}

	b, ok := bound[t.Base]
	if !ok {
		return "return " + call
	}

	if t.Stars > 0 {
		return fmt.Sprintf("return (%s%s)(unsafe.Pointer(%s))",
			strings.Repeat("*", t.Stars), b.Rule.Original, call)
	}

	switch b.Class {
	case ClassPointer:
		return fmt.Sprintf("return %s(uintptr(unsafe.Pointer(%s)))", b.Rule.Original, call)
	default:
		return fmt.Sprintf("return %s(%s)", b.Rule.Original, call)
	}
}

// usesUnsafe reports whether the rendered spelling of t mentions
// unsafe.Pointer, either as a void pointer or through a substitution cast.
func usesUnsafe(t ir.TypeRef, bound map[string]Binding) bool {
	if t.Base == "void" && t.Stars > 0 {
		return true
	}
	b, ok := bound[t.Base]
	if !ok {
		return false
	}
	return t.Stars > 0 || b.Class == ClassPointer
}
