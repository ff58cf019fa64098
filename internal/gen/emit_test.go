package gen

import (
	"go/format"
	"go/parser"
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kortbus/sdlgen/internal/ir"
)

func miniProfile() *ir.Profile {
	return &ir.Profile{
		Context:     "mini",
		DisplayName: "Mini",
		Package:     "minivk",
		PkgConfig:   []string{"mini"},
		Includes:    []string{"#include <mini.h>"},
		Headers:     []string{"mini.h"},
		Rules: []ir.Rule{
			{Original: "MiniHandle", Replacement: "uint64"},
		},
	}
}

func miniUnit() *ir.Unit {
	return &ir.Unit{
		Context: "mini",
		Files: []ir.File{{
			Name: "mini.h",
			Typedefs: []ir.Typedef{
				{Name: "MiniHandle", Kind: ir.TypedefAlias, Type: ir.TypeRef{Base: "uint64_t"}},
			},
			Funcs: []ir.Func{
				{
					Name:   "MiniCreate",
					Return: ir.TypeRef{Base: "int"},
					Params: []ir.Param{{Name: "out", Type: ir.TypeRef{Base: "MiniHandle", Stars: 1}}},
				},
				{
					Name:   "MiniDestroy",
					Return: ir.TypeRef{Base: "void"},
					Params: []ir.Param{{Name: "h", Type: ir.TypeRef{Base: "MiniHandle"}}},
				},
			},
		}},
	}
}

func emitAll(t *testing.T, p *ir.Profile, unit *ir.Unit) []byte {
	t.Helper()
	bindings, errs := Bind(p, unit)
	require.Empty(t, errs)
	out, err := Emit(p, unit, bindings)
	require.NoError(t, err)
	return out
}

func TestEmitExactOutput(t *testing.T) {
	out := emitAll(t, miniProfile(), miniUnit())

	want := `// Code generated by sdlgen. DO NOT EDIT.

// Package minivk wraps the Mini Vulkan entry points
// with Vulkan handle types replaced by fixed-width integers.
package minivk

/*
#cgo pkg-config: mini
#include <mini.h>
*/
import "C"

import "unsafe"

// MiniHandle carries C.MiniHandle as uint64.
type MiniHandle = uint64

// MiniCreate wraps C.MiniCreate.
func MiniCreate(out *MiniHandle) C.int {
	return C.MiniCreate((*C.MiniHandle)(unsafe.Pointer(out)))
}

// MiniDestroy wraps C.MiniDestroy.
func MiniDestroy(h MiniHandle) {
	C.MiniDestroy(C.MiniHandle(h))
}
`

	assert.Equal(t, want, string(out))
}

func TestEmitGofmtClean(t *testing.T) {
	out := emitAll(t, miniProfile(), miniUnit())

	formatted, err := format.Source(out)
	require.NoError(t, err)
	assert.Equal(t, string(out), string(formatted), "emitted source should already be gofmt-formatted")
}

func TestEmitParsesAsGo(t *testing.T) {
	out := emitAll(t, miniProfile(), miniUnit())

	_, err := parser.ParseFile(token.NewFileSet(), "minivk.go", out, parser.ParseComments)
	require.NoError(t, err)
}

func TestEmitDeterministic(t *testing.T) {
	first := emitAll(t, miniProfile(), miniUnit())
	second := emitAll(t, miniProfile(), miniUnit())

	assert.Equal(t, first, second)
}

func TestEmitPointerClassConversions(t *testing.T) {
	p := &ir.Profile{
		Context:  "vk",
		Package:  "vkbind",
		Includes: []string{"#include <vk.h>"},
		Headers:  []string{"vk.h"},
		Rules:    []ir.Rule{{Original: "VkInstance", Replacement: "uintptr"}},
	}
	unit := &ir.Unit{
		Context: "vk",
		Files: []ir.File{{
			Name: "vk.h",
			Typedefs: []ir.Typedef{
				{Name: "VkInstance", Kind: ir.TypedefOpaque, Type: ir.TypeRef{Base: "struct VkInstance_T", Stars: 1}},
			},
			Funcs: []ir.Func{
				{
					Name:   "UseInstance",
					Return: ir.TypeRef{Base: "void"},
					Params: []ir.Param{{Name: "instance", Type: ir.TypeRef{Base: "VkInstance"}}},
				},
				{
					Name:   "FillInstance",
					Return: ir.TypeRef{Base: "int"},
					Params: []ir.Param{{Name: "instance", Type: ir.TypeRef{Base: "VkInstance", Stars: 1}}},
				},
				{
					Name:   "MakeInstance",
					Return: ir.TypeRef{Base: "VkInstance"},
				},
			},
		}},
	}

	got := string(emitAll(t, p, unit))

	// Value position of a pointer handle converts through unsafe.Pointer.
	assert.Contains(t, got, "C.UseInstance(C.VkInstance(unsafe.Pointer(instance)))")
	// Pointer-to-substituted reinterprets the pointer itself.
	assert.Contains(t, got, "return C.FillInstance((*C.VkInstance)(unsafe.Pointer(instance)))")
	// Returned pointer handles come back as integers.
	assert.Contains(t, got, "return VkInstance(uintptr(unsafe.Pointer(C.MakeInstance())))")
	assert.Contains(t, got, `import "unsafe"`)
}

func TestEmitIntegerClassConversions(t *testing.T) {
	p := miniProfile()
	unit := miniUnit()

	got := string(emitAll(t, p, unit))

	// Value position of an integer handle converts numerically.
	assert.Contains(t, got, "C.MiniDestroy(C.MiniHandle(h))")
	assert.NotContains(t, got, "C.MiniHandle(unsafe.Pointer")
}

func TestEmitNoUnsafeWhenUnneeded(t *testing.T) {
	p := miniProfile()
	unit := miniUnit()
	// Drop the pointer-out function; only the numeric conversion remains.
	unit.Files[0].Funcs = unit.Files[0].Funcs[1:]

	got := string(emitAll(t, p, unit))

	assert.NotContains(t, got, `import "unsafe"`)
	assert.Contains(t, got, "C.MiniDestroy(C.MiniHandle(h))")
}

func TestEmitVoidPointer(t *testing.T) {
	p := miniProfile()
	unit := miniUnit()
	unit.Files[0].Funcs = []ir.Func{
		{
			Name:   "MiniGetProcAddr",
			Return: ir.TypeRef{Base: "void", Stars: 1},
		},
		{
			Name:   "MiniSetUserdata",
			Return: ir.TypeRef{Base: "void"},
			Params: []ir.Param{{Name: "userdata", Type: ir.TypeRef{Base: "void", Stars: 1}}},
		},
	}

	got := string(emitAll(t, p, unit))

	assert.Contains(t, got, "func MiniGetProcAddr() unsafe.Pointer {\n\treturn C.MiniGetProcAddr()\n}")
	assert.Contains(t, got, "func MiniSetUserdata(userdata unsafe.Pointer) {")
	assert.Contains(t, got, `import "unsafe"`)
}

func TestEmitUnnamedParams(t *testing.T) {
	p := miniProfile()
	unit := miniUnit()
	unit.Files[0].Funcs = []ir.Func{{
		Name:   "MiniPair",
		Return: ir.TypeRef{Base: "void"},
		Params: []ir.Param{
			{Type: ir.TypeRef{Base: "int"}},
			{Type: ir.TypeRef{Base: "MiniHandle"}},
		},
	}}

	got := string(emitAll(t, p, unit))

	assert.Contains(t, got, "func MiniPair(arg0 C.int, arg1 MiniHandle) {")
	assert.Contains(t, got, "C.MiniPair(arg0, C.MiniHandle(arg1))")
}

func TestEmitDisplayNameFallsBackToContext(t *testing.T) {
	p := miniProfile()
	p.DisplayName = ""

	got := string(emitAll(t, p, miniUnit()))

	assert.Contains(t, got, "// Package minivk wraps the mini Vulkan entry points")
}

func TestGoTypeSpellings(t *testing.T) {
	bound := map[string]Binding{
		"MiniHandle": {
			Rule:  ir.Rule{Original: "MiniHandle", Replacement: "uint64"},
			Class: ClassInteger,
		},
	}

	cases := []struct {
		typ  ir.TypeRef
		want string
	}{
		{ir.TypeRef{Base: "MiniHandle"}, "MiniHandle"},
		{ir.TypeRef{Base: "MiniHandle", Stars: 1}, "*MiniHandle"},
		{ir.TypeRef{Base: "void"}, ""},
		{ir.TypeRef{Base: "void", Stars: 1}, "unsafe.Pointer"},
		{ir.TypeRef{Base: "void", Stars: 2}, "*unsafe.Pointer"},
		{ir.TypeRef{Base: "char", Const: true, Stars: 2}, "**C.char"},
		{ir.TypeRef{Base: "unsigned int", Stars: 1}, "*C.uint"},
		{ir.TypeRef{Base: "unsigned char"}, "C.uchar"},
		{ir.TypeRef{Base: "long long"}, "C.longlong"},
		{ir.TypeRef{Base: "bool"}, "C.bool"},
		{ir.TypeRef{Base: "struct VkAllocationCallbacks", Const: true, Stars: 1}, "*C.struct_VkAllocationCallbacks"},
		{ir.TypeRef{Base: "union SDL_Event", Stars: 1}, "*C.union_SDL_Event"},
		{ir.TypeRef{Base: "enum SDL_SYSWM_TYPE"}, "C.enum_SDL_SYSWM_TYPE"},
		{ir.TypeRef{Base: "SDL_Window", Stars: 1}, "*C.SDL_Window"},
		{ir.TypeRef{Base: "Uint32"}, "C.Uint32"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, goType(tc.typ, bound), "type %s", tc.typ)
	}
}

func TestParamNames(t *testing.T) {
	assert.Equal(t, "window", paramName("window", 0))
	assert.Equal(t, "arg2", paramName("", 2))
	assert.Equal(t, "type_", paramName("type", 0))
	assert.Equal(t, "C_", paramName("C", 0))
	assert.Equal(t, "unsafe_", paramName("unsafe", 0))
}
