package gen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kortbus/sdlgen/internal/ir"
)

// handleUnit returns a scanned unit declaring the typedef shapes the
// binder distinguishes.
func handleUnit() *ir.Unit {
	return &ir.Unit{
		Context: "sdl2",
		Files: []ir.File{{
			Name: "SDL_vulkan.h",
			Typedefs: []ir.Typedef{
				{Name: "VkInstance", Kind: ir.TypedefOpaque, Type: ir.TypeRef{Base: "struct VkInstance_T", Stars: 1}},
				{Name: "VkSurfaceKHR", Kind: ir.TypedefAlias, Type: ir.TypeRef{Base: "uint64_t"}},
				{Name: "SDL_GLContext", Kind: ir.TypedefAlias, Type: ir.TypeRef{Base: "void", Stars: 1}},
				{Name: "SDL_bool", Kind: ir.TypedefEnum},
				{Name: "SDL_FunctionPointer", Kind: ir.TypedefFuncPointer, Type: ir.TypeRef{Base: "void"}},
			},
		}},
	}
}

func bindProfile(rules ...ir.Rule) *ir.Profile {
	return &ir.Profile{
		Context: "sdl2",
		Package: "sdl2vk",
		Headers: []string{"SDL_vulkan.h"},
		Rules:   rules,
	}
}

func TestBindResolvesRules(t *testing.T) {
	p := bindProfile(
		ir.Rule{Original: "VkInstance", Replacement: "uintptr"},
		ir.Rule{Original: "VkSurfaceKHR", Replacement: "uint64"},
	)

	bindings, errs := Bind(p, handleUnit())
	require.Empty(t, errs)
	require.Len(t, bindings, 2)

	assert.Equal(t, "VkInstance", bindings[0].Rule.Original)
	assert.Equal(t, ClassPointer, bindings[0].Class)
	assert.Equal(t, ir.TypedefOpaque, bindings[0].Def.Kind)

	assert.Equal(t, "VkSurfaceKHR", bindings[1].Rule.Original)
	assert.Equal(t, ClassInteger, bindings[1].Class)
	assert.Equal(t, ir.TypedefAlias, bindings[1].Def.Kind)
}

func TestBindSortsByOriginalName(t *testing.T) {
	// Declaration order reversed relative to name order.
	p := bindProfile(
		ir.Rule{Original: "VkSurfaceKHR", Replacement: "uint64"},
		ir.Rule{Original: "VkInstance", Replacement: "uintptr"},
	)

	bindings, errs := Bind(p, handleUnit())
	require.Empty(t, errs)
	require.Len(t, bindings, 2)

	assert.Equal(t, "VkInstance", bindings[0].Rule.Original)
	assert.Equal(t, "VkSurfaceKHR", bindings[1].Rule.Original)
}

func TestBindPointerAliasClass(t *testing.T) {
	// An alias to a pointer type converts through unsafe.Pointer even
	// though its typedef kind is alias.
	p := bindProfile(ir.Rule{Original: "SDL_GLContext", Replacement: "uintptr"})

	bindings, errs := Bind(p, handleUnit())
	require.Empty(t, errs)
	require.Len(t, bindings, 1)

	assert.Equal(t, ClassPointer, bindings[0].Class)
}

func TestBindUnknownOriginal(t *testing.T) {
	p := bindProfile(ir.Rule{Original: "VkDevice", Replacement: "uintptr"})

	bindings, errs := Bind(p, handleUnit())
	assert.Nil(t, bindings)
	require.Len(t, errs, 1)

	assert.Equal(t, ErrRuleUnresolved, errs[0].Code)
	assert.Equal(t, "rules[0].original", errs[0].Field)
	assert.Contains(t, errs[0].Message, "VkDevice")
	assert.Contains(t, errs[0].Message, "not declared")
}

func TestBindNonHandleTypedef(t *testing.T) {
	cases := []struct {
		original string
		kind     string
	}{
		{"SDL_bool", "enum"},
		{"SDL_FunctionPointer", "func_pointer"},
	}

	for _, tc := range cases {
		p := bindProfile(ir.Rule{Original: tc.original, Replacement: "uint32"})

		bindings, errs := Bind(p, handleUnit())
		assert.Nil(t, bindings, "original %s", tc.original)
		require.Len(t, errs, 1, "original %s", tc.original)

		assert.Equal(t, ErrRuleNotHandle, errs[0].Code)
		assert.Contains(t, errs[0].Message, tc.kind)
	}
}

func TestBindCollectsAllErrors(t *testing.T) {
	// First rule is undeclared, second is fine, third is an enum.
	p := bindProfile(
		ir.Rule{Original: "VkDevice", Replacement: "uintptr"},
		ir.Rule{Original: "VkInstance", Replacement: "uintptr"},
		ir.Rule{Original: "SDL_bool", Replacement: "uint32"},
	)

	bindings, errs := Bind(p, handleUnit())
	assert.Nil(t, bindings, "any failure suppresses partial bindings")
	require.Len(t, errs, 2)

	assert.Equal(t, ErrRuleUnresolved, errs[0].Code)
	assert.Equal(t, "rules[0].original", errs[0].Field)
	assert.Equal(t, ErrRuleNotHandle, errs[1].Code)
	assert.Equal(t, "rules[2].original", errs[1].Field)
}

func TestBindErrorFormat(t *testing.T) {
	err := BindError{
		Field:   "rules[0].original",
		Message: `"VkDevice" is not declared by any scanned header`,
		Code:    ErrRuleUnresolved,
	}

	assert.Equal(t, `[E200] rules[0].original: "VkDevice" is not declared by any scanned header`, err.Error())
}

func TestBindErrorsJoined(t *testing.T) {
	errs := BindErrors{
		{Field: "rules[0].original", Message: "first", Code: ErrRuleUnresolved},
		{Field: "rules[1].original", Message: "second", Code: ErrRuleNotHandle},
	}

	msg := errs.Error()
	assert.Contains(t, msg, "[E200] rules[0].original: first")
	assert.Contains(t, msg, "[E201] rules[1].original: second")
	assert.Contains(t, msg, "; ")
}
