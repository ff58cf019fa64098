// Package include resolves header sources for scanning.
//
// Two resolvers exist: the embedded curated SDL excerpts that ship with the
// tool, and a directory resolver for pointing generation at a real SDL
// installation's include tree.
package include

import (
	"embed"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/kortbus/sdlgen/internal/ir"
)

//go:embed headers
var headersFS embed.FS

// Resolver maps profile-listed header names to header bytes.
type Resolver interface {
	Resolve(name string) ([]byte, error)
}

// Builtin returns the embedded excerpt resolver for a context. The embedded
// tree stores headers flat per context, so a profile-listed name like
// "SDL3/SDL_vulkan.h" resolves by its base name.
func Builtin(context string) Resolver {
	return &builtinSet{context: context}
}

type builtinSet struct {
	context string
}

func (s *builtinSet) Resolve(name string) ([]byte, error) {
	data, err := headersFS.ReadFile(path.Join("headers", s.context, path.Base(name)))
	if err != nil {
		return nil, fmt.Errorf("no embedded header %s for context %s: %w", name, s.context, err)
	}
	return data, nil
}

// Dir returns a resolver over an include directory tree, such as a real SDL
// installation's include directory. Names resolve relative to root, so
// "SDL3/SDL_vulkan.h" reads root/SDL3/SDL_vulkan.h.
func Dir(root string) Resolver {
	return &dirSet{root: root}
}

type dirSet struct {
	root string
}

func (s *dirSet) Resolve(name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(name)))
	if err != nil {
		return nil, fmt.Errorf("read header %s: %w", name, err)
	}
	return data, nil
}

// Load resolves every header a profile lists, in scan order.
func Load(r Resolver, p *ir.Profile) ([]ir.HeaderSource, error) {
	sources := make([]ir.HeaderSource, 0, len(p.Headers))
	for _, name := range p.Headers {
		content, err := r.Resolve(name)
		if err != nil {
			return nil, err
		}
		sources = append(sources, ir.HeaderSource{Name: name, Content: content})
	}
	return sources, nil
}

// HasBuiltin reports whether embedded excerpts exist for a context.
func HasBuiltin(context string) bool {
	entries, err := headersFS.ReadDir(path.Join("headers", context))
	return err == nil && len(entries) > 0
}
