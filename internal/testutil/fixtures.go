// Package testutil provides shared fixture helpers for sdlgen tests.
//
// Profiles and headers are the two inputs every generation test needs on
// disk: a directory of CUE profile files and a directory tree of C headers.
// The helpers here write both into t.TempDir() so fixtures are cleaned up
// automatically and tests never share state through the working directory.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteProfiles writes CUE profile sources into a fresh temp directory.
//
// Keys are file names relative to the returned directory, values are file
// contents. The directory is suitable for compiler.CompileDir and for the
// --profiles flag on CLI commands.
func WriteProfiles(t *testing.T, files map[string]string) string {
	t.Helper()
	return writeTree(t, files)
}

// WriteHeaders writes C header sources into a fresh temp directory.
//
// Keys may contain path separators, so vendored layouts like
// "SDL3/SDL_vulkan.h" work without extra setup. The directory is suitable
// for include.Dir and for the --headers flag on CLI commands.
func WriteHeaders(t *testing.T, files map[string]string) string {
	t.Helper()
	return writeTree(t, files)
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, src := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("failed to create fixture directory for %s: %v", name, err)
		}
		if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
			t.Fatalf("failed to write fixture file %s: %v", name, err)
		}
	}
	return dir
}
