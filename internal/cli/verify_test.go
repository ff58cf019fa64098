package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kortbus/sdlgen/internal/gen"
	"github.com/kortbus/sdlgen/internal/ir"
	"github.com/kortbus/sdlgen/internal/store"
)

func TestVerifySDL2(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewVerifyCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"sdl2"})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "✓ sdl2 verified: deterministic")
}

func TestVerifyJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewVerifyCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"sdl3"})

	err := cmd.Execute()
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "sdl3", data["context"])
	assert.Equal(t, true, data["deterministic"])
	assert.NotEmpty(t, data["profile_digest"])
	assert.NotEmpty(t, data["header_digest"])
	assert.NotEmpty(t, data["output_digest"])
}

func TestVerifyWithRecordedRun(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	genBuf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	genCmd := NewGenerateCommand(rootOpts)
	genCmd.SetOut(genBuf)
	genCmd.SetArgs([]string{"sdl2", "--output", filepath.Join(t.TempDir(), "sdl2vk.go"), "--record", "--db", dbPath})
	require.NoError(t, genCmd.Execute())

	buf := &bytes.Buffer{}
	cmd := NewVerifyCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"sdl2", "--db", dbPath})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "✓ sdl2 verified: deterministic, matches recorded run seq 1")
}

func TestVerifyNoRecordedRun(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewVerifyCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"sdl2", "--db", dbPath})

	err = cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "E302")
	assert.Contains(t, buf.String(), `no recorded run for context "sdl2"`)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestVerifyDrift(t *testing.T) {
	// A recorded run whose digests no longer match the current inputs
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	_, inserted, err := st.RecordRun(context.Background(), ir.RunRecord{
		ID:            uuid.Must(uuid.NewV7()).String(),
		Context:       "sdl2",
		ProfileDigest: "sha256:0000000000000000000000000000000000000000000000000000000000000000",
		HeaderDigest:  "sha256:1111111111111111111111111111111111111111111111111111111111111111",
		OutputDigest:  "sha256:2222222222222222222222222222222222222222222222222222222222222222",
		OutputPath:    "sdl2vk.go",
		ToolVersion:   "0.0.1",
		CreatedAt:     "2025-01-01T00:00:00Z",
	})
	require.NoError(t, err)
	require.True(t, inserted)
	require.NoError(t, st.Close())

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewVerifyCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"sdl2", "--db", dbPath})

	err = cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "E301")
	assert.Contains(t, buf.String(), "✗ Drift detected for sdl2 (recorded run seq 1)")
	assert.Contains(t, buf.String(), "output_digest")
	assert.Contains(t, buf.String(), "recorded by tool 0.0.1")
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestVerifyDriftJSON(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	_, _, err = st.RecordRun(context.Background(), ir.RunRecord{
		ID:            uuid.Must(uuid.NewV7()).String(),
		Context:       "sdl2",
		ProfileDigest: "sha256:0000000000000000000000000000000000000000000000000000000000000000",
		HeaderDigest:  "sha256:1111111111111111111111111111111111111111111111111111111111111111",
		OutputDigest:  "sha256:2222222222222222222222222222222222222222222222222222222222222222",
		OutputPath:    "sdl2vk.go",
		ToolVersion:   ir.ToolVersion,
		CreatedAt:     "2025-01-01T00:00:00Z",
	})
	require.NoError(t, err)
	require.NoError(t, st.Close())

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewVerifyCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"sdl2", "--db", dbPath})

	err = cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E301", resp.Error.Code)

	// The report rides along so callers can see both sides of the diff
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, data["deterministic"])
	recorded, ok := data["recorded"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, false, recorded["match"])
	assert.Equal(t, float64(1), recorded["seq"])
}

func TestVerifyUnknownContext(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewVerifyCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"sdl9"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "E005")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestVerifyMissingStore(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewVerifyCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"sdl2", "--db", "/nonexistent/runs.db"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, buf.String(), "run store not found")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestVerifyInvalidProfile(t *testing.T) {
	profileDir := writeProfileDir(t, `
profile: mini: {
	go_package: "minivk"
	includes: ["#include <mini.h>"]
	headers: ["mini.h"]
	rules: [
		{original: "VkInstance", replacement: "float64"},
	]
}
`)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text", Profiles: profileDir}
	cmd := NewVerifyCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"mini"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "E109")
	assert.Contains(t, buf.String(), "profile invalid")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestDiffResults(t *testing.T) {
	base := &gen.Result{
		ProfileDigest: "sha256:aaaa",
		HeaderDigest:  "sha256:bbbb",
		OutputDigest:  "sha256:cccc",
	}
	same := &gen.Result{
		ProfileDigest: "sha256:aaaa",
		HeaderDigest:  "sha256:bbbb",
		OutputDigest:  "sha256:cccc",
	}
	assert.Empty(t, diffResults(base, same))

	changed := &gen.Result{
		ProfileDigest: "sha256:aaaa",
		HeaderDigest:  "sha256:bbbb",
		OutputDigest:  "sha256:dddd",
	}
	diffs := diffResults(base, changed)
	require.Len(t, diffs, 1)
	assert.Equal(t, "output_digest", diffs[0].Name)
	assert.Equal(t, "sha256:cccc", diffs[0].Want)
	assert.Equal(t, "sha256:dddd", diffs[0].Got)
}
