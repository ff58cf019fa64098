package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed digests.
// Version suffix enables future algorithm migration.
const (
	DomainProfile = "sdlgen/profile/v1"
	DomainHeaders = "sdlgen/headers/v1"
	DomainOutput  = "sdlgen/output/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte (0x00) separator prevents domain/data boundary ambiguity.
//
// Example: hashWithDomain("sdlgen/output/v1", generatedBytes)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00}) // Null separator - CRITICAL for security
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ProfileDigest computes the content-addressed digest of a compiled profile.
// The digest covers every field that influences generation, so two runs over
// an unchanged profile always agree and any edit to rules, headers, or cgo
// preamble inputs is visible.
func ProfileDigest(p *Profile) (string, error) {
	rules := make([]any, len(p.Rules))
	for i, r := range p.Rules {
		rules[i] = map[string]any{
			"original":    r.Original,
			"replacement": r.Replacement,
		}
	}

	obj := map[string]any{
		"context":      p.Context,
		"display_name": p.DisplayName,
		"package":      p.Package,
		"pkg_config":   stringsToAny(p.PkgConfig),
		"includes":     stringsToAny(p.Includes),
		"headers":      stringsToAny(p.Headers),
		"decorations":  stringsToAny(p.Decorations),
		"rules":        rules,
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("ProfileDigest: failed to marshal: %w", err)
	}

	return hashWithDomain(DomainProfile, canonical), nil
}

// HeaderDigest computes the digest over resolved header contents in scan
// order. Per-header content hashes are bound to header names so renames and
// content edits both change the digest.
func HeaderDigest(headers []HeaderSource) (string, error) {
	entries := make([]any, len(headers))
	for i, h := range headers {
		sum := sha256.Sum256(h.Content)
		entries[i] = map[string]any{
			"name":   h.Name,
			"sha256": hex.EncodeToString(sum[:]),
		}
	}

	canonical, err := MarshalCanonical(map[string]any{"headers": entries})
	if err != nil {
		return "", fmt.Errorf("HeaderDigest: failed to marshal: %w", err)
	}

	return hashWithDomain(DomainHeaders, canonical), nil
}

// OutputDigest computes the digest of emitted output bytes. Byte-identical
// regeneration is verified by comparing these digests.
func OutputDigest(output []byte) string {
	return hashWithDomain(DomainOutput, output)
}

// MustProfileDigest is like ProfileDigest but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustProfileDigest(p *Profile) string {
	d, err := ProfileDigest(p)
	if err != nil {
		panic(err)
	}
	return d
}

// MustHeaderDigest is like HeaderDigest but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustHeaderDigest(headers []HeaderSource) string {
	d, err := HeaderDigest(headers)
	if err != nil {
		panic(err)
	}
	return d
}

func stringsToAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
