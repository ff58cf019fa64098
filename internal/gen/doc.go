// Package gen binds substitution rules to scanned declarations and emits
// the cgo binding file.
//
// The pipeline runs in three stages: Bind resolves each profile rule
// against the typedefs the headers actually declare and classifies the
// cast shape (pointer handle vs integer handle); Emit renders type
// aliases and wrapper functions as a single deterministic Go source file;
// Run wires the stages together with header resolution, scanning, and
// content digests.
//
// Determinism is the contract: for one profile and one header set, Emit
// produces byte-identical output on every run. Aliases are ordered by
// original name, functions by header scan order, and nothing in the
// output depends on map iteration or wall-clock state.
package gen
