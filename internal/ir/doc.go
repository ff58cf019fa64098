// Package ir provides the declaration intermediate representation for sdlgen.
//
// This package contains the compiled profile and scanned-declaration types,
// plus the canonical serialization and content digests built on them. All
// other internal packages import ir; ir imports nothing internal. This
// ensures IR remains the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Profiles and units are immutable once built; binding and emission
//     never mutate them.
//   - Digests are computed over RFC 8785 canonical JSON with domain
//     separation, never over default json.Marshal output.
//   - Run ordering uses the store-assigned seq, never wall-clock timestamps.
package ir
