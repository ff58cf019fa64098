package ir

// ToolVersion is the sdlgen generator version, stamped into run records.
// The IR schema itself is versioned through the digest domain prefixes.
const ToolVersion = "0.1.0"
