package ir

// NOTE: RunRecord is a store-layer record, not part of the declaration IR.
// Seq is assigned by the store on write and is the only ordering key.

// RunRecord represents one recorded generation execution.
type RunRecord struct {
	ID            string `json:"id"`  // UUIDv7
	Seq           int64  `json:"seq"` // Store-assigned logical clock
	Context       string `json:"context"`
	ProfileDigest string `json:"profile_digest"`
	HeaderDigest  string `json:"header_digest"`
	OutputDigest  string `json:"output_digest"`
	OutputPath    string `json:"output_path,omitempty"`
	ToolVersion   string `json:"tool_version"`
	CreatedAt     string `json:"created_at"` // Informational, never used for ordering
}
