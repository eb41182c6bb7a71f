package ir

// Version constants for stored snapshots.
const (
	// FormatVersion is the snapshot payload format version.
	FormatVersion = "1"

	// ToolVersion is the reindex tool version recorded with saved indexes.
	ToolVersion = "0.1.0"
)
