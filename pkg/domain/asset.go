package domain

import "time"

// AssetKind distinguishes the completion signal used for an asset.
type AssetKind string

const (
	AssetStylesheet AssetKind = "stylesheet"
	AssetScript     AssetKind = "script"
)

// AssetRequest is an ordered list of mirrors for one logical asset.
// Candidates are tried in order; the first success wins.
type AssetRequest struct {
	Kind    AssetKind
	URLs    []string
	Timeout time.Duration
}

// ResourceNode is the document-level handle of one load attempt.
// It is attached before the attempt starts and detached if the attempt fails.
type ResourceNode struct {
	Kind AssetKind
	URL  string

	// Loaded is set once the attempt won its race.
	Loaded bool
}
