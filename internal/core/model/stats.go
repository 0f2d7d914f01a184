package model

// ExpectedCounts are the reference values a verification run compares
// against. EdgeTypes maps normalized type tokens to the count the producing
// toolchain reported; RootName designates the structural root node.
type ExpectedCounts struct {
	Nodes        int64
	Contains     int64
	RootName     string
	RootChildren int64
	EdgeTypes    map[string]int64
}

// EdgeTypeStats reports the load outcome for one normalized edge type.
// Skipped + Created == Total always holds.
type EdgeTypeStats struct {
	Type    string `json:"type"`
	Total   int64  `json:"total"`
	Skipped int64  `json:"skipped"`
	Created int64  `json:"created"`
}

// LoadSummary aggregates per-stage counts for one bulk load run. Degraded is
// set when a chunk's store-reported creation count did not match its length.
type LoadSummary struct {
	NodesCreated    int64           `json:"nodes_created"`
	ContainsCreated int64           `json:"contains_created"`
	EdgeTypes       []EdgeTypeStats `json:"edge_types"`
	Degraded        bool            `json:"degraded"`
}

// EdgesCreated sums created edges across all types.
func (s *LoadSummary) EdgesCreated() int64 {
	var n int64
	for _, t := range s.EdgeTypes {
		n += t.Created
	}
	return n
}

// EdgesSkipped sums skipped edges across all types.
func (s *LoadSummary) EdgesSkipped() int64 {
	var n int64
	for _, t := range s.EdgeTypes {
		n += t.Skipped
	}
	return n
}

// VerificationStats carries post-load counts and the completeness verdict.
// Complete requires nodes, contains and root children to match expectations
// exactly; edge-type shortfalls only add warnings.
type VerificationStats struct {
	Nodes        int64            `json:"nodes"`
	Contains     int64            `json:"contains"`
	RootChildren int64            `json:"root_children"`
	EdgeTypes    map[string]int64 `json:"edge_types"`
	Complete     bool             `json:"complete"`
	Warnings     []string         `json:"warnings,omitempty"`
}

// ImportStats aggregates one import run. EdgesUnmatched counts payload edges
// whose endpoints were not found in the store, so the merge was a no-op.
type ImportStats struct {
	Nodes             int64 `json:"nodes"`
	Edges             int64 `json:"edges"`
	EdgesUnmatched    int64 `json:"edges_unmatched"`
	ConstraintEnsured bool  `json:"constraint_ensured"`
	DryRun            bool  `json:"dry_run"`
}
