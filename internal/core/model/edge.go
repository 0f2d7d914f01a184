package model

// Edge is a typed relationship between two nodes, referenced by GUID. Type
// is free-form in the input and normalized to an uppercase token before
// loading; a missing GUID is filled in by the loader.
type Edge struct {
	GUID   string `json:"guid"`
	Type   string `json:"type"`
	Name   string `json:"name"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// LoadInput is the hierarchical load file: one node tree plus a flat list
// of typed edges.
type LoadInput struct {
	Nodes *TreeNode `json:"nodes"`
	Edges []Edge    `json:"edges"`
}
