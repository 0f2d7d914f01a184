package model

// TreeNode is one node of the hierarchical load input. Children nest
// arbitrarily deep; every node must carry a GUID.
type TreeNode struct {
	GUID        string      `json:"GUID"`
	Type        string      `json:"type"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Path        string      `json:"path,omitempty"`
	Children    []*TreeNode `json:"children,omitempty"`
}

// FlatNode is a tree node after flattening, ready for batch creation.
type FlatNode struct {
	GUID        string `json:"GUID"`
	Type        string `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Path        string `json:"path"`
}

// ContainsEdge links a parent node to one of its direct children.
type ContainsEdge struct {
	ParentGUID string `json:"parent_guid"`
	ChildGUID  string `json:"child_guid"`
}
