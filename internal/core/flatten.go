package core

import (
	"errors"
	"fmt"

	"github.com/gantrylabs/gantry/internal/core/model"
)

type flattenFrame struct {
	node   *model.TreeNode
	parent string
}

// FlattenTree walks the hierarchy depth-first, parent before children, and
// returns the flat node list plus one containment pair per non-root node.
// The walk uses an explicit stack, so tree depth is bounded by memory
// rather than the call stack. Output order is deterministic: children are
// visited in declaration order.
func FlattenTree(root *model.TreeNode) ([]model.FlatNode, []model.ContainsEdge, error) {
	if root == nil {
		return nil, nil, errors.New("load input has no root node")
	}

	var nodes []model.FlatNode
	var contains []model.ContainsEdge

	stack := []flattenFrame{{node: root}}
	for len(stack) > 0 {
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := frame.node
		if n.GUID == "" {
			return nil, nil, fmt.Errorf("node %q under %q: %w", n.Name, frame.parent, ErrMissingGUID)
		}

		nodes = append(nodes, model.FlatNode{
			GUID:        n.GUID,
			Type:        n.Type,
			Name:        n.Name,
			Description: n.Description,
			Path:        n.Path,
		})

		if frame.parent != "" {
			contains = append(contains, model.ContainsEdge{
				ParentGUID: frame.parent,
				ChildGUID:  n.GUID,
			})
		}

		// Push children in reverse so the first child is popped first.
		for i := len(n.Children) - 1; i >= 0; i-- {
			if n.Children[i] == nil {
				continue
			}
			stack = append(stack, flattenFrame{node: n.Children[i], parent: n.GUID})
		}
	}

	return nodes, contains, nil
}
