package tree

import (
	"github.com/matzehuels/ruleviz/pkg/errors"
)

// Validate checks that root is a proper tree no deeper than maxDepth levels.
// A maxDepth <= 0 selects [DefaultMaxDepth].
//
// The walk is iterative and stops at the first violation, so cyclic or
// pathologically deep input never causes unbounded recursion or looping.
func Validate(root *Node, maxDepth int) error {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	if root == nil {
		return errors.New(errors.ErrCodeInvalidTree, "tree has no root")
	}

	type frame struct {
		node  *Node
		depth int
	}
	seen := map[*Node]struct{}{root: {}}
	stack := []frame{{root, 0}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.depth >= maxDepth {
			return errors.New(errors.ErrCodeInvalidTree, "tree exceeds maximum depth of %d levels", maxDepth)
		}

		for i, c := range f.node.Children {
			if c == nil {
				return errors.New(errors.ErrCodeInvalidTree, "node %q has nil child at index %d", f.node.Value, i)
			}
			if _, dup := seen[c]; dup {
				return errors.New(errors.ErrCodeInvalidTree, "node %q is reachable by more than one path", c.Value)
			}
			seen[c] = struct{}{}
			stack = append(stack, frame{c, f.depth + 1})
		}
	}
	return nil
}
