package tree

// DefaultMaxDepth is the default maximum number of levels (root included)
// accepted by [Validate]. It guards against malformed service responses.
const DefaultMaxDepth = 1000

// Node is a single AST node.
type Node struct {
	Value    string  // Display label (operator or operand text)
	Children []*Node // Ordered operands
}

// New creates a node with the given label and children.
func New(value string, children ...*Node) *Node {
	return &Node{Value: value, Children: children}
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// Visit is called for each node during [Walk] with the node's depth
// (root = 0). Returning false skips the node's children.
type Visit func(n *Node, depth int) bool

// Walk visits every node in document order (pre-order, children left to
// right) using an explicit stack. Walk assumes an acyclic tree; call
// [Validate] first on untrusted input.
func Walk(root *Node, fn Visit) {
	if root == nil {
		return
	}
	type frame struct {
		node  *Node
		depth int
	}
	stack := []frame{{root, 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.node == nil || !fn(f.node, f.depth) {
			continue
		}
		for i := len(f.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{f.node.Children[i], f.depth + 1})
		}
	}
}

// Count returns the number of nodes in the tree.
func Count(root *Node) int {
	n := 0
	Walk(root, func(*Node, int) bool { n++; return true })
	return n
}

// Depth returns the depth of the deepest node (a single node has depth 0).
// It returns -1 for a nil root.
func Depth(root *Node) int {
	deepest := -1
	Walk(root, func(_ *Node, d int) bool {
		deepest = max(deepest, d)
		return true
	})
	return deepest
}

// Leaves returns the number of leaf nodes.
func Leaves(root *Node) int {
	n := 0
	Walk(root, func(node *Node, _ int) bool {
		if node.IsLeaf() {
			n++
		}
		return true
	})
	return n
}

// Clone returns a deep copy of the tree.
func Clone(root *Node) *Node {
	if root == nil {
		return nil
	}
	out := &Node{Value: root.Value}
	type pair struct{ src, dst *Node }
	stack := []pair{{root, out}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if len(p.src.Children) == 0 {
			continue
		}
		p.dst.Children = make([]*Node, len(p.src.Children))
		for i, c := range p.src.Children {
			if c == nil {
				continue
			}
			p.dst.Children[i] = &Node{Value: c.Value}
			stack = append(stack, pair{c, p.dst.Children[i]})
		}
	}
	return out
}
