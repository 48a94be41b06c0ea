package layout

import (
	"math"

	"github.com/matzehuels/ruleviz/pkg/errors"
	"github.com/matzehuels/ruleviz/pkg/tree"
)

// NoParent is the Parent value of the root node.
const NoParent = -1

// PositionedNode is a tree node with its computed layout coordinates.
type PositionedNode struct {
	ID     int        // Document-order index (root = 0)
	Parent int        // Parent ID, NoParent for the root
	Depth  int        // Distance from the root
	Value  string     // Display label
	Node   *tree.Node // Source node
	X, Y   float64    // Position in layout space
}

// IsRoot reports whether the node is the layout root.
func (n PositionedNode) IsRoot() bool { return n.Parent == NoParent }

// Edge connects a parent to one of its children, by node ID.
type Edge struct {
	From, To int
}

// Result is the output of a layout pass.
type Result struct {
	Nodes    []PositionedNode // Indexed by ID, in document order
	Edges    []Edge           // One per non-root node, in document order of the child
	Width    float64          // Layout space width
	Height   float64          // Layout space height
	Leaves   int              // Number of leaf slots
	MaxDepth int              // Depth of the deepest node

	children [][]int
}

// Option configures [Compute].
type Option func(*config)

type config struct {
	maxDepth int
}

// WithMaxDepth overrides the maximum number of tree levels accepted.
// Values <= 0 keep [tree.DefaultMaxDepth].
func WithMaxDepth(levels int) Option {
	return func(c *config) {
		if levels > 0 {
			c.maxDepth = levels
		}
	}
}

// Compute lays out the tree rooted at root inside a width x height layout space.
func Compute(root *tree.Node, width, height float64, opts ...Option) (Result, error) {
	cfg := config{maxDepth: tree.DefaultMaxDepth}
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := validateDimensions(width, height); err != nil {
		return Result{}, err
	}
	if err := tree.Validate(root, cfg.maxDepth); err != nil {
		return Result{}, err
	}

	r := number(root)
	r.Width, r.Height = width, height
	assignRows(&r)
	assignColumns(&r)
	return r, nil
}

func validateDimensions(width, height float64) error {
	if !positiveFinite(width) {
		return errors.New(errors.ErrCodeInvalidDimensions, "width must be a positive finite number, got %v", width)
	}
	if !positiveFinite(height) {
		return errors.New(errors.ErrCodeInvalidDimensions, "height must be a positive finite number, got %v", height)
	}
	return nil
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// number assigns document-order IDs, parents and depths, and builds the
// edge list and child index.
func number(root *tree.Node) Result {
	var r Result
	type frame struct {
		node   *tree.Node
		parent int
		depth  int
	}
	stack := []frame{{root, NoParent, 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		id := len(r.Nodes)
		r.Nodes = append(r.Nodes, PositionedNode{
			ID:     id,
			Parent: f.parent,
			Depth:  f.depth,
			Value:  f.node.Value,
			Node:   f.node,
		})
		r.children = append(r.children, nil)
		if f.parent != NoParent {
			r.children[f.parent] = append(r.children[f.parent], id)
			r.Edges = append(r.Edges, Edge{From: f.parent, To: id})
		}
		if f.node.IsLeaf() {
			r.Leaves++
		}
		r.MaxDepth = max(r.MaxDepth, f.depth)

		for i := len(f.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{f.node.Children[i], id, f.depth + 1})
		}
	}
	return r
}

func assignRows(r *Result) {
	if r.MaxDepth == 0 {
		return
	}
	for i := range r.Nodes {
		r.Nodes[i].Y = float64(r.Nodes[i].Depth) / float64(r.MaxDepth) * r.Height
	}
}

// assignColumns places leaves left to right, then centers parents over their
// children. Children always have larger IDs than their parent, so a reverse
// scan of the pre-order sequence visits every child before its parent.
func assignColumns(r *Result) {
	slot := 0
	for i := range r.Nodes {
		if len(r.children[i]) == 0 {
			r.Nodes[i].X = (float64(slot) + 0.5) / float64(r.Leaves) * r.Width
			slot++
		}
	}
	for i := len(r.Nodes) - 1; i >= 0; i-- {
		kids := r.children[i]
		if len(kids) == 0 {
			continue
		}
		var sum float64
		for _, k := range kids {
			sum += r.Nodes[k].X
		}
		r.Nodes[i].X = sum / float64(len(kids))
	}
}

// Node returns the positioned node with the given ID.
func (r Result) Node(id int) (PositionedNode, bool) {
	if id < 0 || id >= len(r.Nodes) {
		return PositionedNode{}, false
	}
	return r.Nodes[id], true
}

// Children returns the IDs of a node's children in input order.
func (r Result) Children(id int) []int {
	if id < 0 || id >= len(r.children) {
		return nil
	}
	return r.children[id]
}

// Bounds returns the bounding box of all node positions.
// An empty result returns all zeros.
func (r Result) Bounds() (minX, minY, maxX, maxY float64) {
	if len(r.Nodes) == 0 {
		return 0, 0, 0, 0
	}
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, n := range r.Nodes {
		minX, maxX = min(minX, n.X), max(maxX, n.X)
		minY, maxY = min(minY, n.Y), max(maxY, n.Y)
	}
	return minX, minY, maxX, maxY
}

// Rows groups node IDs by depth, left to right.
func (r Result) Rows() [][]int {
	if len(r.Nodes) == 0 {
		return nil
	}
	rows := make([][]int, r.MaxDepth+1)
	// Document order within a depth is left-to-right order.
	for _, n := range r.Nodes {
		rows[n.Depth] = append(rows[n.Depth], n.ID)
	}
	return rows
}
