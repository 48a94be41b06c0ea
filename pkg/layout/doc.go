// Package layout computes tidy-tree coordinates for rule ASTs.
//
// # Overview
//
// [Compute] assigns every node of a [tree.Node] tree an (x, y) position in an
// abstract layout space of the requested width and height, and derives the
// parent-child edge list used for drawing. Mapping layout space to device
// pixels is the renderer's job (see pkg/render).
//
// # Algorithm
//
// The layout is a classic two-pass tidy tree:
//
//  1. Rows (top-down): y is proportional to depth. The root sits at 0 and the
//     deepest node at height; nodes at equal depth share a row.
//  2. Columns (bottom-up): leaves take successive slots in document order and
//     an internal node sits at the mean x of its direct children.
//
// Leaf slots are scaled into [0, width] as (slot + 0.5) / leaves * width, so
// a tree with a single leaf places it at width/2. Because every node lies
// inside the x span of its own leaves, and sibling subtrees own disjoint leaf
// ranges, no two nodes in the same row share an x coordinate.
//
// # Determinism
//
// Compute is a pure function. Nodes are numbered in document order (root = 0)
// and all passes iterate slices with explicit stacks, so repeated calls with
// the same tree and dimensions produce bit-identical results.
//
// # Errors
//
// Compute reports exactly two failures, both caller errors that must not be
// retried with the same input:
//
//   - INVALID_DIMENSIONS: width or height is not a positive finite number
//   - INVALID_TREE: nil root, shared subtree, cycle, or depth over the bound
package layout
