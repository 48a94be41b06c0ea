// Package tree provides the rule AST model consumed by the layout engine.
//
// # Overview
//
// A [Node] is one AST node: a display label and an ordered list of children.
// Child order is significant; it mirrors operand and operator order in the
// original rule. Nodes are owned by their parent and hold no back references.
//
// # Wire Formats
//
// The rule service returns the AST as JSON. Two shapes are accepted by
// [Parse] and [Decode]:
//
//	{"value": "AND", "children": [{"value": "age > 30"}, {"value": "salary > 50000"}]}
//
//	{"type": "operator", "value": "AND",
//	 "left":  {"type": "operand", "value": "age > 30"},
//	 "right": {"type": "operand", "value": "salary > 50000"}}
//
// In the binary form, left and right become the first and second child.
// [Encode] always writes the canonical value/children shape. [ReadFile]
// additionally accepts YAML documents for hand-written fixtures.
//
// # Validation
//
// Trees built in code can share subtrees or contain cycles. [Validate] walks
// the tree with an explicit stack and rejects:
//
//   - a nil root
//   - any node reachable by two distinct paths (shared subtree or cycle)
//   - trees deeper than the configured number of levels ([DefaultMaxDepth])
//
// All failures carry the INVALID_TREE code from pkg/errors.
package tree
