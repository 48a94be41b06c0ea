package layout

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/matzehuels/ruleviz/pkg/errors"
	"github.com/matzehuels/ruleviz/pkg/tree"
)

// Serialized is the wire format of a layout, used for JSON output, the
// layout cache and the web API.
type Serialized struct {
	Width    float64          `json:"width"`
	Height   float64          `json:"height"`
	Leaves   int              `json:"leaves"`
	MaxDepth int              `json:"max_depth"`
	Nodes    []SerializedNode `json:"nodes"`
	Edges    []SerializedEdge `json:"edges"`
}

// SerializedNode is a positioned node on the wire.
type SerializedNode struct {
	ID     int     `json:"id"`
	Parent int     `json:"parent"`
	Depth  int     `json:"depth"`
	Value  string  `json:"value"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// SerializedEdge is a parent-child pair on the wire.
type SerializedEdge struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Export converts a layout result to its serialized form.
func (r Result) Export() Serialized {
	out := Serialized{
		Width:    r.Width,
		Height:   r.Height,
		Leaves:   r.Leaves,
		MaxDepth: r.MaxDepth,
		Nodes:    make([]SerializedNode, len(r.Nodes)),
		Edges:    make([]SerializedEdge, len(r.Edges)),
	}
	for i, n := range r.Nodes {
		out.Nodes[i] = SerializedNode{ID: n.ID, Parent: n.Parent, Depth: n.Depth, Value: n.Value, X: n.X, Y: n.Y}
	}
	for i, e := range r.Edges {
		out.Edges[i] = SerializedEdge{From: e.From, To: e.To}
	}
	return out
}

// MarshalJSON encodes the result in the [Serialized] format.
func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Export())
}

// WriteJSON writes the layout as indented JSON.
func (r Result) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r.Export()); err != nil {
		return fmt.Errorf("encode layout: %w", err)
	}
	return nil
}

// Import rebuilds a layout result from its serialized form.
//
// Node IDs must be a dense document-order numbering with the root at 0 and
// every parent preceding its children, which is what [Result.Export] writes.
// The source tree is reconstructed from the parent links so that
// [PositionedNode.Node] is populated.
func Import(s Serialized) (Result, error) {
	r := Result{
		Width:    s.Width,
		Height:   s.Height,
		Leaves:   s.Leaves,
		MaxDepth: s.MaxDepth,
		Nodes:    make([]PositionedNode, len(s.Nodes)),
		children: make([][]int, len(s.Nodes)),
	}
	for i, sn := range s.Nodes {
		if sn.ID != i {
			return Result{}, errors.New(errors.ErrCodeInvalidTree, "node %d has id %d, want dense document order", i, sn.ID)
		}
		if (i == 0) != (sn.Parent == NoParent) {
			return Result{}, errors.New(errors.ErrCodeInvalidTree, "node %d has invalid parent %d", i, sn.Parent)
		}
		if i > 0 && (sn.Parent < 0 || sn.Parent >= i) {
			return Result{}, errors.New(errors.ErrCodeInvalidTree, "node %d has parent %d outside document order", i, sn.Parent)
		}
		node := &tree.Node{Value: sn.Value}
		r.Nodes[i] = PositionedNode{ID: i, Parent: sn.Parent, Depth: sn.Depth, Value: sn.Value, Node: node, X: sn.X, Y: sn.Y}
		if i > 0 {
			p := r.Nodes[sn.Parent].Node
			p.Children = append(p.Children, node)
			r.children[sn.Parent] = append(r.children[sn.Parent], i)
			r.Edges = append(r.Edges, Edge{From: sn.Parent, To: i})
		}
	}
	if len(s.Edges) != len(r.Edges) {
		return Result{}, errors.New(errors.ErrCodeInvalidTree, "layout has %d edges, want %d", len(s.Edges), len(r.Edges))
	}
	return r, nil
}

// UnmarshalJSON decodes a result from the [Serialized] format.
func (r *Result) UnmarshalJSON(data []byte) error {
	var s Serialized
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	out, err := Import(s)
	if err != nil {
		return err
	}
	*r = out
	return nil
}
