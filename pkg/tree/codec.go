package tree

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/ruleviz/pkg/errors"
)

// wireNode is the union of both accepted AST shapes.
type wireNode struct {
	Type     string      `json:"type,omitempty" yaml:"type,omitempty"`
	Value    any         `json:"value" yaml:"value"`
	Children []*wireNode `json:"children,omitempty" yaml:"children,omitempty"`
	Left     *wireNode   `json:"left,omitempty" yaml:"left,omitempty"`
	Right    *wireNode   `json:"right,omitempty" yaml:"right,omitempty"`
}

// Parse decodes a JSON-encoded AST.
func Parse(data []byte) (*Node, error) {
	return Decode(bytes.NewReader(data))
}

// Decode reads a JSON-encoded AST from r.
func Decode(r io.Reader) (*Node, error) {
	var w *wireNode
	if err := json.NewDecoder(r).Decode(&w); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidTree, err, "decode AST")
	}
	return fromWire(w)
}

// ReadFile reads an AST from a JSON or YAML file.
// Files ending in .yaml or .yml are decoded as YAML; anything else as JSON.
func ReadFile(path string) (*Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", path)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var w *wireNode
		if err := yaml.Unmarshal(data, &w); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidTree, err, "decode AST from %s", path)
		}
		return fromWire(w)
	default:
		return Parse(data)
	}
}

// Encode writes the tree as indented JSON in the canonical value/children shape.
// The tree must be acyclic; call [Validate] first on untrusted input.
func Encode(w io.Writer, root *Node) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(toWire(root)); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode AST")
	}
	return nil
}

// Marshal returns the canonical JSON encoding of the tree.
func Marshal(root *Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, root); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func fromWire(w *wireNode) (*Node, error) {
	if w == nil {
		return nil, errors.New(errors.ErrCodeInvalidTree, "AST is empty")
	}
	root := &Node{Value: label(w.Value)}
	type pair struct {
		src *wireNode
		dst *Node
	}
	stack := []pair{{w, root}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		kids := p.src.Children
		if len(kids) == 0 {
			kids = binaryOperands(p.src)
		} else if p.src.Left != nil || p.src.Right != nil {
			return nil, errors.New(errors.ErrCodeInvalidTree, "node %q mixes children with left/right operands", p.dst.Value)
		}
		for _, k := range kids {
			if k == nil {
				return nil, errors.New(errors.ErrCodeInvalidTree, "node %q has a null child", p.dst.Value)
			}
			child := &Node{Value: label(k.Value)}
			p.dst.Children = append(p.dst.Children, child)
			stack = append(stack, pair{k, child})
		}
	}
	return root, nil
}

func binaryOperands(w *wireNode) []*wireNode {
	var out []*wireNode
	if w.Left != nil {
		out = append(out, w.Left)
	}
	if w.Right != nil {
		out = append(out, w.Right)
	}
	return out
}

// label renders scalar values; operand values may arrive as numbers or booleans.
func label(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(data)
	}
}

func toWire(root *Node) *wireNode {
	if root == nil {
		return nil
	}
	out := &wireNode{Value: root.Value}
	type pair struct {
		src *Node
		dst *wireNode
	}
	stack := []pair{{root, out}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, c := range p.src.Children {
			if c == nil {
				continue
			}
			child := &wireNode{Value: c.Value}
			p.dst.Children = append(p.dst.Children, child)
			stack = append(stack, pair{c, child})
		}
	}
	return out
}
