package tree

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/ruleviz/pkg/errors"
)

func sample() *Node {
	return New("OR",
		New("AND", New("age > 30"), New("department == 'Sales'")),
		New("salary > 50000"),
	)
}

func chain(n int) *Node {
	root := New("n0")
	cur := root
	for i := 1; i < n; i++ {
		next := New("n")
		cur.Children = []*Node{next}
		cur = next
	}
	return root
}

func TestWalkDocumentOrder(t *testing.T) {
	var got []string
	var depths []int
	Walk(sample(), func(n *Node, d int) bool {
		got = append(got, n.Value)
		depths = append(depths, d)
		return true
	})

	want := []string{"OR", "AND", "age > 30", "department == 'Sales'", "salary > 50000"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("Walk order = %v, want %v", got, want)
	}
	wantDepths := []int{0, 1, 2, 2, 1}
	for i := range wantDepths {
		if depths[i] != wantDepths[i] {
			t.Errorf("depth[%d] = %d, want %d", i, depths[i], wantDepths[i])
		}
	}
}

func TestWalkSkipChildren(t *testing.T) {
	n := 0
	Walk(sample(), func(node *Node, _ int) bool {
		n++
		return node.Value != "AND"
	})
	if n != 3 {
		t.Errorf("visited %d nodes, want 3", n)
	}
}

func TestCountDepthLeaves(t *testing.T) {
	tests := []struct {
		name       string
		root       *Node
		wantCount  int
		wantDepth  int
		wantLeaves int
	}{
		{"nil", nil, 0, -1, 0},
		{"single", New("A"), 1, 0, 1},
		{"sample", sample(), 5, 2, 3},
		{"chain", chain(50), 50, 49, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Count(tt.root); got != tt.wantCount {
				t.Errorf("Count() = %d, want %d", got, tt.wantCount)
			}
			if got := Depth(tt.root); got != tt.wantDepth {
				t.Errorf("Depth() = %d, want %d", got, tt.wantDepth)
			}
			if got := Leaves(tt.root); got != tt.wantLeaves {
				t.Errorf("Leaves() = %d, want %d", got, tt.wantLeaves)
			}
		})
	}
}

func TestClone(t *testing.T) {
	orig := sample()
	c := Clone(orig)
	c.Children[0].Value = "changed"

	if orig.Children[0].Value != "AND" {
		t.Error("Clone should not share nodes with the original")
	}
	if Count(c) != Count(orig) {
		t.Errorf("Clone count = %d, want %d", Count(c), Count(orig))
	}
}

func TestValidate(t *testing.T) {
	shared := New("shared")
	cyclic := New("root")
	cyclic.Children = []*Node{New("child", cyclic)}

	tests := []struct {
		name     string
		root     *Node
		maxDepth int
		wantErr  bool
	}{
		{"single", New("A"), 0, false},
		{"sample", sample(), 0, false},
		{"nil root", nil, 0, true},
		{"nil child", New("A", nil), 0, true},
		{"shared subtree", New("A", shared, shared), 0, true},
		{"shared across levels", New("A", New("B", shared), shared), 0, true},
		{"self loop", func() *Node { n := New("A"); n.Children = []*Node{n}; return n }(), 0, true},
		{"cycle", cyclic, 0, true},
		{"chain at limit", chain(DefaultMaxDepth), 0, false},
		{"chain over limit", chain(DefaultMaxDepth + 1), 0, true},
		{"custom limit ok", chain(3), 3, false},
		{"custom limit exceeded", chain(4), 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.root, tt.maxDepth)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errors.ErrCodeInvalidTree) {
				t.Errorf("Validate() code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidTree)
			}
		})
	}
}

func TestParseCanonical(t *testing.T) {
	data := []byte(`{"value": "AND", "children": [{"value": "age > 30"}, {"value": "salary > 50000", "children": []}]}`)
	root, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if root.Value != "AND" || len(root.Children) != 2 {
		t.Fatalf("Parse() root = %+v", root)
	}
	if root.Children[0].Value != "age > 30" || root.Children[1].Value != "salary > 50000" {
		t.Errorf("children out of order: %q, %q", root.Children[0].Value, root.Children[1].Value)
	}
}

func TestParseBinaryOperatorShape(t *testing.T) {
	data := []byte(`{
		"type": "operator", "value": "OR",
		"left": {"type": "operator", "value": "AND",
			"left": {"type": "operand", "value": "age > 30"},
			"right": {"type": "operand", "value": "department == Sales"}},
		"right": {"type": "operand", "value": "experience > 5"}
	}`)
	root, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	var got []string
	Walk(root, func(n *Node, _ int) bool { got = append(got, n.Value); return true })
	want := "OR|AND|age > 30|department == Sales|experience > 5"
	if strings.Join(got, "|") != want {
		t.Errorf("Parse() order = %v, want %s", got, want)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `AST: Operator(AND)`},
		{"null", `null`},
		{"string ast", `"Operator(AND)"`},
		{"null child", `{"value": "A", "children": [null]}`},
		{"mixed shapes", `{"value": "A", "children": [{"value": "B"}], "left": {"value": "C"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			if err == nil {
				t.Fatal("Parse() should fail")
			}
			if !errors.Is(err, errors.ErrCodeInvalidTree) {
				t.Errorf("Parse() code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidTree)
			}
		})
	}
}

func TestParseScalarValues(t *testing.T) {
	root, err := Parse([]byte(`{"value": "==", "children": [{"value": 30}, {"value": true}]}`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if root.Children[0].Value != "30" || root.Children[1].Value != "true" {
		t.Errorf("scalar labels = %q, %q", root.Children[0].Value, root.Children[1].Value)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, sample()); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if strings.Contains(buf.String(), "left") {
		t.Error("Encode() should write the canonical children shape")
	}

	back, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if Count(back) != 5 || back.Children[0].Children[1].Value != "department == 'Sales'" {
		t.Errorf("round trip lost structure: %+v", back)
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "ast.json")
	if err := os.WriteFile(jsonPath, []byte(`{"value": "A", "children": [{"value": "B"}]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	yamlPath := filepath.Join(dir, "ast.yaml")
	yamlData := "value: AND\nchildren:\n  - value: age > 30\n  - value: 42\n"
	if err := os.WriteFile(yamlPath, []byte(yamlData), 0o644); err != nil {
		t.Fatal(err)
	}

	root, err := ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("ReadFile(json) error = %v", err)
	}
	if Count(root) != 2 {
		t.Errorf("ReadFile(json) count = %d, want 2", Count(root))
	}

	root, err = ReadFile(yamlPath)
	if err != nil {
		t.Fatalf("ReadFile(yaml) error = %v", err)
	}
	if root.Value != "AND" || root.Children[1].Value != "42" {
		t.Errorf("ReadFile(yaml) = %+v", root)
	}

	if _, err := ReadFile(filepath.Join(dir, "missing.json")); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("ReadFile(missing) code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidInput)
	}
}
