package layout_test

import (
	"fmt"

	"github.com/matzehuels/ruleviz/pkg/layout"
	"github.com/matzehuels/ruleviz/pkg/tree"
)

func ExampleCompute() {
	root := tree.New("AND", tree.New("age > 30"), tree.New("salary > 50000"))

	r, err := layout.Compute(root, 400, 300)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	for _, n := range r.Nodes {
		fmt.Printf("%-15s x=%.0f y=%.0f\n", n.Value, n.X, n.Y)
	}
	for _, e := range r.Edges {
		fmt.Printf("%s -> %s\n", r.Nodes[e.From].Value, r.Nodes[e.To].Value)
	}
	// Output:
	// AND             x=200 y=0
	// age > 30        x=100 y=300
	// salary > 50000  x=300 y=300
	// AND -> age > 30
	// AND -> salary > 50000
}
