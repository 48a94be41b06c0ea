package tree_test

import (
	"fmt"
	"os"

	"github.com/matzehuels/ruleviz/pkg/tree"
)

func ExampleParse() {
	ast := `{
		"type": "operator", "value": "AND",
		"left":  {"type": "operand", "value": "age > 30"},
		"right": {"type": "operand", "value": "salary > 50000"}
	}`

	root, err := tree.Parse([]byte(ast))
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	tree.Walk(root, func(n *tree.Node, depth int) bool {
		fmt.Printf("%d %s\n", depth, n.Value)
		return true
	})
	// Output:
	// 0 AND
	// 1 age > 30
	// 1 salary > 50000
}

func ExampleEncode() {
	root := tree.New("OR", tree.New("age > 30"), tree.New("experience > 5"))
	_ = tree.Encode(os.Stdout, root)
	// Output:
	// {
	//   "value": "OR",
	//   "children": [
	//     {
	//       "value": "age > 30"
	//     },
	//     {
	//       "value": "experience > 5"
	//     }
	//   ]
	// }
}
