package sink

import (
	"fmt"
	"strings"

	"github.com/matzehuels/ruleviz/pkg/layout"
)

// TextOption configures [RenderText].
type TextOption func(*textRenderer)

type textRenderer struct {
	coords bool
}

// WithCoordinates appends each node's layout position to its line.
func WithCoordinates() TextOption { return func(r *textRenderer) { r.coords = true } }

// RenderText draws the layout as an indented tree outline:
//
//	OR
//	├── AND
//	│   ├── age > 30
//	│   └── department == Sales
//	└── salary > 50000
func RenderText(l layout.Result, opts ...TextOption) string {
	r := textRenderer{}
	for _, opt := range opts {
		opt(&r)
	}
	if len(l.Nodes) == 0 {
		return ""
	}

	type frame struct {
		id     int
		prefix string
		last   bool
	}

	var sb strings.Builder
	stack := []frame{{id: 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := l.Nodes[f.id]

		childPrefix := f.prefix
		if !n.IsRoot() {
			branch := "├── "
			childPrefix += "│   "
			if f.last {
				branch = "└── "
				childPrefix = f.prefix + "    "
			}
			sb.WriteString(f.prefix + branch)
		}
		sb.WriteString(n.Value)
		if r.coords {
			fmt.Fprintf(&sb, " (%s, %s)", num(n.X), num(n.Y))
		}
		sb.WriteByte('\n')

		kids := l.Children(f.id)
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, frame{id: kids[i], prefix: childPrefix, last: i == len(kids)-1})
		}
	}
	return sb.String()
}
