package sink

import (
	"encoding/json"

	"github.com/matzehuels/ruleviz/pkg/layout"
)

// JSONOption configures JSON rendering via [RenderJSON].
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	compact bool
}

// WithCompactJSON emits the layout without indentation.
func WithCompactJSON() JSONOption { return func(r *jsonRenderer) { r.compact = true } }

// RenderJSON exports the layout in the [layout.Serialized] format.
// The output can be read back with [layout.Import].
func RenderJSON(l layout.Result, opts ...JSONOption) ([]byte, error) {
	r := jsonRenderer{}
	for _, opt := range opts {
		opt(&r)
	}
	if r.compact {
		return json.Marshal(l.Export())
	}
	return json.MarshalIndent(l.Export(), "", "  ")
}
