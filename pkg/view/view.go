package view

import (
	"embed"
	"encoding/json"
	"html/template"
	"io"

	"github.com/matzehuels/ruleviz/pkg/pipeline"
	"github.com/matzehuels/ruleviz/pkg/ruleclient"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"json":   toJSON,
	"svg":    func(b []byte) template.HTML { return template.HTML(b) },
	"passed": func(r ruleclient.Result) bool { return r.Passed() },
}).ParseFS(templateFS, "templates/*.html"))

// PageData is the input of [Page].
type PageData struct {
	State pipeline.State
	Data  string // Prefilled data field, as key=value lines
}

// Render writes the response fragment for s.
func Render(w io.Writer, s pipeline.State) error {
	return templates.ExecuteTemplate(w, "response", s)
}

// Page writes the full page: the rule form followed by the fragment for
// the state in d.
func Page(w io.Writer, d PageData) error {
	return templates.ExecuteTemplate(w, "page", d)
}

func toJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "?"
	}
	return string(data)
}
