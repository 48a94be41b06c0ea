package ruleclient

import (
	"bytes"
	"encoding/json"

	"github.com/matzehuels/ruleviz/pkg/errors"
	"github.com/matzehuels/ruleviz/pkg/tree"
)

const statusSuccess = "success"

// Result is the outcome of evaluating a rule against one datum.
type Result struct {
	Data   map[string]any `json:"data"`
	Result any            `json:"result"`
}

// Passed reports whether the result is boolean true.
func (r Result) Passed() bool {
	b, ok := r.Result.(bool)
	return ok && b
}

// envelope is the union of every response the service sends.
type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Results *[]Result       `json:"results"`
	Result  json.RawMessage `json:"result"`
	AST     json.RawMessage `json:"ast"`
}

func decodeEnvelope(data []byte) (*envelope, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidResponse, err, "rule service sent an unreadable response")
	}
	if env.Status == "" {
		return nil, errors.New(errors.ErrCodeInvalidResponse, "rule service response has no status")
	}
	return &env, nil
}

// results normalizes both evaluation shapes into the list form.
func (env *envelope) results(submitted map[string]any) ([]Result, error) {
	if env.Results != nil {
		out := *env.Results
		if out == nil {
			out = []Result{}
		}
		return out, nil
	}
	if len(env.Result) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidResponse, "evaluation response has neither results nor result")
	}
	var v any
	if err := json.Unmarshal(env.Result, &v); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidResponse, err, "decode evaluation result")
	}
	return []Result{{Data: submitted, Result: v}}, nil
}

// tree decodes the "ast" field. Services that serialize the AST twice
// send it as a JSON string holding the document; both forms are accepted.
func (env *envelope) tree() (*tree.Node, error) {
	raw := bytes.TrimSpace(env.AST)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, errors.New(errors.ErrCodeInvalidResponse, "compile response has no ast")
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidResponse, err, "decode ast")
		}
		raw = []byte(s)
	}
	root, err := tree.Parse(raw)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidResponse, err, "decode ast")
	}
	return root, nil
}
