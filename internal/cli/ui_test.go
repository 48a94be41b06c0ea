package cli

import (
	"strings"
	"testing"

	"github.com/matzehuels/ruleviz/pkg/ruleclient"
)

func TestResultKeys(t *testing.T) {
	results := []ruleclient.Result{
		{Data: map[string]any{"salary": 1, "age": 2}},
		{Data: map[string]any{"department": "Sales", "age": 3}},
	}
	got := strings.Join(resultKeys(results), ",")
	if got != "age,department,salary" {
		t.Errorf("resultKeys() = %s", got)
	}
}

func TestResultsTable(t *testing.T) {
	out := resultsTable([]ruleclient.Result{
		{Data: map[string]any{"age": 35, "department": "Sales"}, Result: true},
		{Data: map[string]any{"age": 20}, Result: false},
		{Data: map[string]any{"age": 50}, Result: "n/a"},
	})

	for _, want := range []string{"age", "department", "result", "Sales", "35", "pass", "false", "n/a"} {
		if !strings.Contains(out, want) {
			t.Errorf("table does not contain %q:\n%s", want, out)
		}
	}
}

func TestVerdict(t *testing.T) {
	tests := []struct {
		result any
		want   string
	}{
		{true, "pass"},
		{false, "false"},
		{nil, "<nil>"},
		{1.0, "1"},
	}
	for _, tt := range tests {
		if got := verdict(ruleclient.Result{Result: tt.result}); !strings.HasSuffix(got, tt.want) {
			t.Errorf("verdict(%v) = %q, want suffix %q", tt.result, got, tt.want)
		}
	}
}
