package pipeline

import (
	"encoding/json"
	"maps"
	"slices"
	"strings"

	"github.com/matzehuels/ruleviz/pkg/errors"
)

// SampleData returns the record the rule form is prefilled with.
func SampleData() map[string]any {
	return map[string]any{
		"age":        35,
		"department": "Sales",
		"salary":     60000,
		"experience": 5,
	}
}

// ParseData builds an evaluation record from "key=value" pairs. Values that
// parse as JSON (numbers, booleans, quoted strings, null) keep their type;
// anything else is taken as a plain string. Blank pairs are skipped.
func ParseData(pairs []string) (map[string]any, error) {
	data := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, raw, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidInput, "data %q is not key=value", pair)
		}
		key = strings.TrimSpace(key)
		if err := errors.ValidateFieldName(key); err != nil {
			return nil, err
		}
		data[key] = parseValue(strings.TrimSpace(raw))
	}
	return data, nil
}

// ParseDataLines is [ParseData] over newline-separated text.
func ParseDataLines(text string) (map[string]any, error) {
	return ParseData(strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n"))
}

// FormatData renders data as sorted "key=value" lines, the inverse of
// [ParseDataLines] for scalar values.
func FormatData(data map[string]any) string {
	var b strings.Builder
	for _, k := range slices.Sorted(maps.Keys(data)) {
		v, err := json.Marshal(data[k])
		if err != nil {
			continue
		}
		if s, ok := data[k].(string); ok && parseValue(s) == s {
			v = []byte(s)
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.Write(v)
		b.WriteByte('\n')
	}
	return b.String()
}

func parseValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		switch v.(type) {
		case map[string]any, []any:
			return raw
		}
		return v
	}
	return raw
}
