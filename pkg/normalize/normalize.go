// Package normalize rewrites JSON object keys returned by the WB API from
// camelCase into snake_case.
package normalize

import (
	"github.com/iancoleman/strcase"
)

// Key converts a single key to snake_case. Keys already in snake_case are
// returned unchanged.
func Key(key string) string {
	return strcase.ToSnake(key)
}

// Keys returns a copy of v with every object key converted to snake_case.
// Objects nested in objects or arrays are rewritten as well; scalars and
// values of unknown types are returned as they are.
func Keys(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[Key(k)] = Keys(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Keys(item)
		}
		return out
	default:
		return v
	}
}
