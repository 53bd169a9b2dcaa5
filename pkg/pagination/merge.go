package pagination

// Merge returns the deep merge of src into dst. Neither argument is modified.
//
// Objects present on both sides are merged key by key, arrays present on
// both sides are concatenated (dst elements first), and any other collision,
// including a type mismatch, takes the src value.
func Merge(dst, src map[string]any) map[string]any {
	out := make(map[string]any, len(dst)+len(src))
	for k, v := range dst {
		out[k] = clone(v)
	}
	for k, v := range src {
		existing, ok := out[k]
		if !ok {
			out[k] = clone(v)
			continue
		}
		out[k] = mergeValue(existing, v)
	}
	return out
}

func mergeValue(dst, src any) any {
	switch s := src.(type) {
	case map[string]any:
		if d, ok := dst.(map[string]any); ok {
			return Merge(d, s)
		}
	case []any:
		if d, ok := dst.([]any); ok {
			out := make([]any, 0, len(d)+len(s))
			out = append(out, d...)
			for _, item := range s {
				out = append(out, clone(item))
			}
			return out
		}
	}
	return clone(src)
}

func clone(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = clone(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = clone(item)
		}
		return out
	default:
		return v
	}
}
