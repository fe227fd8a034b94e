package qdrant

import (
	"sort"
	"strings"
)

// TranslateFilter turns a flat {key: value} map into a qdrant "must" filter.
// Slice values match any element. nil means no filter.
func TranslateFilter(filter map[string]any) map[string]any {
	if len(filter) == 0 {
		return nil
	}
	keys := make([]string, 0, len(filter))
	for k := range filter {
		if strings.TrimSpace(k) != "" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	sort.Strings(keys)

	must := make([]any, 0, len(keys))
	for _, k := range keys {
		must = append(must, matchCondition(k, filter[k]))
	}
	return map[string]any{"must": must}
}

func matchCondition(key string, value any) map[string]any {
	switch v := value.(type) {
	case []string:
		anyOf := make([]any, 0, len(v))
		for _, s := range v {
			anyOf = append(anyOf, s)
		}
		return map[string]any{"key": key, "match": map[string]any{"any": anyOf}}
	case []any:
		return map[string]any{"key": key, "match": map[string]any{"any": v}}
	default:
		return map[string]any{"key": key, "match": map[string]any{"value": v}}
	}
}

// matches reports whether payload satisfies a flat filter, with the same
// semantics TranslateFilter gives qdrant.
func matches(payload map[string]any, filter map[string]any) bool {
	for k, want := range filter {
		got, ok := payload[k]
		if !ok {
			return false
		}
		switch w := want.(type) {
		case []string:
			if !containsString(w, got) {
				return false
			}
		case []any:
			found := false
			for _, item := range w {
				if item == got {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		default:
			if got != want {
				return false
			}
		}
	}
	return true
}

func containsString(list []string, v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
