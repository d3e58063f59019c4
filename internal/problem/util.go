package problem

import "fmt"

func sprintf(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}

func reverseStrings(s []string) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// toInt converts a decoded-JSON numeric value (always float64 via
// encoding/json) to int.
func toInt(v any) (int, error) {
	switch n := v.(type) {
	case float64:
		return int(n), nil
	case int:
		return n, nil
	default:
		return 0, fmt.Errorf("expected number, got %T", v)
	}
}

func intField(obj map[string]any, key string) (int, error) {
	v, ok := obj[key]
	if !ok {
		return 0, fmt.Errorf("missing required field %q", key)
	}
	n, err := toInt(v)
	if err != nil {
		return 0, fmt.Errorf("field %q: %w", key, err)
	}
	return n, nil
}

func intFieldOr(obj map[string]any, key string, def int) int {
	n, err := intField(obj, key)
	if err != nil {
		return def
	}
	return n
}

func numberFieldOr(obj map[string]any, key string, def float64) float64 {
	if obj == nil {
		return def
	}
	v, ok := obj[key]
	if !ok {
		return def
	}
	if n, ok := v.(float64); ok {
		return n
	}
	return def
}

func boolField(obj map[string]any, key string, def bool) bool {
	v, ok := obj[key]
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		return def
	}
	return b
}

func stringSliceField(obj map[string]any, key string) []string {
	raw, ok := obj[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func intSliceField(obj map[string]any, key string) []int {
	raw, ok := obj[key].([]any)
	if !ok {
		return nil
	}
	out := make([]int, 0, len(raw))
	for _, v := range raw {
		if n, err := toInt(v); err == nil {
			out = append(out, n)
		}
	}
	return out
}
