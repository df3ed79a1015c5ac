package source

import (
	"encoding/json"
	"fmt"
	"strings"
)

// pickStr returns the first non-empty string value among keys.
func pickStr(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if s, ok := v.(string); ok {
				s2 := strings.TrimSpace(s)
				if s2 != "" {
					return s2
				}
			}
		}
	}
	return ""
}

// pickFloat returns the first numeric value among keys, or nil. A missing
// or null field stays nil; zero is a real value.
func pickFloat(m map[string]any, keys ...string) *float64 {
	for _, k := range keys {
		v, ok := m[k]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case float64:
			f := t
			return &f
		case json.Number:
			if f, err := t.Float64(); err == nil {
				return &f
			}
		}
	}
	return nil
}

// rows flattens the API shapes we see in practice: a top-level array, a
// single object, or an object wrapping an array under a known key.
func rows(raw []byte) []map[string]any {
	var arr []any
	if json.Unmarshal(raw, &arr) == nil {
		out := make([]map[string]any, 0, len(arr))
		for _, it := range arr {
			if m, ok := it.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	}
	var obj map[string]any
	if json.Unmarshal(raw, &obj) == nil && len(obj) > 0 {
		for _, key := range []string{"data", "results", "items"} {
			if inner, ok := obj[key].([]any); ok {
				out := make([]map[string]any, 0, len(inner))
				for _, it := range inner {
					if m, ok := it.(map[string]any); ok {
						out = append(out, m)
					}
				}
				return out
			}
		}
		return []map[string]any{obj}
	}
	return nil
}

// moneyString renders a dollar amount the way the text source spells them,
// with thousands separators: 2500000 -> "$2,500,000".
func moneyString(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	whole := int64(v)
	s := fmt.Sprintf("%d", whole)
	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	out := "$" + b.String()
	if neg {
		out = "-" + out
	}
	return out
}
