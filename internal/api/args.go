package api

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Args holds the named arguments of a tool call as decoded from JSON.
// Numbers arrive as float64; the accessors below smooth that over.
type Args map[string]interface{}

// Has reports whether key is present and non-nil.
func (a Args) Has(key string) bool {
	v, ok := a[key]
	return ok && v != nil
}

// String returns the string value of key, or "" when absent. Non-string
// scalars are formatted with %v.
func (a Args) String(key string) string {
	v, ok := a[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// StringPtr returns nil when key is absent, otherwise a pointer to its
// string value. It distinguishes "omitted" from "empty".
func (a Args) StringPtr(key string) *string {
	if !a.Has(key) {
		return nil
	}
	s := a.String(key)
	return &s
}

// Int returns the integer value of key, or def when absent or not numeric.
func (a Args) Int(key string, def int) int {
	v, ok := a[key]
	if !ok || v == nil {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		if n != math.Trunc(n) {
			return def
		}
		return int(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i)
		}
	case string:
		if i, err := strconv.Atoi(n); err == nil {
			return i
		}
	}
	return def
}

// IntPtr is like Int but returns nil when key is absent.
func (a Args) IntPtr(key string) *int {
	if !a.Has(key) {
		return nil
	}
	n := a.Int(key, 0)
	return &n
}

// Bool returns the boolean value of key, or def when absent.
func (a Args) Bool(key string, def bool) bool {
	v, ok := a[key]
	if !ok || v == nil {
		return def
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		if parsed, err := strconv.ParseBool(b); err == nil {
			return parsed
		}
	}
	return def
}

// StringSlice returns key as a list of strings. A single string becomes a
// one-element list; non-string items are formatted with %v.
func (a Args) StringSlice(key string) []string {
	v, ok := a[key]
	if !ok || v == nil {
		return nil
	}
	switch items := v.(type) {
	case string:
		if items == "" {
			return nil
		}
		return []string{items}
	case []string:
		return items
	case []interface{}:
		out := make([]string, 0, len(items))
		for _, item := range items {
			if s, ok := item.(string); ok {
				out = append(out, s)
			} else {
				out = append(out, fmt.Sprintf("%v", item))
			}
		}
		return out
	}
	return nil
}

// Map returns key as a JSON object, or nil when absent or not an object.
func (a Args) Map(key string) map[string]interface{} {
	if m, ok := a[key].(map[string]interface{}); ok {
		return m
	}
	return nil
}
