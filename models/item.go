package models

import (
	"encoding/json"
	"fmt"
)

// RawItem is the `data` object of one listing child as decoded from the API.
// Fields may be absent, null, or nested objects.
type RawItem map[string]any

// Has reports whether the key is present, even when its value is null
func (r RawItem) Has(key string) bool {
	_, ok := r[key]
	return ok
}

// HasAll reports whether every key is present
func (r RawItem) HasAll(keys ...string) bool {
	for _, k := range keys {
		if !r.Has(k) {
			return false
		}
	}
	return true
}

// Value returns the raw value stored under key, with json.Number converted to int64 or float64
func (r RawItem) Value(key string) any {
	v, ok := r[key]
	if !ok {
		return nil
	}
	if n, ok := v.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return i
		}
		if f, err := n.Float64(); err == nil {
			return f
		}
	}
	return v
}

// String returns the value under key when it is a non-null string
func (r RawItem) String(key string) (string, bool) {
	s, ok := r[key].(string)
	return s, ok
}

// Float returns the value under key as a float64 when it is numeric
func (r RawItem) Float(key string) (float64, bool) {
	switch v := r[key].(type) {
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// Object returns the nested object under key, if any
func (r RawItem) Object(key string) (RawItem, bool) {
	switch v := r[key].(type) {
	case map[string]any:
		return RawItem(v), true
	case RawItem:
		return v, true
	default:
		return nil, false
	}
}

// Describe returns a short identifier for log lines
func (r RawItem) Describe() string {
	if id, ok := r.String("id"); ok {
		return id
	}
	if p, ok := r.String("permalink"); ok {
		return p
	}
	return fmt.Sprintf("<%d fields>", len(r))
}
