// Package jsonval provides typed access to values addressed by JSONPath
// inside decoded documents. All helpers treat a missing node and a JSON
// null the same way: absent.
package jsonval

import (
	"strings"

	"github.com/theory/jsonpath"
)

// First returns the first node the path selects, if any.
func First(p *jsonpath.Path, doc any) (any, bool) {
	if p == nil || doc == nil {
		return nil, false
	}
	nodes := p.Select(doc)
	if len(nodes) == 0 || nodes[0] == nil {
		return nil, false
	}
	return nodes[0], true
}

// Number returns the value at path as a float64.
// JSON numbers decode to float64; integers stored by other writers may
// surface as int or int64.
func Number(p *jsonpath.Path, doc any) (float64, bool) {
	v, ok := First(p, doc)
	if !ok {
		return 0, false
	}
	return AsNumber(v)
}

// AsNumber coerces a decoded JSON scalar to float64.
func AsNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// String returns the value at path as a string.
func String(p *jsonpath.Path, doc any) (string, bool) {
	v, ok := First(p, doc)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Bool returns the value at path as a bool.
func Bool(p *jsonpath.Path, doc any) (bool, bool) {
	v, ok := First(p, doc)
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// Strings returns the value at path as a string slice: a scalar string
// yields a one-element slice, an array yields its string elements.
func Strings(p *jsonpath.Path, doc any) []string {
	v, ok := First(p, doc)
	if !ok {
		return nil
	}
	switch vv := v.(type) {
	case string:
		return []string{vv}
	case []any:
		out := make([]string, 0, len(vv))
		for _, e := range vv {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return vv
	default:
		return nil
	}
}

// Equal compares a decoded JSON value against another with loose numeric
// semantics: numbers compare numerically, strings case-sensitively, bools
// exactly. Array values match when any element matches.
func Equal(v, want any) bool {
	if arr, ok := v.([]any); ok {
		for _, e := range arr {
			if Equal(e, want) {
				return true
			}
		}
		return false
	}
	if vn, ok := AsNumber(v); ok {
		if wn, ok := AsNumber(want); ok {
			return vn == wn
		}
		return false
	}
	switch vv := v.(type) {
	case string:
		ws, ok := want.(string)
		return ok && vv == ws
	case bool:
		wb, ok := want.(bool)
		return ok && vv == wb
	default:
		return false
	}
}

// Compare orders two decoded JSON values: numbers numerically, strings
// lexicographically (case-insensitive), otherwise by string form. Absent
// values sort before present ones.
func Compare(a, b any) int {
	aAbsent := a == nil
	bAbsent := b == nil
	switch {
	case aAbsent && bAbsent:
		return 0
	case aAbsent:
		return -1
	case bAbsent:
		return 1
	}

	if an, ok := AsNumber(a); ok {
		if bn, ok := AsNumber(b); ok {
			switch {
			case an < bn:
				return -1
			case an > bn:
				return 1
			default:
				return 0
			}
		}
	}

	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return strings.Compare(strings.ToLower(as), strings.ToLower(bs))
	}
	return 0
}
