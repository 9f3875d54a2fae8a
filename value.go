package jsonschema

import (
	"encoding/json"
	"math/big"
)

// The value model is the plain decoded tree: nil, bool, string, []any,
// map[string]any, and numbers as json.Number, float64 or Go ints (YAML
// decoding yields the latter two). All numeric comparisons go through
// big.Rat so 1, 1.0 and "1e0" compare equal and multipleOf stays exact.

func numOf(v any) (*big.Rat, bool) {
	switch n := v.(type) {
	case json.Number:
		r, ok := new(big.Rat).SetString(string(n))
		return r, ok
	case float64:
		r := new(big.Rat).SetFloat64(n)
		return r, r != nil
	case int:
		return new(big.Rat).SetInt64(int64(n)), true
	case int64:
		return new(big.Rat).SetInt64(n), true
	case uint64:
		return new(big.Rat).SetUint64(n), true
	default:
		return nil, false
	}
}

func typeOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case json.Number, float64, int, int64, uint64:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return ""
	}
}

func isIntegral(v any) bool {
	r, ok := numOf(v)
	return ok && r.IsInt()
}

// equals implements JSON equality: order-irrelevant objects, ordered arrays,
// numbers by numeric value.
func equals(a, b any) bool {
	if ra, ok := numOf(a); ok {
		rb, ok := numOf(b)
		return ok && ra.Cmp(rb) == 0
	}
	switch x := a.(type) {
	case map[string]any:
		y, ok := b.(map[string]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for k, xv := range x {
			yv, ok := y[k]
			if !ok || !equals(xv, yv) {
				return false
			}
		}
		return true
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !equals(x[i], y[i]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}
