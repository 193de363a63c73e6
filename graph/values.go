package graph

import (
	"fmt"
	"maps"
	"math"
	"slices"
)

// NormalizeValue converts a property value into the set of types the store
// keeps: bool, string, int64, float64 and []any of those.
func NormalizeValue(v any) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("%w: nil value", ErrInvalidProperty)
	case bool, string, int64, float64:
		return val, nil
	case int:
		return int64(val), nil
	case int8:
		return int64(val), nil
	case int16:
		return int64(val), nil
	case int32:
		return int64(val), nil
	case uint8:
		return int64(val), nil
	case uint16:
		return int64(val), nil
	case uint32:
		return int64(val), nil
	case uint64:
		if val > math.MaxInt64 {
			return nil, fmt.Errorf("%w: %d overflows int64", ErrInvalidProperty, val)
		}
		return int64(val), nil
	case float32:
		return float64(val), nil
	case []string:
		out := make([]any, len(val))
		for i, s := range val {
			out[i] = s
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			n, err := NormalizeValue(elem)
			if err != nil {
				return nil, fmt.Errorf("list element %d: %w", i, err)
			}
			if _, nested := n.([]any); nested {
				return nil, fmt.Errorf("%w: nested lists are not supported", ErrInvalidProperty)
			}
			out[i] = n
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unsupported type %T", ErrInvalidProperty, v)
	}
}

func normalizeProps(props map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(props))
	for k, v := range props {
		if k == "" {
			return nil, fmt.Errorf("%w: empty key", ErrInvalidProperty)
		}
		n, err := NormalizeValue(v)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", k, err)
		}
		out[k] = n
	}
	return out, nil
}

// cloneProps copies a property map; list values are copied too so callers
// can never reach a slice owned by a committed record.
func cloneProps(props map[string]any) map[string]any {
	out := maps.Clone(props)
	if out == nil {
		return make(map[string]any)
	}
	for k, v := range out {
		if list, ok := v.([]any); ok {
			out[k] = slices.Clone(list)
		}
	}
	return out
}

// ValuesEqual compares property values, treating int64 and float64 with the
// same numeric value as equal.
func ValuesEqual(a, b any) bool {
	na, aNum := asFloat(a)
	nb, bNum := asFloat(b)
	if aNum && bNum {
		return na == nb
	}
	la, aList := a.([]any)
	lb, bList := b.([]any)
	if aList && bList {
		return slices.EqualFunc(la, lb, ValuesEqual)
	}
	if aList || bList {
		return false
	}
	switch av := a.(type) {
	case nil:
		return b == nil
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	default:
		return false
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	default:
		return 0, false
	}
}
