package graph

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// compareIDs orders ids by length first so that numeric ids sort naturally
// ("2" before "10"), then lexicographically.
func compareIDs(a, b string) int {
	if len(a) != len(b) {
		return len(a) - len(b)
	}
	return strings.Compare(a, b)
}

func sortIDs(ids []string) {
	slices.SortFunc(ids, compareIDs)
}

// FormatID turns an id argument into the string form used by the store.
// Strings are used verbatim, integers are formatted in base 10.
func FormatID(v any) (string, error) {
	switch id := v.(type) {
	case string:
		if id == "" {
			return "", fmt.Errorf("%w: empty string", ErrInvalidID)
		}
		return id, nil
	case int:
		return strconv.Itoa(id), nil
	case int32:
		return strconv.FormatInt(int64(id), 10), nil
	case int64:
		return strconv.FormatInt(id, 10), nil
	case uint64:
		return strconv.FormatUint(id, 10), nil
	default:
		return "", fmt.Errorf("%w: %T", ErrInvalidID, v)
	}
}
