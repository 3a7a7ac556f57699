package parser

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Int coerces a decoded JSON value to an int. Integers, booleans and
// trimmed numeric strings are accepted; anything else is rejected.
func Int(v any) (int, bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case int:
		return x, true
	case int64:
		return int(x), true
	case float64:
		if x != math.Trunc(x) {
			return 0, false
		}
		return int(x), true
	case json.Number:
		n, err := strconv.ParseInt(string(x), 10, 64)
		if err != nil {
			return 0, false
		}
		return int(n), true
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func intPtr(v any) *int {
	n, ok := Int(v)
	if !ok {
		return nil
	}
	return &n
}

// firstInt returns the first key holding a non-zero int, falling back to a
// zero value when that is all there is.
func firstInt(data map[string]any, keys ...string) (int, bool) {
	zero := false
	for _, key := range keys {
		n, ok := Int(data[key])
		if !ok {
			continue
		}
		if n != 0 {
			return n, true
		}
		zero = true
	}
	return 0, zero
}

// firstString returns the first key holding a non-empty value, rendered as text.
func firstString(data map[string]any, keys ...string) string {
	for _, key := range keys {
		if s := text(data[key]); s != "" {
			return s
		}
	}
	return ""
}

func text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

func intList(v any) []int {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]int, 0, len(list))
	for _, el := range list {
		if n, ok := Int(el); ok {
			out = append(out, n)
		}
	}
	return out
}

// scriptRefs accepts a list of vnums, a map keyed by vnum, or a single vnum.
func scriptRefs(v any) []int {
	switch x := v.(type) {
	case nil:
		return nil
	case []any:
		return intList(x)
	case map[string]any:
		var out []int
		for _, key := range SortedKeys(x) {
			if n, ok := Int(key); ok {
				out = append(out, n)
			}
		}
		return out
	default:
		if n, ok := Int(x); ok {
			return []int{n}
		}
	}
	return nil
}

func SortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
