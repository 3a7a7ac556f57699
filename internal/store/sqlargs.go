package store

import (
	"fmt"
	"sort"
	"strconv"
	"time"
)

// MaxSQLRows caps the rows RunSQL returns.
const MaxSQLRows = 5000

// PositionalArgs orders params keyed "1", "2", ... into driver arguments.
// Keys must be numeric and contiguous from 1.
func PositionalArgs(params map[string]any) ([]any, error) {
	positions := make([]int, 0, len(params))
	for key := range params {
		n, err := strconv.Atoi(key)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("param %q: keys must be positions starting at 1", key)
		}
		positions = append(positions, n)
	}
	sort.Ints(positions)

	args := make([]any, 0, len(positions))
	for i, n := range positions {
		if n != i+1 {
			return nil, fmt.Errorf("param %d is missing", i+1)
		}
		args = append(args, params[strconv.Itoa(n)])
	}
	return args, nil
}

// SQLValue converts a driver value into something that encodes cleanly as JSON.
func SQLValue(v any) any {
	switch val := v.(type) {
	case []byte:
		return string(val)
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	default:
		return v
	}
}
