package store

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// EncodeJSON renders a JSON column. Map keys come out sorted, so equal
// input always yields equal bytes.
func EncodeJSON(v map[string]any) (string, error) {
	if len(v) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding json column: %w", err)
	}
	return string(b), nil
}

// DecodeJSON parses a JSON object column; numbers decode as json.Number.
func DecodeJSON(s string) (map[string]any, error) {
	out := map[string]any{}
	if s == "" {
		return out, nil
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding json column: %w", err)
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}
