package store

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestPositionalArgs(t *testing.T) {
	tests := []struct {
		name    string
		params  map[string]any
		want    []any
		wantErr bool
	}{
		{name: "nil", params: nil, want: []any{}},
		{name: "ordered", params: map[string]any{"2": "b", "1": "a", "3": 3}, want: []any{"a", "b", 3}},
		{name: "gap", params: map[string]any{"1": "a", "3": "c"}, wantErr: true},
		{name: "named", params: map[string]any{"kind": "shop"}, wantErr: true},
		{name: "zero", params: map[string]any{"0": "a"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PositionalArgs(tt.params)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("args mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSQLValue(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("x", 3600))
	if got := SQLValue(at); got != "2024-03-01T11:00:00Z" {
		t.Fatalf("time = %v", got)
	}
	if got := SQLValue([]byte("abc")); got != "abc" {
		t.Fatalf("bytes = %v", got)
	}
	if got := SQLValue(int64(7)); got != int64(7) {
		t.Fatalf("int = %v", got)
	}
}
