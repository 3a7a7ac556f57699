package sqlite

import (
	"context"
	"testing"

	"mudgraph/internal/store"
	"mudgraph/internal/world"
)

func TestMatchExpr(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "sword", want: `"sword"*`},
		{input: "rusty sw", want: `"rusty"* AND "sw"*`},
		{input: "guard -city", want: `"guard"* NOT "city"*`},
		{input: `"city guard" captain`, want: `"city guard"* AND "captain"*`},
		{input: "king's", want: `"king s"*`},
		{input: "-fire", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := matchExpr(store.ParseSearch(tt.input)); got != tt.want {
				t.Errorf("matchExpr(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSearchKeywordPrefixes(t *testing.T) {
	c := openTestClient(t)
	ctx := context.Background()
	writeRows(t, c, func(w store.Tx) error {
		for _, e := range []store.Entity{
			{Kind: world.KindObject, Vnum: 3020, Zone: 30, SourcePath: "30/object/3020.json", Name: "a long sword", Keywords: "sword long"},
			{Kind: world.KindObject, Vnum: 3021, Zone: 30, SourcePath: "30/object/3021.json", Name: "a short sword", Keywords: "sword short"},
			{Kind: world.KindMobile, Vnum: 3005, Zone: 30, SourcePath: "30/mobile/3005.json", Name: "the king's swordsmith", Keywords: "smith swordsmith"},
		} {
			if err := w.UpsertEntity(ctx, e); err != nil {
				return err
			}
		}
		return nil
	})

	tests := []struct {
		query string
		kind  world.Kind
		want  []int
	}{
		{query: "sw", kind: world.KindObject, want: []int{3020, 3021}},
		{query: "sw -short", kind: world.KindObject, want: []int{3020}},
		{query: "king's", want: []int{3005}},
		{query: `"long sword"`, want: []int{3020}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			results, err := c.Search(ctx, tt.query, tt.kind)
			if err != nil {
				t.Fatalf("search: %v", err)
			}
			got := map[int]bool{}
			for _, r := range results {
				got[r.Vnum] = true
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Search(%q) = %+v, want vnums %v", tt.query, results, tt.want)
			}
			for _, v := range tt.want {
				if !got[v] {
					t.Fatalf("Search(%q) missing %d: %+v", tt.query, v, results)
				}
			}
		})
	}

	if _, err := c.Search(ctx, "-sword", ""); err == nil {
		t.Fatalf("expected error for a query with only exclusions")
	}
}
