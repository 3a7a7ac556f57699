package store

import "testing"

func TestIsKnownRelation(t *testing.T) {
	tests := []struct {
		rel  string
		want bool
	}{
		{rel: RelEquipsOn, want: true},
		{rel: RelZoneLoad, want: true},
		{rel: RefRelation("to_room"), want: true},
		{rel: "ref:", want: false},
		{rel: "exit:north", want: false},
		{rel: "", want: false},
	}
	for _, tt := range tests {
		if got := IsKnownRelation(tt.rel); got != tt.want {
			t.Fatalf("IsKnownRelation(%q) = %v, want %v", tt.rel, got, tt.want)
		}
	}
	if !IsRefRelation("ref:obj") || IsRefRelation(RelExit) {
		t.Fatalf("unexpected ref relation classification")
	}
}
