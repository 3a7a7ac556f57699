package reach

import (
	"context"
	"fmt"
	"sort"

	"mudgraph/internal/parser"
	"mudgraph/internal/store"
	"mudgraph/internal/world"
	"mudgraph/internal/zonecmd"
)

type LocationKind string

const (
	LocationRoom      LocationKind = "room"
	LocationEquipment LocationKind = "mobile_equipment"
	LocationInventory LocationKind = "mobile_inventory"
	LocationContainer LocationKind = "container"
	LocationRepop     LocationKind = "repop"
)

// Location is one placement site of an object. Edge is the index row the
// site was derived from.
type Location struct {
	Kind        LocationKind
	Zone        int
	Description string
	Probability int
	Edge        store.Edge
}

func (l Location) String() string {
	return fmt.Sprintf("%s, %d%%", l.Description, l.Probability)
}

// sites lists every placement site of an object without sorting or
// deduplication.
func sites(ctx context.Context, g Graph, vnum int) ([]Location, error) {
	obj := store.EntityRef{Kind: world.KindObject, Vnum: vnum}

	out, err := g.EdgesFrom(ctx, obj, "")
	if err != nil {
		return nil, fmt.Errorf("loading placements of object %d: %w", vnum, err)
	}
	var locs []Location
	for _, e := range out {
		if !e.HasDst() {
			continue
		}
		var kind LocationKind
		var desc string
		switch e.Relation {
		case store.RelLoadsIn:
			kind, desc = LocationRoom, fmt.Sprintf("in room %d", e.Dst.Vnum)
		case store.RelEquipsOn:
			kind, desc = LocationEquipment, fmt.Sprintf("equipped on mobile %d", e.Dst.Vnum)
		case store.RelCarriedBy:
			kind, desc = LocationInventory, fmt.Sprintf("in inventory of mobile %d", e.Dst.Vnum)
		case store.RelContainedIn:
			kind, desc = LocationContainer, fmt.Sprintf("in container %d", e.Dst.Vnum)
		default:
			continue
		}
		locs = append(locs, Location{Kind: kind, Zone: e.Zone, Description: desc, Probability: edgeProb(e), Edge: e})
	}

	in, err := g.EdgesTo(ctx, obj, "")
	if err != nil {
		return nil, fmt.Errorf("loading static placements of object %d: %w", vnum, err)
	}
	for _, e := range in {
		if e.Src.Kind != world.KindMobile {
			continue
		}
		var kind LocationKind
		var desc string
		prob := zonecmd.DefaultProb
		switch e.Relation {
		case store.RelRepop:
			kind, desc, prob = LocationRepop, fmt.Sprintf("repop on mobile %d", e.Src.Vnum), edgeProb(e)
		case store.RelHasEquipment:
			kind, desc = LocationEquipment, fmt.Sprintf("equipped on mobile %d", e.Src.Vnum)
		case store.RelHasInventory:
			kind, desc = LocationInventory, fmt.Sprintf("in inventory of mobile %d", e.Src.Vnum)
		default:
			continue
		}
		locs = append(locs, Location{Kind: kind, Zone: e.Zone, Description: desc, Probability: prob, Edge: e})
	}
	return locs, nil
}

// edgeProb reads the clamped probability recorded on an edge, defaulting to
// certainty when the edge carries none.
func edgeProb(e store.Edge) int {
	p, ok := parser.Int(e.Context["prob"])
	if !ok {
		return zonecmd.DefaultProb
	}
	return max(0, min(100, p))
}

// sortLocations orders by probability descending and keeps the first
// location seen for each (zone, description).
func sortLocations(locs []Location) []Location {
	sort.SliceStable(locs, func(i, j int) bool {
		a, b := locs[i], locs[j]
		if a.Probability != b.Probability {
			return a.Probability > b.Probability
		}
		if a.Zone != b.Zone {
			return a.Zone < b.Zone
		}
		return a.Description < b.Description
	})

	type key struct {
		zone int
		desc string
	}
	seen := make(map[key]struct{}, len(locs))
	out := locs[:0]
	for _, l := range locs {
		k := key{l.Zone, l.Description}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, l)
	}
	return out
}
