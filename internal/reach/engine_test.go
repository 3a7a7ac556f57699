package reach

import (
	"context"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"mudgraph/internal/parser"
	"mudgraph/internal/store"
	"mudgraph/internal/world"
	"mudgraph/internal/xref"
)

type fakeGraph struct {
	entities map[store.EntityRef]*store.Entity
	from     map[store.EntityRef][]store.Edge
	to       map[store.EntityRef][]store.Edge
}

func newFakeGraph() *fakeGraph {
	return &fakeGraph{
		entities: make(map[store.EntityRef]*store.Entity),
		from:     make(map[store.EntityRef][]store.Edge),
		to:       make(map[store.EntityRef][]store.Edge),
	}
}

func (g *fakeGraph) addEdge(e store.Edge) {
	g.from[e.Src] = append(g.from[e.Src], e)
	if e.HasDst() {
		g.to[e.Dst] = append(g.to[e.Dst], e)
	}
}

func (g *fakeGraph) addEntity(e store.Entity) {
	g.entities[e.Ref()] = &e
}

func (g *fakeGraph) GetEntity(_ context.Context, kind world.Kind, vnum int) (*store.Entity, error) {
	return g.entities[store.EntityRef{Kind: kind, Vnum: vnum}], nil
}

func (g *fakeGraph) EdgesFrom(_ context.Context, src store.EntityRef, relation string) ([]store.Edge, error) {
	return filterEdges(g.from[src], relation), nil
}

func (g *fakeGraph) EdgesTo(_ context.Context, dst store.EntityRef, relation string) ([]store.Edge, error) {
	return filterEdges(g.to[dst], relation), nil
}

func (g *fakeGraph) EntitiesWithExtra(_ context.Context, kind world.Kind, key string) ([]store.Entity, error) {
	var out []store.Entity
	for _, e := range g.entities {
		if _, ok := e.Extra[key]; ok && e.Kind == kind {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Vnum < out[j].Vnum })
	return out, nil
}

func filterEdges(edges []store.Edge, relation string) []store.Edge {
	if relation == "" {
		return edges
	}
	var out []store.Edge
	for _, e := range edges {
		if e.Relation == relation {
			out = append(out, e)
		}
	}
	return out
}

func obj(vnum int) store.EntityRef { return store.EntityRef{Kind: world.KindObject, Vnum: vnum} }
func mob(vnum int) store.EntityRef { return store.EntityRef{Kind: world.KindMobile, Vnum: vnum} }
func room(vnum int) store.EntityRef {
	return store.EntityRef{Kind: world.KindRoom, Vnum: vnum}
}
func asm(vnum int) store.EntityRef {
	return store.EntityRef{Kind: world.KindAssemble, Vnum: vnum}
}

// roomSite places object vnum in a room at prob percent.
func (g *fakeGraph) roomSite(vnum, prob int) {
	g.addEdge(store.Edge{Src: obj(vnum), Dst: room(vnum / 100 * 100), Relation: store.RelLoadsIn, Zone: vnum / 100, Context: map[string]any{"prob": prob}})
}

// recipeFor adds an assemble producing result from parts.
func (g *fakeGraph) recipeFor(assemble, result int, parts ...int) {
	g.addEdge(store.Edge{Src: asm(assemble), Dst: obj(result), Relation: store.RelProduces, Zone: assemble / 100})
	for _, p := range parts {
		g.addEdge(store.Edge{Src: asm(assemble), Dst: obj(p), Relation: store.RelRequiresPart, Zone: assemble / 100})
	}
}

func zoneGraph(t *testing.T, content string) *fakeGraph {
	t.Helper()
	rec, err := parser.Parse(world.KindZone, []byte(content), "100.json", 100)
	if err != nil {
		t.Fatalf("parse zone: %v", err)
	}
	rows, err := xref.Build(rec, "100/100.json", xref.Options{DeepRefs: "scripts"})
	if err != nil {
		t.Fatalf("build rows: %v", err)
	}
	g := newFakeGraph()
	for _, e := range rows.Edges {
		g.addEdge(e)
	}
	return g
}

func TestReachEquipScenario(t *testing.T) {
	g := zoneGraph(t, `{"zone": 100, "name": "Test", "top": 199, "cmds": [
		{"cmd": "M", "arg1": 100, "arg3": 150, "prob": 100},
		{"cmd": "E", "arg1": 200, "arg3": 16, "prob": 50}
	]}`)
	engine := New(g, nil)
	ctx := context.Background()

	locs, err := engine.LoadLocations(ctx, 200)
	if err != nil {
		t.Fatalf("load locations: %v", err)
	}
	if len(locs) != 1 {
		t.Fatalf("expected one location, got %+v", locs)
	}
	if got := locs[0].String(); got != "equipped on mobile 100, 50%" {
		t.Fatalf("unexpected location %q", got)
	}
	if locs[0].Kind != LocationEquipment || locs[0].Zone != 100 {
		t.Fatalf("unexpected location %+v", locs[0])
	}

	res, err := engine.Reach(ctx, 200)
	if err != nil {
		t.Fatalf("reach: %v", err)
	}
	if !res.Reachable || res.Probability != 50 || res.Basis != BasisStructural {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(res.Via) != 1 || res.Via[0].Relation != store.RelEquipsOn {
		t.Fatalf("unexpected via %+v", res.Via)
	}
}

func TestReachRecipes(t *testing.T) {
	ctx := context.Background()

	t.Run("unreachable part makes the recipe unreachable", func(t *testing.T) {
		g := newFakeGraph()
		g.roomSite(200, 50)
		g.recipeFor(300, 300, 200, 201)

		res, err := New(g, nil).Reach(ctx, 300)
		if err != nil {
			t.Fatalf("reach: %v", err)
		}
		if res.Reachable || res.Probability != 0 {
			t.Fatalf("expected unreachable, got %+v", res)
		}
		if res.Basis != BasisStructural {
			t.Fatalf("expected structural basis, got %q", res.Basis)
		}
	})

	t.Run("product of parts", func(t *testing.T) {
		g := newFakeGraph()
		g.roomSite(200, 50)
		g.roomSite(201, 40)
		g.recipeFor(300, 300, 200, 201)

		res, err := New(g, nil).Reach(ctx, 300)
		if err != nil {
			t.Fatalf("reach: %v", err)
		}
		if !res.Reachable || res.Probability != 20 {
			t.Fatalf("expected 20%%, got %+v", res)
		}
		if len(res.Via) != 3 || res.Via[0].Relation != store.RelProduces {
			t.Fatalf("unexpected via %+v", res.Via)
		}
		if !strings.Contains(res.Explanation, "assemble 300") {
			t.Fatalf("unexpected explanation %q", res.Explanation)
		}
	})

	t.Run("best of site and recipes", func(t *testing.T) {
		g := newFakeGraph()
		g.roomSite(200, 90)
		g.roomSite(201, 10)
		g.roomSite(300, 30)
		g.recipeFor(300, 300, 201)
		g.recipeFor(301, 300, 200)

		res, err := New(g, nil).Reach(ctx, 300)
		if err != nil {
			t.Fatalf("reach: %v", err)
		}
		if res.Probability != 90 {
			t.Fatalf("expected 90%%, got %+v", res)
		}
	})

	t.Run("explicit result replaces the recipe vnum", func(t *testing.T) {
		rec, err := parser.Parse(world.KindAssemble, []byte(`{"vnum":300,"parts":[301],"result":305}`), "300.json", 3)
		if err != nil {
			t.Fatalf("parse assemble: %v", err)
		}
		rows, err := xref.Build(rec, "3/assemble/300.json", xref.Options{DeepRefs: "none"})
		if err != nil {
			t.Fatalf("build rows: %v", err)
		}
		g := newFakeGraph()
		for _, e := range rows.Edges {
			g.addEdge(e)
		}
		g.roomSite(301, 100)
		engine := New(g, nil)

		res, err := engine.Reach(ctx, 305)
		if err != nil {
			t.Fatalf("reach 305: %v", err)
		}
		if !res.Reachable || res.Probability != 100 {
			t.Fatalf("expected declared result reachable at 100%%, got %+v", res)
		}

		res, err = engine.Reach(ctx, 300)
		if err != nil {
			t.Fatalf("reach 300: %v", err)
		}
		if res.Reachable || res.Probability != 0 {
			t.Fatalf("expected object 300 not craftable, got %+v", res)
		}
	})

	t.Run("empty recipe is unreachable", func(t *testing.T) {
		g := newFakeGraph()
		g.recipeFor(300, 300)

		res, err := New(g, nil).Reach(ctx, 300)
		if err != nil {
			t.Fatalf("reach: %v", err)
		}
		if res.Reachable {
			t.Fatalf("expected unreachable, got %+v", res)
		}
	})

	t.Run("shared part is evaluated once", func(t *testing.T) {
		g := newFakeGraph()
		g.roomSite(200, 50)
		g.recipeFor(300, 300, 200, 200)

		res, err := New(g, nil).Reach(ctx, 300)
		if err != nil {
			t.Fatalf("reach: %v", err)
		}
		if res.Probability != 25 {
			t.Fatalf("expected 25%%, got %+v", res)
		}
	})
}

func TestReachCycles(t *testing.T) {
	ctx := context.Background()

	t.Run("two objects made from each other", func(t *testing.T) {
		g := newFakeGraph()
		g.recipeFor(500, 500, 501)
		g.recipeFor(501, 501, 500)
		engine := New(g, nil)

		for _, vnum := range []int{500, 501} {
			res, err := engine.Reach(ctx, vnum)
			if err != nil {
				t.Fatalf("reach %d: %v", vnum, err)
			}
			if res.Reachable || res.Probability != 0 {
				t.Fatalf("expected %d unreachable, got %+v", vnum, res)
			}
		}
	})

	t.Run("cycle does not hide a placement site", func(t *testing.T) {
		g := newFakeGraph()
		g.recipeFor(500, 500, 501)
		g.recipeFor(501, 501, 500)
		g.roomSite(501, 60)

		res, err := New(g, nil).Reach(ctx, 500)
		if err != nil {
			t.Fatalf("reach: %v", err)
		}
		if res.Probability != 60 {
			t.Fatalf("expected 60%%, got %+v", res)
		}
	})

	t.Run("object required by its own recipe", func(t *testing.T) {
		g := newFakeGraph()
		g.recipeFor(500, 500, 500)

		res, err := New(g, nil).Reach(ctx, 500)
		if err != nil {
			t.Fatalf("reach: %v", err)
		}
		if res.Reachable {
			t.Fatalf("expected unreachable, got %+v", res)
		}
	})
}

func TestReachDeepChain(t *testing.T) {
	const depth = 100000
	g := newFakeGraph()
	for i := 0; i < depth; i++ {
		g.recipeFor(i, i, i+1)
	}
	g.roomSite(depth, 80)

	res, err := New(g, nil).Reach(context.Background(), 0)
	if err != nil {
		t.Fatalf("reach: %v", err)
	}
	if !res.Reachable || res.Probability != 80 {
		t.Fatalf("expected 80%%, got %+v", res)
	}
}

func TestReachMonotonic(t *testing.T) {
	ctx := context.Background()
	g := newFakeGraph()
	g.roomSite(200, 50)
	g.roomSite(201, 80)
	g.recipeFor(300, 300, 200, 201)
	engine := New(g, nil)

	before, err := engine.Reach(ctx, 300)
	if err != nil {
		t.Fatalf("reach: %v", err)
	}

	g.roomSite(300, 70)
	after, err := engine.Reach(ctx, 300)
	if err != nil {
		t.Fatalf("reach: %v", err)
	}
	if after.Probability < before.Probability || after.Probability != 70 {
		t.Fatalf("adding a better site lowered probability: %v -> %v", before.Probability, after.Probability)
	}

	g2 := newFakeGraph()
	g2.roomSite(200, 50)
	g2.roomSite(201, 20)
	g2.recipeFor(300, 300, 200, 201)
	lowered, err := New(g2, nil).Reach(ctx, 300)
	if err != nil {
		t.Fatalf("reach: %v", err)
	}
	if lowered.Probability > before.Probability {
		t.Fatalf("lowering a part raised probability: %v -> %v", before.Probability, lowered.Probability)
	}
}

func TestReachZeroProbabilitySite(t *testing.T) {
	g := newFakeGraph()
	g.roomSite(200, 0)

	res, err := New(g, nil).Reach(context.Background(), 200)
	if err != nil {
		t.Fatalf("reach: %v", err)
	}
	if res.Reachable || res.Basis != BasisStructural {
		t.Fatalf("expected structural unreachable, got %+v", res)
	}
}

func TestReachHeuristic(t *testing.T) {
	ctx := context.Background()
	script := func(vnum int, code string) store.Entity {
		return store.Entity{Kind: world.KindScript, Vnum: vnum, Zone: 5, Extra: map[string]any{"code": code}}
	}

	tests := []struct {
		name     string
		entities []store.Entity
		spawns   bool
		tier     Tier
		hints    int
	}{
		{
			name:     "direct creation",
			entities: []store.Entity{script(10, "oload 500\nsay hello")},
			tier:     TierDirect,
			hints:    1,
		},
		{
			name:     "conditional creation",
			entities: []store.Entity{script(10, "if %random.10% < 3\n  oload 500\nend")},
			tier:     TierConditional,
			hints:    1,
		},
		{
			name:     "mention only",
			entities: []store.Entity{script(10, "set price 500")},
			tier:     TierReferenced,
			hints:    1,
		},
		{
			name:     "strongest tier first",
			entities: []store.Entity{script(10, "set price 500"), script(11, "give 500 %actor%")},
			tier:     TierDirect,
			hints:    2,
		},
		{
			name: "special procedure on a spawned mobile",
			entities: []store.Entity{
				{Kind: world.KindMobile, Vnum: 520, Zone: 5, Extra: map[string]any{"spec_proc": "blacksmith"}},
			},
			spawns: true,
			tier:   TierReferenced,
			hints:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newFakeGraph()
			g.addEntity(store.Entity{Kind: world.KindObject, Vnum: 500, Zone: 5})
			for _, e := range tt.entities {
				g.addEntity(e)
			}
			if tt.spawns {
				g.addEdge(store.Edge{Src: mob(520), Dst: room(510), Relation: store.RelSpawnsIn, Zone: 5})
			}

			res, err := New(g, nil).Reach(ctx, 500)
			if err != nil {
				t.Fatalf("reach: %v", err)
			}
			if !res.Reachable || res.Basis != BasisHeuristic || res.Probability != 0 {
				t.Fatalf("expected heuristic result, got %+v", res)
			}
			if res.Tier != tt.tier || len(res.Hints) != tt.hints {
				t.Fatalf("expected tier %q with %d hints, got %q %+v", tt.tier, tt.hints, res.Tier, res.Hints)
			}
		})
	}

	t.Run("nothing found", func(t *testing.T) {
		g := newFakeGraph()
		g.addEntity(store.Entity{Kind: world.KindObject, Vnum: 500, Zone: 5})
		g.addEntity(script(10, "oload 5001"))
		g.addEntity(store.Entity{Kind: world.KindMobile, Vnum: 520, Zone: 5, Extra: map[string]any{"spec_proc": "guard"}})

		res, err := New(g, nil).Reach(ctx, 500)
		if err != nil {
			t.Fatalf("reach: %v", err)
		}
		if res.Reachable || res.Basis != BasisNone {
			t.Fatalf("expected nothing found, got %+v", res)
		}
	})

	t.Run("heuristic part does not satisfy a recipe", func(t *testing.T) {
		g := newFakeGraph()
		g.addEntity(script(10, "oload 500"))
		g.recipeFor(600, 600, 500)

		res, err := New(g, nil).Reach(ctx, 600)
		if err != nil {
			t.Fatalf("reach: %v", err)
		}
		if res.Reachable {
			t.Fatalf("expected unreachable recipe, got %+v", res)
		}
	})
}

func TestLoadLocations(t *testing.T) {
	g := newFakeGraph()
	g.addEdge(store.Edge{Src: obj(200), Dst: room(150), Relation: store.RelLoadsIn, Zone: 100, Context: map[string]any{"prob": 30}})
	g.addEdge(store.Edge{Src: obj(200), Dst: mob(100), Relation: store.RelEquipsOn, Zone: 100, Context: map[string]any{"prob": 50}})
	g.addEdge(store.Edge{Src: obj(200), Dst: mob(101), Relation: store.RelCarriedBy, Zone: 101, Context: map[string]any{"prob": "75"}})
	g.addEdge(store.Edge{Src: obj(200), Dst: obj(210), Relation: store.RelContainedIn, Zone: 100})
	g.addEdge(store.Edge{Src: mob(100), Dst: obj(200), Relation: store.RelHasEquipment, Zone: 100})
	g.addEdge(store.Edge{Src: mob(102), Dst: obj(200), Relation: store.RelRepop, Zone: 102, Context: map[string]any{"prob": 250}})
	g.addEdge(store.Edge{Src: obj(200), Dst: room(151), Relation: store.RelRepop, Zone: 100})
	g.addEdge(store.Edge{Src: obj(200), Dst: store.EntityRef{Kind: world.KindRoom, Vnum: store.NoVnum}, Relation: store.RelLoadsIn, Zone: 100})
	g.addEdge(store.Edge{Src: store.EntityRef{Kind: world.KindZone, Vnum: 100}, Dst: obj(200), Relation: store.RelZoneLoad, Zone: 100})

	locs, err := New(g, nil).LoadLocations(context.Background(), 200)
	if err != nil {
		t.Fatalf("load locations: %v", err)
	}

	got := make([]string, 0, len(locs))
	for _, l := range locs {
		got = append(got, l.String())
	}
	want := []string{
		"equipped on mobile 100, 100%",
		"in container 210, 100%",
		"repop on mobile 102, 100%",
		"in inventory of mobile 101, 75%",
		"in room 150, 30%",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("locations mismatch (-want +got):\n%s", diff)
	}

	kinds := make([]LocationKind, 0, len(locs))
	for _, l := range locs {
		kinds = append(kinds, l.Kind)
	}
	wantKinds := []LocationKind{LocationEquipment, LocationContainer, LocationRepop, LocationInventory, LocationRoom}
	if diff := cmp.Diff(wantKinds, kinds); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}
}
