package sqlite

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"mudgraph/internal/parser"
	"mudgraph/internal/store"
	"mudgraph/internal/world"
)

func openTestClient(t *testing.T) *Client {
	t.Helper()
	ctx := context.Background()
	c, err := New(ctx, "sqlite://"+filepath.Join(t.TempDir(), "cache", "lut.sqlite"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { c.Close(ctx) })
	if err := c.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensuring schema: %v", err)
	}
	return c
}

func writeRows(t *testing.T, c *Client, fn func(store.Tx) error) {
	t.Helper()
	ctx := context.Background()
	w, err := c.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := fn(w); err != nil {
		w.Rollback()
		t.Fatalf("writing rows: %v", err)
	}
	if err := w.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
}

func seed(t *testing.T, c *Client) {
	t.Helper()
	ctx := context.Background()
	writeRows(t, c, func(w store.Tx) error {
		for _, e := range []store.Entity{
			{Kind: world.KindMobile, Vnum: 100, Zone: 1, SourcePath: "1/mobile/100.json", Name: "the city guard", Keywords: "guard city",
				Extra: map[string]any{"spec_proc": "guild_guard"}},
			{Kind: world.KindObject, Vnum: 200, Zone: 1, SourcePath: "1/object/200.json", Name: "a rusty sword", Keywords: "sword rusty"},
			{Kind: world.KindRoom, Vnum: 150, Zone: 1, SourcePath: "1/room/150.json", Name: "The Gate"},
		} {
			if err := w.UpsertEntity(ctx, e); err != nil {
				return err
			}
		}
		if err := w.InsertEdges(ctx, []store.Edge{
			{SourcePath: "1/1.json", Src: store.EntityRef{Kind: world.KindObject, Vnum: 200}, Dst: store.EntityRef{Kind: world.KindMobile, Vnum: 100},
				Relation: store.RelEquipsOn, Zone: 1, Context: map[string]any{"prob": 50, "slot": 16}},
			{SourcePath: "1/1.json", Src: store.EntityRef{Kind: world.KindMobile, Vnum: 100}, Dst: store.EntityRef{Kind: world.KindRoom, Vnum: 150},
				Relation: store.RelSpawnsIn, Zone: 1},
			{SourcePath: "1/room/150.json", Src: store.EntityRef{Kind: world.KindRoom, Vnum: 150}, Dst: store.EntityRef{Kind: world.KindRoom, Vnum: store.NoVnum},
				Relation: store.RelExit, Zone: 1, Context: map[string]any{"dir": "up"}},
			{SourcePath: "1/room/150.json", Src: store.EntityRef{Kind: world.KindRoom, Vnum: 150}, Dst: store.EntityRef{Kind: world.KindRoom, Vnum: 151},
				Relation: store.RelExit, Zone: 1, Context: map[string]any{"dir": "north"}},
		}); err != nil {
			return err
		}
		one := 1
		if err := w.InsertZoneCommands(ctx, []store.ZoneCommand{
			{SourcePath: "1/1.json", Zone: 1, Index: 0, Code: "M", Arg1: &one, Raw: map[string]any{"cmd": "M"}},
			{SourcePath: "1/1.json", Zone: 1, Index: 2, Code: "E"},
		}); err != nil {
			return err
		}
		for _, fs := range []store.FileState{
			{Path: "1/1.json", MTime: 10, Size: 20},
			{Path: "1/room/150.json", MTime: 11, Size: 21, Hash: "abc"},
			{Path: "1/mobile/100.json", MTime: 12, Size: 22},
			{Path: "1/object/200.json", MTime: 13, Size: 23},
		} {
			if err := w.UpsertFileState(ctx, fs); err != nil {
				return err
			}
		}
		return w.InsertParseError(ctx, store.ParseError{SourcePath: "1/object/bad.json", Zone: 1, Kind: world.KindObject, Message: "invalid JSON"})
	})
}

func TestEnsureSchemaIsRepeatable(t *testing.T) {
	c := openTestClient(t)
	if err := c.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("second EnsureSchema: %v", err)
	}
}

func TestEntityRoundTrip(t *testing.T) {
	c := openTestClient(t)
	seed(t, c)
	ctx := context.Background()

	got, err := c.GetEntity(ctx, world.KindMobile, 100)
	if err != nil {
		t.Fatalf("get entity: %v", err)
	}
	if got == nil || got.Name != "the city guard" || got.Extra["spec_proc"] != "guild_guard" {
		t.Fatalf("unexpected entity: %+v", got)
	}

	missing, err := c.GetEntity(ctx, world.KindMobile, 999)
	if err != nil || missing != nil {
		t.Fatalf("expected nil for missing entity, got %+v, %v", missing, err)
	}

	withSpec, err := c.EntitiesWithExtra(ctx, world.KindMobile, "spec_proc")
	if err != nil || len(withSpec) != 1 {
		t.Fatalf("expected one mobile with spec_proc, got %d, %v", len(withSpec), err)
	}

	zone := 1
	list, err := c.ListEntities(ctx, world.KindObject, &zone)
	if err != nil {
		t.Fatalf("list entities: %v", err)
	}
	want := []store.EntitySummary{{Kind: world.KindObject, Vnum: 200, Zone: 1, Name: "a rusty sword"}}
	if diff := cmp.Diff(want, list); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}
}

func TestEdgeQueries(t *testing.T) {
	c := openTestClient(t)
	seed(t, c)
	ctx := context.Background()

	to, err := c.EdgesTo(ctx, store.EntityRef{Kind: world.KindMobile, Vnum: 100}, store.RelEquipsOn)
	if err != nil {
		t.Fatalf("edges to: %v", err)
	}
	if len(to) != 1 || to[0].Src.Vnum != 200 || !probIs(to[0], 50) {
		t.Fatalf("unexpected edges: %+v", to)
	}

	from, err := c.EdgesFrom(ctx, store.EntityRef{Kind: world.KindRoom, Vnum: 150}, "")
	if err != nil {
		t.Fatalf("edges from: %v", err)
	}
	if len(from) != 2 || from[0].HasDst() || from[1].Dst.Vnum != 151 {
		t.Fatalf("unexpected exits: %+v", from)
	}

	dangling, err := c.DanglingEdges(ctx)
	if err != nil {
		t.Fatalf("dangling edges: %v", err)
	}
	if len(dangling) != 1 || dangling[0].Dst.Vnum != 151 {
		t.Fatalf("expected the exit to 151 to dangle, got %+v", dangling)
	}

	err = func() error {
		w, err := c.Begin(ctx)
		if err != nil {
			return err
		}
		defer w.Rollback()
		return w.InsertEdges(ctx, []store.Edge{{Relation: "teleports_to"}})
	}()
	if err == nil {
		t.Fatalf("expected unknown relation to be rejected")
	}
}

func TestZoneCommandsAndErrors(t *testing.T) {
	c := openTestClient(t)
	seed(t, c)
	ctx := context.Background()

	cmds, err := c.ZoneCommands(ctx, 1)
	if err != nil {
		t.Fatalf("zone commands: %v", err)
	}
	if len(cmds) != 2 || cmds[0].Code != "M" || *cmds[0].Arg1 != 1 || cmds[1].Arg1 != nil || cmds[1].Index != 2 {
		t.Fatalf("unexpected zone commands: %+v", cmds)
	}

	zones, err := c.CommandZones(ctx)
	if err != nil || len(zones) != 1 || zones[0] != 1 {
		t.Fatalf("unexpected command zones %v, %v", zones, err)
	}

	errs, err := c.ParseErrors(ctx)
	if err != nil || len(errs) != 1 || errs[0].Message != "invalid JSON" {
		t.Fatalf("unexpected parse errors %+v, %v", errs, err)
	}
}

func TestDeleteBySourceAndPrune(t *testing.T) {
	c := openTestClient(t)
	seed(t, c)
	ctx := context.Background()

	removed, err := c.RemoveMissingFiles(ctx, []string{"1/1.json", "1/mobile/100.json", "1/object/200.json"})
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected one stale file, got %d", removed)
	}
	if e, _ := c.GetEntity(ctx, world.KindRoom, 150); e != nil {
		t.Fatalf("expected room removed with its file")
	}
	from, _ := c.EdgesFrom(ctx, store.EntityRef{Kind: world.KindRoom, Vnum: 150}, store.RelExit)
	if len(from) != 0 {
		t.Fatalf("expected exits removed with their file, got %d", len(from))
	}
	states, err := c.FileStates(ctx)
	if err != nil {
		t.Fatalf("file states: %v", err)
	}
	if _, ok := states["1/room/150.json"]; ok || len(states) != 3 {
		t.Fatalf("unexpected file states after prune: %v", states)
	}
}

func TestSearchAndStats(t *testing.T) {
	c := openTestClient(t)
	seed(t, c)
	ctx := context.Background()

	results, err := c.Search(ctx, "sword", "")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].Vnum != 200 || results[0].Kind != world.KindObject {
		t.Fatalf("unexpected search results: %+v", results)
	}
	results, err = c.Search(ctx, "guard", world.KindObject)
	if err != nil || len(results) != 0 {
		t.Fatalf("expected kind filter to exclude mobiles, got %+v, %v", results, err)
	}

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := c.RecordRun(ctx, store.BuildRun{ID: "run-1", StartedAt: now, FinishedAt: now.Add(time.Second), Mode: "incremental", Entities: 3}); err != nil {
		t.Fatalf("record run: %v", err)
	}

	st, err := c.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.Tables["entity"] != 3 || st.Tables["edge"] != 4 || st.Kinds[world.KindMobile] != 1 {
		t.Fatalf("unexpected stats: %+v", st)
	}
	if st.LastRun == nil || st.LastRun.ID != "run-1" || !st.LastRun.StartedAt.Equal(now) {
		t.Fatalf("unexpected last run: %+v", st.LastRun)
	}

	rows, err := c.RunSQL(ctx, "SELECT name FROM entity WHERE vnum = ?", map[string]any{"1": 150})
	if err != nil || len(rows) != 1 || rows[0]["name"] != "The Gate" {
		t.Fatalf("unexpected sql rows %v, %v", rows, err)
	}
}

func TestReset(t *testing.T) {
	c := openTestClient(t)
	seed(t, c)
	ctx := context.Background()
	if err := c.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	st, err := c.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	for _, table := range indexTables {
		if st.Tables[table] != 0 {
			t.Fatalf("expected %s empty after reset, got %d", table, st.Tables[table])
		}
	}
	results, err := c.Search(ctx, "sword", "")
	if err != nil || len(results) != 0 {
		t.Fatalf("expected empty search index after reset, got %+v, %v", results, err)
	}
}

func TestParseDSN(t *testing.T) {
	tests := []struct {
		dsn      string
		wantDSN  string
		wantPath string
		wantErr  bool
	}{
		{dsn: "sqlite:///srv/lut.sqlite", wantDSN: "/srv/lut.sqlite", wantPath: "/srv/lut.sqlite"},
		{dsn: "sqlite://lut.sqlite", wantDSN: "./lut.sqlite", wantPath: "./lut.sqlite"},
		{dsn: "sqlite://:memory:", wantDSN: ":memory:"},
		{dsn: "/tmp/x.sqlite?_pragma=foreign_keys(1)", wantDSN: "/tmp/x.sqlite?_pragma=foreign_keys(1)", wantPath: "/tmp/x.sqlite"},
		{dsn: "../cache/lut.sqlite", wantDSN: "../cache/lut.sqlite", wantPath: "../cache/lut.sqlite"},
		{dsn: "postgres://localhost/db", wantErr: true},
		{dsn: "sqlite://", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.dsn, func(t *testing.T) {
			gotDSN, gotPath, err := parseDSN(tt.dsn)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseDSN: %v", err)
			}
			if gotDSN != tt.wantDSN || gotPath != tt.wantPath {
				t.Fatalf("parseDSN(%q) = %q, %q; want %q, %q", tt.dsn, gotDSN, gotPath, tt.wantDSN, tt.wantPath)
			}
		})
	}
}

func TestSplitStatementsKeepsTriggers(t *testing.T) {
	stmts := splitStatements(ddl)
	for _, s := range stmts {
		if strings.Contains(s, "CREATE TRIGGER") && !strings.Contains(s, "END;") {
			t.Fatalf("trigger split mid-body:\n%s", s)
		}
	}
}

func probIs(e store.Edge, want int) bool {
	got, ok := parser.Int(e.Context["prob"])
	return ok && got == want
}
