package parser

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"mudgraph/internal/world"
)

func TestParse(t *testing.T) {
	t.Run("zone with commands", func(t *testing.T) {
		content := []byte(`{"zone": 30, "name": "Midgaard", "top": 3099, "lifespan": 15,
			"cmds": [
				{"cmd": "M", "arg1": 3005, "arg2": 1, "arg3": 3001, "prob": 100},
				"garbage",
				{"cmd": ""},
				{"cmd": "E", "arg1": "3020", "arg3": 16, "flag": 1}
			]}`)
		rec, err := Parse(world.KindZone, content, "30.json", 30)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if rec.Vnum != 30 || rec.Name != "Midgaard" {
			t.Fatalf("unexpected record: %+v", rec)
		}
		zone, ok := rec.Data.(*Zone)
		if !ok {
			t.Fatalf("expected *Zone, got %T", rec.Data)
		}
		if zone.Top == nil || *zone.Top != 3099 {
			t.Fatalf("unexpected top: %v", zone.Top)
		}
		if len(zone.Commands) != 2 {
			t.Fatalf("expected 2 commands, got %d", len(zone.Commands))
		}
		equip := zone.Commands[1]
		if equip.Index != 3 || equip.Code != "E" || *equip.Arg1 != 3020 || equip.Arg2 != nil || *equip.IfFlag != 1 {
			t.Fatalf("unexpected equip command: %+v", equip)
		}
		if _, ok := rec.Extra["lifespan"]; !ok {
			t.Fatalf("expected lifespan in extra")
		}
	})

	t.Run("room exits in dict form", func(t *testing.T) {
		content := []byte(`{"vnum": 3001, "name": "Temple", "exits": {
			"south": {"to_room": 3005},
			"north": {"toRoom": "3000", "keyword": "gate"},
			"up": {"description": "sky"},
			"down": "bogus"
		}, "scripts": [3000, "3001", "x"]}`)
		rec, err := Parse(world.KindRoom, content, "3001.json", 30)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		room := rec.Data.(*Room)
		if len(room.Exits) != 3 {
			t.Fatalf("expected 3 exits, got %d", len(room.Exits))
		}
		dirs := []string{room.Exits[0].Dir, room.Exits[1].Dir, room.Exits[2].Dir}
		if !reflect.DeepEqual(dirs, []string{"north", "south", "up"}) {
			t.Fatalf("expected sorted exits, got %v", dirs)
		}
		if *room.Exits[0].To != 3000 || *room.Exits[1].To != 3005 {
			t.Fatalf("unexpected exit targets: %+v", room.Exits)
		}
		if room.Exits[2].To != nil {
			t.Fatalf("expected nil target for exit without destination")
		}
		if !reflect.DeepEqual(room.Scripts, []int{3000, 3001}) {
			t.Fatalf("unexpected scripts: %v", room.Scripts)
		}
	})

	t.Run("room exits in list form", func(t *testing.T) {
		content := []byte(`{"vnum": 3002, "exits": [{"direction": "east", "to": 3003}, {"to_room": 3004}]}`)
		rec, err := Parse(world.KindRoom, content, "3002.json", 30)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		room := rec.Data.(*Room)
		if len(room.Exits) != 2 || room.Exits[0].Dir != "east" || room.Exits[1].Dir != "" {
			t.Fatalf("unexpected exits: %+v", room.Exits)
		}
	})

	t.Run("mobile names and loadout", func(t *testing.T) {
		content := []byte(`{"vnum": 3005, "name": "guard cityguard", "long_descr": "A guard stands here.",
			"spec_proc": " cityguard ",
			"repops": [{"command": "E", "vnum": 3020, "percent": 50}, {"cmd": "G", "obj": 3021}, {"vnum": 1}],
			"inventory": [3022],
			"equipment": [{"id": 3023, "pos": 5}, 3024, "junk"]}`)
		rec, err := Parse(world.KindMobile, content, "3005.json", 30)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if rec.Keywords != "guard cityguard" || rec.ShortDescr != "A guard stands here." || rec.Name != rec.ShortDescr {
			t.Fatalf("unexpected naming: %+v", rec)
		}
		mob := rec.Data.(*Mobile)
		if mob.SpecProc != "cityguard" {
			t.Fatalf("unexpected spec proc %q", mob.SpecProc)
		}
		if len(mob.Repops) != 2 || mob.Repops[0].Percent != 50 || mob.Repops[1].Percent != 100 || mob.Repops[1].Vnum != 3021 {
			t.Fatalf("unexpected repops: %+v", mob.Repops)
		}
		if !reflect.DeepEqual(mob.Inventory, []int{3022}) {
			t.Fatalf("unexpected inventory: %v", mob.Inventory)
		}
		if len(mob.Equipment) != 2 || mob.Equipment[0].Vnum != 3023 || mob.Equipment[1].Vnum != 3024 {
			t.Fatalf("unexpected equipment: %+v", mob.Equipment)
		}
	})

	t.Run("object contents and naming", func(t *testing.T) {
		content := []byte(`{"vnum": 3010, "name": "bag sack", "short_desc": "a small bag", "contains": [3011], "items": ["3012"], "weight": 2}`)
		rec, err := Parse(world.KindObject, content, "3010.json", 30)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if rec.Name != "a small bag" || rec.Keywords != "bag sack" {
			t.Fatalf("unexpected naming: %+v", rec)
		}
		obj := rec.Data.(*Object)
		want := []Content{{Key: "contains", Vnum: 3011}, {Key: "items", Vnum: 3012}}
		if !reflect.DeepEqual(obj.Contents, want) {
			t.Fatalf("unexpected contents: %+v", obj.Contents)
		}
		if _, ok := rec.Extra["weight"]; !ok {
			t.Fatalf("expected weight in extra")
		}
	})

	t.Run("assemble products", func(t *testing.T) {
		content := []byte(`{"vnum": 4000, "keywords": ["iron", " ", "sword"], "parts": [4001, 4002], "result": 4005, "produces": 4005}`)
		rec, err := Parse(world.KindAssemble, content, "4000.json", 40)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if rec.Name != "iron sword" {
			t.Fatalf("unexpected name %q", rec.Name)
		}
		asm := rec.Data.(*Assemble)
		want := []Product{{Key: "result", Vnum: 4005}}
		if !reflect.DeepEqual(asm.Results, want) {
			t.Fatalf("unexpected results: %+v", asm.Results)
		}
		if !reflect.DeepEqual(asm.Parts, []int{4001, 4002}) {
			t.Fatalf("unexpected parts: %v", asm.Parts)
		}
	})

	t.Run("assemble defaults to own vnum", func(t *testing.T) {
		rec, err := Parse(world.KindAssemble, []byte(`{"vnum": 4010, "parts": [4001]}`), "4010.json", 40)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		want := []Product{{Key: "vnum", Vnum: 4010}}
		if got := rec.Data.(*Assemble).Results; !reflect.DeepEqual(got, want) {
			t.Fatalf("unexpected results: %+v", got)
		}
	})

	t.Run("script and shop", func(t *testing.T) {
		rec, err := Parse(world.KindScript, []byte(`{"vnum": 50, "title": "greet", "code": "oload 3010"}`), "50.json", 0)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if rec.Name != "greet" || rec.Data.(*Script).Code != "oload 3010" {
			t.Fatalf("unexpected script: %+v", rec)
		}

		rec, err = Parse(world.KindShop, []byte(`{"keeper": 3005, "rooms": [3001, 3002]}`), "7.json", 30)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		shop := rec.Data.(*Shop)
		if rec.Vnum != 7 || rec.Name != "Shop 7" || *shop.Keeper != 3005 || len(shop.Rooms) != 2 {
			t.Fatalf("unexpected shop: %+v %+v", rec, shop)
		}
	})

	t.Run("vnum falls back to id then file name", func(t *testing.T) {
		rec, err := Parse(world.KindRoom, []byte(`{"id": "3050"}`), "9999.json", 30)
		if err != nil || rec.Vnum != 3050 {
			t.Fatalf("expected id vnum, got %+v %v", rec, err)
		}
		rec, err = Parse(world.KindRoom, []byte(`{"name": "x"}`), "3051.json", 30)
		if err != nil || rec.Vnum != 3051 {
			t.Fatalf("expected stem vnum, got %+v %v", rec, err)
		}
	})

	t.Run("zone field overrides hint", func(t *testing.T) {
		rec, err := Parse(world.KindRoom, []byte(`{"vnum": 3001, "zone": 31, "lastEdited": 1700000000}`), "3001.json", 30)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if rec.Zone != 31 || rec.LastEdited != "1700000000" {
			t.Fatalf("unexpected record: %+v", rec)
		}
	})

	t.Run("missing vnum", func(t *testing.T) {
		_, err := Parse(world.KindRoom, []byte(`{"name": "x"}`), "lobby.json", 30)
		if !errors.Is(err, ErrMissingVnum) {
			t.Fatalf("expected ErrMissingVnum, got %v", err)
		}
	})

	t.Run("truncated json", func(t *testing.T) {
		_, err := Parse(world.KindRoom, []byte(`{"vnum": 3001, "name": "Tem`), "3001.json", 30)
		if !errors.Is(err, ErrInvalidJSON) {
			t.Fatalf("expected ErrInvalidJSON, got %v", err)
		}
	})

	t.Run("trailing data", func(t *testing.T) {
		_, err := Parse(world.KindRoom, []byte(`{"vnum": 1} {"vnum": 2}`), "1.json", 0)
		if !errors.Is(err, ErrInvalidJSON) {
			t.Fatalf("expected ErrInvalidJSON, got %v", err)
		}
	})

	t.Run("not an object", func(t *testing.T) {
		_, err := Parse(world.KindRoom, []byte(`[1, 2]`), "1.json", 0)
		if !errors.Is(err, ErrNotObject) {
			t.Fatalf("expected ErrNotObject, got %v", err)
		}
	})

	t.Run("byte order mark", func(t *testing.T) {
		rec, err := Parse(world.KindRoom, append([]byte("\ufeff"), []byte(`{"vnum": 5}`)...), "5.json", 0)
		if err != nil || rec.Vnum != 5 {
			t.Fatalf("expected BOM to be ignored, got %+v %v", rec, err)
		}
	})
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "3001.json")
	if err := os.WriteFile(path, []byte(`{"name": "Temple"}`), 0o600); err != nil {
		t.Fatalf("writing file: %v", err)
	}
	rec, err := ParseFile(world.KindRoom, path, 30)
	if err != nil {
		t.Fatalf("parse file: %v", err)
	}
	if rec.Vnum != 3001 || rec.Zone != 30 {
		t.Fatalf("unexpected record: %+v", rec)
	}

	if _, err := ParseFile(world.KindRoom, filepath.Join(t.TempDir(), "missing.json"), 30); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not exist, got %v", err)
	}
}

func TestInt(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want int
		ok   bool
	}{
		{name: "nil", in: nil},
		{name: "true", in: true, want: 1, ok: true},
		{name: "number", in: json.Number("42"), want: 42, ok: true},
		{name: "fractional number", in: json.Number("4.5")},
		{name: "padded string", in: " 17 ", want: 17, ok: true},
		{name: "blank string", in: "  "},
		{name: "word", in: "north"},
		{name: "list", in: []any{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Int(tt.in)
			if ok != tt.ok || got != tt.want {
				t.Fatalf("Int(%#v) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}
