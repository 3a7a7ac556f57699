// Package xref turns parsed entity records into persisted-index rows: the
// entity itself, its typed edges, zone reset commands and deep references.
package xref

import (
	"encoding/json"
	"fmt"

	"mudgraph/internal/config"
	"mudgraph/internal/parser"
	"mudgraph/internal/store"
	"mudgraph/internal/world"
	"mudgraph/internal/zonecmd"
)

type Options struct {
	// DeepRefs is one of config.DeepRefsScripts, DeepRefsAll or DeepRefsNone.
	DeepRefs string
	StoreRaw bool
}

// Rows holds everything one source file contributes to the index.
type Rows struct {
	Entity       store.Entity
	Edges        []store.Edge
	ZoneCommands []store.ZoneCommand
	Refs         []store.Ref
}

func (r *Rows) Len() int {
	return 1 + len(r.Edges) + len(r.ZoneCommands) + len(r.Refs)
}

// Build derives the rows for one parsed record. relPath is the record's
// path relative to the world root and is stamped on every row.
func Build(rec *parser.Record, relPath string, opts Options) (*Rows, error) {
	rows := &Rows{Entity: entityRow(rec, relPath)}
	if opts.StoreRaw {
		raw, err := json.Marshal(rec.Raw)
		if err != nil {
			return nil, fmt.Errorf("encoding raw %s %d: %w", rec.Kind, rec.Vnum, err)
		}
		rows.Entity.Raw = string(raw)
	}

	e := &emitter{path: relPath, zone: rec.Zone, src: store.EntityRef{Kind: rec.Kind, Vnum: rec.Vnum}}
	switch v := rec.Data.(type) {
	case *parser.Zone:
		e.zone = rec.Vnum
		rows.ZoneCommands = zoneCommandRows(relPath, rec.Vnum, v.Commands)
		events, _ := zonecmd.Interpret(rec.Vnum, v.Commands)
		b := &eventEdges{emitter: e}
		for i := range events {
			zonecmd.Dispatch(b, &events[i])
		}
	case *parser.Room:
		for _, ex := range v.Exits {
			dst := store.NoVnum
			if ex.To != nil {
				dst = *ex.To
			}
			e.emit(world.KindRoom, dst, store.RelExit, map[string]any{"dir": ex.Dir})
		}
		e.scripts(v.Scripts)
	case *parser.Object:
		e.scripts(v.Scripts)
		for _, c := range v.Contents {
			e.emit(world.KindObject, c.Vnum, store.RelContains, map[string]any{"key": c.Key})
		}
	case *parser.Mobile:
		e.scripts(v.Scripts)
		for _, r := range v.Repops {
			e.emit(world.KindObject, r.Vnum, store.RelRepop, map[string]any{
				"command": r.Command,
				"percent": r.Percent,
				"prob":    clamp(r.Percent),
			})
		}
		for _, vnum := range v.Inventory {
			e.emit(world.KindObject, vnum, store.RelHasInventory, nil)
		}
		for _, eq := range v.Equipment {
			var ctx map[string]any
			if slot, ok := parser.Int(eq.Fields["wear"]); ok {
				ctx = map[string]any{"slot": slot}
			}
			e.emit(world.KindObject, eq.Vnum, store.RelHasEquipment, ctx)
		}
	case *parser.Assemble:
		for _, p := range v.Results {
			e.emit(world.KindObject, p.Vnum, store.RelProduces, map[string]any{"key": p.Key})
		}
		for _, part := range v.Parts {
			e.emit(world.KindObject, part, store.RelRequiresPart, nil)
		}
	case *parser.Shop:
		if v.Keeper != nil {
			e.emit(world.KindMobile, *v.Keeper, store.RelShopKeeper, nil)
		}
		for _, room := range v.Rooms {
			e.emit(world.KindRoom, room, store.RelShopRoom, nil)
		}
	case *parser.Script:
	default:
		return nil, fmt.Errorf("building rows for %s %d: unexpected record payload %T", rec.Kind, rec.Vnum, rec.Data)
	}

	if deepRefsEnabled(opts.DeepRefs, rec.Kind) {
		for _, ki := range walkKeyedInts(rec.Raw) {
			guess := GuessKind(ki.key)
			rows.Refs = append(rows.Refs, store.Ref{
				SourcePath: relPath,
				Src:        e.src,
				KeyPath:    ki.path,
				Guess:      guess,
				DstVnum:    ki.value,
				Context:    map[string]any{"key": ki.key},
			})
			if rec.Kind == world.KindScript && guess != GuessAny {
				e.emit(world.Kind(guess), ki.value, store.RefRelation(ki.key), map[string]any{"keypath": ki.path})
			}
		}
	}

	rows.Edges = e.edges
	return rows, nil
}

func entityRow(rec *parser.Record, relPath string) store.Entity {
	return store.Entity{
		Kind:       rec.Kind,
		Vnum:       rec.Vnum,
		Zone:       rec.Zone,
		SourcePath: relPath,
		Name:       rec.Name,
		Keywords:   rec.Keywords,
		ShortDescr: rec.ShortDescr,
		LastEdited: rec.LastEdited,
		Extra:      rec.Extra,
	}
}

func zoneCommandRows(relPath string, zone int, cmds []parser.Command) []store.ZoneCommand {
	out := make([]store.ZoneCommand, 0, len(cmds))
	for _, c := range cmds {
		out = append(out, store.ZoneCommand{
			SourcePath: relPath,
			Zone:       zone,
			Index:      c.Index,
			Code:       c.Code,
			Prob:       c.Prob,
			IfFlag:     c.IfFlag,
			Arg1:       c.Arg1,
			Arg2:       c.Arg2,
			Arg3:       c.Arg3,
			Raw:        c.Fields,
		})
	}
	return out
}

func deepRefsEnabled(mode string, kind world.Kind) bool {
	switch mode {
	case config.DeepRefsAll:
		return true
	case config.DeepRefsScripts:
		return kind == world.KindScript
	}
	return false
}

func clamp(p int) int {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}

type emitter struct {
	path  string
	zone  int
	src   store.EntityRef
	edges []store.Edge
}

func (e *emitter) emit(kind world.Kind, vnum int, rel string, ctx map[string]any) {
	e.emitFrom(e.src, kind, vnum, rel, ctx)
}

func (e *emitter) emitFrom(src store.EntityRef, kind world.Kind, vnum int, rel string, ctx map[string]any) {
	e.edges = append(e.edges, store.Edge{
		SourcePath: e.path,
		Src:        src,
		Dst:        store.EntityRef{Kind: kind, Vnum: vnum},
		Relation:   rel,
		Zone:       e.zone,
		Context:    ctx,
	})
}

func (e *emitter) scripts(vnums []int) {
	for _, vnum := range vnums {
		e.emit(world.KindScript, vnum, store.RelHasScript, nil)
	}
}
