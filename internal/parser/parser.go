package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"mudgraph/internal/world"
)

var (
	ErrInvalidJSON = errors.New("invalid JSON")
	ErrNotObject   = errors.New("top-level JSON value is not an object")
	ErrMissingVnum = errors.New("no vnum in document or file name")
)

type Record struct {
	Kind       world.Kind
	Vnum       int
	Zone       int
	Name       string
	Keywords   string
	ShortDescr string
	LastEdited string
	Extra      map[string]any
	Raw        map[string]any
	Data       Variant
}

// extraKeys are copied verbatim into Record.Extra.
var extraKeys = []string{
	"type_flag", "wear_flags", "item_flags", "extra_flags", "affs", "applys",
	"min_level", "guild_rests", "v0", "v1", "v2", "v3", "weight", "cost",
	"level", "alignment", "race", "sex", "mob_flags", "repops", "inventory", "equipment", "spec_proc",
	"room_flags", "sector", "exits",
	"trigger_type", "type", "triggers", "code", "script",
	"cmd", "keywords", "parts",
	"keeper", "rooms",
	"top", "lifespan", "reset_mode", "flags", "plane", "corpse_room",
}

var lastEditedKeys = []string{"last_edited", "lastEdited", "last_edited_ts", "lastEditedTs"}

func ParseFile(kind world.Kind, path string, zoneHint int) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(kind, data, filepath.Base(path), zoneHint)
}

// Parse decodes one entity file. name is the file name, used as the vnum of
// last resort; zoneHint is the owning zone when the document names none.
func Parse(kind world.Kind, content []byte, name string, zoneHint int) (*Record, error) {
	doc, err := decode(content)
	if err != nil {
		return nil, err
	}

	vnumKeys := []string{"vnum", "id"}
	if kind == world.KindZone {
		vnumKeys = []string{"vnum", "zone", "id"}
	}
	vnum, ok := firstInt(doc, vnumKeys...)
	if !ok || vnum == 0 {
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		if n, stemOK := Int(stem); stemOK && (!ok || n != 0) {
			vnum, ok = n, true
		}
	}
	if !ok {
		return nil, ErrMissingVnum
	}

	zone := zoneHint
	if z, ok := Int(doc["zone"]); ok && z != 0 {
		zone = z
	}

	rec := &Record{
		Kind:       kind,
		Vnum:       vnum,
		Zone:       zone,
		LastEdited: firstString(doc, lastEditedKeys...),
		Extra:      make(map[string]any),
		Raw:        doc,
	}
	for _, key := range extraKeys {
		if v, ok := doc[key]; ok {
			rec.Extra[key] = v
		}
	}

	switch kind {
	case world.KindZone:
		rec.Name = text(doc["name"])
		rec.Data = parseZone(doc)
	case world.KindRoom:
		rec.Name = text(doc["name"])
		rec.Data = parseRoom(doc)
	case world.KindMobile:
		rec.Keywords = text(doc["name"])
		rec.ShortDescr = firstString(doc, "short_descr", "short_desc", "shortDesc")
		if rec.ShortDescr == "" {
			rec.ShortDescr = firstString(doc, "long_descr", "longDesc")
		}
		rec.Name = firstNonEmpty(rec.ShortDescr, rec.Keywords)
		rec.Data = parseMobile(doc)
	case world.KindObject:
		rec.Keywords = text(doc["name"])
		rec.ShortDescr = firstString(doc, "short_desc", "short_descr", "shortDesc")
		rec.Name = firstNonEmpty(rec.ShortDescr, rec.Keywords)
		rec.Data = parseObject(doc)
	case world.KindScript:
		rec.Name = firstString(doc, "name", "title")
		rec.Data = &Script{Code: firstString(doc, "code", "script")}
	case world.KindAssemble:
		rec.Keywords = joinKeywords(doc["keywords"])
		rec.Name = firstNonEmpty(rec.Keywords, text(doc["name"]))
		rec.Data = parseAssemble(doc, vnum)
	case world.KindShop:
		rec.Name = fmt.Sprintf("Shop %d", vnum)
		rec.Data = &Shop{Keeper: intPtr(doc["keeper"]), Rooms: intList(doc["rooms"])}
	default:
		return nil, fmt.Errorf("unknown entity kind: %q", kind)
	}

	return rec, nil
}

func decode(content []byte) (map[string]any, error) {
	content = bytes.TrimPrefix(content, []byte("\ufeff"))
	dec := json.NewDecoder(bytes.NewReader(content))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after document", ErrInvalidJSON)
	}
	doc, ok := v.(map[string]any)
	if !ok {
		return nil, ErrNotObject
	}
	return doc, nil
}

func parseZone(doc map[string]any) *Zone {
	z := &Zone{Name: text(doc["name"]), Top: intPtr(doc["top"])}
	cmds, _ := doc["cmds"].([]any)
	for i, raw := range cmds {
		c, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		code, ok := c["cmd"].(string)
		if !ok || code == "" {
			continue
		}
		z.Commands = append(z.Commands, Command{
			Index:  i,
			Code:   code,
			Arg1:   intPtr(c["arg1"]),
			Arg2:   intPtr(c["arg2"]),
			Arg3:   intPtr(c["arg3"]),
			Prob:   intPtr(c["prob"]),
			IfFlag: intPtr(c["flag"]),
			Fields: c,
		})
	}
	return z
}

func parseRoom(doc map[string]any) *Room {
	r := &Room{Scripts: scriptRefs(doc["scripts"])}
	switch exits := doc["exits"].(type) {
	case map[string]any:
		for _, dir := range SortedKeys(exits) {
			ex, ok := exits[dir].(map[string]any)
			if !ok {
				continue
			}
			r.Exits = append(r.Exits, Exit{Dir: dir, To: exitTarget(ex), Fields: ex})
		}
	case []any:
		for _, raw := range exits {
			ex, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			r.Exits = append(r.Exits, Exit{
				Dir:    firstString(ex, "dir", "direction"),
				To:     exitTarget(ex),
				Fields: ex,
			})
		}
	}
	return r
}

func exitTarget(ex map[string]any) *int {
	n, ok := firstInt(ex, "to_room", "toRoom", "to")
	if !ok {
		return nil
	}
	return &n
}

func parseMobile(doc map[string]any) *Mobile {
	m := &Mobile{
		Scripts:   scriptRefs(doc["scripts"]),
		Inventory: intList(doc["inventory"]),
		SpecProc:  strings.TrimSpace(text(doc["spec_proc"])),
	}

	repops, _ := doc["repops"].([]any)
	for _, raw := range repops {
		r, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		cmd := firstString(r, "command", "cmd")
		vnum, ok := firstInt(r, "vnum", "arg1", "obj")
		if cmd == "" || !ok {
			continue
		}
		percent := 100
		if p, ok := Int(r["percent"]); ok {
			percent = p
		}
		m.Repops = append(m.Repops, Repop{Command: cmd, Vnum: vnum, Percent: percent, Fields: r})
	}

	equipment, _ := doc["equipment"].([]any)
	for _, raw := range equipment {
		if e, ok := raw.(map[string]any); ok {
			if vnum, ok := firstInt(e, "vnum", "obj", "id"); ok {
				m.Equipment = append(m.Equipment, Equip{Vnum: vnum, Fields: e})
			}
			continue
		}
		if vnum, ok := Int(raw); ok {
			m.Equipment = append(m.Equipment, Equip{Vnum: vnum})
		}
	}
	return m
}

var contentKeys = []string{"contains", "contents", "inventory", "items"}

func parseObject(doc map[string]any) *Object {
	o := &Object{Scripts: scriptRefs(doc["scripts"])}
	for _, key := range contentKeys {
		for _, vnum := range intList(doc[key]) {
			o.Contents = append(o.Contents, Content{Key: key, Vnum: vnum})
		}
	}
	return o
}

func parseAssemble(doc map[string]any, vnum int) *Assemble {
	a := &Assemble{Parts: intList(doc["parts"])}
	seen := map[int]bool{}
	for _, key := range []string{"result", "product", "produces"} {
		if n, ok := Int(doc[key]); ok && !seen[n] {
			seen[n] = true
			a.Results = append(a.Results, Product{Key: key, Vnum: n})
		}
	}
	if len(a.Results) == 0 {
		a.Results = []Product{{Key: "vnum", Vnum: vnum}}
	}
	return a
}

func joinKeywords(v any) string {
	switch x := v.(type) {
	case []any:
		words := make([]string, 0, len(x))
		for _, el := range x {
			if s := strings.TrimSpace(text(el)); s != "" {
				words = append(words, text(el))
			}
		}
		return strings.Join(words, " ")
	case string:
		return x
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
