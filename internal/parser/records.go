package parser

import "mudgraph/internal/world"

// Variant is the kind-specific payload of a Record. The concrete type is one
// of *Zone, *Room, *Mobile, *Object, *Script, *Assemble or *Shop.
type Variant interface {
	Kind() world.Kind
}

type Zone struct {
	Name     string
	Top      *int
	Commands []Command
}

// Command is one raw reset command. Index is its position in the zone's
// command list, so skipped malformed entries leave gaps.
type Command struct {
	Index  int
	Code   string
	Arg1   *int
	Arg2   *int
	Arg3   *int
	Prob   *int
	IfFlag *int
	Fields map[string]any
}

type Room struct {
	Exits   []Exit
	Scripts []int
}

// Exit is one room exit. To is nil when the exit names no destination.
type Exit struct {
	Dir    string
	To     *int
	Fields map[string]any
}

type Mobile struct {
	Scripts   []int
	Repops    []Repop
	Inventory []int
	Equipment []Equip
	SpecProc  string
}

type Repop struct {
	Command string
	Vnum    int
	Percent int
	Fields  map[string]any
}

type Equip struct {
	Vnum   int
	Fields map[string]any
}

type Object struct {
	Scripts  []int
	Contents []Content
}

type Content struct {
	Key  string
	Vnum int
}

type Script struct {
	Code string
}

type Assemble struct {
	Parts   []int
	Results []Product
}

// Product is an object an assemble recipe yields. Key is the field that
// named it, or "vnum" when no result field is present and the recipe makes
// the object sharing its own vnum.
type Product struct {
	Key  string
	Vnum int
}

type Shop struct {
	Keeper *int
	Rooms  []int
}

func (*Zone) Kind() world.Kind     { return world.KindZone }
func (*Room) Kind() world.Kind     { return world.KindRoom }
func (*Mobile) Kind() world.Kind   { return world.KindMobile }
func (*Object) Kind() world.Kind   { return world.KindObject }
func (*Script) Kind() world.Kind   { return world.KindScript }
func (*Assemble) Kind() world.Kind { return world.KindAssemble }
func (*Shop) Kind() world.Kind     { return world.KindShop }
