package xref

import (
	"mudgraph/internal/store"
	"mudgraph/internal/world"
	"mudgraph/internal/zonecmd"
)

// eventEdges emits the edges implied by interpreted zone reset commands.
type eventEdges struct {
	*emitter
}

var _ zonecmd.Visitor = (*eventEdges)(nil)

func (b *eventEdges) LoadMobile(ev *zonecmd.Event) {
	if ev.Arg1 == nil {
		return
	}
	b.zoneLoad(ev, world.KindMobile, *ev.Arg1)
	if ev.Arg3 != nil {
		ctx := b.context(ev)
		if ev.Arg2 != nil {
			ctx["max"] = *ev.Arg2
		}
		b.emitFrom(ref(world.KindMobile, *ev.Arg1), world.KindRoom, *ev.Arg3, store.RelSpawnsIn, ctx)
	}
}

func (b *eventEdges) LoadObject(ev *zonecmd.Event) {
	if ev.Arg1 == nil {
		return
	}
	b.zoneLoad(ev, world.KindObject, *ev.Arg1)
	if ev.Arg3 != nil {
		b.emitFrom(ref(world.KindObject, *ev.Arg1), world.KindRoom, *ev.Arg3, store.RelLoadsIn, b.context(ev))
	}
}

func (b *eventEdges) Equip(ev *zonecmd.Event) {
	if ev.Arg1 == nil || ev.Mobile == nil {
		return
	}
	ctx := b.context(ev)
	if ev.Arg3 != nil {
		ctx["slot"] = *ev.Arg3
	}
	b.emitFrom(ref(world.KindObject, *ev.Arg1), world.KindMobile, *ev.Mobile, store.RelEquipsOn, ctx)
}

func (b *eventEdges) Give(ev *zonecmd.Event) {
	if ev.Arg1 == nil || ev.Mobile == nil {
		return
	}
	b.emitFrom(ref(world.KindObject, *ev.Arg1), world.KindMobile, *ev.Mobile, store.RelCarriedBy, b.context(ev))
}

func (b *eventEdges) Put(ev *zonecmd.Event) {
	if ev.Arg1 == nil || ev.Arg3 == nil {
		return
	}
	ctx := b.context(ev)
	if ev.ContainerRoom != nil {
		ctx["container_room"] = *ev.ContainerRoom
	}
	b.emitFrom(ref(world.KindObject, *ev.Arg1), world.KindObject, *ev.Arg3, store.RelContainedIn, ctx)
}

func (b *eventEdges) Door(ev *zonecmd.Event) {
	if ev.Arg1 == nil {
		return
	}
	ctx := b.context(ev)
	if ev.Arg2 != nil {
		ctx["dir"] = *ev.Arg2
	}
	if ev.Arg3 != nil {
		ctx["state"] = *ev.Arg3
	}
	b.emit(world.KindRoom, *ev.Arg1, store.RelDoor, ctx)
}

func (b *eventEdges) Remove(*zonecmd.Event)     {}
func (b *eventEdges) RandomExit(*zonecmd.Event) {}
func (b *eventEdges) Unknown(*zonecmd.Event)    {}

func (b *eventEdges) zoneLoad(ev *zonecmd.Event, kind world.Kind, vnum int) {
	ctx := map[string]any{"cmd": ev.Code, "idx": ev.Index}
	if ev.Arg3 != nil {
		ctx["room"] = *ev.Arg3
	}
	b.emit(kind, vnum, store.RelZoneLoad, ctx)
}

func (b *eventEdges) context(ev *zonecmd.Event) map[string]any {
	ctx := map[string]any{"cmd": ev.Code, "idx": ev.Index, "prob": ev.Prob}
	if ev.IfFlag != nil {
		ctx["if_flag"] = *ev.IfFlag
	}
	return ctx
}

func ref(kind world.Kind, vnum int) store.EntityRef {
	return store.EntityRef{Kind: kind, Vnum: vnum}
}
