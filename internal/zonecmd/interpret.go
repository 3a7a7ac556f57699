package zonecmd

import "mudgraph/internal/parser"

const DefaultProb = 100

type Event struct {
	Zone   int
	Index  int
	Code   string
	Op     Opcode
	Arg1   *int
	Arg2   *int
	Arg3   *int
	Prob   int
	IfFlag *int

	// Mobile is the mobile an equip or give applies to. NoMobileContext is
	// set instead when the command has no preceding mobile load.
	Mobile          *int
	NoMobileContext bool

	// ContainerRoom is the room holding the container, when a put follows
	// that container's room load or an attributed put of the container.
	ContainerRoom *int

	Fields map[string]any
}

// ObjectContext is the most recent object loaded into a room. Nested lists
// the objects put into it, directly or through other containers, since the load.
type ObjectContext struct {
	Vnum   int
	Room   *int
	Nested []int
}

func (o *ObjectContext) holds(vnum int) bool {
	if o.Vnum == vnum {
		return true
	}
	for _, v := range o.Nested {
		if v == vnum {
			return true
		}
	}
	return false
}

type Context struct {
	Mobile *int
	Object *ObjectContext
}

// Interpret folds a zone's commands into events, in order, and returns the
// context left after the last command.
func Interpret(zone int, cmds []parser.Command) ([]Event, Context) {
	events := make([]Event, 0, len(cmds))
	var ctx Context
	for _, cmd := range cmds {
		var ev Event
		ev, ctx = Step(ctx, zone, cmd)
		events = append(events, ev)
	}
	return events, ctx
}

// Step applies one command to ctx, returning its event and the next context.
func Step(ctx Context, zone int, cmd parser.Command) (Event, Context) {
	ev := Event{
		Zone:   zone,
		Index:  cmd.Index,
		Code:   cmd.Code,
		Op:     ParseOpcode(cmd.Code),
		Arg1:   cmd.Arg1,
		Arg2:   cmd.Arg2,
		Arg3:   cmd.Arg3,
		Prob:   clampProb(cmd.Prob),
		IfFlag: cmd.IfFlag,
		Fields: cmd.Fields,
	}
	s := &stepper{ctx: ctx}
	Dispatch(s, &ev)
	return ev, s.ctx
}

func clampProb(p *int) int {
	if p == nil {
		return DefaultProb
	}
	switch {
	case *p < 0:
		return 0
	case *p > 100:
		return 100
	}
	return *p
}

type stepper struct {
	ctx Context
}

func (s *stepper) LoadMobile(ev *Event) {
	s.ctx = Context{Mobile: ev.Arg1}
}

func (s *stepper) LoadObject(ev *Event) {
	s.ctx = Context{}
	if ev.Arg1 != nil {
		s.ctx.Object = &ObjectContext{Vnum: *ev.Arg1, Room: ev.Arg3}
	}
}

func (s *stepper) Equip(ev *Event) {
	s.attachToMobile(ev)
}

func (s *stepper) Give(ev *Event) {
	s.attachToMobile(ev)
}

func (s *stepper) attachToMobile(ev *Event) {
	if s.ctx.Mobile == nil {
		ev.NoMobileContext = true
	} else {
		mob := *s.ctx.Mobile
		ev.Mobile = &mob
	}
	s.ctx.Object = nil
}

func (s *stepper) Put(ev *Event) {
	s.ctx.Mobile = nil
	obj := s.ctx.Object
	if obj == nil || ev.Arg3 == nil || !obj.holds(*ev.Arg3) {
		return
	}
	ev.ContainerRoom = obj.Room
	if ev.Arg1 == nil || obj.holds(*ev.Arg1) {
		return
	}
	// Copy so the caller's context is left as it was.
	next := &ObjectContext{Vnum: obj.Vnum, Room: obj.Room, Nested: make([]int, len(obj.Nested), len(obj.Nested)+1)}
	copy(next.Nested, obj.Nested)
	next.Nested = append(next.Nested, *ev.Arg1)
	s.ctx.Object = next
}

func (s *stepper) Door(ev *Event)       { s.ctx = Context{} }
func (s *stepper) Remove(ev *Event)     { s.ctx = Context{} }
func (s *stepper) RandomExit(ev *Event) { s.ctx = Context{} }
func (s *stepper) Unknown(ev *Event)    { s.ctx = Context{} }
