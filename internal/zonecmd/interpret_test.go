package zonecmd

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"

	"mudgraph/internal/parser"
)

func ip(n int) *int { return &n }

func cmd(idx int, code string, a1, a3 *int, prob *int) parser.Command {
	return parser.Command{Index: idx, Code: code, Arg1: a1, Arg3: a3, Prob: prob}
}

func TestInterpretEquipAfterMobile(t *testing.T) {
	cmds := []parser.Command{
		cmd(0, "M", ip(100), ip(150), ip(100)),
		cmd(1, "E", ip(200), ip(16), ip(50)),
	}
	events, final := Interpret(100, cmds)

	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	equip := events[1]
	if equip.Op != OpEquip || equip.Mobile == nil || *equip.Mobile != 100 || equip.NoMobileContext {
		t.Fatalf("unexpected equip event: %+v", equip)
	}
	if equip.Prob != 50 || equip.Zone != 100 {
		t.Fatalf("unexpected prob/zone: %+v", equip)
	}
	if final.Mobile == nil || *final.Mobile != 100 {
		t.Fatalf("expected mobile context to survive equip, got %+v", final)
	}
}

func TestInterpretNoMobileContext(t *testing.T) {
	cmds := []parser.Command{
		cmd(0, "G", ip(200), nil, nil),
		cmd(1, "M", ip(100), ip(150), nil),
		cmd(2, "O", ip(300), ip(150), nil),
		cmd(3, "Y", ip(201), nil, nil),
	}
	events, _ := Interpret(1, cmds)

	if !events[0].NoMobileContext || events[0].Mobile != nil {
		t.Fatalf("expected leading give without mobile context: %+v", events[0])
	}
	if !events[3].NoMobileContext {
		t.Fatalf("expected object load to clear mobile context: %+v", events[3])
	}
}

func TestInterpretIfFlagIsMetadata(t *testing.T) {
	cmds := []parser.Command{
		{Index: 0, Code: "M", Arg1: ip(100), Arg3: ip(150), IfFlag: ip(0)},
		{Index: 1, Code: "E", Arg1: ip(200), Arg3: ip(16), IfFlag: ip(1)},
		{Index: 2, Code: "G", Arg1: ip(201), IfFlag: ip(1)},
	}
	events, _ := Interpret(1, cmds)
	for _, ev := range events[1:] {
		if ev.Mobile == nil || *ev.Mobile != 100 {
			t.Fatalf("if_flag must not gate context: %+v", ev)
		}
		if ev.IfFlag == nil || *ev.IfFlag != 1 {
			t.Fatalf("expected if_flag preserved: %+v", ev)
		}
	}
}

func TestInterpretPutAttribution(t *testing.T) {
	cmds := []parser.Command{
		cmd(0, "O", ip(400), ip(150), nil),
		cmd(1, "P", ip(401), ip(400), nil),
		cmd(2, "Q", ip(402), ip(400), nil),
		cmd(3, "P", ip(403), ip(999), nil),
		cmd(4, "D", ip(150), nil, nil),
		cmd(5, "P", ip(404), ip(400), nil),
	}
	events, final := Interpret(1, cmds)

	for _, i := range []int{1, 2} {
		if events[i].ContainerRoom == nil || *events[i].ContainerRoom != 150 {
			t.Fatalf("event %d: expected container room 150, got %+v", i, events[i])
		}
	}
	if events[3].ContainerRoom != nil {
		t.Fatalf("expected no attribution for a different container: %+v", events[3])
	}
	if events[5].ContainerRoom != nil {
		t.Fatalf("expected door to clear object context: %+v", events[5])
	}
	if final.Mobile != nil || final.Object != nil {
		t.Fatalf("expected empty final context, got %+v", final)
	}
}

func TestInterpretNestedPutAttribution(t *testing.T) {
	cmds := []parser.Command{
		cmd(0, "O", ip(500), ip(150), nil),
		cmd(1, "P", ip(501), ip(500), nil),
		cmd(2, "P", ip(502), ip(501), nil),
		cmd(3, "P", ip(503), ip(500), nil),
		cmd(4, "P", ip(504), ip(502), nil),
		cmd(5, "P", ip(505), ip(999), nil),
	}
	events, final := Interpret(1, cmds)

	for _, i := range []int{1, 2, 3, 4} {
		if events[i].ContainerRoom == nil || *events[i].ContainerRoom != 150 {
			t.Fatalf("event %d: expected container room 150, got %+v", i, events[i])
		}
	}
	if events[5].ContainerRoom != nil {
		t.Fatalf("expected no attribution for an unplaced container: %+v", events[5])
	}
	if final.Object == nil || final.Object.Vnum != 500 {
		t.Fatalf("expected room container 500 in final context, got %+v", final.Object)
	}
	if diff := cmp.Diff([]int{501, 502, 503, 504}, final.Object.Nested); diff != "" {
		t.Fatalf("nested mismatch (-want +got):\n%s", diff)
	}
}

func TestStepPutLeavesInputContext(t *testing.T) {
	_, ctx := Step(Context{}, 1, cmd(0, "O", ip(500), ip(150), nil))
	_, next := Step(ctx, 1, cmd(1, "P", ip(501), ip(500), nil))
	if len(ctx.Object.Nested) != 0 {
		t.Fatalf("input context changed: %+v", ctx.Object)
	}
	if len(next.Object.Nested) != 1 || next.Object.Nested[0] != 501 {
		t.Fatalf("unexpected next context: %+v", next.Object)
	}
}

func TestInterpretPreservesOrderAndRows(t *testing.T) {
	cmds := []parser.Command{
		cmd(0, "M", ip(1), ip(2), nil),
		cmd(2, "?", nil, nil, ip(250)),
		cmd(5, "R", ip(2), ip(3), ip(-4)),
		cmd(7, "A", ip(2), nil, nil),
	}
	events, _ := Interpret(9, cmds)

	var got []string
	for _, ev := range events {
		got = append(got, ev.Code+":"+ev.Op.String())
	}
	want := []string{"M:load_mobile", "?:unknown", "R:remove", "A:random_exit"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
	if events[0].Prob != DefaultProb || events[1].Prob != 100 || events[2].Prob != 0 {
		t.Fatalf("unexpected probabilities: %d %d %d", events[0].Prob, events[1].Prob, events[2].Prob)
	}
	if events[1].Index != 2 || events[3].Index != 7 {
		t.Fatalf("expected source indexes preserved")
	}
}

// The mobile context is only ever set between a mobile load and the next
// command that is not an equip or give.
func TestMobileContextWindow(t *testing.T) {
	codes := []string{"M", "W", "O", "X", "E", "Z", "G", "Y", "P", "Q", "D", "R", "A", "?"}
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 500; trial++ {
		n := rng.Intn(40)
		cmds := make([]parser.Command, n)
		for i := range cmds {
			cmds[i] = cmd(i, codes[rng.Intn(len(codes))], ip(rng.Intn(50)), ip(rng.Intn(50)), nil)
		}

		var ctx Context
		inWindow := false
		for i, c := range cmds {
			var ev Event
			ev, ctx = Step(ctx, 1, c)
			switch ev.Op {
			case OpLoadMobile:
				inWindow = true
			case OpEquip, OpGive:
				if ev.NoMobileContext == inWindow {
					t.Fatalf("trial %d cmd %d: NoMobileContext=%v inside window=%v", trial, i, ev.NoMobileContext, inWindow)
				}
			default:
				inWindow = false
			}
			if (ctx.Mobile != nil) != inWindow {
				t.Fatalf("trial %d cmd %d (%s): mobile context %v, window %v", trial, i, c.Code, ctx.Mobile, inWindow)
			}
		}
	}
}

func TestParseOpcodeTable(t *testing.T) {
	tests := map[string]Opcode{
		"M": OpLoadMobile, "W": OpLoadMobile,
		"O": OpLoadObject, "X": OpLoadObject,
		"E": OpEquip, "Z": OpEquip,
		"G": OpGive, "Y": OpGive,
		"P": OpPut, "Q": OpPut,
		"D": OpDoor, "R": OpRemove, "A": OpRandomExit,
		"S": OpUnknown, "m": OpUnknown, "": OpUnknown,
	}
	for code, want := range tests {
		if got := ParseOpcode(code); got != want {
			t.Fatalf("ParseOpcode(%q) = %v, want %v", code, got, want)
		}
	}
}

type recordingVisitor struct {
	calls []string
}

func (r *recordingVisitor) LoadMobile(ev *Event) { r.calls = append(r.calls, "LoadMobile") }
func (r *recordingVisitor) LoadObject(ev *Event) { r.calls = append(r.calls, "LoadObject") }
func (r *recordingVisitor) Equip(ev *Event)      { r.calls = append(r.calls, "Equip") }
func (r *recordingVisitor) Give(ev *Event)       { r.calls = append(r.calls, "Give") }
func (r *recordingVisitor) Put(ev *Event)        { r.calls = append(r.calls, "Put") }
func (r *recordingVisitor) Door(ev *Event)       { r.calls = append(r.calls, "Door") }
func (r *recordingVisitor) Remove(ev *Event)     { r.calls = append(r.calls, "Remove") }
func (r *recordingVisitor) RandomExit(ev *Event) { r.calls = append(r.calls, "RandomExit") }
func (r *recordingVisitor) Unknown(ev *Event)    { r.calls = append(r.calls, "Unknown") }

func TestDispatchIsTotal(t *testing.T) {
	v := &recordingVisitor{}
	for op := OpUnknown; op <= OpRandomExit; op++ {
		Dispatch(v, &Event{Op: op})
	}
	Dispatch(v, &Event{Op: Opcode(200)})

	want := []string{"Unknown", "LoadMobile", "LoadObject", "Equip", "Give", "Put", "Door", "Remove", "RandomExit", "Unknown"}
	if diff := cmp.Diff(want, v.calls); diff != "" {
		t.Fatalf("dispatch mismatch (-want +got):\n%s", diff)
	}
}
