package zonecmd

// Opcode is the semantic class of a reset command. Several letters share a
// class (M and W both load a mobile).
type Opcode uint8

const (
	OpUnknown Opcode = iota
	OpLoadMobile
	OpLoadObject
	OpEquip
	OpGive
	OpPut
	OpDoor
	OpRemove
	OpRandomExit
)

var letters = map[string]Opcode{
	"M": OpLoadMobile,
	"W": OpLoadMobile,
	"O": OpLoadObject,
	"X": OpLoadObject,
	"E": OpEquip,
	"Z": OpEquip,
	"G": OpGive,
	"Y": OpGive,
	"P": OpPut,
	"Q": OpPut,
	"D": OpDoor,
	"R": OpRemove,
	"A": OpRandomExit,
}

// ParseOpcode maps a command letter to its class; unrecognized letters map
// to OpUnknown.
func ParseOpcode(code string) Opcode {
	if op, ok := letters[code]; ok {
		return op
	}
	return OpUnknown
}

func (op Opcode) String() string {
	switch op {
	case OpLoadMobile:
		return "load_mobile"
	case OpLoadObject:
		return "load_object"
	case OpEquip:
		return "equip"
	case OpGive:
		return "give"
	case OpPut:
		return "put"
	case OpDoor:
		return "door"
	case OpRemove:
		return "remove"
	case OpRandomExit:
		return "random_exit"
	default:
		return "unknown"
	}
}

// Visitor receives one call per event, selected by the event's Opcode.
// Adding an Opcode means adding a method here, which every consumer of the
// event stream must then implement.
type Visitor interface {
	LoadMobile(ev *Event)
	LoadObject(ev *Event)
	Equip(ev *Event)
	Give(ev *Event)
	Put(ev *Event)
	Door(ev *Event)
	Remove(ev *Event)
	RandomExit(ev *Event)
	Unknown(ev *Event)
}

func Dispatch(v Visitor, ev *Event) {
	switch ev.Op {
	case OpLoadMobile:
		v.LoadMobile(ev)
	case OpLoadObject:
		v.LoadObject(ev)
	case OpEquip:
		v.Equip(ev)
	case OpGive:
		v.Give(ev)
	case OpPut:
		v.Put(ev)
	case OpDoor:
		v.Door(ev)
	case OpRemove:
		v.Remove(ev)
	case OpRandomExit:
		v.RandomExit(ev)
	default:
		v.Unknown(ev)
	}
}
