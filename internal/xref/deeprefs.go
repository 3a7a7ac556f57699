package xref

import (
	"strconv"
	"strings"

	"mudgraph/internal/parser"
	"mudgraph/internal/world"
)

// GuessAny is the deep-reference guess for a key that names no entity kind.
const GuessAny = "any"

// keyKinds is checked in order; the first needle contained in the key wins.
var keyKinds = []struct {
	needle string
	kind   world.Kind
}{
	{"to_room", world.KindRoom},
	{"room", world.KindRoom},
	{"mob", world.KindMobile},
	{"mobile", world.KindMobile},
	{"npc", world.KindMobile},
	{"obj", world.KindObject},
	{"object", world.KindObject},
	{"item", world.KindObject},
	{"script", world.KindScript},
	{"trigger", world.KindScript},
	{"trig", world.KindScript},
	{"zone", world.KindZone},
}

// GuessKind guesses the entity kind an integer under key refers to.
func GuessKind(key string) string {
	k := strings.ToLower(key)
	for _, kk := range keyKinds {
		if strings.Contains(k, kk.needle) {
			return string(kk.kind)
		}
	}
	return GuessAny
}

type keyedInt struct {
	path  string
	key   string
	value int
}

// walkKeyedInts collects every integer-like value stored under a map key,
// including scalar list elements, in sorted key order.
func walkKeyedInts(v any) []keyedInt {
	var out []keyedInt
	walk(v, "", &out)
	return out
}

func walk(v any, prefix string, out *[]keyedInt) {
	switch x := v.(type) {
	case map[string]any:
		for _, key := range parser.SortedKeys(x) {
			kp := key
			if prefix != "" {
				kp = prefix + "." + key
			}
			switch child := x[key].(type) {
			case map[string]any:
				walk(child, kp, out)
			case []any:
				for i, el := range child {
					ep := kp + "[" + strconv.Itoa(i) + "]"
					switch el.(type) {
					case map[string]any, []any:
						walk(el, ep, out)
					default:
						if n, ok := parser.Int(el); ok {
							*out = append(*out, keyedInt{path: ep, key: key, value: n})
						}
					}
				}
			default:
				if n, ok := parser.Int(child); ok {
					*out = append(*out, keyedInt{path: kp, key: key, value: n})
				}
			}
		}
	case []any:
		for i, el := range x {
			walk(el, prefix+"["+strconv.Itoa(i)+"]", out)
		}
	}
}
