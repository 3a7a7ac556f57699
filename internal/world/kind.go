package world

import "fmt"

type Kind string

const (
	KindZone     Kind = "zone"
	KindRoom     Kind = "room"
	KindMobile   Kind = "mobile"
	KindObject   Kind = "object"
	KindScript   Kind = "script"
	KindAssemble Kind = "assemble"
	KindShop     Kind = "shop"
)

// EntityKinds lists the per-zone subdirectories in scan order. Zone files live
// at the zone directory root and are not included.
var EntityKinds = []Kind{KindRoom, KindObject, KindMobile, KindScript, KindAssemble, KindShop}

func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindZone, KindRoom, KindMobile, KindObject, KindScript, KindAssemble, KindShop:
		return k, nil
	}
	return "", fmt.Errorf("unknown entity kind: %q", s)
}

func (k Kind) String() string {
	return string(k)
}
