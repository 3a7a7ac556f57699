package config

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

var ErrBadZoneSpec = errors.New("invalid zone spec")

// ZoneFilter selects zones by number. The zero value selects every zone.
type ZoneFilter struct {
	set map[int]struct{}
}

// ParseZoneSpec parses "134", "134,712" or "1-500,900,1000-1100".
func ParseZoneSpec(spec string) (ZoneFilter, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return ZoneFilter{}, nil
	}

	set := make(map[int]struct{})
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, isRange := strings.Cut(part, "-")
		if !isRange {
			n, err := strconv.Atoi(part)
			if err != nil || n < 0 {
				return ZoneFilter{}, fmt.Errorf("%w: %q", ErrBadZoneSpec, part)
			}
			set[n] = struct{}{}
			continue
		}
		a, errA := strconv.Atoi(strings.TrimSpace(lo))
		b, errB := strconv.Atoi(strings.TrimSpace(hi))
		if errA != nil || errB != nil || a < 0 || b < 0 {
			return ZoneFilter{}, fmt.Errorf("%w: %q", ErrBadZoneSpec, part)
		}
		if a > b {
			a, b = b, a
		}
		for z := a; z <= b; z++ {
			set[z] = struct{}{}
		}
	}
	if len(set) == 0 {
		return ZoneFilter{}, fmt.Errorf("%w: %q", ErrBadZoneSpec, spec)
	}
	return ZoneFilter{set: set}, nil
}

// NewZoneFilter selects exactly zones. No zones selects every zone.
func NewZoneFilter(zones ...int) ZoneFilter {
	if len(zones) == 0 {
		return ZoneFilter{}
	}
	set := make(map[int]struct{}, len(zones))
	for _, z := range zones {
		set[z] = struct{}{}
	}
	return ZoneFilter{set: set}
}

func (f ZoneFilter) All() bool {
	return len(f.set) == 0
}

func (f ZoneFilter) Contains(zone int) bool {
	if f.All() {
		return true
	}
	_, ok := f.set[zone]
	return ok
}

func (f ZoneFilter) Zones() []int {
	zones := make([]int, 0, len(f.set))
	for z := range f.set {
		zones = append(zones, z)
	}
	sort.Ints(zones)
	return zones
}

// String renders the filter in the syntax ParseZoneSpec accepts, with
// consecutive zones folded into ranges. The zero filter renders as "".
func (f ZoneFilter) String() string {
	zones := f.Zones()
	var parts []string
	for i := 0; i < len(zones); {
		j := i
		for j+1 < len(zones) && zones[j+1] == zones[j]+1 {
			j++
		}
		if j == i {
			parts = append(parts, strconv.Itoa(zones[i]))
		} else {
			parts = append(parts, strconv.Itoa(zones[i])+"-"+strconv.Itoa(zones[j]))
		}
		i = j + 1
	}
	return strings.Join(parts, ",")
}
